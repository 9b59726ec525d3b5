package server

import "net/http"

// Settings is the singleton of round defaults, keyed by question type.
type Settings struct {
	DefaultPoints   map[string]int  `json:"defaultPoints"`
	NegativeMarking map[string]bool `json:"negativeMarking"`
	TimerSeconds    map[string]int  `json:"timerSeconds"`
}

func defaultSettings() Settings {
	return Settings{
		DefaultPoints: map[string]int{
			"mcq": 10, "media": 10, "buzzer": 15,
			"rapid_fire": 5, "sequence": 15, "visual_rapid_fire": 5,
		},
		NegativeMarking: map[string]bool{
			"mcq": false, "media": false, "buzzer": true,
			"rapid_fire": false, "sequence": false, "visual_rapid_fire": false,
		},
		TimerSeconds: map[string]int{
			"mcq": 30, "media": 45, "buzzer": 15,
			"rapid_fire": 60, "sequence": 45, "visual_rapid_fire": 60,
		},
	}
}

func (s *Settings) validate() string {
	for name, m := range map[string]map[string]int{"defaultPoints": s.DefaultPoints, "timerSeconds": s.TimerSeconds} {
		for key, v := range m {
			if v < 0 {
				return name + "." + key + " must not be negative"
			}
		}
	}
	return ""
}

func handleGetSettings(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		settings, err := store.GetSettings(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, settings)
	}
}

func handleUpdateSettings(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req Settings
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if msg := req.validate(); msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}

		settings, err := store.UpdateSettings(r.Context(), req)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, settings)
	}
}
