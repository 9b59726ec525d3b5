// Package bracket holds the competition bracket rules: stage enums,
// cutoff/tie resolution, group partitioning, and question sampling.
// It has zero external dependencies — everything here is pure Go.
package bracket

import "math/rand"

type Stage string

const (
	StageGroup     Stage = "group"
	StageSemiFinal Stage = "semi_final"
	StageFinal     Stage = "final"
)

type CompetitionStatus string

const (
	StatusDraft     CompetitionStatus = "draft"
	StatusOngoing   CompetitionStatus = "ongoing"
	StatusCompleted CompetitionStatus = "completed"
)

type TeamStage string

const (
	TeamStageGroup      TeamStage = "group"
	TeamStageSemiFinal  TeamStage = "semi_final"
	TeamStageFinal      TeamStage = "final"
	TeamStageEliminated TeamStage = "eliminated"
)

type QuestionType string

const (
	TypeMCQ             QuestionType = "mcq"
	TypeMedia           QuestionType = "media"
	TypeBuzzer          QuestionType = "buzzer"
	TypeRapidFire       QuestionType = "rapid_fire"
	TypeSequence        QuestionType = "sequence"
	TypeVisualRapidFire QuestionType = "visual_rapid_fire"
)

type Phase string

const (
	PhaseLeague     Phase = "league"
	PhaseSemiFinal  Phase = "semi_final"
	PhaseFinal      Phase = "final"
	PhaseTieBreaker Phase = "tie_breaker"
)

const (
	// CompetitionSize is the number of teams a competition starts with:
	// six groups of three.
	CompetitionSize = 18
	// GroupSize is the fixed team count per group at every stage.
	GroupSize = 3
	// SemiFinalSize and FinalSize are the cutoff counts when advancing.
	SemiFinalSize = 9
	FinalSize     = 3
)

func ValidQuestionType(t QuestionType) bool {
	switch t {
	case TypeMCQ, TypeMedia, TypeBuzzer, TypeRapidFire, TypeSequence, TypeVisualRapidFire:
		return true
	}
	return false
}

func ValidPhase(p Phase) bool {
	switch p {
	case PhaseLeague, PhaseSemiFinal, PhaseFinal:
		return true
	}
	return false
}

// RequiredTeams returns how many teams must be resolved to enter stage.
func RequiredTeams(s Stage) int {
	if s == StageFinal {
		return FinalSize
	}
	return SemiFinalSize
}

// Standing is one row of a competition's ranking, ordered by
// descending score with ties in a stable, arbitrary order.
type Standing struct {
	TeamID string `json:"teamId"`
	Name   string `json:"name"`
	Score  int    `json:"score"`
}

// Resolution is the outcome of a cutoff check. When Clean, Selected
// holds exactly the top n standings. Otherwise Tied holds every team
// sharing the boundary score, Advancing holds the teams strictly above
// it, and OpenSlots is how many of the n places remain undecided.
type Resolution struct {
	Clean     bool
	Selected  []Standing
	Tied      []Standing
	Advancing []Standing
	OpenSlots int
}

// ResolveCutoff decides whether the boundary at rank n is clean or
// contested. ranked must already be sorted by descending score. A tie
// blocks automatic selection only when the equal-score band straddles
// the cutoff: its first member sits above rank n and its last sits at
// or below it. Ties entirely above or entirely below the cut are fine.
func ResolveCutoff(ranked []Standing, n int) Resolution {
	if n <= 0 || len(ranked) < n {
		return Resolution{Clean: true, Selected: append([]Standing(nil), ranked...)}
	}

	boundary := ranked[n-1].Score

	first, last := -1, -1
	for i, s := range ranked {
		if s.Score == boundary {
			if first == -1 {
				first = i
			}
			last = i
		}
	}

	if first < n && last >= n {
		var tied, above []Standing
		for _, s := range ranked {
			switch {
			case s.Score == boundary:
				tied = append(tied, s)
			case s.Score > boundary:
				above = append(above, s)
			}
		}
		return Resolution{
			Tied:      tied,
			Advancing: above,
			OpenSlots: n - len(above),
		}
	}

	return Resolution{Clean: true, Selected: append([]Standing(nil), ranked[:n]...)}
}

// Partition slices ids into consecutive groups of size. The last group
// is short if len(ids) is not a multiple of size; callers enforce
// exact multiples at their entry points.
func Partition(ids []string, size int) [][]string {
	if size <= 0 {
		return nil
	}
	var groups [][]string
	for len(ids) > 0 {
		n := size
		if n > len(ids) {
			n = len(ids)
		}
		groups = append(groups, ids[:n:n])
		ids = ids[n:]
	}
	return groups
}

// Sample returns up to n elements of ids chosen uniformly at random
// without replacement. ids is not modified. The rand source is
// injected so callers can make selection deterministic in tests.
func Sample(rnd *rand.Rand, ids []string, n int) []string {
	if n >= len(ids) {
		out := append([]string(nil), ids...)
		rnd.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
		return out
	}
	out := append([]string(nil), ids...)
	for i := 0; i < n; i++ {
		j := i + rnd.Intn(len(out)-i)
		out[i], out[j] = out[j], out[i]
	}
	return out[:n:n]
}
