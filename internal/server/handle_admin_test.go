package server

import (
	"net/http"
	"testing"
)

func TestAdminLoginGoodCredentials(t *testing.T) {
	r, _, _ := testRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/admin/login",
		AdminLoginRequest{Email: testAdminEmail, Password: testAdminPassword}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	resp := decodeBody[AdminMeResponse](t, w)
	if resp.Email != testAdminEmail {
		t.Errorf("expected email %q, got %q", testAdminEmail, resp.Email)
	}

	found := false
	for _, c := range w.Result().Cookies() {
		if c.Name == adminCookieName && c.Value != "" {
			found = true
		}
	}
	if !found {
		t.Error("expected admin_session cookie to be set")
	}
}

func TestAdminLoginBadCredentials(t *testing.T) {
	r, _, _ := testRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/admin/login",
		AdminLoginRequest{Email: testAdminEmail, Password: "wrong"}, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestAdminLoginUnknownEmail(t *testing.T) {
	r, _, _ := testRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/admin/login",
		AdminLoginRequest{Email: "nobody@example.com", Password: testAdminPassword}, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestAdminMeAuthenticated(t *testing.T) {
	r, _, login := testRouter(t)
	cookies := login()

	w := doJSON(t, r, http.MethodGet, "/api/admin/me", nil, cookies)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	resp := decodeBody[AdminMeResponse](t, w)
	if resp.Email != testAdminEmail {
		t.Errorf("expected email %q, got %q", testAdminEmail, resp.Email)
	}
}

func TestAdminMeUnauthenticated(t *testing.T) {
	r, _, _ := testRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/admin/me", nil, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	r, _, _ := testRouter(t)

	for _, path := range []string{"/api/schools", "/api/teams", "/api/questions", "/api/competitions", "/api/settings"} {
		w := doJSON(t, r, http.MethodGet, path, nil, nil)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("GET %s: expected 401, got %d", path, w.Code)
		}
	}
}

func TestAdminLogoutInvalidatesSession(t *testing.T) {
	r, _, login := testRouter(t)
	cookies := login()

	w := doJSON(t, r, http.MethodPost, "/api/admin/logout", nil, cookies)
	if w.Code != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", w.Code)
	}

	// The old cookie is no longer accepted.
	w = doJSON(t, r, http.MethodGet, "/api/admin/me", nil, cookies)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", w.Code)
	}
}

func TestSeedAdminIsIdempotent(t *testing.T) {
	_, store, _ := testRouter(t)

	// testRouter already seeded once; a second run must not add another.
	if err := SeedAdmin(t.Context(), discardLogger(), store, "other@quizbowl.local", "secret"); err != nil {
		t.Fatalf("reseeding: %v", err)
	}
	count, err := store.CountAdmins(t.Context())
	if err != nil {
		t.Fatalf("counting admins: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 admin, got %d", count)
	}
}
