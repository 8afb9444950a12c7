package server_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHealthHandler(t *testing.T) {
	h := newHarness(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d", rec.Code)
	}
	var body string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body != "Healthy" {
		t.Errorf("got body %q", body)
	}
}

func TestIndexHandler(t *testing.T) {
	h := newHarness(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("got content-type %q", ct)
	}
}

func TestLoginHandler_Success(t *testing.T) {
	h := newHarness(t)
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.Header.Set("Authorization", loginHeader("alice", "password123", time.Now()))
	rec := httptest.NewRecorder()
	h.mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d body %s", rec.Code, rec.Body.String())
	}

	var found bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == "session_token" && c.Value != "" {
			found = true
			if !c.HttpOnly {
				t.Error("session_token cookie must be HttpOnly")
			}
			if c.SameSite != http.SameSiteStrictMode {
				t.Error("session_token cookie must be SameSite=Strict")
			}
		}
	}
	if !found {
		t.Fatal("no session_token cookie set")
	}
}

func TestLoginHandler_WrongPassword(t *testing.T) {
	h := newHarness(t)
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.Header.Set("Authorization", loginHeader("alice", "wrongpassword", time.Now()))
	rec := httptest.NewRecorder()
	h.mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("got status %d, want 401", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["detail"] == "" {
		t.Error("expected a non-empty detail message")
	}
}

func TestLogoutHandler_ValidSession(t *testing.T) {
	h := newHarness(t)
	cookie := h.loginAs("alice", "password123")

	req := h.authedRequest(http.MethodGet, "/logout", cookie)
	rec := httptest.NewRecorder()
	h.mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d", rec.Code)
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == "session_token" && c.MaxAge >= 0 {
			t.Error("expected session_token cookie to be cleared (MaxAge < 0)")
		}
	}
}

func TestLogoutHandler_DoesNotRevokeOtherDeviceSessions(t *testing.T) {
	h := newHarness(t)
	cookie := h.loginAs("alice", "password123")

	// A second device holding the same session_token (same underlying
	// session key, since the store mints one key per username) logs out
	// first; the other device's cookie must still authenticate afterward.
	logoutReq := h.authedRequest(http.MethodGet, "/logout", cookie)
	logoutRec := httptest.NewRecorder()
	h.mux.ServeHTTP(logoutRec, logoutReq)
	if logoutRec.Code != http.StatusOK {
		t.Fatalf("logout: got status %d", logoutRec.Code)
	}

	homeReq := h.authedRequest(http.MethodGet, "/home", cookie)
	homeRec := httptest.NewRecorder()
	h.mux.ServeHTTP(homeRec, homeReq)
	if homeRec.Code != http.StatusOK {
		t.Fatalf("expected the other device's session to still be valid after logout, got status %d", homeRec.Code)
	}
}

func TestLogoutHandler_NoSession(t *testing.T) {
	h := newHarness(t)
	req := httptest.NewRequest(http.MethodGet, "/logout", nil)
	rec := httptest.NewRecorder()
	h.mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200 even when not logged in", rec.Code)
	}
}
