package server_test

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rustream/server/internal/auth"
	"github.com/rustream/server/internal/config"
	"github.com/rustream/server/internal/content"
	"github.com/rustream/server/internal/crypto"
	"github.com/rustream/server/internal/server"
	"github.com/rustream/server/internal/session"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testHarness bundles a *server.Server wired with a real authenticator,
// session store and walker over a throwaway media directory (the optional
// cache, audit, metrics and limiter collaborators are left nil), and the session store /
// authenticator needed to mint valid requests in tests.
type testHarness struct {
	t       *testing.T
	mediaRoot string
	cfg     *config.Config
	authn   *auth.Authenticator
	store   *session.Store
	mux     http.Handler
}

func newHarness(t *testing.T) *testHarness {
	t.Helper()
	root := t.TempDir()

	cfg := &config.Config{
		Authorization:   map[string]string{"alice": "password123"},
		MediaSource:     root,
		SessionDuration: 3600,
		MaxPayloadSize:  10 << 20,
		FileFormats:     map[string]struct{}{"mp4": {}, "jpg": {}},
	}

	store := session.New()
	cipher, err := crypto.NewSymmetric()
	if err != nil {
		t.Fatalf("NewSymmetric: %v", err)
	}
	authn := auth.New(cfg, store, cipher, auth.NewLockout(nil))
	walker := content.NewWalker(cfg.MediaSource, cfg.FileFormats)

	srv := server.New(server.Deps{
		Config: cfg,
		Logger: discardLogger(),
		Authn:  authn,
		Store:  store,
		Walker: walker,
	})

	return &testHarness{
		t:         t,
		mediaRoot: root,
		cfg:       cfg,
		authn:     authn,
		store:     store,
		mux:       srv.Routes(),
	}
}

// loginHeader builds a valid two-phase Authorization header for username,
// the same hex/signature/base64url shape internal/auth verifies.
func loginHeader(username, password string, ts time.Time) string {
	hu := crypto.HexEncode(username)
	hp := crypto.HexEncode(password)
	tsStr := fmt.Sprintf("%d", ts.Unix())
	sig := crypto.SHA512Hex(hu + hp + tsStr)
	return crypto.Base64URLEncode(hu + "," + sig + "," + tsStr)
}

// loginAs drives POST /login through the harness's mux and returns the
// minted session_token cookie for use in subsequent requests.
func (h *testHarness) loginAs(username, password string) *http.Cookie {
	h.t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.Header.Set("Authorization", loginHeader(username, password, time.Now()))
	rec := httptest.NewRecorder()
	h.mux.ServeHTTP(rec, req)

	res := rec.Result()
	if res.StatusCode != http.StatusOK {
		h.t.Fatalf("login failed: status %d body %s", res.StatusCode, rec.Body.String())
	}
	for _, c := range res.Cookies() {
		if c.Name == "session_token" {
			return c
		}
	}
	h.t.Fatal("login response carried no session_token cookie")
	return nil
}

func (h *testHarness) writeFile(relPath, body string) string {
	h.t.Helper()
	full := filepath.Join(h.mediaRoot, relPath)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		h.t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(full, []byte(body), 0o644); err != nil {
		h.t.Fatalf("write file: %v", err)
	}
	return full
}

func (h *testHarness) authedRequest(method, target string, cookie *http.Cookie) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	req.AddCookie(cookie)
	return req
}
