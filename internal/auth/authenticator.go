package auth

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/rustream/server/internal/apperr"
	"github.com/rustream/server/internal/config"
	"github.com/rustream/server/internal/crypto"
	"github.com/rustream/server/internal/session"
)

// secureIndexSuffix is a package-local alias of config.SecureIndexSuffix,
// used by VerifySecureIndex.
const secureIndexSuffix = config.SecureIndexSuffix

// LoginResult is the data verify_login produces on success: what the
// handler needs to mint a session cookie.
type LoginResult struct {
	Username  string
	Key       string
	Timestamp string
}

// cookiePayload is the exact JSON shape stored, encrypted, in the
// session_token cookie.
type cookiePayload struct {
	Username  string `json:"username"`
	Key       string `json:"key"`
	Timestamp string `json:"timestamp"`
}

// TokenResult is the AuthToken spec.md §3 names.
type TokenResult struct {
	OK           bool
	Detail       string
	Username     string
	TimeLeftSecs int64
}

// Authenticator implements the login challenge, session mint/verify, and
// secure-index access checks against a Store and a Symmetric cookie cipher.
type Authenticator struct {
	cfg     *config.Config
	store   *session.Store
	cipher  *crypto.Symmetric
	lockout *Lockout
}

func New(cfg *config.Config, store *session.Store, cipher *crypto.Symmetric, lockout *Lockout) *Authenticator {
	return &Authenticator{cfg: cfg, store: store, cipher: cipher, lockout: lockout}
}

// VerifyLogin implements spec.md §4.4's verify_login over a raw
// Authorization header value (scheme prefix, if any, already stripped by
// the caller — the value is treated as an opaque blob).
func (a *Authenticator) VerifyLogin(ctx context.Context, rawHeader string) (*LoginResult, error) {
	decoded, err := crypto.Base64URLDecode(rawHeader)
	if err != nil {
		if err == crypto.ErrNoCredentials {
			return nil, apperr.BadCredentials("No credentials received")
		}
		return nil, apperr.BadCredentials("Server was unable to decrypt the credentials")
	}

	fields := strings.SplitN(decoded, ",", 3)
	if len(fields) != 3 {
		return nil, apperr.BadCredentials("No credentials received")
	}
	hexUsername, clientSignature, clientTimestamp := fields[0], fields[1], fields[2]

	username, err := crypto.HexDecode(hexUsername)
	if err != nil {
		return nil, apperr.BadCredentials("Server was unable to decrypt the credentials")
	}

	if a.lockout != nil {
		if locked, _ := a.lockout.IsLockedOut(ctx, username); locked {
			return nil, apperr.BadCredentials("Too many failed attempts; account temporarily locked")
		}
	}

	password, ok := a.cfg.Authorization[username]
	if !ok {
		slog.WarnContext(ctx, "login attempt for unknown user", slog.String("username", username))
		a.recordFailure(ctx, username)
		return nil, apperr.BadCredentials("Incorrect username or password")
	}

	// client_signature is always sha512_hex(hex_encode(username) ++
	// hex_encode(password) ++ client_timestamp), whether or not password
	// is stored Argon2id-hashed at rest: a hashed entry's PHC string is
	// the literal wire credential a client signs with, same as a
	// plaintext entry's password would be. Argon2id only obscures the
	// byte pattern an operator reading the config file sees; it cannot
	// protect the value from the wire challenge itself, because the
	// signature can only be verified against the same bytes the server
	// holds, and a one-way hash can't be un-hashed to recover a
	// different, shorter plaintext the hash was derived from.
	expected := crypto.SHA512Hex(crypto.HexEncode(username) + crypto.HexEncode(password) + clientTimestamp)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(clientSignature)) != 1 {
		a.recordFailure(ctx, username)
		return nil, apperr.BadCredentials("Incorrect username or password")
	}

	key, err := crypto.Keygen()
	if err != nil {
		return nil, apperr.Internal("failed to mint session key", err)
	}
	a.store.Mint(username, key)
	if a.lockout != nil {
		a.lockout.ClearFailures(ctx, username)
	}

	return &LoginResult{Username: username, Key: key, Timestamp: clientTimestamp}, nil
}

func (a *Authenticator) recordFailure(ctx context.Context, username string) {
	if a.lockout != nil {
		if err := a.lockout.RecordFailedAttempt(ctx, username); err != nil {
			slog.WarnContext(ctx, "lockout tracking unavailable", slog.String("error", err.Error()))
		}
	}
}

// MintCookie serializes a LoginResult into the encrypted session_token
// cookie value.
func (a *Authenticator) MintCookie(res *LoginResult) (string, error) {
	payload := cookiePayload{Username: res.Username, Key: res.Key, Timestamp: res.Timestamp}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", apperr.Internal("failed to serialize session", err)
	}
	token, err := a.cipher.Encrypt(raw)
	if err != nil {
		return "", apperr.Internal("failed to encrypt session", err)
	}
	return token, nil
}

// VerifyToken implements spec.md §4.4's verify_token over a raw
// session_token cookie value (empty string if the cookie was absent).
func (a *Authenticator) VerifyToken(cookieValue string) TokenResult {
	if a.store.IsEmpty() {
		return TokenResult{OK: false, Detail: "Server doesn't recognize your session", Username: "NA"}
	}
	if cookieValue == "" {
		return TokenResult{OK: false, Detail: "Session information not found", Username: "NA"}
	}

	raw, err := a.cipher.Decrypt(cookieValue)
	if err != nil {
		return TokenResult{OK: false, Detail: "Invalid session token", Username: "NA"}
	}

	var payload cookiePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return TokenResult{OK: false, Detail: "Invalid session token", Username: "NA"}
	}

	timestamp, err := strconv.ParseInt(payload.Timestamp, 10, 64)
	if err != nil {
		return TokenResult{OK: false, Detail: "Invalid session token", Username: "NA"}
	}

	stored, ok := a.store.Key(payload.Username)
	if !ok || stored != payload.Key {
		return TokenResult{OK: false, Detail: "Invalid session token", Username: "NA"}
	}

	age := time.Now().Unix() - timestamp
	if age > a.cfg.SessionDuration {
		return TokenResult{OK: false, Detail: "Session Expired", Username: payload.Username}
	}

	timeLeft := a.cfg.SessionDuration - age
	return TokenResult{
		OK:           true,
		Detail:       fmt.Sprintf("Session valid for %ds", timeLeft),
		Username:     payload.Username,
		TimeLeftSecs: timeLeft,
	}
}

// VerifySecureIndex implements spec.md §4.4's secure-index access check.
// path is a slash-separated relative path under media_source.
func VerifySecureIndex(path, username string) bool {
	expected := config.SecureIndexName(username)
	for _, part := range strings.Split(filepathClean(path), "/") {
		if strings.HasSuffix(part, secureIndexSuffix) {
			return part == expected
		}
	}
	return true
}

// filepathClean normalizes separators and strips "." segments without
// pulling in path/filepath's OS-specific behavior — secure-index checks
// operate on URL-style forward-slash paths regardless of host OS.
func filepathClean(path string) string {
	parts := strings.Split(strings.ReplaceAll(path, "\\", "/"), "/")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" || p == "." {
			continue
		}
		out = append(out, p)
	}
	return strings.Join(out, "/")
}
