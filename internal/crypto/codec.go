package crypto

import (
	"crypto/rand"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrNoCredentials is returned when a base64url-decoded Authorization
// header decodes to an empty payload — the client sent nothing usable.
var ErrNoCredentials = errors.New("No credentials received")

// SHA512Hex returns the lowercase hex SHA-512 digest of s.
func SHA512Hex(s string) string {
	sum := sha512.Sum512([]byte(s))
	return hex.EncodeToString(sum[:])
}

// HexEncode encodes s as a sequence of \uXXXX escapes, one per Unicode
// scalar value, joined by the literal token "\u" (not a JSON-style
// backslash-u escape — a plain two-character separator). This is the
// wire format the RuStream login challenge hexes usernames/passwords
// with; it is not the same transform as encoding/hex.
func HexEncode(s string) string {
	runes := []rune(s)
	parts := make([]string, len(runes))
	for i, r := range runes {
		parts[i] = fmt.Sprintf("%04x", uint32(r))
	}
	return "\\u" + strings.Join(parts, "\\u")
}

// HexDecode inverts HexEncode. An empty s, or an s holding only the
// "\u" prefix with no tokens (HexEncode's output for ""), both decode
// to "".
func HexDecode(s string) (string, error) {
	if s == "" {
		return "", nil
	}
	rest := strings.TrimPrefix(s, "\\u")
	if rest == s {
		return "", fmt.Errorf("malformed hex payload %q: missing \\u prefix", s)
	}
	if rest == "" {
		return "", nil
	}

	var b strings.Builder
	for _, tok := range strings.Split(rest, "\\u") {
		if len(tok) != 4 {
			return "", fmt.Errorf("malformed hex token %q", tok)
		}
		v, err := strconv.ParseUint(tok, 16, 32)
		if err != nil {
			return "", fmt.Errorf("malformed hex token %q: %w", tok, err)
		}
		b.WriteRune(rune(v))
	}
	return b.String(), nil
}

// Base64URLDecode decodes s using the RFC 4648 URL-safe alphabet. An empty
// decoded payload is treated as "no credentials" per the login protocol.
func Base64URLDecode(s string) (string, error) {
	decoded, err := base64.URLEncoding.DecodeString(s)
	if err != nil {
		// Some clients omit padding; retry with the raw (unpadded) variant
		// before giving up, same tolerance browsers' btoa/atob pairings need.
		decoded, err = base64.RawURLEncoding.DecodeString(s)
		if err != nil {
			return "", err
		}
	}
	if len(decoded) == 0 {
		return "", ErrNoCredentials
	}
	return string(decoded), nil
}

// Base64URLEncode is the encoding counterpart, used by tests and by any
// client-side tooling shipped alongside the server.
func Base64URLEncode(s string) string {
	return base64.URLEncoding.EncodeToString([]byte(s))
}

const keygenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_-"

// Keygen returns a 64-character string drawn uniformly from
// [A-Za-z0-9_-], suitable as an opaque per-login session key.
func Keygen() (string, error) {
	b := make([]byte, 64)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	out := make([]byte, 64)
	for i, v := range b {
		out[i] = keygenAlphabet[int(v)%len(keygenAlphabet)]
	}
	return string(out), nil
}
