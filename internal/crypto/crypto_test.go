package crypto_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/rustream/server/internal/crypto"
)

func TestSymmetric_RoundTrip(t *testing.T) {
	sym, err := crypto.NewSymmetric()
	if err != nil {
		t.Fatalf("NewSymmetric failed: %v", err)
	}

	token, err := sym.Encrypt([]byte(`{"username":"alice"}`))
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if strings.ContainsAny(token, "+/") {
		t.Error("token is not URL-safe")
	}

	plain, err := sym.Decrypt(token)
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	if string(plain) != `{"username":"alice"}` {
		t.Errorf("unexpected plaintext: %s", plain)
	}
}

func TestSymmetric_TamperedTokenRejected(t *testing.T) {
	sym, _ := crypto.NewSymmetric()
	token, _ := sym.Encrypt([]byte("hello"))

	tampered := "A" + token[1:]
	if _, err := sym.Decrypt(tampered); err == nil {
		t.Error("expected decrypt of tampered token to fail")
	}
}

func TestSymmetric_DifferentKeysCannotCrossDecrypt(t *testing.T) {
	symA, _ := crypto.NewSymmetric()
	symB, _ := crypto.NewSymmetric()

	token, _ := symA.Encrypt([]byte("hello"))
	if _, err := symB.Decrypt(token); err == nil {
		t.Error("expected decrypt with a different key to fail")
	}
}

func TestHexEncodeDecode_RoundTrip(t *testing.T) {
	cases := []string{"alice", "pw12345678", "", "héllo wörld", "日本語"}
	for _, s := range cases {
		encoded := crypto.HexEncode(s)
		decoded, err := crypto.HexDecode(encoded)
		if err != nil {
			t.Fatalf("HexDecode(%q) failed: %v", encoded, err)
		}
		if decoded != s {
			t.Errorf("round trip mismatch: got %q, want %q", decoded, s)
		}
	}
}

func TestHexEncode_FourHexDigitsPerRune(t *testing.T) {
	encoded := crypto.HexEncode("a")
	if !strings.HasPrefix(encoded, `\u`) || len(encoded) != 6 {
		t.Errorf("expected a 4-hex-digit escape prefixed by \\u, got %q", encoded)
	}
}

func TestBase64URLDecode_EmptyYieldsNoCredentials(t *testing.T) {
	_, err := crypto.Base64URLDecode("")
	if err != crypto.ErrNoCredentials {
		t.Errorf("expected ErrNoCredentials, got %v", err)
	}
}

func TestBase64URLDecode_RoundTrip(t *testing.T) {
	original := "alice,deadbeef,1700000000"
	encoded := crypto.Base64URLEncode(original)
	decoded, err := crypto.Base64URLDecode(encoded)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded != original {
		t.Errorf("got %q, want %q", decoded, original)
	}
}

func TestKeygen_LengthAndAlphabet(t *testing.T) {
	key, err := crypto.Keygen()
	if err != nil {
		t.Fatalf("Keygen failed: %v", err)
	}
	if utf8.RuneCountInString(key) != 64 {
		t.Errorf("expected 64-char key, got %d", len(key))
	}
	for _, r := range key {
		valid := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == '-'
		if !valid {
			t.Errorf("unexpected character %q in keygen output", r)
		}
	}
}

func TestKeygen_Uniqueness(t *testing.T) {
	a, _ := crypto.Keygen()
	b, _ := crypto.Keygen()
	if a == b {
		t.Error("two consecutive keygen calls produced the same key")
	}
}

func TestSHA512Hex(t *testing.T) {
	got := crypto.SHA512Hex("")
	want := "cf83e1357eefb8bdf1542850d66d8007d620e4050b5715dc83f4a921d36ce9ce47d0d13c5d85f2b0ff8318d2877eec2f63b931bd47417a81a538327af927da3e"
	if got != want {
		t.Errorf("sha512 of empty string mismatch: got %s", got)
	}
}
