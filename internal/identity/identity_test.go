package identity

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"testing"

	"github.com/mr-tron/base58"
)

func generateKey(t *testing.T) string {
	t.Helper()

	pub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate ed25519 key: %v", err)
	}
	return base58.Encode(pub)
}

func TestParse_Valid(t *testing.T) {
	s := generateKey(t)

	id, err := Parse(s)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if string(id) != s {
		t.Errorf("Parse changed the identity: got %s, want %s", id, s)
	}
}

func TestParse_Empty(t *testing.T) {
	_, err := Parse("")
	if !errors.Is(err, ErrEmpty) {
		t.Errorf("Expected ErrEmpty, got %v", err)
	}
}

func TestParse_NotBase58(t *testing.T) {
	// 0, O, I, l are outside the Bitcoin base58 alphabet.
	_, err := Parse("0OIl!!!")
	if !errors.Is(err, ErrNotBase58) {
		t.Errorf("Expected ErrNotBase58, got %v", err)
	}
}

func TestParse_WrongLength(t *testing.T) {
	short := base58.Encode([]byte("too short"))

	_, err := Parse(short)
	if !errors.Is(err, ErrBadLength) {
		t.Errorf("Expected ErrBadLength, got %v", err)
	}
}

func TestFromBytes_RoundTrip(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate ed25519 key: %v", err)
	}

	id, err := FromBytes(pub)
	if err != nil {
		t.Fatalf("FromBytes failed: %v", err)
	}

	if _, err := Parse(string(id)); err != nil {
		t.Errorf("FromBytes produced an unparseable identity: %v", err)
	}
}

func TestFromBytes_WrongLength(t *testing.T) {
	_, err := FromBytes(make([]byte, 31))
	if !errors.Is(err, ErrBadLength) {
		t.Errorf("Expected ErrBadLength, got %v", err)
	}
}

func TestMustParse_PanicsOnInvalid(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustParse did not panic on invalid input")
		}
	}()
	MustParse("not-an-identity")
}
