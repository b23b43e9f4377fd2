// Package identity parses and validates participant identities.
//
// An identity is the base58 encoding of a 32-byte ed25519 public key. The
// on-curve check rejects strings that decode to 32 bytes but are not valid
// curve points, which catches most copy-paste corruption.
package identity

import (
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"

	"token-crowdsale/internal/domain"
)

// Validation errors.
var (
	ErrEmpty      = errors.New("identity is empty")
	ErrNotBase58  = errors.New("identity is not valid base58")
	ErrBadLength  = errors.New("identity does not decode to 32 bytes")
	ErrOffCurve   = errors.New("identity is not a valid ed25519 point")
)

// Parse validates s and returns it as a domain.Identity.
func Parse(s string) (domain.Identity, error) {
	if s == "" {
		return "", ErrEmpty
	}

	raw, err := base58.Decode(s)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotBase58, err)
	}
	if len(raw) != 32 {
		return "", fmt.Errorf("%w: got %d", ErrBadLength, len(raw))
	}

	if _, err := new(edwards25519.Point).SetBytes(raw); err != nil {
		return "", ErrOffCurve
	}

	return domain.Identity(s), nil
}

// FromBytes encodes a raw 32-byte public key as an identity.
// The key is not required to be on-curve; use Parse to enforce that.
func FromBytes(raw []byte) (domain.Identity, error) {
	if len(raw) != 32 {
		return "", fmt.Errorf("%w: got %d", ErrBadLength, len(raw))
	}
	return domain.Identity(base58.Encode(raw)), nil
}

// MustParse is Parse for fixtures and tests; it panics on invalid input.
func MustParse(s string) domain.Identity {
	id, err := Parse(s)
	if err != nil {
		panic(fmt.Sprintf("identity.MustParse(%q): %v", s, err))
	}
	return id
}
