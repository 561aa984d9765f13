// Package solkey validates Solana account addresses and transaction
// signatures as they appear in event payloads and API requests.
package solkey

import (
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

const (
	pubkeyLen    = 32
	signatureLen = 64
)

// ErrInvalidKey is returned for strings that are not base58-encoded
// 32-byte public keys.
var ErrInvalidKey = errors.New("invalid public key")

// ErrInvalidSignature is returned for strings that are not base58-encoded
// 64-byte transaction signatures.
var ErrInvalidSignature = errors.New("invalid transaction signature")

// ValidatePubkey checks that s is a base58-encoded 32-byte key.
// It accepts both wallet keys and PDAs.
func ValidatePubkey(s string) error {
	raw, err := base58.Decode(s)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	if len(raw) != pubkeyLen {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidKey, len(raw), pubkeyLen)
	}
	return nil
}

// ValidateSignature checks that s is a base58-encoded 64-byte signature.
func ValidateSignature(s string) error {
	raw, err := base58.Decode(s)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if len(raw) != signatureLen {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidSignature, len(raw), signatureLen)
	}
	return nil
}

// OnCurve reports whether s decodes to a point on the ed25519 curve.
// User wallets are on-curve keypairs; program-derived addresses are
// deliberately off-curve, so this distinguishes the two.
func OnCurve(s string) bool {
	raw, err := base58.Decode(s)
	if err != nil || len(raw) != pubkeyLen {
		return false
	}
	_, err = new(edwards25519.Point).SetBytes(raw)
	return err == nil
}
