package solkey

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const (
	// ed25519 base point encoding.
	onCurveKey = "6x5SYnLroiN7WYq8NQYU9KHcH4YjpBbwpUfVu3EB7igV"
	// y=2 has no matching x on the curve; a valid 32-byte key that is a PDA.
	offCurveKey = "8opHzTAnfzRpPEx21XtnrVTX28YQuCpAjcn1PczScKh"
)

func TestValidatePubkey(t *testing.T) {
	assert.NoError(t, ValidatePubkey(onCurveKey))
	assert.NoError(t, ValidatePubkey(offCurveKey))
	assert.NoError(t, ValidatePubkey("67RSFmYbP9RMPVDpoBqa6g2GM9RxsHDEt6A4qf7aU1yz"))

	assert.ErrorIs(t, ValidatePubkey(""), ErrInvalidKey)
	assert.ErrorIs(t, ValidatePubkey("abc"), ErrInvalidKey)
	assert.ErrorIs(t, ValidatePubkey("0OIl"), ErrInvalidKey) // not base58 alphabet
	assert.ErrorIs(t, ValidatePubkey(strings.Repeat("2", 88)), ErrInvalidKey)
}

func TestValidateSignature(t *testing.T) {
	// 64 zero bytes encode as 64 leading '1's.
	assert.NoError(t, ValidateSignature(strings.Repeat("1", 64)))

	assert.ErrorIs(t, ValidateSignature(onCurveKey), ErrInvalidSignature) // 32 bytes
	assert.ErrorIs(t, ValidateSignature("!!"), ErrInvalidSignature)
}

func TestOnCurve(t *testing.T) {
	assert.True(t, OnCurve(onCurveKey))
	assert.False(t, OnCurve(offCurveKey))
	assert.False(t, OnCurve("not-base58-!!"))
	assert.False(t, OnCurve("abc"))
}
