// Package curve implements the linear bonding curve P(S) = a·S + b over
// exact integers. Costs and proceeds are the discrete integral of P over
// the traded range; all arithmetic is math/big so settlement amounts are
// reproducible bit-for-bit and never rounded through floats.
package curve

import (
	"errors"
	"math/big"
)

var (
	// ErrInsufficientSupply is returned when a sell exceeds the current supply.
	ErrInsufficientSupply = errors.New("sell amount exceeds current supply")

	// ErrNegativeInput is returned when supply, delta or curve parameters
	// are negative. Chain values are u64; negatives only appear on bad input.
	ErrNegativeInput = errors.New("negative curve input")

	// ErrInexactDivision is returned when the quadratic term of the curve
	// integral is not evenly divisible by 2. The halving must be exact;
	// truncating it silently would desync quotes from on-chain settlement.
	ErrInexactDivision = errors.New("curve integral not divisible by 2")
)

var two = big.NewInt(2)

// Price returns the instantaneous price a·supply + b in lamports.
func Price(supply, a, b int64) *big.Int {
	p := new(big.Int).Mul(big.NewInt(a), big.NewInt(supply))
	return p.Add(p, big.NewInt(b))
}

// BuyCost returns the cost of buying delta tokens starting from supply:
//
//	cost(S,d) = a·((S+d)² − S²)/2 + b·d = a·d·(2S+d)/2 + b·d
func BuyCost(supply, delta, a, b int64) (*big.Int, error) {
	if supply < 0 || delta < 0 || a < 0 || b < 0 {
		return nil, ErrNegativeInput
	}
	// a·d·(2S+d)
	span := new(big.Int).Lsh(big.NewInt(supply), 1)
	span.Add(span, big.NewInt(delta))
	quad := new(big.Int).Mul(big.NewInt(a), big.NewInt(delta))
	quad.Mul(quad, span)

	half, err := exactHalf(quad)
	if err != nil {
		return nil, err
	}
	linear := new(big.Int).Mul(big.NewInt(b), big.NewInt(delta))
	return half.Add(half, linear), nil
}

// SellProceeds returns the proceeds of selling delta tokens from supply:
//
//	proceeds(S,d) = a·(S² − (S−d)²)/2 + b·d = a·d·(2S−d)/2 + b·d
//
// Requires delta ≤ supply.
func SellProceeds(supply, delta, a, b int64) (*big.Int, error) {
	if supply < 0 || delta < 0 || a < 0 || b < 0 {
		return nil, ErrNegativeInput
	}
	if delta > supply {
		return nil, ErrInsufficientSupply
	}
	span := new(big.Int).Lsh(big.NewInt(supply), 1)
	span.Sub(span, big.NewInt(delta))
	quad := new(big.Int).Mul(big.NewInt(a), big.NewInt(delta))
	quad.Mul(quad, span)

	half, err := exactHalf(quad)
	if err != nil {
		return nil, err
	}
	linear := new(big.Int).Mul(big.NewInt(b), big.NewInt(delta))
	return half.Add(half, linear), nil
}

// exactHalf divides n by 2, failing if n is odd.
func exactHalf(n *big.Int) (*big.Int, error) {
	if n.Bit(0) != 0 {
		return nil, ErrInexactDivision
	}
	return n.Rsh(n, 1), nil
}
