// Package fees maps a wallet's rolling sell usage against its capacity
// limit to a discrete fee tier. The resolver is pure; callers supply the
// already-accumulated window usage.
package fees

import (
	"errors"
	"math/big"
)

const (
	// TierCount is the number of fee tiers.
	TierCount = 5

	bpsDenominator = 10_000
)

// ErrInvalidCap is returned when the wallet capacity limit is not positive.
var ErrInvalidCap = errors.New("wallet cap must be positive")

// Schedule maps tier (1-based) to fee basis points.
type Schedule [TierCount]int64

// DefaultSchedule is the factory program's default fee table.
var DefaultSchedule = Schedule{100, 300, 600, 1200, 2000}

// Bps returns the fee basis points for a tier in [1, TierCount].
func (s Schedule) Bps(tier int) int64 {
	return s[tier-1]
}

// Tier resolves the fee tier for a sell. usedSoFar is the wallet's net
// proceeds already realized inside the rolling window, proceeds the
// pre-fee proceeds of the trade being quoted, cap the wallet capacity
// limit.
//
// usage% = (usedSoFar + proceeds) · 100 / cap, then a fixed staircase:
// ≤20→1, ≤40→2, ≤60→3, ≤80→4, else 5. Usage beyond 100% still resolves
// (to tier 5); the staircase is monotonic non-decreasing.
func Tier(usedSoFar, proceeds, cap *big.Int) (int, error) {
	if cap == nil || cap.Sign() <= 0 {
		return 0, ErrInvalidCap
	}

	used := new(big.Int).Add(usedSoFar, proceeds)
	used.Mul(used, big.NewInt(100))
	usage := used.Div(used, cap)

	switch {
	case usage.Cmp(big.NewInt(20)) <= 0:
		return 1, nil
	case usage.Cmp(big.NewInt(40)) <= 0:
		return 2, nil
	case usage.Cmp(big.NewInt(60)) <= 0:
		return 3, nil
	case usage.Cmp(big.NewInt(80)) <= 0:
		return 4, nil
	default:
		return 5, nil
	}
}

// Fee returns the fee on proceeds at the given basis points:
// proceeds · bps / 10000, truncated toward zero like the on-chain program.
func Fee(proceeds *big.Int, bps int64) *big.Int {
	fee := new(big.Int).Mul(proceeds, big.NewInt(bps))
	return fee.Div(fee, big.NewInt(bpsDenominator))
}

// Net returns proceeds minus the fee at the given basis points.
func Net(proceeds *big.Int, bps int64) *big.Int {
	return new(big.Int).Sub(proceeds, Fee(proceeds, bps))
}
