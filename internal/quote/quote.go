// Package quote composes curve math and the fee resolver into the buy/sell
// quotes served to the API layer. Quotes are pure computation over a market
// row and a wallet's window usage; they never touch storage and are safe to
// call concurrently.
package quote

import (
	"errors"
	"fmt"
	"math"
	"math/big"

	"trasim/internal/curve"
	"trasim/internal/domain"
	"trasim/internal/fees"
)

var (
	// ErrInvalidAmount is returned for negative amounts or amounts that
	// cannot be expressed in base units without precision loss.
	ErrInvalidAmount = errors.New("invalid token amount")

	// ErrInsufficientSupply mirrors the curve error on the quote surface.
	ErrInsufficientSupply = curve.ErrInsufficientSupply
)

// BuyQuote is the result of pricing a buy. No fee applies on buys.
type BuyQuote struct {
	TokenAmount   int64
	CostLamports  *big.Int
	PricePerToken *big.Int // instantaneous price at the resulting supply
	PostSupply    int64
}

// SellQuote is the result of pricing a sell, fee included.
type SellQuote struct {
	TokenAmount      int64
	ProceedsLamports *big.Int
	FeeLamports      *big.Int
	NetLamports      *big.Int
	FeeTier          int
	PostSupply       int64
}

// WalletUsage carries the fee resolver inputs for one wallet: net sell
// proceeds already realized inside the rolling window, and the wallet's
// capacity limit.
type WalletUsage struct {
	UsedInWindow *big.Int
	Cap          *big.Int
}

// Buy prices the purchase of tokenAmount base units at the given supply.
func Buy(m *domain.Market, supply, tokenAmount int64) (*BuyQuote, error) {
	if tokenAmount < 0 || supply < 0 {
		return nil, ErrInvalidAmount
	}
	// The resulting supply must stay within the chain's integer range.
	if tokenAmount > math.MaxInt64-supply {
		return nil, ErrInvalidAmount
	}

	cost, err := curve.BuyCost(supply, tokenAmount, m.CurveA, m.CurveB)
	if err != nil {
		if errors.Is(err, curve.ErrNegativeInput) {
			return nil, ErrInvalidAmount
		}
		return nil, fmt.Errorf("buy cost: %w", err)
	}

	post := supply + tokenAmount
	return &BuyQuote{
		TokenAmount:   tokenAmount,
		CostLamports:  cost,
		PricePerToken: curve.Price(post, m.CurveA, m.CurveB),
		PostSupply:    post,
	}, nil
}

// Sell prices the sale of tokenAmount base units at the given supply,
// resolving the fee tier from the wallet's rolling usage.
func Sell(m *domain.Market, supply, tokenAmount int64, usage WalletUsage, schedule fees.Schedule) (*SellQuote, error) {
	if tokenAmount < 0 || supply < 0 {
		return nil, ErrInvalidAmount
	}

	proceeds, err := curve.SellProceeds(supply, tokenAmount, m.CurveA, m.CurveB)
	if err != nil {
		if errors.Is(err, curve.ErrNegativeInput) {
			return nil, ErrInvalidAmount
		}
		return nil, err
	}

	used := usage.UsedInWindow
	if used == nil {
		used = new(big.Int)
	}
	tier, err := fees.Tier(used, proceeds, usage.Cap)
	if err != nil {
		return nil, fmt.Errorf("resolve fee tier: %w", err)
	}

	bps := schedule.Bps(tier)
	return &SellQuote{
		TokenAmount:      tokenAmount,
		ProceedsLamports: proceeds,
		FeeLamports:      fees.Fee(proceeds, bps),
		NetLamports:      fees.Net(proceeds, bps),
		FeeTier:          tier,
		PostSupply:       supply - tokenAmount,
	}, nil
}
