package domain

import "time"

// Trade sides as emitted by the market program.
const (
	SideBuy  int16 = 0
	SideSell int16 = 1
)

// Trade is an immutable fact keyed by its transaction signature.
// The signature is the sole idempotency boundary: replayed or duplicate
// log delivery of the same trade must collapse into one row.
type Trade struct {
	Signature         string // transaction signature (base58), primary key
	Slot              int64
	Ts                time.Time
	MarketID          string
	Wallet            string
	Side              int16
	TokenAmount       int64 // base units at 1e9 scale
	SolGrossLamports  int64
	SolNetLamports    int64
	FeeLamports       int64
	FeeTier           int16 // 0 on buys, 1..5 on sells
	PostSupply        int64
	PostPriceLamports int64
}

// IsBuy reports whether the trade added tokens to the supply.
func (t *Trade) IsBuy() bool { return t.Side == SideBuy }

// SignedNetLamports returns the trade's contribution to directional volume:
// buys count positive, sells negative.
func (t *Trade) SignedNetLamports() int64 {
	if t.IsBuy() {
		return t.SolNetLamports
	}
	return -t.SolNetLamports
}
