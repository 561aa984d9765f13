package domain

import "time"

// Market status values.
const (
	MarketStatusActive = "active"
)

// Market is the authoritative row for one bonding-curve market.
// It is created and updated only by MarketCreated events; trade processing
// never touches it. Supply and price live in Trade/MarketSnapshot rows.
type Market struct {
	MarketID      string // market account address (base58)
	SeasonID      int64
	CreatorWallet string
	TokenMint     string
	CurveA        int64 // fixed-point slope, scaled by 1e9
	CurveB        int64 // fixed-point base price, scaled by 1e9
	ReserveBps    int32
	PlatformBps   int32
	CreatorBps    int32
	Status        string
	CreatedAt     time.Time
}

// Default curve parameters and fee splits used by the factory program.
const (
	DefaultCurveA      int64 = 1_000_000
	DefaultCurveB      int64 = 1_000_000_000
	DefaultReserveBps  int32 = 7000
	DefaultPlatformBps int32 = 2000
	DefaultCreatorBps  int32 = 1000
)
