// Package events turns raw program log lines into typed ledger events.
package events

import "encoding/json"

// Kind discriminates event payloads. Values match the `name` field the
// on-chain programs embed in their log payloads.
type Kind string

const (
	KindTradeExecuted     Kind = "TradeEvent"
	KindMarketCreated     Kind = "MarketCreated"
	KindSeasonCreated     Kind = "SeasonCreated"
	KindSeasonEnded       Kind = "SeasonEnded"
	KindSeasonFunded      Kind = "SeasonFunded"
	KindConfigInitialized Kind = "ConfigInitialized"
	KindConfigUpdated     Kind = "ConfigUpdated"
	KindUnknown           Kind = "Unknown"
)

// Event is a closed tagged variant: exactly one of the typed payloads is
// set, matching Kind. Unknown kinds keep only the raw payload so callers
// can log and skip them without halting ingestion.
type Event struct {
	Kind Kind

	Trade         *TradeEvent
	MarketCreated *MarketCreatedEvent
	SeasonCreated *SeasonCreatedEvent
	SeasonEnded   *SeasonEndedEvent
	SeasonFunded  *SeasonFundedEvent
	Admin         *AdminEvent

	// Raw is the decoded payload as delivered, kept for audit records and
	// for the Unknown variant.
	Raw json.RawMessage
}

// TradeEvent is emitted by the market program on every buy and sell.
type TradeEvent struct {
	Market      string `json:"market"`
	Wallet      string `json:"wallet"`
	Side        int16  `json:"side"`
	TokenAmount int64  `json:"tokenAmount"`
	SolGross    int64  `json:"solGross"`
	SolNet      int64  `json:"solNet"`
	Fee         int64  `json:"fee"`
	FeeTier     int16  `json:"feeTier"`
	PostSupply  int64  `json:"postSupply"`
	PostPrice   int64  `json:"postPrice"`
	Ts          int64  `json:"ts"` // unix seconds
}

// MarketCreatedEvent is emitted by the factory program. Re-broadcasts carry
// the same creation data and are applied as idempotent upserts.
type MarketCreatedEvent struct {
	Market      string `json:"market"`
	SeasonID    int64  `json:"seasonId"`
	Creator     string `json:"creator"`
	TokenMint   string `json:"tokenMint"`
	CurveA      int64  `json:"curveA"`
	CurveB      int64  `json:"curveB"`
	ReserveBps  int32  `json:"reserveBps"`
	PlatformBps int32  `json:"platformBps"`
	CreatorBps  int32  `json:"creatorBps"`
	Ts          int64  `json:"ts"`
}

// SeasonCreatedEvent is emitted by the rewards program.
type SeasonCreatedEvent struct {
	SeasonID int64           `json:"seasonId"`
	StartTs  int64           `json:"startTs"`
	EndTs    int64           `json:"endTs"`
	Params   json.RawMessage `json:"params"`
}

// SeasonEndedEvent transitions a season to ended.
type SeasonEndedEvent struct {
	SeasonID int64 `json:"seasonId"`
}

// SeasonFundedEvent reports a treasury contribution to a season pool.
// PoolBalance is the absolute pool size after the contribution, which makes
// replays idempotent (the reducer sets, never adds).
type SeasonFundedEvent struct {
	SeasonID    int64 `json:"seasonId"`
	Amount      int64 `json:"amount"`
	PoolBalance int64 `json:"poolBalance"`
}

// AdminEvent covers config init/update broadcasts. Only the acting wallet
// and the action type are interpreted; the rest is archived verbatim.
type AdminEvent struct {
	AdminWallet string `json:"adminWallet"`
	ActionType  string `json:"actionType"`
}
