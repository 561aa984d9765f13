package domain

import (
	"encoding/json"
	"time"
)

// AdminAction is an append-only audit record of a configuration change
// observed on chain (config init/update, pause, cap changes).
type AdminAction struct {
	ID          int64
	AdminWallet string
	ActionType  string
	Payload     json.RawMessage
	TxSig       string
	CreatedAt   time.Time
}

// RewardClaim records a claimed reward for a (season, wallet) pair.
// Rows are produced by the payout service; the indexer only reads them.
type RewardClaim struct {
	SeasonID       int64
	Wallet         string
	AmountLamports int64
	TxSig          string
	ClaimedAt      time.Time
}
