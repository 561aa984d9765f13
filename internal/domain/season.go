package domain

import (
	"encoding/json"
	"time"
)

// Season status values. Transitions are monotonic: active → ended.
const (
	SeasonStatusActive = "active"
	SeasonStatusEnded  = "ended"
)

// Season groups markets for reward accounting.
type Season struct {
	SeasonID           int64
	StartTs            time.Time
	EndTs              time.Time
	Params             json.RawMessage // opaque parameter payload
	RewardPoolLamports int64
	Status             string
}
