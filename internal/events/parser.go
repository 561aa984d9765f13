package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"trasim/internal/solkey"
)

// marker prefixes log lines that carry an embedded event payload.
// All other lines (compute budget, CPI traces, plain program logs) are
// silently ignored.
const marker = "Program data: "

// ErrParse wraps all payload decode and validation failures. A line that
// fails to parse is reported and skipped; it must never halt ingestion.
var ErrParse = errors.New("event parse")

// Parse extracts the event embedded in one log line. It returns (nil, nil)
// for lines without the payload marker, an ErrParse-wrapped error for
// malformed payloads, and an Event with Kind == KindUnknown for payloads
// whose name is not recognized.
func Parse(line string) (*Event, error) {
	idx := strings.Index(line, marker)
	if idx < 0 {
		return nil, nil
	}
	payload := strings.TrimSpace(line[idx+len(marker):])

	var envelope struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal([]byte(payload), &envelope); err != nil {
		return nil, fmt.Errorf("%w: decode payload: %v", ErrParse, err)
	}
	if envelope.Name == "" {
		return nil, fmt.Errorf("%w: payload has no event name", ErrParse)
	}

	raw := json.RawMessage(payload)
	ev := &Event{Kind: Kind(envelope.Name), Raw: raw}

	switch ev.Kind {
	case KindTradeExecuted:
		var body TradeEvent
		if err := decodeBody(raw, &body); err != nil {
			return nil, err
		}
		if err := validateTrade(&body); err != nil {
			return nil, err
		}
		ev.Trade = &body

	case KindMarketCreated:
		var body MarketCreatedEvent
		if err := decodeBody(raw, &body); err != nil {
			return nil, err
		}
		if err := validateMarketCreated(&body); err != nil {
			return nil, err
		}
		ev.MarketCreated = &body

	case KindSeasonCreated:
		var body SeasonCreatedEvent
		if err := decodeBody(raw, &body); err != nil {
			return nil, err
		}
		if body.EndTs <= body.StartTs {
			return nil, fmt.Errorf("%w: season %d ends at or before start", ErrParse, body.SeasonID)
		}
		ev.SeasonCreated = &body

	case KindSeasonEnded:
		var body SeasonEndedEvent
		if err := decodeBody(raw, &body); err != nil {
			return nil, err
		}
		ev.SeasonEnded = &body

	case KindSeasonFunded:
		var body SeasonFundedEvent
		if err := decodeBody(raw, &body); err != nil {
			return nil, err
		}
		ev.SeasonFunded = &body

	case KindConfigInitialized, KindConfigUpdated:
		var body AdminEvent
		if err := decodeBody(raw, &body); err != nil {
			return nil, err
		}
		ev.Admin = &body

	default:
		ev.Kind = KindUnknown
	}

	return ev, nil
}

func decodeBody(raw json.RawMessage, dst any) error {
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: decode body: %v", ErrParse, err)
	}
	return nil
}

func validateTrade(t *TradeEvent) error {
	if err := solkey.ValidatePubkey(t.Market); err != nil {
		return fmt.Errorf("%w: trade market: %v", ErrParse, err)
	}
	if err := solkey.ValidatePubkey(t.Wallet); err != nil {
		return fmt.Errorf("%w: trade wallet: %v", ErrParse, err)
	}
	if t.Side != 0 && t.Side != 1 {
		return fmt.Errorf("%w: trade side %d", ErrParse, t.Side)
	}
	if t.TokenAmount < 0 || t.SolGross < 0 || t.SolNet < 0 || t.Fee < 0 ||
		t.PostSupply < 0 || t.PostPrice < 0 {
		return fmt.Errorf("%w: negative trade amount", ErrParse)
	}
	return nil
}

func validateMarketCreated(m *MarketCreatedEvent) error {
	if err := solkey.ValidatePubkey(m.Market); err != nil {
		return fmt.Errorf("%w: market id: %v", ErrParse, err)
	}
	if err := solkey.ValidatePubkey(m.Creator); err != nil {
		return fmt.Errorf("%w: market creator: %v", ErrParse, err)
	}
	if err := solkey.ValidatePubkey(m.TokenMint); err != nil {
		return fmt.Errorf("%w: token mint: %v", ErrParse, err)
	}
	if sum := m.ReserveBps + m.PlatformBps + m.CreatorBps; sum != 10_000 {
		return fmt.Errorf("%w: fee splits sum to %d bps", ErrParse, sum)
	}
	return nil
}
