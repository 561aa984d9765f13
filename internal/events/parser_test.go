package events

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	marketKey = "67RSFmYbP9RMPVDpoBqa6g2GM9RxsHDEt6A4qf7aU1yz"
	walletKey = "6x5SYnLroiN7WYq8NQYU9KHcH4YjpBbwpUfVu3EB7igV"
	mintKey   = "3DvyQntgVJWCF77LJcFe2LvjoG7mKnEpfjjzk3KtVH3B"
)

func tradeLine() string {
	return fmt.Sprintf(`Program data: {"name":"TradeEvent","market":%q,"wallet":%q,`+
		`"side":1,"tokenAmount":1000000000,"solGross":500000000,"solNet":495000000,`+
		`"fee":5000000,"feeTier":1,"postSupply":9000000000,"postPrice":10000000,"ts":1700000000}`,
		marketKey, walletKey)
}

func TestParse_IgnoresUnmarkedLines(t *testing.T) {
	for _, line := range []string{
		"",
		"Program 67RSFmYbP9RMPVDpoBqa6g2GM9RxsHDEt6A4qf7aU1yz invoke [1]",
		"Program log: Instruction: Sell",
		"Program consumed 23817 of 200000 compute units",
	} {
		ev, err := Parse(line)
		assert.NoError(t, err, "line %q", line)
		assert.Nil(t, ev, "line %q", line)
	}
}

func TestParse_TradeEvent(t *testing.T) {
	ev, err := Parse(tradeLine())
	require.NoError(t, err)
	require.NotNil(t, ev)
	require.Equal(t, KindTradeExecuted, ev.Kind)
	require.NotNil(t, ev.Trade)

	assert.Equal(t, marketKey, ev.Trade.Market)
	assert.Equal(t, walletKey, ev.Trade.Wallet)
	assert.Equal(t, int16(1), ev.Trade.Side)
	assert.Equal(t, int64(1_000_000_000), ev.Trade.TokenAmount)
	assert.Equal(t, int64(495_000_000), ev.Trade.SolNet)
	assert.Equal(t, int64(9_000_000_000), ev.Trade.PostSupply)
	assert.Equal(t, int64(1_700_000_000), ev.Trade.Ts)
}

func TestParse_MarketCreated(t *testing.T) {
	line := fmt.Sprintf(`Program data: {"name":"MarketCreated","market":%q,"seasonId":3,`+
		`"creator":%q,"tokenMint":%q,"curveA":1000000,"curveB":1000000000,`+
		`"reserveBps":7000,"platformBps":2000,"creatorBps":1000,"ts":1700000000}`,
		marketKey, walletKey, mintKey)

	ev, err := Parse(line)
	require.NoError(t, err)
	require.Equal(t, KindMarketCreated, ev.Kind)
	require.NotNil(t, ev.MarketCreated)
	assert.Equal(t, int64(3), ev.MarketCreated.SeasonID)
	assert.Equal(t, int32(7000), ev.MarketCreated.ReserveBps)
}

func TestParse_MarketCreated_BadSplits(t *testing.T) {
	line := fmt.Sprintf(`Program data: {"name":"MarketCreated","market":%q,"seasonId":1,`+
		`"creator":%q,"tokenMint":%q,"curveA":1,"curveB":1,`+
		`"reserveBps":7000,"platformBps":2000,"creatorBps":999,"ts":0}`,
		marketKey, walletKey, mintKey)

	_, err := Parse(line)
	assert.ErrorIs(t, err, ErrParse)
}

func TestParse_SeasonLifecycle(t *testing.T) {
	ev, err := Parse(`Program data: {"name":"SeasonCreated","seasonId":7,"startTs":1700000000,"endTs":1702592000,"params":{"rewardBps":500}}`)
	require.NoError(t, err)
	require.Equal(t, KindSeasonCreated, ev.Kind)
	assert.Equal(t, int64(7), ev.SeasonCreated.SeasonID)
	assert.JSONEq(t, `{"rewardBps":500}`, string(ev.SeasonCreated.Params))

	ev, err = Parse(`Program data: {"name":"SeasonEnded","seasonId":7}`)
	require.NoError(t, err)
	require.Equal(t, KindSeasonEnded, ev.Kind)
	assert.Equal(t, int64(7), ev.SeasonEnded.SeasonID)

	ev, err = Parse(`Program data: {"name":"SeasonFunded","seasonId":7,"amount":1000,"poolBalance":5000}`)
	require.NoError(t, err)
	require.Equal(t, KindSeasonFunded, ev.Kind)
	assert.Equal(t, int64(5000), ev.SeasonFunded.PoolBalance)

	// Inverted time range is malformed, not fatal.
	_, err = Parse(`Program data: {"name":"SeasonCreated","seasonId":8,"startTs":100,"endTs":100}`)
	assert.ErrorIs(t, err, ErrParse)
}

func TestParse_AdminEvents(t *testing.T) {
	for _, name := range []string{"ConfigInitialized", "ConfigUpdated"} {
		line := fmt.Sprintf(`Program data: {"name":%q,"adminWallet":%q,"actionType":"pause","paused":true}`, name, walletKey)
		ev, err := Parse(line)
		require.NoError(t, err)
		assert.Equal(t, Kind(name), ev.Kind)
		require.NotNil(t, ev.Admin)
		assert.Equal(t, walletKey, ev.Admin.AdminWallet)
		assert.Equal(t, "pause", ev.Admin.ActionType)
		assert.NotEmpty(t, ev.Raw)
	}
}

func TestParse_UnknownKind(t *testing.T) {
	ev, err := Parse(`Program data: {"name":"TreasuryWithdrawn","recipient":"abc","amount":5}`)
	require.NoError(t, err)
	assert.Equal(t, KindUnknown, ev.Kind)
	assert.Nil(t, ev.Trade)
	assert.NotEmpty(t, ev.Raw)
}

func TestParse_MalformedPayloads(t *testing.T) {
	cases := []string{
		`Program data: not-json`,
		`Program data: {"market":"x"}`, // no name
		`Program data: {"name":"TradeEvent","market":"short","wallet":"short","side":0}`,
		`Program data: {"name":"TradeEvent","market":"` + marketKey + `","wallet":"` + walletKey + `","side":7}`,
		`Program data: {"name":"TradeEvent","market":"` + marketKey + `","wallet":"` + walletKey + `","side":0,"tokenAmount":-5}`,
		`Program data: {"name":"TradeEvent","tokenAmount":"a lot"}`,
	}
	for _, line := range cases {
		_, err := Parse(line)
		assert.ErrorIs(t, err, ErrParse, "line %q", line)
	}
}
