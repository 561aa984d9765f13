package domain

// LeaderboardEntry ranks a wallet's signed net flow across a season's
// markets: buys count positive, sells negative.
type LeaderboardEntry struct {
	Wallet         string
	ProfitLamports int64
	Trades         int64
}
