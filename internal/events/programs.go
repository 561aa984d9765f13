package events

// Deployed program addresses whose logs carry the events in this package.
const (
	// FactoryProgram creates markets and manages seasons and global config.
	FactoryProgram = "9TZMBuroxJrZvNYaVTSNhXPUzc5xdjU1WJjTLcyaVEAg"
	// MarketProgram executes buys and sells against the bonding curve.
	MarketProgram = "67RSFmYbP9RMPVDpoBqa6g2GM9RxsHDEt6A4qf7aU1yz"
	// RewardsProgram pays out season reward claims.
	RewardsProgram = "3DvyQntgVJWCF77LJcFe2LvjoG7mKnEpfjjzk3KtVH3B"
)

// DefaultPrograms is the standard subscription set for the indexer.
func DefaultPrograms() []string {
	return []string{FactoryProgram, MarketProgram, RewardsProgram}
}
