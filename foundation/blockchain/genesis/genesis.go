// Package genesis maintains access to the genesis file which holds the
// consensus settings every node on the network must agree on.
package genesis

import (
	"encoding/json"
	"errors"
	"math"
	"os"
	"time"
)

// Genesis represents the genesis file.
type Genesis struct {
	Date            time.Time `json:"date"`             // Timestamp of the genesis block.
	RootAddress     string    `json:"root_address"`     // Sender address of every coinbase transaction.
	Difficulty      int       `json:"difficulty"`       // Number of leading 0's needed to solve the hash solution.
	BaseReward      float64   `json:"base_reward"`      // Reward for mining a block before any halving.
	HalvingInterval int64     `json:"halving_interval"` // Number of blocks between reward halvings.
	CommissionRate  float64   `json:"commission_rate"`  // Fee charged on a transfer as a fraction of the amount.
}

// Default returns the settings used when no genesis file is provided.
func Default() Genesis {
	return Genesis{
		Date:            time.Date(2022, time.January, 1, 0, 0, 0, 0, time.UTC),
		RootAddress:     "root",
		Difficulty:      3,
		BaseReward:      50,
		HalvingInterval: 210_000,
		CommissionRate:  0.01,
	}
}

// =============================================================================

// Load opens and consumes the genesis file. Any value missing from the
// file is taken from the defaults.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	gen := Default()
	if err := json.Unmarshal(content, &gen); err != nil {
		return Genesis{}, err
	}

	if err := gen.Validate(); err != nil {
		return Genesis{}, err
	}

	return gen, nil
}

// Validate checks the settings are usable.
func (g Genesis) Validate() error {
	switch {
	case g.RootAddress == "":
		return errors.New("root address is required")
	case g.Difficulty < 0 || g.Difficulty > 64:
		return errors.New("difficulty must be between 0 and 64")
	case g.BaseReward < 0:
		return errors.New("base reward can't be negative")
	case g.HalvingInterval <= 0:
		return errors.New("halving interval must be positive")
	case g.CommissionRate < 0 || g.CommissionRate >= 1:
		return errors.New("commission rate must be between 0 and 1")
	}

	return nil
}

// Timestamp returns the genesis date in milliseconds.
func (g Genesis) Timestamp() int64 {
	return g.Date.UnixMilli()
}

// =============================================================================

// MiningReward returns the newly minted coins for a block at the specified
// height. The base reward is halved every halving interval.
func (g Genesis) MiningReward(height int64) float64 {
	if height < 0 {
		return 0
	}

	halvings := height / g.HalvingInterval
	if halvings > math.MaxInt32 {
		return 0
	}

	reward := math.Ldexp(g.BaseReward, -int(halvings))
	if reward <= 0 {
		return 0
	}

	return reward
}

// MaxSupply returns the maximum amount of coins that can ever be minted.
func (g Genesis) MaxSupply() float64 {
	var total float64
	for reward := g.BaseReward; reward > 0; reward /= 2 {
		total += reward * float64(g.HalvingInterval)
	}

	return total
}

// feeUnits is the number of fee units per coin. Fees are rounded to the
// unit so the product with the commission rate carries no float noise.
const feeUnits = 1e8

// Fee returns the commission charged for transferring the amount.
func (g Genesis) Fee(amount float64) float64 {
	return math.Round(amount*g.CommissionRate*feeUnits) / feeUnits
}
