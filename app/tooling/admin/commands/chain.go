// Package commands contains the functionality for the admin tooling.
package commands

import (
	"github.com/ardanlabs/powchain/foundation/blockchain/database"
	"github.com/ardanlabs/powchain/foundation/blockchain/genesis"
)

// LoadChain reads the stored blocks, places them after the genesis block and
// validates the resulting chain.
func LoadChain(strg database.Storage, gen genesis.Genesis) ([]database.Block, error) {
	recs, err := database.ReadAll(strg)
	if err != nil {
		return nil, err
	}

	stored, err := database.ToBlocks(recs, gen)
	if err != nil {
		return nil, err
	}

	blocks := append([]database.Block{database.GenesisBlock(gen)}, stored...)

	if err := database.ValidateChain(blocks, gen); err != nil {
		return nil, err
	}

	return blocks, nil
}
