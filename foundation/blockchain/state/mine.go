package state

import (
	"context"

	"github.com/ardanlabs/powchain/foundation/blockchain/database"
)

// MineNewBlock attempts to create a new block with a proper hash that can
// become the next block in the chain. The pending transactions are
// snapshotted and the proof of work runs without holding any lock. The
// mined block is committed through the same path as a block from a peer.
func (s *State) MineNewBlock(ctx context.Context) (database.Block, error) {
	s.evHandler("state: MineNewBlock: MINING: build block template")

	// Snapshot the template so the lock isn't held while mining.
	s.mu.RLock()
	nb := s.chain.NextBlock(s.pendingTxs)
	s.mu.RUnlock()

	// The coinbase pays the miner the fees of the block plus the newly
	// minted coins.
	var fees float64
	for _, tx := range nb.Transactions {
		fees += tx.Fee
	}
	reward := fees + s.genesis.MiningReward(nb.Height)
	coinbase := database.NewCoinbase(s.genesis, s.minerAddress, reward, nb.TimeStamp)

	txs := append([]database.Tx{coinbase}, nb.Transactions...)
	b := database.NewBlock(nb.Height, nb.ParentHash, nb.Difficulty, nb.TimeStamp, txs)

	s.evHandler("state: MineNewBlock: MINING: perform POW: blk[%d]: txs[%d]: reward[%v]", b.Height, len(txs), reward)

	// Attempt to create a new block by solving the POW puzzle. This can be cancelled.
	if err := b.PerformPOW(ctx, s.evHandler); err != nil {
		return database.Block{}, err
	}

	// Just check one more time we were not cancelled.
	if ctx.Err() != nil {
		return database.Block{}, ctx.Err()
	}

	rec := database.NewBlockRecord(b, s.genesis)
	s.emit(Event{Name: EventBlockMined, Block: &rec})

	s.evHandler("state: MineNewBlock: MINING: commit block")

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.commitBlock(b); err != nil {
		return database.Block{}, err
	}

	return b, nil
}
