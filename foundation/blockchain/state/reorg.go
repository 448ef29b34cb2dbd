package state

import (
	"fmt"

	"github.com/ardanlabs/powchain/foundation/blockchain/database"
)

// ReplaceChain takes the full chain of a peer and, if it is valid and the
// chain policy accepts it, adopts it in place of the local chain. The
// balances are rebuilt by replaying every block from genesis. Nothing of
// the swap is visible until it is complete.
func (s *State) ReplaceChain(recs []database.BlockRecord) error {
	s.evHandler("state: ReplaceChain: started: blocks[%d]", len(recs))
	defer s.evHandler("state: ReplaceChain: completed")

	if err := s.replaceChain(recs); err != nil {
		s.evHandler("state: ReplaceChain: REJECTED: %s", err)
		return err
	}

	// If a mining operation is running it is now working on a stale tip.
	s.signalCancelMining()

	return nil
}

func (s *State) replaceChain(recs []database.BlockRecord) error {
	blocks, err := database.ToBlocks(recs, s.genesis)
	if err != nil {
		return err
	}

	// Validating and replaying can be done before taking the write lock
	// since they only depend on the candidate blocks.
	pool, err := replay(blocks, s.genesis)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if size := s.chain.Size(); s.policy == PolicyLongest && int64(len(blocks)) <= size {
		return fmt.Errorf("candidate blocks %d, local blocks %d: %w", len(blocks), size, ErrChainNotLonger)
	}

	if err := s.rewriteStorage(blocks); err != nil {
		return err
	}

	s.chain.Replace(blocks)
	s.confirmed = pool
	s.resetPending()

	tip := database.NewBlockRecord(blocks[len(blocks)-1], s.genesis)

	s.evHandler("state: ReplaceChain: REPLACED: blocks[%d]: tip[%s]", len(blocks), tip.Hash)

	s.emit(Event{Name: EventChainReplaced, Block: &tip})
	s.emitSupply()

	return nil
}

// rewriteStorage replaces the stored blocks. On failure it tries to put the
// current chain back so storage keeps matching memory. The caller must hold
// the write lock.
func (s *State) rewriteStorage(blocks []database.Block) error {
	write := func(blocks []database.Block) error {
		if err := s.storage.Reset(); err != nil {
			return err
		}

		for _, b := range blocks[1:] {
			if err := s.storage.Write(database.NewBlockRecord(b, s.genesis)); err != nil {
				return err
			}
		}

		return nil
	}

	if err := write(blocks); err != nil {
		if rerr := write(s.chain.Blocks()); rerr != nil {
			s.evHandler("state: rewriteStorage: ERROR: restoring: %s", rerr)
		}
		return fmt.Errorf("writing chain: %w", err)
	}

	return nil
}
