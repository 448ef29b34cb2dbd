package state

import (
	"fmt"

	"github.com/ardanlabs/powchain/foundation/blockchain/balance"
	"github.com/ardanlabs/powchain/foundation/blockchain/database"
)

// AddBlock takes a block received from a peer, validates it and if that
// passes, appends the block to the local chain. A rejected block is
// reported with a discard event and the reason is also returned.
func (s *State) AddBlock(rec database.BlockRecord) error {
	s.evHandler("state: AddBlock: started: blk[%d]: hash[%s]", rec.Height, rec.Hash)
	defer s.evHandler("state: AddBlock: completed")

	err := func() error {
		s.mu.Lock()
		defer s.mu.Unlock()

		b, err := database.ToBlock(rec, s.genesis)
		if err != nil {
			s.discardBlock(rec, err)
			return err
		}

		return s.commitBlock(b)
	}()
	if err != nil {
		return err
	}

	// If a mining operation is running it is now working on a stale tip.
	s.signalCancelMining()

	return nil
}

// commitBlock validates the block against the chain tip and updates the
// state of the node, including writing the block to storage. The caller
// must hold the write lock.
func (s *State) commitBlock(b database.Block) error {
	rec := database.NewBlockRecord(b, s.genesis)

	pool, err := s.checkBlock(b)
	if err != nil {
		s.discardBlock(rec, err)
		return err
	}

	s.evHandler("state: commitBlock: write to storage: blk[%d]", b.Height)

	if err := s.storage.Write(rec); err != nil {
		err = fmt.Errorf("blk[%d]: writing: %w", b.Height, err)
		s.discardBlock(rec, err)
		return err
	}

	s.chain.AddBlock(b)
	s.confirmed = pool
	s.resetPending()

	s.evHandler("state: commitBlock: ADDED: blk[%d]: hash[%s]: txs[%d]", b.Height, b.Hash(), len(b.Transactions))

	s.emit(Event{Name: EventBlockAdded, Block: &rec})
	s.emitSupply()

	return nil
}

// checkBlock performs the consensus checks for the block to become the next
// block of the chain and returns the confirmed balances with the block
// applied. The caller must hold the write lock.
func (s *State) checkBlock(b database.Block) (*balance.Pool, error) {
	if err := database.ValidateBlock(b, s.genesis); err != nil {
		return nil, err
	}

	if size := s.chain.Size(); b.Height != size {
		return nil, fmt.Errorf("blk[%d]: chain size %d: %w", b.Height, size, ErrWrongHeight)
	}

	if s.chain.HasBlock(b.Hash()) {
		return nil, fmt.Errorf("blk[%d]: %w", b.Height, ErrDuplicateBlock)
	}

	if tip := s.chain.LastBlock(); b.ParentHash != tip.Hash() {
		return nil, fmt.Errorf("blk[%d]: parent %s, tip %s: %w", b.Height, b.ParentHash, tip.Hash(), ErrParentMismatch)
	}

	pool := s.confirmed.Clone()
	seen := make(map[string]struct{}, len(b.Transactions))

	for _, tx := range b.Transactions {
		if !tx.IsCoinbase() {
			if _, exists := seen[tx.Hash()]; exists {
				return nil, fmt.Errorf("blk[%d]: tx[%s]: %w", b.Height, tx.Hash(), ErrDuplicateTransaction)
			}
			seen[tx.Hash()] = struct{}{}

			if height, exists := s.chain.TxHeight(tx.Hash()); exists {
				return nil, fmt.Errorf("blk[%d]: tx[%s]: blk[%d]: %w", b.Height, tx.Hash(), height, ErrTransactionConfirmed)
			}
		}

		if err := pool.Transact(tx); err != nil {
			return nil, fmt.Errorf("blk[%d]: %w", b.Height, err)
		}
	}

	return pool, nil
}

// discardBlock reports a block that was not accepted.
func (s *State) discardBlock(rec database.BlockRecord, err error) {
	s.evHandler("state: DISCARDED: blk[%d]: %s", rec.Height, err)
	s.emit(Event{Name: EventBlockDiscarded, Block: &rec, Reason: err.Error()})
}
