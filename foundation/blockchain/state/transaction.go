package state

import (
	"fmt"

	"github.com/ardanlabs/powchain/foundation/blockchain/database"
)

// AddTransaction accepts a transaction from a client or a peer into the
// pending list. A rejected transaction is reported with a discard event
// and the reason is also returned.
func (s *State) AddTransaction(rec database.TransactionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evHandler("state: AddTransaction: started: tx[%s]", rec.Hash)
	defer s.evHandler("state: AddTransaction: completed")

	tx, err := s.addTransaction(rec)
	if err != nil {
		s.evHandler("state: AddTransaction: DISCARDED: %s", err)
		s.emit(Event{Name: EventTransactionDiscarded, Transaction: &rec, Reason: err.Error()})
		return err
	}

	txRec := database.NewTransactionRecord(tx, 0)
	s.emit(Event{Name: EventTransactionAdded, Transaction: &txRec})

	return nil
}

// addTransaction performs the checks and updates for a new pending
// transaction. The caller must hold the write lock.
func (s *State) addTransaction(rec database.TransactionRecord) (database.Tx, error) {
	tx, err := database.ToTx(rec, s.genesis)
	if err != nil {
		return database.Tx{}, err
	}

	if err := s.admit(tx); err != nil {
		return database.Tx{}, err
	}

	return tx, nil
}

// admit validates the transaction against the current state and applies it
// to the pending pool. The caller must hold the write lock.
func (s *State) admit(tx database.Tx) error {
	if err := database.ValidateTransaction(tx, s.genesis); err != nil {
		return err
	}

	// Coinbase transactions only exist inside mined blocks.
	if tx.IsCoinbase() {
		return fmt.Errorf("tx[%s]: submitted: %w", tx.Hash(), database.ErrInvalidCoinbase)
	}

	if _, exists := s.pendingIdx[tx.Hash()]; exists {
		return fmt.Errorf("tx[%s]: %w", tx.Hash(), ErrDuplicateTransaction)
	}

	if height, exists := s.chain.TxHeight(tx.Hash()); exists {
		return fmt.Errorf("tx[%s]: blk[%d]: %w", tx.Hash(), height, ErrTransactionConfirmed)
	}

	if err := s.pending.Transact(tx); err != nil {
		return err
	}

	s.pendingTxs = append(s.pendingTxs, tx)
	s.pendingIdx[tx.Hash()] = struct{}{}

	return nil
}

// resetPending forks the pending pool from the confirmed pool and admits the
// previously pending transactions that are still applicable, in their
// original order. The caller must hold the write lock.
func (s *State) resetPending() {
	old := s.pendingTxs

	s.pending = s.confirmed.Clone()
	s.pendingTxs = nil
	s.pendingIdx = make(map[string]struct{})

	for _, tx := range old {
		if err := s.admit(tx); err != nil {
			s.evHandler("state: resetPending: dropped: tx[%s]: %s", tx.Hash(), err)
		}
	}
}
