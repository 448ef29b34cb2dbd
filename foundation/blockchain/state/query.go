package state

import (
	"github.com/ardanlabs/powchain/foundation/blockchain/database"
	"github.com/ardanlabs/powchain/foundation/blockchain/genesis"
)

// Genesis returns a copy of the genesis information.
func (s *State) Genesis() genesis.Genesis {
	return s.genesis
}

// MinerAddress returns the address receiving the rewards of mined blocks.
func (s *State) MinerAddress() string {
	return s.minerAddress
}

// ChainSize returns the number of blocks in the chain, genesis included.
func (s *State) ChainSize() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.chain.Size()
}

// LastBlock returns the block at the tip of the chain.
func (s *State) LastBlock() database.Block {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.chain.LastBlock()
}

// HasBlock reports whether the block with the specified hash is part of
// the chain.
func (s *State) HasBlock(hash string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.chain.HasBlock(hash)
}

// LastBlockRecord returns the serialized block at the tip of the chain.
func (s *State) LastBlockRecord() database.BlockRecord {
	return database.NewBlockRecord(s.LastBlock(), s.genesis)
}

// Blocks returns a copy of the chain.
func (s *State) Blocks() []database.Block {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.chain.Blocks()
}

// BlockRecords returns the serialized chain.
func (s *State) BlockRecords() []database.BlockRecord {
	blocks := s.Blocks()

	recs := make([]database.BlockRecord, len(blocks))
	for i, b := range blocks {
		recs[i] = database.NewBlockRecord(b, s.genesis)
	}

	return recs
}

// PendingTransactions returns a copy of the transactions waiting to be
// mined in the order they were accepted.
func (s *State) PendingTransactions() []database.Tx {
	s.mu.RLock()
	defer s.mu.RUnlock()

	txs := make([]database.Tx, len(s.pendingTxs))
	copy(txs, s.pendingTxs)

	return txs
}

// PendingRecords returns the serialized pending transactions.
func (s *State) PendingRecords() []database.TransactionRecord {
	txs := s.PendingTransactions()

	recs := make([]database.TransactionRecord, len(txs))
	for i, tx := range txs {
		recs[i] = database.NewTransactionRecord(tx, 0)
	}

	return recs
}

// Balance returns the confirmed balance of the address.
func (s *State) Balance(address string) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.confirmed.Balance(address)
}

// PendingBalance returns the balance of the address with the pending
// transactions applied.
func (s *State) PendingBalance(address string) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.pending.Balance(address)
}

// Balances returns a copy of the confirmed balances.
func (s *State) Balances() map[string]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.confirmed.Entries()
}

// Wallet returns the confirmed balance of the address with the confirmed
// transactions it sent or received.
func (s *State) Wallet(address string) database.WalletRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wallet := database.WalletRecord{
		Address:      address,
		Balance:      s.confirmed.Balance(address),
		Transactions: []database.TransactionRecord{},
	}

	for _, b := range s.chain.Blocks() {
		for _, tx := range b.Transactions {
			if tx.From == address || tx.To == address {
				wallet.Transactions = append(wallet.Transactions, database.NewTransactionRecord(tx, b.Height))
			}
		}
	}

	return wallet
}

// TotalSupply returns the amount of coins minted so far.
func (s *State) TotalSupply() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.confirmed.Total()
}

// MaxSupply returns the amount of coins that can ever be minted.
func (s *State) MaxSupply() float64 {
	return s.genesis.MaxSupply()
}
