package state

import (
	"fmt"

	"github.com/ardanlabs/powchain/foundation/blockchain/database"
	"github.com/ardanlabs/powchain/foundation/blockchain/merkle"
)

// TxProof proves a confirmed transaction is part of the block at the
// specified height.
type TxProof struct {
	BlockHeight int64        `json:"blockHeight"`
	BlockHash   string       `json:"blockHash"`
	MerkleRoot  string       `json:"merkleRoot"`
	Proof       merkle.Proof `json:"proof"`
}

// TransactionProof returns the proof of inclusion of the confirmed
// transaction with the specified hash.
func (s *State) TransactionProof(hash string) (TxProof, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	height, exists := s.chain.TxHeight(hash)
	if !exists {
		return TxProof{}, fmt.Errorf("tx[%s]: %w", hash, database.ErrNotFound)
	}

	b, err := s.chain.Block(height)
	if err != nil {
		return TxProof{}, err
	}

	leaves := make([]string, len(b.Transactions))
	for i, tx := range b.Transactions {
		leaves[i] = tx.Hash()
	}

	tree, err := merkle.NewTree(leaves)
	if err != nil {
		return TxProof{}, err
	}

	proof, err := tree.Proof(hash)
	if err != nil {
		return TxProof{}, err
	}

	txp := TxProof{
		BlockHeight: b.Height,
		BlockHash:   b.Hash(),
		MerkleRoot:  tree.Root(),
		Proof:       proof,
	}

	return txp, nil
}
