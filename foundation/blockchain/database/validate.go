package database

import (
	"errors"
	"fmt"
	"math"

	"github.com/ardanlabs/powchain/foundation/blockchain/genesis"
	"github.com/ardanlabs/powchain/foundation/blockchain/signature"
)

// Set of errors returned by the validation functions.
var (
	ErrInvalidSender     = errors.New("invalid sender address")
	ErrInvalidRecipient  = errors.New("invalid recipient address")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidTimestamp  = errors.New("invalid timestamp")
	ErrInvalidSignature  = errors.New("invalid signature")
	ErrInvalidHeight     = errors.New("invalid block height")
	ErrInvalidParentHash = errors.New("invalid parent hash")
	ErrInvalidDifficulty = errors.New("invalid difficulty")
	ErrInvalidNonce      = errors.New("invalid nonce")
	ErrInvalidHash       = errors.New("invalid hash")
	ErrInvalidProof      = errors.New("invalid proof")
	ErrInvalidGenesis    = errors.New("invalid genesis block")
	ErrInvalidCoinbase   = errors.New("invalid coinbase transaction")
)

// rewardTolerance absorbs float rounding when comparing reward amounts.
const rewardTolerance = 1e-9

// ValidateTransaction checks the transaction is well formed and signed by
// the sender. Coinbase transactions are not signed and only need a valid
// recipient.
func ValidateTransaction(tx Tx, gen genesis.Genesis) error {
	if tx.IsCoinbase() {
		if tx.From != gen.RootAddress {
			return fmt.Errorf("coinbase from %q: %w", tx.From, ErrInvalidSender)
		}

		if !signature.IsAddress(tx.To) {
			return fmt.Errorf("to %q: %w", tx.To, ErrInvalidRecipient)
		}

		// Once the mining reward is exhausted an empty block pays nothing.
		if !(tx.Amount >= 0) || math.IsInf(tx.Amount, 0) {
			return fmt.Errorf("amount %v: %w", tx.Amount, ErrInvalidAmount)
		}

		if tx.TimeStamp <= 0 {
			return fmt.Errorf("timestamp %d: %w", tx.TimeStamp, ErrInvalidTimestamp)
		}

		return nil
	}

	if !signature.IsAddress(tx.From) {
		return fmt.Errorf("from %q: %w", tx.From, ErrInvalidSender)
	}

	if !signature.IsAddress(tx.To) {
		return fmt.Errorf("to %q: %w", tx.To, ErrInvalidRecipient)
	}

	if !(tx.Amount > 0) || math.IsInf(tx.Amount, 0) {
		return fmt.Errorf("amount %v: %w", tx.Amount, ErrInvalidAmount)
	}

	if tx.TimeStamp <= 0 {
		return fmt.Errorf("timestamp %d: %w", tx.TimeStamp, ErrInvalidTimestamp)
	}

	if !signature.Verify(tx.Hash(), tx.Signature, tx.From) {
		return fmt.Errorf("tx[%s]: %w", tx.Hash(), ErrInvalidSignature)
	}

	return nil
}

// ValidateBlock checks the block structure, its proof of work and every
// transaction it carries. Linkage to the parent block is checked by
// ValidateChain and by the node when the block is added.
func ValidateBlock(b Block, gen genesis.Genesis) error {
	if b.Height < 0 {
		return fmt.Errorf("blk[%d]: %w", b.Height, ErrInvalidHeight)
	}

	if !signature.IsHash(b.ParentHash) {
		return fmt.Errorf("blk[%d]: parent %q: %w", b.Height, b.ParentHash, ErrInvalidParentHash)
	}

	if b.Difficulty < 0 {
		return fmt.Errorf("blk[%d]: difficulty %d: %w", b.Height, b.Difficulty, ErrInvalidDifficulty)
	}

	if b.Nonce < 0 {
		return fmt.Errorf("blk[%d]: nonce %d: %w", b.Height, b.Nonce, ErrInvalidNonce)
	}

	// A cached hash that no longer matches the fields means the block was
	// altered after it was sealed.
	hash := b.calculateHash()
	if b.hash != "" && b.hash != hash {
		return fmt.Errorf("blk[%d]: hash %s, calculated %s: %w", b.Height, b.hash, hash, ErrInvalidHash)
	}

	if !isHashSolved(b.Difficulty, hash) {
		return fmt.Errorf("blk[%d]: hash %s, difficulty %d: %w", b.Height, hash, b.Difficulty, ErrInvalidProof)
	}

	if err := validateCoinbase(b, gen); err != nil {
		return err
	}

	for i, tx := range b.Transactions {
		if err := ValidateTransaction(tx, gen); err != nil {
			return fmt.Errorf("blk[%d]: tx[%d]: %w", b.Height, i, err)
		}
	}

	return nil
}

// ValidateChain checks the chain starts with the genesis block, every block
// links to its parent and every block is valid on its own.
func ValidateChain(blocks []Block, gen genesis.Genesis) error {
	if len(blocks) == 0 || !blocks[0].Equal(GenesisBlock(gen)) {
		return ErrInvalidGenesis
	}

	for i := 1; i < len(blocks); i++ {
		parent := blocks[i-1]
		b := blocks[i]

		if b.Height != parent.Height+1 {
			return fmt.Errorf("blk[%d]: parent height %d: %w", b.Height, parent.Height, ErrInvalidHeight)
		}

		if b.ParentHash != parent.Hash() {
			return fmt.Errorf("blk[%d]: parent %s, exp %s: %w", b.Height, b.ParentHash, parent.Hash(), ErrInvalidParentHash)
		}

		if err := ValidateBlock(b, gen); err != nil {
			return err
		}
	}

	return nil
}

// validateCoinbase checks a mined block starts with the one coinbase
// transaction that pays exactly the block reward.
func validateCoinbase(b Block, gen genesis.Genesis) error {
	for i, tx := range b.Transactions {
		if i > 0 && tx.IsCoinbase() {
			return fmt.Errorf("blk[%d]: tx[%d]: coinbase not first: %w", b.Height, i, ErrInvalidCoinbase)
		}
	}

	if b.Height == 0 {
		return nil
	}

	if len(b.Transactions) == 0 || !b.Transactions[0].IsCoinbase() {
		return fmt.Errorf("blk[%d]: missing coinbase: %w", b.Height, ErrInvalidCoinbase)
	}

	reward := b.Reward(gen)
	if amount := b.Transactions[0].Amount; math.Abs(amount-reward) > rewardTolerance {
		return fmt.Errorf("blk[%d]: coinbase pays %v, reward %v: %w", b.Height, amount, reward, ErrInvalidCoinbase)
	}

	return nil
}
