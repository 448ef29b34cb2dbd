package database

import (
	"context"
	"strconv"
	"strings"

	"github.com/ardanlabs/powchain/foundation/blockchain/genesis"
	"github.com/ardanlabs/powchain/foundation/blockchain/signature"
)

// Block represents a group of transactions batched together. The hash is
// cached when the block is constructed and refreshed only when the nonce
// changes during mining.
type Block struct {
	Height       int64  // Block number in the chain.
	ParentHash   string // Hash of the previous block in the chain.
	Transactions []Tx   // Coinbase first, followed by the mined transfers.
	Difficulty   int    // Number of 0's needed to solve the hash solution.
	Nonce        int64  // Value identified to solve the hash solution.
	TimeStamp    int64  // Time the block was created in milliseconds.

	hash string
}

// NewBlock constructs a block and caches its hash.
func NewBlock(height int64, parentHash string, difficulty int, timeStamp int64, txs []Tx) Block {
	b := Block{
		Height:       height,
		ParentHash:   parentHash,
		Transactions: txs,
		Difficulty:   difficulty,
		TimeStamp:    timeStamp,
	}
	b.hash = b.calculateHash()

	return b
}

// GenesisBlock constructs the root block every valid chain starts with.
// The same settings always produce the same block.
func GenesisBlock(gen genesis.Genesis) Block {
	return NewBlock(0, signature.ZeroHash, gen.Difficulty, gen.Timestamp(), nil)
}

// Hash returns the unique hash for the Block.
func (b Block) Hash() string {
	if b.hash == "" {
		return b.calculateHash()
	}
	return b.hash
}

// IncrementNonce moves the nonce to the next candidate and refreshes the
// cached hash. This is the only place a constructed block is mutated.
func (b *Block) IncrementNonce() {
	b.Nonce++
	b.hash = b.calculateHash()
}

// HasValidProof reports whether the hash carries the number of leading
// zeros required by the difficulty.
func (b Block) HasValidProof() bool {
	return isHashSolved(b.Difficulty, b.Hash())
}

// PerformPOW does the work of mining to find a valid hash for the block.
// Pointer semantics are being used since a nonce is being discovered. The
// context is only used to stop the search when the node shuts down or a
// peer block makes this one obsolete.
func (b *Block) PerformPOW(ctx context.Context, ev func(v string, args ...any)) error {
	ev("database: PerformPOW: MINING: started: blk[%d]", b.Height)
	defer ev("database: PerformPOW: MINING: completed: blk[%d]", b.Height)

	for _, tx := range b.Transactions {
		ev("database: PerformPOW: MINING: tx[%s]", tx)
	}

	// The cache may be stale if the template was edited before mining.
	b.hash = b.calculateHash()

	var attempts uint64
	for !b.HasValidProof() {
		attempts++
		if attempts%1_000_000 == 0 {
			ev("database: PerformPOW: MINING: attempts[%d]", attempts)
		}

		if ctx.Err() != nil {
			ev("database: PerformPOW: MINING: CANCELLED")
			return ctx.Err()
		}

		b.IncrementNonce()
	}

	ev("database: PerformPOW: MINING: SOLVED: blk[%d]: hash[%s]: attempts[%d]", b.Height, b.hash, attempts)

	return nil
}

// =============================================================================

// TotalFees returns the sum of all transaction fees in the block.
func (b Block) TotalFees() float64 {
	var fees float64
	for _, tx := range b.Transactions {
		fees += tx.Fee
	}
	return fees
}

// TotalAmount returns the sum of all transaction amounts in the block.
func (b Block) TotalAmount() float64 {
	var amount float64
	for _, tx := range b.Transactions {
		amount += tx.Amount
	}
	return amount
}

// MiningReward returns the newly minted coins for the block.
func (b Block) MiningReward(gen genesis.Genesis) float64 {
	return gen.MiningReward(b.Height)
}

// Reward returns what the coinbase transaction of the block must pay, the
// fees of its transfers plus the mining reward.
func (b Block) Reward(gen genesis.Genesis) float64 {
	return b.TotalFees() + b.MiningReward(gen)
}

// Miner returns the address that received the coinbase of the block.
func (b Block) Miner() string {
	if len(b.Transactions) == 0 {
		return ""
	}
	return b.Transactions[0].To
}

// Equal compares two blocks by value.
func (b Block) Equal(other Block) bool {
	if b.Height != other.Height ||
		b.ParentHash != other.ParentHash ||
		b.Difficulty != other.Difficulty ||
		b.Nonce != other.Nonce ||
		b.TimeStamp != other.TimeStamp ||
		len(b.Transactions) != len(other.Transactions) {
		return false
	}

	for i := range b.Transactions {
		if b.Transactions[i].Hash() != other.Transactions[i].Hash() {
			return false
		}
	}

	return b.Hash() == other.Hash()
}

// calculateHash hashes the header fields and the transaction hashes.
func (b Block) calculateHash() string {
	var sb strings.Builder
	sb.WriteString(strconv.FormatInt(b.Height, 10))
	sb.WriteString(b.ParentHash)
	sb.WriteString(strconv.Itoa(b.Difficulty))
	sb.WriteString(strconv.FormatInt(b.Nonce, 10))
	sb.WriteString(strconv.FormatInt(b.TimeStamp, 10))
	for _, tx := range b.Transactions {
		sb.WriteString(tx.Hash())
	}

	return signature.Hash(sb.String())
}

// isHashSolved checks the hash to make sure it complies with the POW rules.
// We need to match a difficulty number of 0's after the 0x prefix.
func isHashSolved(difficulty int, hash string) bool {
	if difficulty < 0 || !signature.IsHash(hash) {
		return false
	}

	digits := hash[2:]
	if difficulty > len(digits) {
		return false
	}

	return strings.Count(digits[:difficulty], "0") == difficulty
}
