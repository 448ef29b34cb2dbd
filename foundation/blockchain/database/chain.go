package database

import (
	"fmt"
	"sync"
	"time"
)

// Chain is the ordered sequence of blocks starting at the genesis block. It
// performs no validation, callers validate blocks before handing them over.
type Chain struct {
	mu      sync.RWMutex
	blocks  []Block
	blkIdx  map[string]int64
	txIndex map[string]int64
}

// NewChain constructs a chain holding only the specified genesis block.
func NewChain(genesisBlock Block) *Chain {
	c := Chain{}
	c.reset([]Block{genesisBlock})

	return &c
}

// Size returns the number of blocks in the chain.
func (c *Chain) Size() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return int64(len(c.blocks))
}

// LastBlock returns the block at the tip of the chain.
func (c *Chain) LastBlock() Block {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.blocks[len(c.blocks)-1]
}

// Genesis returns the first block of the chain.
func (c *Chain) Genesis() Block {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.blocks[0]
}

// Blocks returns a copy of the blocks in the chain.
func (c *Chain) Blocks() []Block {
	c.mu.RLock()
	defer c.mu.RUnlock()

	blocks := make([]Block, len(c.blocks))
	copy(blocks, c.blocks)

	return blocks
}

// Block returns the block at the specified height.
func (c *Chain) Block(height int64) (Block, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if height < 0 || height >= int64(len(c.blocks)) {
		return Block{}, fmt.Errorf("blk[%d]: %w", height, ErrNotFound)
	}

	return c.blocks[height], nil
}

// HasBlock reports whether a block with the specified hash is part of the
// chain.
func (c *Chain) HasBlock(hash string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, exists := c.blkIdx[hash]
	return exists
}

// TxHeight returns the height of the block that confirmed the transaction
// with the specified hash.
func (c *Chain) TxHeight(hash string) (int64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	height, exists := c.txIndex[hash]
	return height, exists
}

// NextBlock constructs the template for the block following the tip. The
// template carries a copy of the pending transactions.
func (c *Chain) NextBlock(pending []Tx) Block {
	tip := c.LastBlock()

	txs := make([]Tx, len(pending))
	copy(txs, pending)

	return NewBlock(tip.Height+1, tip.Hash(), tip.Difficulty, time.Now().UTC().UnixMilli(), txs)
}

// AddBlock appends the block to the chain.
func (c *Chain) AddBlock(b Block) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.append(b)
}

// Replace substitutes the whole sequence of blocks.
func (c *Chain) Replace(blocks []Block) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.reset(blocks)
}

// =============================================================================

func (c *Chain) reset(blocks []Block) {
	c.blocks = make([]Block, 0, len(blocks))
	c.blkIdx = make(map[string]int64, len(blocks))
	c.txIndex = make(map[string]int64)

	for _, b := range blocks {
		c.append(b)
	}
}

func (c *Chain) append(b Block) {
	c.blocks = append(c.blocks, b)
	c.blkIdx[b.Hash()] = b.Height

	for _, tx := range b.Transactions {
		if !tx.IsCoinbase() {
			c.txIndex[tx.Hash()] = b.Height
		}
	}
}
