// Package memory implements the ability to read and write blocks to memory
// using a slice.
package memory

import (
	"fmt"
	"sync"

	"github.com/ardanlabs/powchain/foundation/blockchain/database"
)

// Memory represents the storage implementation for reading and storing
// blocks in memory using a slice. This implements the database.Storage
// interface.
type Memory struct {
	mu     sync.RWMutex
	blocks []database.BlockRecord
}

// New constructs an Memory value for use.
func New() *Memory {
	return &Memory{}
}

// Close in this implementation has nothing to do since everything
// is in memory.
func (m *Memory) Close() error {
	return nil
}

// Write takes the specified block record and stores it in memory.
func (m *Memory) Write(blockRec database.BlockRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if exp := int64(len(m.blocks)) + 1; blockRec.Height != exp {
		return fmt.Errorf("block is out of order, got %d, exp %d", blockRec.Height, exp)
	}

	m.blocks = append(m.blocks, blockRec)

	return nil
}

// GetBlock searches the stored blocks to locate and return the contents of
// the specified block by height.
func (m *Memory) GetBlock(height int64) (database.BlockRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	idx := height - 1
	if idx < 0 || idx >= int64(len(m.blocks)) {
		return database.BlockRecord{}, fmt.Errorf("blk[%d]: %w", height, database.ErrNotFound)
	}

	return m.blocks[idx], nil
}

// ForEach returns an iterator to walk through all the blocks
// starting with block height 1.
func (m *Memory) ForEach() database.Iterator {
	return &memoryIterator{storage: m}
}

// Reset will clear out the stored blocks.
func (m *Memory) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.blocks = nil
	return nil
}

// =============================================================================

// memoryIterator represents the iteration implementation for walking
// through the blocks in memory. This implements the database Iterator
// interface.
type memoryIterator struct {
	storage *Memory // Access to the storage API.
	current int64   // Current block height being iterated over.
	eoc     bool    // Represents the iterator is at the end of the chain.
}

// Next retrieves the next block from memory.
func (mi *memoryIterator) Next() (database.BlockRecord, error) {
	if mi.eoc {
		return database.BlockRecord{}, fmt.Errorf("end of chain: %w", database.ErrNotFound)
	}

	mi.current++
	blockRec, err := mi.storage.GetBlock(mi.current)
	if err != nil {
		mi.eoc = true
	}

	return blockRec, err
}

// Done returns the end of chain value.
func (mi *memoryIterator) Done() bool {
	return mi.eoc
}
