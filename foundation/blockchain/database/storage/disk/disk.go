// Package disk implements the ability to read and write blocks to disk
// with one JSON file per block.
package disk

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ardanlabs/powchain/foundation/blockchain/database"
)

// Disk represents the storage implementation for reading and storing
// blocks in their own separate files on disk. This implements the
// database.Storage interface.
type Disk struct {
	dbPath string
}

// New constructs a Disk value for use.
func New(dbPath string) (*Disk, error) {
	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, err
	}

	return &Disk{dbPath: dbPath}, nil
}

// Close in this implementation has nothing to do since a new file is
// written to disk for each new block and then immediately closed.
func (d *Disk) Close() error {
	return nil
}

// Write takes the specified block record and stores it on disk in a
// file labeled with the block height.
func (d *Disk) Write(blockRec database.BlockRecord) error {

	// Marshal the block for writing to disk in a more human readable format.
	data, err := json.MarshalIndent(blockRec, "", "  ")
	if err != nil {
		return err
	}

	// Create a new file for this block and name it based on the block height.
	f, err := os.OpenFile(d.getPath(blockRec.Height), os.O_CREATE|os.O_TRUNC|os.O_RDWR, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	// Write the new block to disk.
	if _, err := f.Write(data); err != nil {
		return err
	}

	return nil
}

// GetBlock searches the blockchain on disk to locate and return the
// contents of the specified block by height.
func (d *Disk) GetBlock(height int64) (database.BlockRecord, error) {

	// Open the block file for the specified height.
	f, err := os.OpenFile(d.getPath(height), os.O_RDONLY, 0600)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return database.BlockRecord{}, fmt.Errorf("blk[%d]: %w", height, database.ErrNotFound)
		}
		return database.BlockRecord{}, err
	}
	defer f.Close()

	// Decode the contents of the block.
	var blockRec database.BlockRecord
	if err := json.NewDecoder(f).Decode(&blockRec); err != nil {
		return database.BlockRecord{}, err
	}

	return blockRec, nil
}

// ForEach returns an iterator to walk through all the blocks
// starting with block height 1.
func (d *Disk) ForEach() database.Iterator {
	return &diskIterator{disk: d}
}

// Reset will clear out the blockchain on disk.
func (d *Disk) Reset() error {
	if err := os.RemoveAll(d.dbPath); err != nil {
		return err
	}

	return os.MkdirAll(d.dbPath, 0755)
}

// getPath forms the path to the specified block.
func (d *Disk) getPath(height int64) string {
	name := strconv.FormatInt(height, 10)
	return filepath.Join(d.dbPath, fmt.Sprintf("%s.json", name))
}

// =============================================================================

// diskIterator represents the iteration implementation for walking
// through and reading blocks on disk. This implements the database
// Iterator interface.
type diskIterator struct {
	disk    *Disk // Access to the storage API.
	current int64 // Current block height being iterated over.
	eoc     bool  // Represents the iterator is at the end of the chain.
}

// Next retrieves the next block from disk.
func (di *diskIterator) Next() (database.BlockRecord, error) {
	if di.eoc {
		return database.BlockRecord{}, fmt.Errorf("end of chain: %w", database.ErrNotFound)
	}

	di.current++
	blockRec, err := di.disk.GetBlock(di.current)
	if errors.Is(err, database.ErrNotFound) {
		di.eoc = true
	}

	return blockRec, err
}

// Done returns the end of chain value.
func (di *diskIterator) Done() bool {
	return di.eoc
}
