// Package bolt implements the ability to read and write blocks to a single
// bbolt database file.
package bolt

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ardanlabs/powchain/foundation/blockchain/database"
	"go.etcd.io/bbolt"
)

// blocksBucket holds the block records keyed by their big endian height.
var blocksBucket = []byte("blocks")

// Bolt represents the storage implementation for reading and storing blocks
// in a bbolt database. This implements the database.Storage interface.
type Bolt struct {
	db *bbolt.DB
}

// New opens or creates the database file at the specified path.
func New(dbPath string) (*Bolt, error) {
	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", dbPath, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(blocksBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Bolt{db: db}, nil
}

// Close releases the database file.
func (b *Bolt) Close() error {
	return b.db.Close()
}

// Write takes the specified block record and stores it under its height.
func (b *Bolt) Write(blockRec database.BlockRecord) error {
	data, err := json.Marshal(blockRec)
	if err != nil {
		return err
	}

	return b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(blocksBucket).Put(heightKey(blockRec.Height), data)
	})
}

// GetBlock locates and returns the contents of the specified block by
// height.
func (b *Bolt) GetBlock(height int64) (database.BlockRecord, error) {
	var blockRec database.BlockRecord

	err := b.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(blocksBucket).Get(heightKey(height))
		if data == nil {
			return fmt.Errorf("blk[%d]: %w", height, database.ErrNotFound)
		}

		// The data is only valid for the life of the transaction.
		return json.Unmarshal(data, &blockRec)
	})
	if err != nil {
		return database.BlockRecord{}, err
	}

	return blockRec, nil
}

// ForEach returns an iterator to walk through all the blocks
// starting with block height 1.
func (b *Bolt) ForEach() database.Iterator {
	return &boltIterator{storage: b}
}

// Reset will clear out every stored block.
func (b *Bolt) Reset() error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(blocksBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucket(blocksBucket)
		return err
	})
}

// heightKey encodes the height so keys sort in chain order.
func heightKey(height int64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(height))
	return key
}

// =============================================================================

// boltIterator represents the iteration implementation for walking through
// the stored blocks. This implements the database Iterator interface.
type boltIterator struct {
	storage *Bolt // Access to the storage API.
	current int64 // Current block height being iterated over.
	eoc     bool  // Represents the iterator is at the end of the chain.
}

// Next retrieves the next block from the database.
func (bi *boltIterator) Next() (database.BlockRecord, error) {
	if bi.eoc {
		return database.BlockRecord{}, fmt.Errorf("end of chain: %w", database.ErrNotFound)
	}

	bi.current++
	blockRec, err := bi.storage.GetBlock(bi.current)
	if errors.Is(err, database.ErrNotFound) {
		bi.eoc = true
	}

	return blockRec, err
}

// Done returns the end of chain value.
func (bi *boltIterator) Done() bool {
	return bi.eoc
}
