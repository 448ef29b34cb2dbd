// Package database handles the blockchain data model: transactions, blocks,
// the chain of blocks, their serialized records and the validation rules
// every node applies before accepting them.
package database

import "errors"

// ErrNotFound is returned when a block or record does not exist.
var ErrNotFound = errors.New("not found")

// Storage interface represents the behavior required to be implemented by any
// package providing support for storing and reading the blockchain. The
// genesis block is never stored, blocks are written starting at height 1.
type Storage interface {
	Write(blockRec BlockRecord) error
	GetBlock(height int64) (BlockRecord, error)
	ForEach() Iterator
	Close() error
	Reset() error
}

// Iterator interface represents the behavior required to be implemented by any
// package providing support to iterate over the blocks.
type Iterator interface {
	Next() (BlockRecord, error)
	Done() bool
}

// ReadAll walks the storage and returns every stored block record in order.
func ReadAll(storage Storage) ([]BlockRecord, error) {
	var recs []BlockRecord

	iter := storage.ForEach()
	for rec, err := iter.Next(); !iter.Done(); rec, err = iter.Next() {
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}

	return recs, nil
}
