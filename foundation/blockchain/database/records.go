package database

import (
	"errors"
	"fmt"

	"github.com/ardanlabs/powchain/foundation/blockchain/genesis"
	"github.com/ardanlabs/powchain/foundation/validate"
)

// ErrInvalidRecord is returned when a record fails its schema checks.
var ErrInvalidRecord = errors.New("invalid record")

// TransactionRecord is the serialized form of a transaction that crosses
// the node boundary over the network, to disk and to clients.
type TransactionRecord struct {
	Hash        string  `json:"hash" validate:"omitempty,len=66"`
	From        string  `json:"from" validate:"required"`
	To          string  `json:"to" validate:"required"`
	Amount      float64 `json:"amount"`
	Fee         float64 `json:"fee"`
	Signature   string  `json:"signature,omitempty"`
	BlockHeight int64   `json:"blockHeight"`
	Type        string  `json:"type" validate:"omitempty,oneof=coinbase transfer"`
	TimeStamp   int64   `json:"timestamp"`
}

// NewTransactionRecord constructs the record for a transaction that lives
// in the block at the specified height. Pending transactions use height 0.
func NewTransactionRecord(tx Tx, blockHeight int64) TransactionRecord {
	return TransactionRecord{
		Hash:        tx.Hash(),
		From:        tx.From,
		To:          tx.To,
		Amount:      tx.Amount,
		Fee:         tx.Fee,
		Signature:   tx.Signature,
		BlockHeight: blockHeight,
		Type:        tx.Kind.String(),
		TimeStamp:   tx.TimeStamp,
	}
}

// ToTx converts a record into a transaction. The kind, fee and hash are
// derived from the record fields and never trusted from the record itself.
func ToTx(rec TransactionRecord, gen genesis.Genesis) (Tx, error) {
	if err := validate.Check(rec); err != nil {
		return Tx{}, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}

	return toTx(rec, gen)
}

func toTx(rec TransactionRecord, gen genesis.Genesis) (Tx, error) {
	kind := KindTransfer
	fee := gen.Fee(rec.Amount)
	if rec.From == gen.RootAddress && rec.Signature == "" {
		kind = KindCoinbase
		fee = 0
	}

	tx := newTx(kind, rec.From, rec.To, rec.Amount, rec.Signature, rec.TimeStamp, fee)

	if rec.Hash != "" && rec.Hash != tx.hash {
		return Tx{}, fmt.Errorf("tx hash %s, calculated %s: %w", rec.Hash, tx.hash, ErrInvalidHash)
	}

	return tx, nil
}

// =============================================================================

// BlockRecord is the serialized form of a block.
type BlockRecord struct {
	Height       int64               `json:"height"`
	ParentHash   string              `json:"parentHash" validate:"required"`
	Difficulty   int                 `json:"difficulty"`
	Nonce        int64               `json:"nonce"`
	Hash         string              `json:"hash" validate:"omitempty,len=66"`
	Miner        string              `json:"miner"`
	Reward       float64             `json:"reward"`
	TimeStamp    int64               `json:"timestamp"`
	Transactions []TransactionRecord `json:"transactions" validate:"dive"`
}

// NewBlockRecord constructs the record for a block.
func NewBlockRecord(b Block, gen genesis.Genesis) BlockRecord {
	txs := make([]TransactionRecord, len(b.Transactions))
	for i, tx := range b.Transactions {
		txs[i] = NewTransactionRecord(tx, b.Height)
	}

	return BlockRecord{
		Height:       b.Height,
		ParentHash:   b.ParentHash,
		Difficulty:   b.Difficulty,
		Nonce:        b.Nonce,
		Hash:         b.Hash(),
		Miner:        b.Miner(),
		Reward:       b.Reward(gen),
		TimeStamp:    b.TimeStamp,
		Transactions: txs,
	}
}

// ToBlock converts a record into a block. The hash is recalculated from the
// block fields and must match the hash carried by the record when present.
func ToBlock(rec BlockRecord, gen genesis.Genesis) (Block, error) {
	if err := validate.Check(rec); err != nil {
		return Block{}, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}

	txs := make([]Tx, len(rec.Transactions))
	for i, txRec := range rec.Transactions {
		tx, err := toTx(txRec, gen)
		if err != nil {
			return Block{}, fmt.Errorf("blk[%d]: tx[%d]: %w", rec.Height, i, err)
		}
		txs[i] = tx
	}

	b := Block{
		Height:       rec.Height,
		ParentHash:   rec.ParentHash,
		Transactions: txs,
		Difficulty:   rec.Difficulty,
		Nonce:        rec.Nonce,
		TimeStamp:    rec.TimeStamp,
	}
	b.hash = b.calculateHash()

	if rec.Hash != "" && rec.Hash != b.hash {
		return Block{}, fmt.Errorf("blk[%d]: hash %s, calculated %s: %w", rec.Height, rec.Hash, b.hash, ErrInvalidHash)
	}

	return b, nil
}

// ToBlocks converts a list of records into blocks.
func ToBlocks(recs []BlockRecord, gen genesis.Genesis) ([]Block, error) {
	blocks := make([]Block, len(recs))
	for i, rec := range recs {
		b, err := ToBlock(rec, gen)
		if err != nil {
			return nil, err
		}
		blocks[i] = b
	}

	return blocks, nil
}

// =============================================================================

// WalletRecord is the serialized view of an address with its balance and
// the confirmed transactions it took part in.
type WalletRecord struct {
	Address      string              `json:"address"`
	Balance      float64             `json:"balance"`
	Transactions []TransactionRecord `json:"transactions"`
}
