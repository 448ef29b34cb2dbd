package database

import (
	"crypto/ecdsa"
	"fmt"
	"strconv"
	"time"

	"github.com/ardanlabs/powchain/foundation/blockchain/genesis"
	"github.com/ardanlabs/powchain/foundation/blockchain/signature"
)

// Kind represents how a transaction moves value.
type Kind int

// Set of transaction kinds.
const (
	KindTransfer Kind = iota // Moves value between two accounts, signed by the sender.
	KindCoinbase             // Mints value for the miner of a block, never signed.
)

// String implements the fmt.Stringer interface and returns the name used
// in transaction records.
func (k Kind) String() string {
	if k == KindCoinbase {
		return "coinbase"
	}
	return "transfer"
}

// =============================================================================

// Tx is the transactional information between two parties. A value is
// immutable once constructed. TransactionRecord is its serialized form.
type Tx struct {
	Kind      Kind
	From      string  // Address of the sender or the root address for coinbase.
	To        string  // Address receiving the amount.
	Amount    float64 // Monetary value received from this transaction.
	Signature string  // Sender signature of the hash in the [R|S|V] format.
	TimeStamp int64   // Time the transaction was created in milliseconds.
	Fee       float64 // Commission the sender pays to the miner.

	hash string
}

// NewCoinbase constructs the unsigned transaction that pays the miner of a
// block.
func NewCoinbase(gen genesis.Genesis, to string, amount float64, timeStamp int64) Tx {
	return newTx(KindCoinbase, gen.RootAddress, to, amount, "", timeStamp, 0)
}

// NewTransfer constructs a transfer from the account behind the private key
// and signs it.
func NewTransfer(privateKey *ecdsa.PrivateKey, to string, amount float64, gen genesis.Genesis) (Tx, error) {
	if !signature.IsAddress(to) {
		return Tx{}, fmt.Errorf("to address is not properly formatted")
	}

	from := signature.PublicKeyToAddress(privateKey.PublicKey)
	tx := newTx(KindTransfer, from, to, amount, "", time.Now().UTC().UnixMilli(), gen.Fee(amount))

	sig, err := signature.Sign(tx.hash, privateKey)
	if err != nil {
		return Tx{}, err
	}
	tx.Signature = sig

	return tx, nil
}

// newTx constructs a transaction and caches its hash.
func newTx(kind Kind, from string, to string, amount float64, sig string, timeStamp int64, fee float64) Tx {
	tx := Tx{
		Kind:      kind,
		From:      from,
		To:        to,
		Amount:    amount,
		Signature: sig,
		TimeStamp: timeStamp,
		Fee:       fee,
	}
	tx.hash = tx.calculateHash()

	return tx
}

// Hash returns the unique hash for the transaction.
func (tx Tx) Hash() string {
	if tx.hash == "" {
		return tx.calculateHash()
	}
	return tx.hash
}

// IsCoinbase reports whether the transaction mints value.
func (tx Tx) IsCoinbase() bool {
	return tx.Kind == KindCoinbase
}

// Cost returns what the sender is debited for the transaction.
func (tx Tx) Cost() float64 {
	if tx.IsCoinbase() {
		return 0
	}
	return tx.Amount + tx.Fee
}

// String implements the fmt.Stringer interface for logging.
func (tx Tx) String() string {
	return fmt.Sprintf("%s:%s->%s:%s", tx.Kind, tx.From, tx.To, formatAmount(tx.Amount))
}

// calculateHash hashes the fields that identify the transaction. The
// signature is not part of the hash since it signs the hash.
func (tx Tx) calculateHash() string {
	return signature.Hash(tx.From + tx.To + formatAmount(tx.Amount) + strconv.FormatInt(tx.TimeStamp, 10))
}

// formatAmount renders an amount with the fewest digits that represent it.
func formatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', -1, 64)
}
