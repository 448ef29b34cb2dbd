package balance_test

import (
	"errors"
	"math"
	"testing"

	"github.com/ardanlabs/powchain/foundation/blockchain/balance"
	"github.com/ardanlabs/powchain/foundation/blockchain/database"
	"github.com/ardanlabs/powchain/foundation/blockchain/genesis"
	"github.com/ardanlabs/powchain/foundation/blockchain/signature"
	"github.com/ethereum/go-ethereum/crypto"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const (
	pkHexKey   = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"
	toPKHexKey = "aed31b6b5a5ac4e7d1ab1e3c0b3e3c3b0c4f0ad2bd1cd6b49d2ef7b4ab5aa0c1"
	miner      = "miner"
)

func Test_SetBalance(t *testing.T) {
	t.Log("Given the need to update balances.")
	{
		pool := balance.NewPool()

		if err := pool.SetBalance("bill", 100); err != nil {
			t.Fatalf("\t%s\tShould be able to credit an address: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to credit an address.", success)

		err := pool.SetBalance("bill", -150)
		if !errors.Is(err, balance.ErrInsufficientFunds) {
			t.Fatalf("\t%s\tShould fail to overdraw an address: %v", failed, err)
		}
		if pool.Balance("bill") != 100 || pool.Total() != 100 {
			t.Fatalf("\t%s\tShould leave the pool unchanged on failure.", failed)
		}
		t.Logf("\t%s\tShould fail to overdraw an address and leave the pool unchanged.", success)

		if err := pool.SetBalance("bill", -100); err != nil {
			t.Fatalf("\t%s\tShould be able to spend the whole balance: %v", failed, err)
		}
		if pool.Has("bill") || pool.Len() != 0 || pool.Balance("bill") != 0 {
			t.Fatalf("\t%s\tShould remove an address with no funds.", failed)
		}
		t.Logf("\t%s\tShould remove an address with no funds.", success)

		if err := pool.SetBalance("jill", -1); !errors.Is(err, balance.ErrInsufficientFunds) {
			t.Fatalf("\t%s\tShould fail to debit an unknown address: %v", failed, err)
		}
		t.Logf("\t%s\tShould fail to debit an unknown address.", success)

		pool.SetBalance("jill", 1)
		if err := pool.SetBalance("jill", -(1 + 5e-10)); !errors.Is(err, balance.ErrInsufficientFunds) {
			t.Fatalf("\t%s\tShould fail to debit a fraction more than the balance: %v", failed, err)
		}
		if pool.Balance("jill") != 1 {
			t.Fatalf("\t%s\tShould keep the balance after a failed debit: %v", failed, pool.Balance("jill"))
		}
		t.Logf("\t%s\tShould fail to debit a fraction more than the balance.", success)

		if err := pool.SetBalance("will", 5e-10); err != nil {
			t.Fatalf("\t%s\tShould be able to credit a tiny amount: %v", failed, err)
		}
		if pool.Balance("will") != 5e-10 || !pool.Has("will") || pool.Total() != 1+5e-10 {
			t.Fatalf("\t%s\tShould keep a tiny balance: %v", failed, pool.Entries())
		}
		t.Logf("\t%s\tShould keep a tiny balance.", success)
	}
}

func Test_SelfTransfer(t *testing.T) {
	gen := genesis.Default()

	pk, err := crypto.HexToECDSA(pkHexKey)
	if err != nil {
		t.Fatalf("Should be able to load the private key: %v", err)
	}
	self := signature.PublicKeyToAddress(pk.PublicKey)

	t.Log("Given the need to apply a transfer to the sender itself.")
	{
		pool := balance.NewPool()
		pool.SetBalance(self, 1)

		tx, err := database.NewTransfer(pk, self, 10, gen)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct a transfer: %v", failed, err)
		}

		if err := pool.Transact(tx); !errors.Is(err, balance.ErrInsufficientFunds) {
			t.Fatalf("\t%s\tShould fail when the balance does not cover the amount plus fee: %v", failed, err)
		}
		if pool.Balance(self) != 1 {
			t.Fatalf("\t%s\tShould leave the balance unchanged: %v", failed, pool.Balance(self))
		}
		t.Logf("\t%s\tShould fail when the balance does not cover the amount plus fee.", success)

		small, err := database.NewTransfer(pk, self, 0.5, gen)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct a transfer: %v", failed, err)
		}

		if err := pool.Transact(small); err != nil {
			t.Fatalf("\t%s\tShould be able to apply a covered transfer: %v", failed, err)
		}
		if !near(pool.Balance(self), 1-small.Fee) {
			t.Fatalf("\t%s\tShould only cost the fee: %v", failed, pool.Balance(self))
		}
		t.Logf("\t%s\tShould only cost the fee when the balance covers it.", success)
	}
}

func Test_Transact(t *testing.T) {
	gen := genesis.Default()

	pk, err := crypto.HexToECDSA(pkHexKey)
	if err != nil {
		t.Fatalf("Should be able to load the private key: %v", err)
	}
	from := signature.PublicKeyToAddress(pk.PublicKey)

	toPK, err := crypto.HexToECDSA(toPKHexKey)
	if err != nil {
		t.Fatalf("Should be able to load the private key: %v", err)
	}
	to := signature.PublicKeyToAddress(toPK.PublicKey)

	t.Log("Given the need to apply transactions to the pool.")
	{
		pool := balance.NewPool()

		if err := pool.Transact(database.NewCoinbase(gen, from, 50, 1)); err != nil {
			t.Fatalf("\t%s\tShould be able to apply a coinbase: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to apply a coinbase.", success)

		tx, err := database.NewTransfer(pk, to, 10, gen)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct a transfer: %v", failed, err)
		}

		if err := pool.Transact(tx); err != nil {
			t.Fatalf("\t%s\tShould be able to apply a transfer: %v", failed, err)
		}

		if !near(pool.Balance(from), 39.9) || pool.Balance(to) != 10 {
			t.Logf("\t%s\tgot: from %v to %v", failed, pool.Balance(from), pool.Balance(to))
			t.Fatalf("\t%s\tShould debit the amount plus fee and credit the amount.", failed)
		}
		t.Logf("\t%s\tShould debit the amount plus fee and credit the amount.", success)

		if err := pool.Transact(database.NewCoinbase(gen, miner, tx.Fee+50, 2)); err != nil {
			t.Fatalf("\t%s\tShould be able to pay the miner: %v", failed, err)
		}

		if !near(pool.Total(), 100) {
			t.Logf("\t%s\tgot: %v", failed, pool.Total())
			t.Fatalf("\t%s\tShould conserve the value minted by coinbase transactions.", failed)
		}
		t.Logf("\t%s\tShould conserve the value minted by coinbase transactions.", success)

		big, err := database.NewTransfer(pk, to, 100, gen)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct a transfer: %v", failed, err)
		}

		before := pool.Entries()
		if err := pool.Transact(big); !errors.Is(err, balance.ErrInsufficientFunds) {
			t.Fatalf("\t%s\tShould fail a transfer beyond the balance: %v", failed, err)
		}

		after := pool.Entries()
		for address, value := range before {
			if after[address] != value {
				t.Fatalf("\t%s\tShould not credit the recipient when the debit fails.", failed)
			}
		}
		t.Logf("\t%s\tShould fail a transfer beyond the balance without partial changes.", success)
	}
}

func Test_Clone(t *testing.T) {
	t.Log("Given the need to fork a pool.")
	{
		pool := balance.NewPool()
		pool.SetBalance("bill", 10)

		clone := pool.Clone()
		clone.SetBalance("bill", 5)
		clone.SetBalance("jill", 1)

		if pool.Balance("bill") != 10 || pool.Has("jill") {
			t.Fatalf("\t%s\tShould not share state with the clone.", failed)
		}
		if clone.Balance("bill") != 15 || clone.Len() != 2 {
			t.Fatalf("\t%s\tShould start the clone from the same balances.", failed)
		}
		t.Logf("\t%s\tShould get an independent copy.", success)
	}
}

func Test_FromBlocks(t *testing.T) {
	gen := genesis.Default()

	pk, err := crypto.HexToECDSA(pkHexKey)
	if err != nil {
		t.Fatalf("Should be able to load the private key: %v", err)
	}
	from := signature.PublicKeyToAddress(pk.PublicKey)

	toPK, err := crypto.HexToECDSA(toPKHexKey)
	if err != nil {
		t.Fatalf("Should be able to load the private key: %v", err)
	}
	to := signature.PublicKeyToAddress(toPK.PublicKey)

	t.Log("Given the need to rebuild balances from blocks.")
	{
		tx, err := database.NewTransfer(pk, to, 5, gen)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct a transfer: %v", failed, err)
		}

		blocks := []database.Block{
			database.GenesisBlock(gen),
			database.NewBlock(1, signature.ZeroHash, 0, 1, []database.Tx{database.NewCoinbase(gen, from, 50, 1)}),
			database.NewBlock(2, signature.ZeroHash, 0, 2, []database.Tx{database.NewCoinbase(gen, to, 50+tx.Fee, 2), tx}),
		}

		pool, err := balance.FromBlocks(blocks)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to replay the blocks: %v", failed, err)
		}

		if !near(pool.Balance(from), 44.95) || !near(pool.Balance(to), 55.05) || !near(pool.Total(), 100) {
			t.Fatalf("\t%s\tShould apply every transaction in order: %v", failed, pool.Entries())
		}
		t.Logf("\t%s\tShould apply every transaction in order.", success)

		if _, err := balance.FromBlocks(blocks[2:]); !errors.Is(err, balance.ErrInsufficientFunds) {
			t.Fatalf("\t%s\tShould fail a transfer without funds: %v", failed, err)
		}
		t.Logf("\t%s\tShould fail a transfer without funds.", success)
	}
}

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
