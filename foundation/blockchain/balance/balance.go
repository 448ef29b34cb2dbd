// Package balance maintains account balances in memory.
package balance

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ardanlabs/powchain/foundation/blockchain/database"
)

// ErrInsufficientFunds is returned when an update would drive a balance
// below zero.
var ErrInsufficientFunds = errors.New("insufficient funds")

// Pool represents the data representation to maintain address balances.
// A balance is never negative and addresses with no funds are not kept.
type Pool struct {
	mu   sync.RWMutex
	pool map[string]float64
}

// NewPool constructs an empty balance pool for use.
func NewPool() *Pool {
	return &Pool{
		pool: make(map[string]float64),
	}
}

// Balance returns the balance of the address, zero when it is unknown.
func (p *Pool) Balance(address string) float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.pool[address]
}

// SetBalance applies the delta to the balance of the address. The pool is
// left unchanged if the result would be negative.
func (p *Pool) SetBalance(address string, delta float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.apply(change{address: address, delta: delta})
}

// Transact applies the transaction to the pool. The sender is debited the
// amount plus the fee and then the recipient is credited the amount, so a
// sender paying itself still needs the full cost. Coinbase transactions only
// credit. Either every change is applied or none.
func (p *Pool) Transact(tx database.Tx) error {
	changes := make([]change, 0, 2)
	if !tx.IsCoinbase() {
		changes = append(changes, change{address: tx.From, delta: -tx.Cost()})
	}
	changes = append(changes, change{address: tx.To, delta: tx.Amount})

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.apply(changes...); err != nil {
		return fmt.Errorf("tx[%s]: %w", tx.Hash(), err)
	}

	return nil
}

// FromBlocks builds a pool by applying every transaction of the blocks in
// order. The blocks are expected to be a validated chain.
func FromBlocks(blocks []database.Block) (*Pool, error) {
	pool := NewPool()

	for _, b := range blocks {
		for _, tx := range b.Transactions {
			if err := pool.Transact(tx); err != nil {
				return nil, fmt.Errorf("blk[%d]: %w", b.Height, err)
			}
		}
	}

	return pool, nil
}

// Clone makes an independent copy of the pool.
func (p *Pool) Clone() *Pool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	clone := NewPool()
	for address, value := range p.pool {
		clone.pool[address] = value
	}
	return clone
}

// Entries makes a copy of the current balances and returns the raw data.
func (p *Pool) Entries() map[string]float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()

	entries := make(map[string]float64, len(p.pool))
	for address, value := range p.pool {
		entries[address] = value
	}
	return entries
}

// Total returns the sum of all balances.
func (p *Pool) Total() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var total float64
	for _, value := range p.pool {
		total += value
	}
	return total
}

// Has reports whether the address holds a balance.
func (p *Pool) Has(address string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	_, exists := p.pool[address]
	return exists
}

// Len returns the number of addresses holding a balance.
func (p *Pool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return len(p.pool)
}

// =============================================================================

// change is a delta to apply to the balance of an address.
type change struct {
	address string
	delta   float64
}

// apply checks the changes in order, each one against the result of the
// previous ones, before changing any balance. The caller must hold the
// write lock.
func (p *Pool) apply(changes ...change) error {
	results := make(map[string]float64, len(changes))
	for _, c := range changes {
		current, exists := results[c.address]
		if !exists {
			current = p.pool[c.address]
		}

		result := current + c.delta
		if result < 0 {
			return fmt.Errorf("%s has %v, needs %v: %w", c.address, current, -c.delta, ErrInsufficientFunds)
		}
		results[c.address] = result
	}

	for address, result := range results {
		if result == 0 {
			delete(p.pool, address)
			continue
		}
		p.pool[address] = result
	}

	return nil
}
