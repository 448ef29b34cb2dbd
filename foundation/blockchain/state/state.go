// Package state is the core API for the blockchain and implements all the
// business rules and processing. State is the only writer of the chain,
// the balance pools and the pending transactions.
package state

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ardanlabs/powchain/foundation/blockchain/balance"
	"github.com/ardanlabs/powchain/foundation/blockchain/database"
	"github.com/ardanlabs/powchain/foundation/blockchain/genesis"
	"github.com/ardanlabs/powchain/foundation/blockchain/signature"
	"github.com/ardanlabs/powchain/foundation/events"
)

// Set of error variables for accepting transactions and blocks.
var (
	ErrDuplicateTransaction = errors.New("transaction already pending")
	ErrTransactionConfirmed = errors.New("transaction already confirmed")
	ErrWrongHeight          = errors.New("block is not the next height")
	ErrParentMismatch       = errors.New("block parent is not the chain tip")
	ErrDuplicateBlock       = errors.New("block already in chain")
	ErrChainNotLonger       = errors.New("chain is not longer than the local chain")
)

// =============================================================================

// EventHandler defines a function that is called when events
// occur in the processing of blocks and transactions.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by any
// package providing support for mining.
type Worker interface {
	Shutdown()
	SignalCancelMining() (done func())
}

// ChainPolicy decides when a valid chain from a peer replaces the local one.
type ChainPolicy string

// Set of chain policies.
const (
	PolicyLongest ChainPolicy = "longest" // Replace only with a strictly longer chain.
	PolicyAny     ChainPolicy = "any"     // Replace with any valid chain.
)

// ParseChainPolicy converts a configuration value into a policy.
func ParseChainPolicy(policy string) (ChainPolicy, error) {
	switch ChainPolicy(policy) {
	case PolicyLongest, PolicyAny:
		return ChainPolicy(policy), nil
	case "":
		return PolicyLongest, nil
	}

	return "", fmt.Errorf("unknown chain policy %q", policy)
}

// =============================================================================

// Config represents the configuration required to start
// the blockchain node.
type Config struct {
	MinerAddress string
	Genesis      genesis.Genesis
	Storage      database.Storage
	ChainPolicy  ChainPolicy
	EvHandler    EventHandler
}

// State manages the blockchain database.
type State struct {
	mu sync.RWMutex

	minerAddress string
	genesis      genesis.Genesis
	policy       ChainPolicy
	evHandler    EventHandler
	storage      database.Storage
	events       *events.Events[Event]

	chain      *database.Chain
	confirmed  *balance.Pool
	pending    *balance.Pool
	pendingTxs []database.Tx
	pendingIdx map[string]struct{}

	Worker Worker
}

// New constructs a new blockchain for data management. Blocks found in
// storage are validated and replayed to rebuild the balances.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	if !signature.IsAddress(cfg.MinerAddress) {
		return nil, fmt.Errorf("miner address %q is not properly formatted", cfg.MinerAddress)
	}

	if err := cfg.Genesis.Validate(); err != nil {
		return nil, fmt.Errorf("genesis: %w", err)
	}

	if cfg.Storage == nil {
		return nil, errors.New("storage is required")
	}

	policy := cfg.ChainPolicy
	if policy == "" {
		policy = PolicyLongest
	}

	// Load all existing blocks from storage into memory for processing.
	recs, err := database.ReadAll(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("reading blocks: %w", err)
	}

	stored, err := database.ToBlocks(recs, cfg.Genesis)
	if err != nil {
		return nil, fmt.Errorf("reading blocks: %w", err)
	}

	blocks := append([]database.Block{database.GenesisBlock(cfg.Genesis)}, stored...)

	pool, err := replay(blocks, cfg.Genesis)
	if err != nil {
		return nil, fmt.Errorf("replaying blocks: %w", err)
	}

	ev("state: New: loaded blocks[%d]: supply[%v]", len(blocks), pool.Total())

	state := State{
		minerAddress: cfg.MinerAddress,
		genesis:      cfg.Genesis,
		policy:       policy,
		evHandler:    ev,
		storage:      cfg.Storage,
		events:       events.New[Event](),

		chain:      database.NewChain(blocks[0]),
		confirmed:  pool,
		pending:    pool.Clone(),
		pendingIdx: make(map[string]struct{}),
	}
	state.chain.Replace(blocks)

	// The Worker is not set here. The call to worker.Run will assign itself
	// and start everything up and running for the node.

	return &state, nil
}

// Shutdown cleanly brings the node down.
func (s *State) Shutdown() error {
	s.evHandler("state: shutdown: started")
	defer s.evHandler("state: shutdown: completed")

	// Stop all blockchain writing activity.
	if s.Worker != nil {
		s.Worker.Shutdown()
	}

	s.events.Shutdown()

	// Make sure the database file is properly closed.
	return s.storage.Close()
}

// =============================================================================

// replay validates the chain and rebuilds the balances from the genesis
// block forward.
func replay(blocks []database.Block, gen genesis.Genesis) (*balance.Pool, error) {
	if err := database.ValidateChain(blocks, gen); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})

	for _, b := range blocks {
		for _, tx := range b.Transactions {
			if tx.IsCoinbase() {
				continue
			}

			if _, exists := seen[tx.Hash()]; exists {
				return nil, fmt.Errorf("blk[%d]: tx[%s]: %w", b.Height, tx.Hash(), ErrTransactionConfirmed)
			}
			seen[tx.Hash()] = struct{}{}
		}
	}

	return balance.FromBlocks(blocks)
}

// signalCancelMining stops an in-flight mining attempt that the latest
// change to the chain made obsolete.
func (s *State) signalCancelMining() {
	if s.Worker == nil {
		return
	}

	done := s.Worker.SignalCancelMining()
	done()
}
