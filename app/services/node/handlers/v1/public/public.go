// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/ardanlabs/powchain/business/web/errs"
	"github.com/ardanlabs/powchain/foundation/blockchain/database"
	"github.com/ardanlabs/powchain/foundation/blockchain/peer"
	"github.com/ardanlabs/powchain/foundation/blockchain/state"
	"github.com/ardanlabs/powchain/foundation/nameservice"
	"github.com/ardanlabs/powchain/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of node endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	Peers *peer.Server
	NS    *nameservice.NameService
	WS    websocket.Upgrader
}

// P2P upgrades the connection of another node and serves it as a peer.
func (h Handlers) P2P(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return h.Peers.Handler(w, r)
}

// Events handles a web socket to provide node events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.State.SubscribeEvents(v.TraceID)
	defer h.State.UnsubscribeEvents(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case evt, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteJSON(evt); err != nil {
				return nil
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// SubmitTransaction adds a signed transaction to the pending list of the
// node. The node gossips it to its peers once accepted.
func (h Handlers) SubmitTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var rec database.TransactionRecord
	if err := web.Decode(r, &rec); err != nil {
		return fmt.Errorf("unable to decode payload: %w", err)
	}

	h.Log.Infow("add tran", "traceid", v.TraceID, "from", rec.From, "to", rec.To, "amount", rec.Amount)
	if err := h.State.AddTransaction(rec); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "transaction added to pending list",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Genesis returns the genesis information.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.Genesis(), http.StatusOK)
}

// Pending returns the set of transactions waiting to be mined.
func (h Handlers) Pending(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.PendingRecords(), http.StatusOK)
}

// Proof returns the proof that a confirmed transaction is part of its block.
func (h Handlers) Proof(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	txp, err := h.State.TransactionProof(web.Param(r, "hash"))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return errs.NewTrusted(err, http.StatusNotFound)
		}
		return fmt.Errorf("proof: %w", err)
	}

	return web.Respond(ctx, w, txp, http.StatusOK)
}

// Blocks returns the full chain.
func (h Handlers) Blocks(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.BlockRecords(), http.StatusOK)
}

// LastBlock returns the block at the tip of the chain.
func (h Handlers) LastBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.LastBlockRecord(), http.StatusOK)
}

// Balances returns the current balances for all addresses.
func (h Handlers) Balances(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	entries := h.State.Balances()

	bals := make([]balance, 0, len(entries))
	for address, amount := range entries {
		bals = append(bals, balance{
			Address: address,
			Name:    h.NS.Lookup(address),
			Balance: amount,
		})
	}
	sort.Slice(bals, func(i, j int) bool { return bals[i].Address < bals[j].Address })

	resp := balances{
		LastestBlock: h.State.LastBlock().Hash(),
		Pending:      len(h.State.PendingTransactions()),
		Balances:     bals,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Wallet returns the balance and the confirmed transactions of an address.
// The address can also be given by name.
func (h Handlers) Wallet(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	address, err := h.NS.Address(web.Param(r, "address"))
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	resp := wallet{
		Name:         h.NS.Lookup(address),
		WalletRecord: h.State.Wallet(address),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Supply returns the coins minted so far and the most that can be minted.
func (h Handlers) Supply(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	resp := supply{
		Total: h.State.TotalSupply(),
		Max:   h.State.MaxSupply(),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}
