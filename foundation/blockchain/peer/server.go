package peer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/ardanlabs/powchain/foundation/blockchain/database"
	"github.com/ardanlabs/powchain/foundation/blockchain/state"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Set of default timings for peer liveness.
const (
	DefaultPingInterval = 30 * time.Second
	DefaultPongWait     = 60 * time.Second
	DefaultRedialDelay  = 5 * time.Second
)

// ErrUnknownMessage is returned for a message name outside the protocol.
var ErrUnknownMessage = errors.New("unknown message")

// Config represents the configuration required to run the peer server.
type Config struct {
	State        *state.State
	PingInterval time.Duration
	PongWait     time.Duration
	RedialDelay  time.Duration
	EvHandler    state.EventHandler
}

// Server manages the peers connected to the node. It gossips the
// transactions and blocks the node accepts and reconciles the local chain
// with its peers.
type Server struct {
	state        *state.State
	set          *Set
	upgrader     websocket.Upgrader
	pingInterval time.Duration
	pongWait     time.Duration
	redialDelay  time.Duration
	evHandler    state.EventHandler
	subID        string
	wg           sync.WaitGroup
	shut         chan struct{}
	shutOnce     sync.Once
}

// NewServer constructs a server and starts broadcasting the node events
// to the connected peers.
func NewServer(cfg Config) *Server {
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	s := Server{
		state:        cfg.State,
		set:          NewSet(),
		pingInterval: cfg.PingInterval,
		pongWait:     cfg.PongWait,
		redialDelay:  cfg.RedialDelay,
		evHandler:    ev,
		subID:        "peer-server-" + uuid.NewString(),
		shut:         make(chan struct{}),
	}

	if s.pingInterval <= 0 {
		s.pingInterval = DefaultPingInterval
	}
	if s.pongWait <= 0 {
		s.pongWait = DefaultPongWait
	}
	if s.redialDelay <= 0 {
		s.redialDelay = DefaultRedialDelay
	}

	s.upgrader.CheckOrigin = func(r *http.Request) bool { return true }

	evts := s.state.SubscribeEvents(s.subID)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.broadcastOperations(evts)
	}()

	return &s
}

// Shutdown disconnects every peer and waits for the server goroutines.
func (s *Server) Shutdown() {
	s.evHandler("peer: shutdown: started")
	defer s.evHandler("peer: shutdown: completed")

	s.shutOnce.Do(func() {
		close(s.shut)
	})

	s.state.UnsubscribeEvents(s.subID)

	for _, p := range s.set.Copy() {
		p.Close()
	}

	s.wg.Wait()
}

// PeerCount returns the number of connected peers.
func (s *Server) PeerCount() int {
	return s.set.Len()
}

// Handler upgrades an inbound HTTP connection and serves the peer until
// the connection is lost.
func (s *Server) Handler(w http.ResponseWriter, r *http.Request) error {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("upgrade: %w", err)
	}

	select {
	case <-s.shut:
		conn.Close()
		return nil
	default:
	}

	s.serve(newPeer(conn, s.evHandler))

	return nil
}

// ConnectMaster keeps a connection open to the master node, redialing when
// the connection is lost, until the context is cancelled or the server is
// shut down.
func (s *Server) ConnectMaster(ctx context.Context, url string) {
	s.wg.Add(1)

	go func() {
		defer s.wg.Done()

		s.evHandler("peer: ConnectMaster: G started: url[%s]", url)
		defer s.evHandler("peer: ConnectMaster: G completed")

		for {
			client, err := Dial(ctx, url)
			if err != nil {
				s.evHandler("peer: ConnectMaster: dial: ERROR: %s", err)
			} else {
				p := newPeer(client.conn, s.evHandler)

				// Ask for everything the master knows we might be missing.
				if msg, err := NewMessage(NameQueryTransactions, nil); err == nil {
					p.Send(msg)
				}

				done := make(chan struct{})
				go func() {
					select {
					case <-ctx.Done():
						p.Close()
					case <-done:
					}
				}()

				s.serve(p)
				close(done)

				s.evHandler("peer: ConnectMaster: connection lost")
			}

			select {
			case <-ctx.Done():
				return
			case <-s.shut:
				return
			case <-time.After(s.redialDelay):
			}
		}
	}()
}

// Broadcast sends the message to every connected peer.
func (s *Server) Broadcast(msg Message) {
	for _, p := range s.set.Copy() {
		p.Send(msg)
	}
}

// =============================================================================

// serve registers the peer and runs its pumps until the connection is lost.
func (s *Server) serve(p *Peer) {
	s.set.Add(p)
	defer s.set.Remove(p.ID)

	s.evHandler("peer: serve: connected: peer[%s]: addr[%s]: peers[%d]", p.ID, p.Addr, s.set.Len())
	defer s.evHandler("peer: serve: disconnected: peer[%s]", p.ID)

	// Ask every new peer for its tip.
	if msg, err := NewMessage(NameQueryLastBlock, nil); err == nil {
		p.Send(msg)
	}

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		p.writePump(s.pingInterval)
	}()

	go func() {
		defer wg.Done()
		select {
		case <-s.shut:
			p.Close()
		case <-p.shut:
		}
	}()

	p.readPump(s.pongWait, s.handle)
	wg.Wait()
}

// broadcastOperations gossips the transactions and blocks accepted by
// the node.
func (s *Server) broadcastOperations(evts <-chan state.Event) {
	s.evHandler("peer: broadcastOperations: G started")
	defer s.evHandler("peer: broadcastOperations: G completed")

	for {
		select {
		case evt, ok := <-evts:
			if !ok {
				return
			}

			var msg Message
			var err error

			switch evt.Name {
			case state.EventTransactionAdded:
				msg, err = NewMessage(NameNewTransaction, evt.Transaction)
			case state.EventBlockAdded:
				msg, err = NewMessage(NameNewBlock, evt.Block)
			default:
				continue
			}

			if err != nil {
				s.evHandler("peer: broadcastOperations: ERROR: %s", err)
				continue
			}

			s.Broadcast(msg)

		case <-s.shut:
			return
		}
	}
}

// =============================================================================

// handle processes a message from a peer. An error means the message is
// malformed and the peer is dropped. Rejections by the node are not errors
// of the protocol and are only logged.
func (s *Server) handle(p *Peer, msg Message) error {
	s.evHandler("peer: handle: peer[%s]: msg[%s]", p.ID, msg.Name)

	switch msg.Name {
	case NameNewTransaction:
		var rec database.TransactionRecord
		if err := msg.Decode(&rec); err != nil {
			return err
		}
		s.addTransaction(rec)

	case NameResponseTransactions:
		var recs []database.TransactionRecord
		if err := msg.Decode(&recs); err != nil {
			return err
		}
		for _, rec := range recs {
			s.addTransaction(rec)
		}

	case NameNewBlock, NameResponseLastBlock:
		var rec database.BlockRecord
		if err := msg.Decode(&rec); err != nil {
			return err
		}
		s.receiveBlock(p, rec)

	case NameResponseChain:
		var recs []database.BlockRecord
		if err := msg.Decode(&recs); err != nil {
			return err
		}
		if err := s.state.ReplaceChain(recs); err != nil {
			s.evHandler("peer: handle: peer[%s]: replace chain: %s", p.ID, err)
		}

	case NameResponseChainSize:
		var size int64
		if err := msg.Decode(&size); err != nil {
			return err
		}
		if size > s.state.ChainSize() {
			s.query(p, NameQueryChain)
		}

	case NameQueryChain:
		return s.reply(p, NameResponseChain, s.state.BlockRecords())

	case NameQueryLastBlock:
		return s.reply(p, NameResponseLastBlock, s.state.LastBlockRecord())

	case NameQueryChainSize:
		return s.reply(p, NameResponseChainSize, s.state.ChainSize())

	case NameQueryTransactions:
		return s.reply(p, NameResponseTransactions, s.state.PendingRecords())

	default:
		return fmt.Errorf("%q: %w", msg.Name, ErrUnknownMessage)
	}

	return nil
}

// receiveBlock adds a block that extends the local tip. Blocks already in
// the chain are ignored. Any other block means the chains diverged, so the
// full chain of the peer is requested.
func (s *Server) receiveBlock(p *Peer, rec database.BlockRecord) {
	tip := s.state.LastBlock()

	switch {
	case rec.Hash != "" && s.state.HasBlock(rec.Hash):
		return

	case rec.ParentHash == tip.Hash() && rec.Height == tip.Height+1:
		if err := s.state.AddBlock(rec); err != nil {
			s.evHandler("peer: receiveBlock: peer[%s]: blk[%d]: %s", p.ID, rec.Height, err)
		}

	default:
		s.query(p, NameQueryChain)
	}
}

func (s *Server) addTransaction(rec database.TransactionRecord) {
	if err := s.state.AddTransaction(rec); err != nil {
		s.evHandler("peer: addTransaction: tx[%s]: %s", rec.Hash, err)
	}
}

func (s *Server) query(p *Peer, name string) {
	msg, _ := NewMessage(name, nil)
	p.Send(msg)
}

func (s *Server) reply(p *Peer, name string, data any) error {
	msg, err := NewMessage(name, data)
	if err != nil {
		return err
	}

	p.Send(msg)

	return nil
}
