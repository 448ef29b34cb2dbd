// Package peer implements the protocol nodes use to share transactions and
// blocks over websocket connections.
package peer

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// writeWait is the time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// maxMessageSize bounds a single message, a full chain included.
	maxMessageSize = 64 << 20

	// sendBuffer is the number of messages that can be queued for a peer.
	sendBuffer = 256
)

// Peer represents a live connection to another node.
type Peer struct {
	ID        uuid.UUID
	Addr      string
	conn      *websocket.Conn
	send      chan Message
	shut      chan struct{}
	closeOnce sync.Once
	evHandler func(v string, args ...any)
}

func newPeer(conn *websocket.Conn, evHandler func(v string, args ...any)) *Peer {
	return &Peer{
		ID:        uuid.New(),
		Addr:      conn.RemoteAddr().String(),
		conn:      conn,
		send:      make(chan Message, sendBuffer),
		shut:      make(chan struct{}),
		evHandler: evHandler,
	}
}

// Send queues the message for delivery. A peer that can't keep up with
// its queue is disconnected.
func (p *Peer) Send(msg Message) bool {
	select {
	case <-p.shut:
		return false
	default:
	}

	select {
	case p.send <- msg:
		return true
	default:
		p.evHandler("peer: Send: peer[%s]: queue full: dropping peer", p.ID)
		p.Close()
		return false
	}
}

// Close tears the connection down. It is safe to call more than once.
func (p *Peer) Close() {
	p.closeOnce.Do(func() {
		close(p.shut)
		p.conn.Close()
	})
}

// readPump reads messages until the connection fails, the peer stops
// answering pings or a message can't be handled.
func (p *Peer) readPump(pongWait time.Duration, handle func(*Peer, Message) error) {
	defer p.Close()

	p.conn.SetReadLimit(maxMessageSize)
	p.conn.SetReadDeadline(time.Now().Add(pongWait))
	p.conn.SetPongHandler(func(string) error {
		return p.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := p.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				p.evHandler("peer: readPump: peer[%s]: ERROR: %s", p.ID, err)
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			p.evHandler("peer: readPump: peer[%s]: MALFORMED: %s", p.ID, err)
			return
		}

		if err := handle(p, msg); err != nil {
			p.evHandler("peer: readPump: peer[%s]: msg[%s]: MALFORMED: %s", p.ID, msg.Name, err)
			return
		}
	}
}

// writePump delivers queued messages and pings the peer on the specified
// interval. It is the only writer of the connection.
func (p *Peer) writePump(pingInterval time.Duration) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		p.Close()
	}()

	for {
		select {
		case msg := <-p.send:
			p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteJSON(msg); err != nil {
				p.evHandler("peer: writePump: peer[%s]: msg[%s]: ERROR: %s", p.ID, msg.Name, err)
				return
			}

		case <-ticker.C:
			if err := p.conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(writeWait)); err != nil {
				p.evHandler("peer: writePump: peer[%s]: ping: ERROR: %s", p.ID, err)
				return
			}

		case <-p.shut:
			p.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		}
	}
}
