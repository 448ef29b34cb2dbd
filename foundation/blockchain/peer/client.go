package peer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
)

// Client is a connection to a node used outside the peer server, such as by
// the wallet. It is not safe for concurrent use.
type Client struct {
	conn *websocket.Conn
}

// Dial opens a connection to the node at the specified websocket url.
func Dial(ctx context.Context, url string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}

	return &Client{conn: conn}, nil
}

// Send writes the message to the node.
func (c *Client) Send(msg Message) error {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(msg)
}

// Receive reads messages until one with the specified name arrives. Other
// messages, like the queries a node sends on connect, are skipped.
func (c *Client) Receive(ctx context.Context, name string) (Message, error) {
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(DefaultPongWait)
	}
	c.conn.SetReadDeadline(deadline)
	c.conn.SetReadLimit(maxMessageSize)

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return Message{}, fmt.Errorf("receive %s: %w", name, err)
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			return Message{}, fmt.Errorf("receive %s: %w", name, err)
		}

		if msg.Name == name {
			return msg, nil
		}
	}
}

// Request sends the query and waits for the response with the specified
// name.
func (c *Client) Request(ctx context.Context, query string, response string) (Message, error) {
	msg, err := NewMessage(query, nil)
	if err != nil {
		return Message{}, err
	}

	if err := c.Send(msg); err != nil {
		return Message{}, fmt.Errorf("send %s: %w", query, err)
	}

	return c.Receive(ctx, response)
}

// Close closes the connection to the node.
func (c *Client) Close() error {
	c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
	return c.conn.Close()
}
