package peer

import (
	"encoding/json"
	"fmt"
)

// Set of message names exchanged between nodes.
const (
	NameNewTransaction       = "newTransaction"
	NameNewBlock             = "newBlock"
	NameQueryChainSize       = "queryChainSize"
	NameQueryChain           = "queryChain"
	NameQueryLastBlock       = "queryLastBlock"
	NameQueryTransactions    = "queryTransactions"
	NameResponseChainSize    = "responseChainSize"
	NameResponseChain        = "responseChain"
	NameResponseLastBlock    = "responseLastBlock"
	NameResponseTransactions = "responseTransactions"
)

// Message is the envelope for everything sent over a peer connection.
type Message struct {
	Name string          `json:"name"`
	Data json.RawMessage `json:"data,omitempty"`
}

// NewMessage constructs a message with the data marshaled as the payload.
// A nil data value produces a message without a payload.
func NewMessage(name string, data any) (Message, error) {
	if data == nil {
		return Message{Name: name}, nil
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return Message{}, fmt.Errorf("marshal %s: %w", name, err)
	}

	return Message{Name: name, Data: raw}, nil
}

// Decode unmarshals the payload of the message into the specified value.
func (m Message) Decode(v any) error {
	if len(m.Data) == 0 {
		return fmt.Errorf("%s: missing data", m.Name)
	}

	if err := json.Unmarshal(m.Data, v); err != nil {
		return fmt.Errorf("%s: unmarshal: %w", m.Name, err)
	}

	return nil
}
