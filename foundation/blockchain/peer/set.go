package peer

import (
	"sync"

	"github.com/google/uuid"
)

// Set represents the data representation to maintain the set of
// connected peers.
type Set struct {
	mu  sync.RWMutex
	set map[uuid.UUID]*Peer
}

// NewSet constructs a new set to manage the connected peers.
func NewSet() *Set {
	return &Set{
		set: make(map[uuid.UUID]*Peer),
	}
}

// Add adds a new peer to the set.
func (ps *Set) Add(peer *Peer) bool {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if _, exists := ps.set[peer.ID]; exists {
		return false
	}
	ps.set[peer.ID] = peer

	return true
}

// Remove removes a peer from the set.
func (ps *Set) Remove(id uuid.UUID) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	delete(ps.set, id)
}

// Copy returns a list of the connected peers.
func (ps *Set) Copy() []*Peer {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	peers := make([]*Peer, 0, len(ps.set))
	for _, peer := range ps.set {
		peers = append(peers, peer)
	}

	return peers
}

// Len returns the number of connected peers.
func (ps *Set) Len() int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	return len(ps.set)
}
