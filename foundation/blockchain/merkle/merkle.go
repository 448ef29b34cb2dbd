// Package merkle provides a merkle tree over the transaction hashes of a
// block so the inclusion of a transaction can be proven without the full
// block.
package merkle

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ErrNotFound is returned when a leaf is not part of the tree.
var ErrNotFound = errors.New("leaf not found in tree")

// Set of positions of a proof hash relative to the running hash.
const (
	Left  = 0 // The proof hash is concatenated first.
	Right = 1 // The proof hash is concatenated second.
)

// Tree represents a merkle tree built from a list of hex encoded hashes.
// Each level holds the hashes of that level, the leaves being level 0 and
// the root being the only hash of the last level. A level with an odd
// number of hashes pairs its last hash with itself.
type Tree struct {
	levels [][][]byte
	index  map[string]int
}

// NewTree constructs the tree for the specified leaf hashes.
func NewTree(leaves []string) (*Tree, error) {
	if len(leaves) == 0 {
		return nil, errors.New("cannot construct tree with no leaves")
	}

	level := make([][]byte, len(leaves))
	index := make(map[string]int, len(leaves))

	for i, leaf := range leaves {
		b, err := hexutil.Decode(leaf)
		if err != nil {
			return nil, fmt.Errorf("leaf[%d]: %w", i, err)
		}
		level[i] = b

		if _, exists := index[leaf]; !exists {
			index[leaf] = i
		}
	}

	t := Tree{
		levels: [][][]byte{level},
		index:  index,
	}

	for len(level) > 1 {
		next := make([][]byte, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			right := level[i]
			if i+1 < len(level) {
				right = level[i+1]
			}
			next = append(next, hashPair(level[i], right))
		}

		t.levels = append(t.levels, next)
		level = next
	}

	return &t, nil
}

// Root returns the hex encoded root hash of the tree.
func (t *Tree) Root() string {
	return hexutil.Encode(t.levels[len(t.levels)-1][0])
}

// Proof is the set of hashes needed to rebuild the root from a leaf. Order
// says on which side each hash is concatenated.
type Proof struct {
	Leaf   string   `json:"leaf"`
	Hashes []string `json:"hashes"`
	Order  []int    `json:"order"`
}

// Proof returns the proof of inclusion for the specified leaf.
func (t *Tree) Proof(leaf string) (Proof, error) {
	i, exists := t.index[leaf]
	if !exists {
		return Proof{}, fmt.Errorf("%s: %w", leaf, ErrNotFound)
	}

	p := Proof{
		Leaf:   leaf,
		Hashes: []string{},
		Order:  []int{},
	}

	for _, level := range t.levels[:len(t.levels)-1] {
		switch {
		case i%2 == 1:
			p.Hashes = append(p.Hashes, hexutil.Encode(level[i-1]))
			p.Order = append(p.Order, Left)
		case i+1 < len(level):
			p.Hashes = append(p.Hashes, hexutil.Encode(level[i+1]))
			p.Order = append(p.Order, Right)
		default:
			p.Hashes = append(p.Hashes, hexutil.Encode(level[i]))
			p.Order = append(p.Order, Right)
		}
		i /= 2
	}

	return p, nil
}

// Verify rebuilds the root from the proof and compares it with the
// specified root.
func Verify(root string, p Proof) bool {
	if len(p.Hashes) != len(p.Order) {
		return false
	}

	h, err := hexutil.Decode(p.Leaf)
	if err != nil {
		return false
	}

	for i, hash := range p.Hashes {
		b, err := hexutil.Decode(hash)
		if err != nil {
			return false
		}

		switch p.Order[i] {
		case Left:
			h = hashPair(b, h)
		case Right:
			h = hashPair(h, b)
		default:
			return false
		}
	}

	return hexutil.Encode(h) == root
}

// hashPair hashes the concatenation of the two hashes.
func hashPair(left []byte, right []byte) []byte {
	b := make([]byte, 0, len(left)+len(right))
	b = append(b, left...)
	b = append(b, right...)

	sum := sha256.Sum256(b)
	return sum[:]
}
