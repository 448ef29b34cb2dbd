package merkle_test

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"testing"

	"github.com/ardanlabs/powchain/foundation/blockchain/merkle"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_Proof(t *testing.T) {
	type table struct {
		name   string
		leaves int
	}

	tt := []table{
		{name: "one", leaves: 1},
		{name: "two", leaves: 2},
		{name: "three", leaves: 3},
		{name: "five", leaves: 5},
		{name: "eight", leaves: 8},
	}

	t.Log("Given the need to prove a leaf is part of a tree.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				leaves := hashes(tst.leaves)

				tree, err := merkle.NewTree(leaves)
				if err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to construct the tree: %v", failed, testID, err)
				}

				for _, leaf := range leaves {
					p, err := tree.Proof(leaf)
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould get a proof for %s: %v", failed, testID, leaf, err)
					}

					if !merkle.Verify(tree.Root(), p) {
						t.Fatalf("\t%s\tTest %d:\tShould verify the proof for %s.", failed, testID, leaf)
					}
				}
				t.Logf("\t%s\tTest %d:\tShould verify the proof of every leaf.", success, testID)

				other := hashes(tst.leaves + 1)
				other[0], other[tst.leaves] = other[tst.leaves], other[0]

				p, _ := tree.Proof(leaves[0])
				p.Leaf = other[0]
				if merkle.Verify(tree.Root(), p) {
					t.Fatalf("\t%s\tTest %d:\tShould reject a proof for another leaf.", failed, testID)
				}
				t.Logf("\t%s\tTest %d:\tShould reject a proof for another leaf.", success, testID)
			}

			t.Run(tst.name, f)
		}
	}
}

func Test_Tree(t *testing.T) {
	t.Log("Given the need to construct trees.")
	{
		if _, err := merkle.NewTree(nil); err == nil {
			t.Fatalf("\t%s\tShould fail to construct a tree without leaves.", failed)
		}
		t.Logf("\t%s\tShould fail to construct a tree without leaves.", success)

		leaves := hashes(4)

		t1, err := merkle.NewTree(leaves)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct the tree: %v", failed, err)
		}

		leaves[1], leaves[2] = leaves[2], leaves[1]
		t2, err := merkle.NewTree(leaves)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct the tree: %v", failed, err)
		}

		if t1.Root() == t2.Root() {
			t.Fatalf("\t%s\tShould depend on the order of the leaves.", failed)
		}
		t.Logf("\t%s\tShould depend on the order of the leaves.", success)

		if _, err := t1.Proof(hashes(5)[4]); !errors.Is(err, merkle.ErrNotFound) {
			t.Fatalf("\t%s\tShould not find a leaf outside the tree: %v", failed, err)
		}
		t.Logf("\t%s\tShould not find a leaf outside the tree.", success)
	}
}

func hashes(n int) []string {
	leaves := make([]string, n)
	for i := 0; i < n; i++ {
		sum := sha256.Sum256([]byte(fmt.Sprintf("leaf-%d", i)))
		leaves[i] = hexutil.Encode(sum[:])
	}
	return leaves
}
