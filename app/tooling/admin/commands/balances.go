package commands

import (
	"fmt"
	"io"
	"sort"

	"github.com/ardanlabs/powchain/foundation/blockchain/balance"
	"github.com/ardanlabs/powchain/foundation/blockchain/database"
)

// Balances writes the current set of balances.
func Balances(w io.Writer, args []string, blocks []database.Block) error {
	var onlyAddr string
	if len(args) == 3 {
		onlyAddr = args[2]
	}

	pool, err := balance.FromBlocks(blocks)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "LastestBlockHash: %s\n\n", blocks[len(blocks)-1].Hash())

	entries := pool.Entries()

	addrs := make([]string, 0, len(entries))
	for addr := range entries {
		if onlyAddr == "" || addr == onlyAddr {
			addrs = append(addrs, addr)
		}
	}
	sort.Strings(addrs)

	for _, addr := range addrs {
		fmt.Fprintf(w, "Address: %s  Balance: %v\n", addr, entries[addr])
	}

	return nil
}
