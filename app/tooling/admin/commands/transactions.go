package commands

import (
	"fmt"
	"io"

	"github.com/ardanlabs/powchain/foundation/blockchain/database"
)

// Transactions writes the confirmed transactions in chain order.
func Transactions(w io.Writer, args []string, blocks []database.Block) error {
	var addr string
	if len(args) == 3 {
		addr = args[2]
	}

	for _, b := range blocks {
		for _, tx := range b.Transactions {
			if addr != "" && tx.From != addr && tx.To != addr {
				continue
			}

			fmt.Fprintf(w, "Block: %d  Hash: %s  Type: %s  From: %s  To: %s  Amount: %v  Fee: %v\n",
				b.Height, tx.Hash(), tx.Kind, tx.From, tx.To, tx.Amount, tx.Fee)
		}
	}

	return nil
}
