package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/ardanlabs/powchain/foundation/blockchain/balance"
	"github.com/ardanlabs/powchain/foundation/blockchain/database"
	"github.com/ardanlabs/powchain/foundation/blockchain/peer"
	"github.com/ardanlabs/powchain/foundation/blockchain/signature"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"
)

var address string

// balanceCmd represents the balance command
var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Print your balance.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if address == "" {
			privateKey, err := crypto.LoadECDSA(getPrivateKeyPath())
			if err != nil {
				return err
			}
			address = signature.PublicKeyToAddress(privateKey.PublicKey)
		}

		gen, err := loadGenesis()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		client, err := peer.Dial(ctx, nodeURL)
		if err != nil {
			return err
		}
		defer client.Close()

		msg, err := client.Request(ctx, peer.NameQueryChain, peer.NameResponseChain)
		if err != nil {
			return err
		}

		var recs []database.BlockRecord
		if err := msg.Decode(&recs); err != nil {
			return err
		}

		// Don't trust the node, verify the chain before replaying it.
		blocks, err := database.ToBlocks(recs, gen)
		if err != nil {
			return err
		}

		if err := database.ValidateChain(blocks, gen); err != nil {
			return err
		}

		pool, err := balance.FromBlocks(blocks)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "address[%s]: blocks[%d]: balance[%v]\n", address, len(blocks), pool.Balance(address))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(balanceCmd)
	balanceCmd.Flags().StringVarP(&address, "address", "a", "", "Address to report, defaults to the wallet address.")
}
