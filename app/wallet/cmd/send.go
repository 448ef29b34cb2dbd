package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/ardanlabs/powchain/foundation/blockchain/database"
	"github.com/ardanlabs/powchain/foundation/blockchain/peer"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"
)

var (
	to     string
	amount float64
)

// sendCmd represents the send command
var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send transaction",
	RunE: func(cmd *cobra.Command, args []string) error {
		privateKey, err := crypto.LoadECDSA(getPrivateKeyPath())
		if err != nil {
			return err
		}

		gen, err := loadGenesis()
		if err != nil {
			return err
		}

		tx, err := database.NewTransfer(privateKey, to, amount, gen)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()

		client, err := peer.Dial(ctx, nodeURL)
		if err != nil {
			return err
		}
		defer client.Close()

		msg, err := peer.NewMessage(peer.NameNewTransaction, database.NewTransactionRecord(tx, 0))
		if err != nil {
			return err
		}

		if err := client.Send(msg); err != nil {
			return err
		}

		// The node doesn't answer a gossiped transaction so look for it
		// in the pending list.
		resp, err := client.Request(ctx, peer.NameQueryTransactions, peer.NameResponseTransactions)
		if err != nil {
			return err
		}

		var pending []database.TransactionRecord
		if err := resp.Decode(&pending); err != nil {
			return err
		}

		for _, rec := range pending {
			if rec.Hash == tx.Hash() {
				fmt.Fprintf(cmd.OutOrStdout(), "tx[%s]: pending: fee[%v]\n", tx.Hash(), tx.Fee)
				return nil
			}
		}

		return fmt.Errorf("tx[%s]: rejected by the node", tx.Hash())
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&to, "to", "t", "", "Address to send to.")
	sendCmd.MarkFlagRequired("to")
	sendCmd.Flags().Float64VarP(&amount, "amount", "a", 0, "Amount to send.")
	sendCmd.MarkFlagRequired("amount")
}
