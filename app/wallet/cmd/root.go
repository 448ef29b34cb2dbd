// Package cmd contains wallet app
package cmd

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/ardanlabs/powchain/foundation/blockchain/genesis"
	"github.com/spf13/cobra"
)

var (
	privateKeyName string
	walletPath     string
	nodeURL        string
	genesisPath    string
)

const (
	keyExtenstion = ".ecdsa"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Your simple wallet",
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&privateKeyName, "wallet", "w", "private.ecdsa", "Name of the private key file.")
	rootCmd.PersistentFlags().StringVarP(&walletPath, "wallet-path", "p", "zblock/accounts/", "Path to the directory with private keys.")
	rootCmd.PersistentFlags().StringVarP(&nodeURL, "url", "u", "ws://localhost:8080/v1/p2p", "Url of the node.")
	rootCmd.PersistentFlags().StringVarP(&genesisPath, "genesis", "g", "zblock/genesis.json", "Path to the genesis file of the network.")
}

func getPrivateKeyPath() string {
	name := privateKeyName
	if !strings.HasSuffix(name, keyExtenstion) {
		name += keyExtenstion
	}
	return filepath.Join(walletPath, name)
}

// loadGenesis reads the genesis file of the network, falling back to the
// default genesis when the file doesn't exist.
func loadGenesis() (genesis.Genesis, error) {
	if _, err := os.Stat(genesisPath); os.IsNotExist(err) {
		return genesis.Default(), nil
	}
	return genesis.Load(genesisPath)
}
