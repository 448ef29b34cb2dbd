// This program performs administrative tasks against the block storage of
// a stopped node.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/ardanlabs/powchain/app/tooling/admin/commands"
	"github.com/ardanlabs/powchain/foundation/blockchain/database"
	"github.com/ardanlabs/powchain/foundation/blockchain/database/storage/bolt"
	"github.com/ardanlabs/powchain/foundation/blockchain/genesis"
	"github.com/ardanlabs/powchain/foundation/logger"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

const (
	dbPath      = "zblock/blocks.db"
	genesisPath = "zblock/genesis.json"
)

func main() {

	// Construct the application logger.
	log, err := logger.New("ADMIN")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {
	if len(os.Args) < 2 {
		return errors.New("usage: admin bals|trans|verify [address]")
	}

	log.Infow("startup", "version", build, "db", dbPath)

	gen := genesis.Default()
	if _, err := os.Stat(genesisPath); err == nil {
		if gen, err = genesis.Load(genesisPath); err != nil {
			return err
		}
	}

	strg, err := bolt.New(dbPath)
	if err != nil {
		return err
	}
	defer strg.Close()

	blocks, err := commands.LoadChain(strg, gen)
	if err != nil {
		return fmt.Errorf("loading chain: %w", err)
	}

	return processCommands(os.Args, blocks)
}

// processCommands handles the execution of the commands specified on
// the command line.
func processCommands(args []string, blocks []database.Block) error {
	switch args[1] {
	case "bals":
		if err := commands.Balances(os.Stdout, args, blocks); err != nil {
			return fmt.Errorf("getting balances: %w", err)
		}
	case "trans":
		if err := commands.Transactions(os.Stdout, args, blocks); err != nil {
			return fmt.Errorf("getting transaction: %w", err)
		}
	case "verify":
		fmt.Printf("chain is valid: blocks[%d]\n", len(blocks))
	default:
		return fmt.Errorf("unknown command %q", args[1])
	}

	return nil
}
