package worker_test

import (
	"testing"
	"time"

	"github.com/ardanlabs/powchain/foundation/blockchain/database/storage/memory"
	"github.com/ardanlabs/powchain/foundation/blockchain/genesis"
	"github.com/ardanlabs/powchain/foundation/blockchain/signature"
	"github.com/ardanlabs/powchain/foundation/blockchain/state"
	"github.com/ardanlabs/powchain/foundation/blockchain/worker"
	"github.com/ethereum/go-ethereum/crypto"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const minerHexKey = "9f332e3700d8fc2446eaf6d15034cf96e0c2745e40353deef032a5dbf1dfed93"

func Test_MiningLoop(t *testing.T) {
	gen := genesis.Default()
	gen.Difficulty = 1

	t.Log("Given the need to keep mining blocks.")
	{
		st := newState(t, gen)
		evts := st.SubscribeEvents("test")

		worker.Run(st, 10*time.Millisecond, nil)

		var mined, added int
		timeout := time.After(10 * time.Second)

		for added < 2 {
			select {
			case evt := <-evts:
				switch evt.Name {
				case state.EventBlockMined:
					mined++
				case state.EventBlockAdded:
					added++
				}
			case <-timeout:
				t.Fatalf("\t%s\tShould mine two blocks: mined %d added %d", failed, mined, added)
			}
		}
		t.Logf("\t%s\tShould mine two blocks.", success)

		if err := st.Shutdown(); err != nil {
			t.Fatalf("\t%s\tShould be able to shutdown: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to shutdown.", success)

		if st.ChainSize() < 3 || st.Balance(st.MinerAddress()) < gen.MiningReward(1)+gen.MiningReward(2) {
			t.Fatalf("\t%s\tShould pay the miner for every block.", failed)
		}
		t.Logf("\t%s\tShould pay the miner for every block.", success)
	}
}

func Test_ShutdownWhileMining(t *testing.T) {
	gen := genesis.Default()
	gen.Difficulty = 64

	t.Log("Given the need to stop a mining attempt that can't complete.")
	{
		st := newState(t, gen)
		w := worker.Run(st, time.Millisecond, nil)

		// Let the attempt start.
		time.Sleep(50 * time.Millisecond)

		done := w.SignalCancelMining()
		done()

		finished := make(chan struct{})
		go func() {
			st.Shutdown()
			close(finished)
		}()

		select {
		case <-finished:
		case <-time.After(10 * time.Second):
			t.Fatalf("\t%s\tShould cancel the attempt on shutdown.", failed)
		}
		t.Logf("\t%s\tShould cancel the attempt on shutdown.", success)

		if st.ChainSize() != 1 {
			t.Fatalf("\t%s\tShould not change the chain.", failed)
		}
		t.Logf("\t%s\tShould not change the chain.", success)
	}
}

// =============================================================================

func newState(t *testing.T, gen genesis.Genesis) *state.State {
	pk, err := crypto.HexToECDSA(minerHexKey)
	if err != nil {
		t.Fatalf("Should be able to load the private key: %v", err)
	}

	st, err := state.New(state.Config{
		MinerAddress: signature.PublicKeyToAddress(pk.PublicKey),
		Genesis:      gen,
		Storage:      memory.New(),
	})
	if err != nil {
		t.Fatalf("Should be able to construct the state: %v", err)
	}

	return st
}
