package genesis_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ardanlabs/powchain/foundation/blockchain/genesis"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_MiningReward(t *testing.T) {
	type table struct {
		name   string
		height int64
		reward float64
	}

	gen := genesis.Default()
	gen.BaseReward = 50
	gen.HalvingInterval = 10

	tt := []table{
		{name: "genesis", height: 0, reward: 50},
		{name: "before-halving", height: 9, reward: 50},
		{name: "first-halving", height: 10, reward: 25},
		{name: "second-halving", height: 25, reward: 12.5},
		{name: "negative", height: -1, reward: 0},
		{name: "exhausted", height: 10 * 2000, reward: 0},
	}

	t.Log("Given the need to halve the mining reward over time.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				got := gen.MiningReward(tst.height)
				if got != tst.reward {
					t.Logf("\t%s\tTest %d:\tgot: %v", failed, testID, got)
					t.Logf("\t%s\tTest %d:\texp: %v", failed, testID, tst.reward)
					t.Fatalf("\t%s\tTest %d:\tShould get the right reward for height %d.", failed, testID, tst.height)
				}
				t.Logf("\t%s\tTest %d:\tShould get the right reward for height %d.", success, testID, tst.height)
			}

			t.Run(tst.name, f)
		}
	}
}

func Test_MaxSupply(t *testing.T) {
	t.Log("Given the need to know the maximum supply.")
	{
		gen := genesis.Default()
		gen.BaseReward = 50
		gen.HalvingInterval = 210_000

		got := gen.MaxSupply()
		exp := 2 * 50 * float64(210_000)

		if got > exp || exp-got > 1e-6 {
			t.Logf("\t%s\tgot: %v", failed, got)
			t.Logf("\t%s\texp: %v", failed, exp)
			t.Fatalf("\t%s\tShould converge to twice the first era supply.", failed)
		}
		t.Logf("\t%s\tShould converge to twice the first era supply.", success)

		gen.BaseReward = 0
		if gen.MaxSupply() != 0 {
			t.Fatalf("\t%s\tShould have no supply without a reward.", failed)
		}
		t.Logf("\t%s\tShould have no supply without a reward.", success)
	}
}

func Test_Fee(t *testing.T) {
	type table struct {
		name   string
		amount float64
		fee    float64
	}

	tt := []table{
		{name: "whole", amount: 10, fee: 0.1},
		{name: "fraction", amount: 12.5, fee: 0.125},
		{name: "noise", amount: 0.07, fee: 0.0007},
		{name: "belowunit", amount: 0.0000004, fee: 0},
	}

	t.Log("Given the need to charge a commission on transfers.")
	{
		gen := genesis.Default()

		for testID, tst := range tt {
			f := func(t *testing.T) {
				if fee := gen.Fee(tst.amount); fee != tst.fee {
					t.Fatalf("\t%s\tTest %d:\tShould charge %v for %v: got %v", failed, testID, tst.fee, tst.amount, fee)
				}
				t.Logf("\t%s\tTest %d:\tShould charge %v for %v.", success, testID, tst.fee, tst.amount)
			}

			t.Run(tst.name, f)
		}
	}
}

func Test_Load(t *testing.T) {
	t.Log("Given the need to load a genesis file.")
	{
		path := filepath.Join(t.TempDir(), "genesis.json")
		data := `{"difficulty": 2, "base_reward": 100}`
		if err := os.WriteFile(path, []byte(data), 0600); err != nil {
			t.Fatalf("\t%s\tShould be able to write the genesis file: %v", failed, err)
		}

		gen, err := genesis.Load(path)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to load the genesis file: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to load the genesis file.", success)

		def := genesis.Default()
		if gen.Difficulty != 2 || gen.BaseReward != 100 || gen.RootAddress != def.RootAddress || gen.HalvingInterval != def.HalvingInterval {
			t.Fatalf("\t%s\tShould merge the file over the defaults: %+v", failed, gen)
		}
		t.Logf("\t%s\tShould merge the file over the defaults.", success)

		if err := os.WriteFile(path, []byte(`{"halving_interval": 0}`), 0600); err != nil {
			t.Fatalf("\t%s\tShould be able to write the genesis file: %v", failed, err)
		}
		if _, err := genesis.Load(path); err == nil {
			t.Fatalf("\t%s\tShould reject an invalid halving interval.", failed)
		}
		t.Logf("\t%s\tShould reject an invalid halving interval.", success)
	}
}
