package peer_test

import (
	"context"
	"crypto/ecdsa"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ardanlabs/powchain/foundation/blockchain/database"
	"github.com/ardanlabs/powchain/foundation/blockchain/database/storage/memory"
	"github.com/ardanlabs/powchain/foundation/blockchain/genesis"
	"github.com/ardanlabs/powchain/foundation/blockchain/peer"
	"github.com/ardanlabs/powchain/foundation/blockchain/signature"
	"github.com/ardanlabs/powchain/foundation/blockchain/state"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const (
	aliceHexKey = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"
	bobHexKey   = "aed31b6b5a5ac4e7d1ab1e3c0b3e3c3b0c4f0ad2bd1cd6b49d2ef7b4ab5aa0c1"
	minerHexKey = "9f332e3700d8fc2446eaf6d15034cf96e0c2745e40353deef032a5dbf1dfed93"
)

// =============================================================================

func Test_Set(t *testing.T) {
	t.Log("Given the need to track the connected peers.")
	{
		ps := peer.NewSet()

		p1 := peer.Peer{ID: uuid.New()}
		p2 := peer.Peer{ID: uuid.New()}

		if !ps.Add(&p1) || !ps.Add(&p2) || ps.Add(&p1) {
			t.Fatalf("\t%s\tShould add each peer once.", failed)
		}
		t.Logf("\t%s\tShould add each peer once.", success)

		ps.Remove(p1.ID)

		peers := ps.Copy()
		if ps.Len() != 1 || len(peers) != 1 || peers[0].ID != p2.ID {
			t.Fatalf("\t%s\tShould remove a peer.", failed)
		}
		t.Logf("\t%s\tShould remove a peer.", success)
	}
}

func Test_Message(t *testing.T) {
	t.Log("Given the need to wrap payloads in messages.")
	{
		msg, err := peer.NewMessage(peer.NameResponseChainSize, int64(7))
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct a message: %v", failed, err)
		}

		var size int64
		if err := msg.Decode(&size); err != nil || size != 7 {
			t.Fatalf("\t%s\tShould decode the payload: %v", failed, err)
		}
		t.Logf("\t%s\tShould decode the payload.", success)

		msg, err = peer.NewMessage(peer.NameQueryChain, nil)
		if err != nil || msg.Data != nil {
			t.Fatalf("\t%s\tShould construct a query without payload: %v", failed, err)
		}
		if err := msg.Decode(&size); err == nil {
			t.Fatalf("\t%s\tShould fail to decode a missing payload.", failed)
		}
		t.Logf("\t%s\tShould construct a query without payload.", success)
	}
}

func Test_Sync(t *testing.T) {
	gen := testGenesis()

	t.Log("Given the need to reconcile a node with the master.")
	{
		master := newState(t, gen, aliceHexKey)
		node := newState(t, gen, minerHexKey)

		for i := 0; i < 2; i++ {
			mine(t, master)
		}
		mine(t, node)

		masterSrv := peer.NewServer(peer.Config{State: master})
		ts := httptest.NewServer(handler(masterSrv))
		defer ts.Close()
		defer masterSrv.Shutdown()

		nodeSrv := peer.NewServer(peer.Config{State: node, RedialDelay: 10 * time.Millisecond})
		defer nodeSrv.Shutdown()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		nodeSrv.ConnectMaster(ctx, wsURL(ts))

		synced := waitFor(func() bool {
			return node.LastBlock().Hash() == master.LastBlock().Hash()
		})
		if !synced {
			t.Fatalf("\t%s\tShould adopt the longer chain of the master.", failed)
		}
		t.Logf("\t%s\tShould adopt the longer chain of the master.", success)

		if master.ChainSize() != 3 {
			t.Fatalf("\t%s\tShould keep the master chain: %d", failed, master.ChainSize())
		}
		t.Logf("\t%s\tShould keep the master chain.", success)

		mine(t, master)

		if !waitFor(func() bool { return node.ChainSize() == 4 }) {
			t.Fatalf("\t%s\tShould receive a newly mined block.", failed)
		}
		t.Logf("\t%s\tShould receive a newly mined block.", success)

		tx, err := database.NewTransfer(privateKey(t, aliceHexKey), address(t, bobHexKey), 1, gen)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct a transfer: %v", failed, err)
		}
		if err := node.AddTransaction(database.NewTransactionRecord(tx, 0)); err != nil {
			t.Fatalf("\t%s\tShould be able to add the transfer: %v", failed, err)
		}

		gossiped := waitFor(func() bool {
			txs := master.PendingTransactions()
			return len(txs) == 1 && txs[0].Hash() == tx.Hash()
		})
		if !gossiped {
			t.Fatalf("\t%s\tShould share a new transaction with the master.", failed)
		}
		t.Logf("\t%s\tShould share a new transaction with the master.", success)
	}
}

func Test_Client(t *testing.T) {
	gen := testGenesis()

	t.Log("Given the need to query a node from a tool.")
	{
		st := newState(t, gen, minerHexKey)
		mine(t, st)

		srv := peer.NewServer(peer.Config{State: st})
		ts := httptest.NewServer(handler(srv))
		defer ts.Close()
		defer srv.Shutdown()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		client, err := peer.Dial(ctx, wsURL(ts))
		if err != nil {
			t.Fatalf("\t%s\tShould be able to dial the node: %v", failed, err)
		}
		defer client.Close()

		msg, err := client.Request(ctx, peer.NameQueryChain, peer.NameResponseChain)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to query the chain: %v", failed, err)
		}

		var recs []database.BlockRecord
		if err := msg.Decode(&recs); err != nil || len(recs) != 2 || recs[1].Hash != st.LastBlock().Hash() {
			t.Fatalf("\t%s\tShould receive the chain of the node: %v", failed, err)
		}
		t.Logf("\t%s\tShould receive the chain of the node.", success)

		msg, err = client.Request(ctx, peer.NameQueryChainSize, peer.NameResponseChainSize)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to query the chain size: %v", failed, err)
		}

		var size int64
		if err := msg.Decode(&size); err != nil || size != 2 {
			t.Fatalf("\t%s\tShould receive the chain size: %d", failed, size)
		}
		t.Logf("\t%s\tShould receive the chain size.", success)
	}
}

func Test_KnownBlock(t *testing.T) {
	gen := testGenesis()

	t.Log("Given the need to ignore gossip about blocks already in the chain.")
	{
		st := newState(t, gen, minerHexKey)
		mine(t, st)
		mine(t, st)

		srv := peer.NewServer(peer.Config{State: st})
		ts := httptest.NewServer(handler(srv))
		defer ts.Close()
		defer srv.Shutdown()

		conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts), nil)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to connect: %v", failed, err)
		}
		defer conn.Close()

		old, err := peer.NewMessage(peer.NameNewBlock, st.BlockRecords()[1])
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct the message: %v", failed, err)
		}
		if err := conn.WriteJSON(old); err != nil {
			t.Fatalf("\t%s\tShould be able to send an old block: %v", failed, err)
		}
		if err := conn.WriteJSON(peer.Message{Name: peer.NameQueryChainSize}); err != nil {
			t.Fatalf("\t%s\tShould be able to query the chain size: %v", failed, err)
		}

		// Messages are handled in order, so a chain query caused by the old
		// block would arrive before the chain size.
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		for {
			var msg peer.Message
			if err := conn.ReadJSON(&msg); err != nil {
				t.Fatalf("\t%s\tShould receive the chain size: %v", failed, err)
			}

			if msg.Name == peer.NameQueryChain {
				t.Fatalf("\t%s\tShould not request the chain for a known block.", failed)
			}
			if msg.Name == peer.NameResponseChainSize {
				break
			}
		}
		if st.ChainSize() != 3 {
			t.Fatalf("\t%s\tShould leave the chain untouched: %d", failed, st.ChainSize())
		}
		t.Logf("\t%s\tShould ignore a block already in the chain.", success)
	}
}

func Test_DropPeers(t *testing.T) {
	type table struct {
		name string
		send func(conn *websocket.Conn) error
	}

	tt := []table{
		{
			name: "malformed",
			send: func(conn *websocket.Conn) error {
				return conn.WriteMessage(websocket.TextMessage, []byte("not a message"))
			},
		},
		{
			name: "unknown",
			send: func(conn *websocket.Conn) error {
				return conn.WriteJSON(peer.Message{Name: "unknown"})
			},
		},
		{
			name: "baddata",
			send: func(conn *websocket.Conn) error {
				return conn.WriteMessage(websocket.TextMessage, []byte(`{"name":"newBlock","data":"block"}`))
			},
		},
		{
			name: "silent",
			send: func(conn *websocket.Conn) error {
				return nil
			},
		},
	}

	t.Log("Given the need to drop peers that misbehave or stop answering.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				st := newState(t, testGenesis(), minerHexKey)

				srv := peer.NewServer(peer.Config{
					State:        st,
					PingInterval: 20 * time.Millisecond,
					PongWait:     200 * time.Millisecond,
				})
				ts := httptest.NewServer(handler(srv))
				defer ts.Close()
				defer srv.Shutdown()

				// The raw connection never reads so pings are never answered.
				conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts), nil)
				if err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to connect: %v", failed, testID, err)
				}
				defer conn.Close()

				if !waitFor(func() bool { return srv.PeerCount() == 1 }) {
					t.Fatalf("\t%s\tTest %d:\tShould register the peer.", failed, testID)
				}

				if err := tst.send(conn); err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to send: %v", failed, testID, err)
				}

				if !waitFor(func() bool { return srv.PeerCount() == 0 }) {
					t.Fatalf("\t%s\tTest %d:\tShould drop the peer.", failed, testID)
				}
				t.Logf("\t%s\tTest %d:\tShould drop the peer.", success, testID)
			}

			t.Run(tst.name, f)
		}
	}
}

// =============================================================================

func testGenesis() genesis.Genesis {
	gen := genesis.Default()
	gen.Difficulty = 1
	return gen
}

func newState(t *testing.T, gen genesis.Genesis, hexKey string) *state.State {
	st, err := state.New(state.Config{
		MinerAddress: address(t, hexKey),
		Genesis:      gen,
		Storage:      memory.New(),
	})
	if err != nil {
		t.Fatalf("Should be able to construct the state: %v", err)
	}
	return st
}

func mine(t *testing.T, st *state.State) {
	if _, err := st.MineNewBlock(context.Background()); err != nil {
		t.Fatalf("Should be able to mine a block: %v", err)
	}
}

func handler(srv *peer.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		srv.Handler(w, r)
	})
}

func wsURL(ts *httptest.Server) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http")
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

func privateKey(t *testing.T, hexKey string) *ecdsa.PrivateKey {
	pk, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		t.Fatalf("Should be able to load the private key: %v", err)
	}
	return pk
}

func address(t *testing.T, hexKey string) string {
	return signature.PublicKeyToAddress(privateKey(t, hexKey).PublicKey)
}
