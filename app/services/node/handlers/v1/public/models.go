package public

import "github.com/ardanlabs/powchain/foundation/blockchain/database"

type balance struct {
	Address string  `json:"address"`
	Name    string  `json:"name"`
	Balance float64 `json:"balance"`
}

type balances struct {
	LastestBlock string    `json:"lastest_block"`
	Pending      int       `json:"pending"`
	Balances     []balance `json:"balances"`
}

type wallet struct {
	Name string `json:"name"`
	database.WalletRecord
}

type supply struct {
	Total float64 `json:"total"`
	Max   float64 `json:"max"`
}
