package main

import "github.com/ardanlabs/powchain/app/wallet/cmd"

func main() {
	cmd.Execute()
}
