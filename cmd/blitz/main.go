// Package main implements the node and the client of the auction.
//
//	blitz --config ~/.blitz start --listen 127.0.0.1:8080
//	blitz --config ~/.blitz node identity
//	blitz --config ~/.blitz node initialize --wallet <identity>
//	blitz --config ~/.blitz node mint --to <identity> --amount 10
//	blitz keygen --key alice.key
//	blitz tx bid --key alice.key --amount 1.5 --payload https://alice.example
//	blitz show summary --node http://127.0.0.1:8080
package main

import (
	"fmt"
	"os"

	auction "go.dedis.ch/blitz/contracts/blitz/controller"
	"go.dedis.ch/blitz/cli/node"
	proxy "go.dedis.ch/blitz/proxy/http/controller"
)

func main() {
	builder := node.NewBuilder("blitz",
		proxy.NewController(),
		auction.NewController(),
	)

	builder.SetUsage("recurring ascending auction of a display slot")

	app := builder.Build()

	err := app.Run(os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
		os.Exit(1)
	}
}
