package main

import (
	"log"

	"github.com/hyperledger-labs/yui-bridge-relayer/chains/mock/module"
	"github.com/hyperledger-labs/yui-bridge-relayer/cmd"
)

func main() {
	if err := cmd.Execute(
		module.Module{},
	); err != nil {
		log.Fatal(err)
	}
}
