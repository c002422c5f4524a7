package main

import (
	"os"

	"github.com/Tae5567/TrivParty-sub002/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
