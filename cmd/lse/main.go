package main

import (
	"os"

	"github.com/Adithya-Monish-Kumar-K/little-search-engine/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
