package main

import (
	"os"

	"github.com/stewardai/steward/cmd/steward/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
