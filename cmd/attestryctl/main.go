package main

import (
	"os"

	"attestry/cmd/attestryctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
