package main

import (
	"os"

	"github.com/iQube-Protocol/moneypenny/cmd/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
