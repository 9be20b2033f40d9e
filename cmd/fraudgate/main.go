package main

import (
	"os"

	"github.com/finelli/fraudgate/cmd/fraudgate/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
