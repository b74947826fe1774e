package main

import (
	"os"

	"github.com/spigell/soto-lp/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
