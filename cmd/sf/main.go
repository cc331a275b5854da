package main

import (
	"os"

	"github.com/busmind/stopfinder-cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
