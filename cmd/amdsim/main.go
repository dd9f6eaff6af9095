package main

import (
	"os"

	"github.com/maculab/amdsim/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
