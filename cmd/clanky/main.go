package main

import (
	"os"

	"github.com/Vibebros/sgkb-clanky/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
