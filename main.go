package main

import (
	"os"

	"github.com/referents-ia/portail/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
