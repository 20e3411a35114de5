package main

import (
	"os"

	"github.com/riskmanagement123/tvmcalc/cmd/tvmcalc/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
