package main

import (
	"os"

	"github.com/kushalyadavv/multi-address-backend/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
