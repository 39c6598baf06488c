package main

import (
	"os"

	"opsdash/internal/cli"
)

func main() {
	if err := cli.NewRootCmd(&cli.App{}).Execute(); err != nil {
		os.Exit(1)
	}
}
