package main

import (
	"os"

	"github.com/teamshare/backend/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
