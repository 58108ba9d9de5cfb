package main

import (
	"os"

	"github.com/brendtumi/feasible/cmd/feasible/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(cmd.ExitCode(err))
	}
}
