package main

import (
	"os"

	"github.com/nsxbet/dq-audit/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
