package main

import (
	"os"

	"github.com/lguibr/switchboard/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
