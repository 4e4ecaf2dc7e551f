package main

import (
	"os"

	"github.com/mabouzeid04/workflow-daddy/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
