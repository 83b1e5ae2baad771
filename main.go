package main

import (
	"os"

	"github.com/triggsmt67-cmd/unitedformulas-chemist/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
