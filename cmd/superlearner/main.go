package main

import (
	"os"

	"github.com/xh3b4sd/superlearner/logging"
)

func main() {
	if err := Execute(os.Args[1:]); err != nil {
		logging.NewLogger(os.Stderr, logging.LevelError, false).Error("command failed", "error", err)
		os.Exit(1)
	}
}
