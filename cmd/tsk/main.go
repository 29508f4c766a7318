// Package main is the entry point for the tsk CLI.
package main

import (
	"os"

	"github.com/tsk-dev/tsk/internal/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
