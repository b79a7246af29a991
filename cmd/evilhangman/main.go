// Package main is the entry point for the evilhangman CLI.
package main

import (
	"os"

	"github.com/robalobadob/evilhangman/cmd/evilhangman/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
