// Package main is the entry point for the stmtconv CLI.
package main

import (
	"os"

	"github.com/shunichi-ikebuchi/statement-converter/cmd/stmtconv/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
