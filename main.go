// Package main is the entry point for the flowtrace filter host.
package main

import (
	"fmt"
	"os"

	"firestige.xyz/flowtrace/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
