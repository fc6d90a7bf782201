package main

import (
	"fmt"
	"os"

	"trends-go/internal/cli"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "CRITICAL ERROR: application panic recovered: %v\n", r)
			os.Exit(1)
		}
	}()

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
