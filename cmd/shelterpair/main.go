// Package main is the shelterpair command.
package main

import (
	"context"
	"os"

	"github.com/roach88/shelterpair/internal/cli"
)

func main() {
	os.Exit(cli.Execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}
