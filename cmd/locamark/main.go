package main

import (
	"context"
	"os"

	"locamark/internal/cli"
	"locamark/internal/config"
)

func main() {
	cfg := config.Load()

	if err := cli.RootCommand(&cfg).ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
