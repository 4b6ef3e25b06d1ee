package main

import (
	"fmt"
	"os"

	"github.com/melonguard/melonguard-go/cmd"
	"github.com/melonguard/melonguard-go/internal/conf"
	"github.com/melonguard/melonguard-go/internal/logging"
)

func main() {
	settings, err := conf.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading configuration: %v\n", err)
		os.Exit(1)
	}

	logging.Init(settings)

	if err := cmd.RootCommand(settings).Execute(); err != nil {
		os.Exit(1)
	}
}
