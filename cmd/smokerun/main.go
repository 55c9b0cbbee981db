package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/ppiankov/smokerun/internal/cli"
	"github.com/ppiankov/smokerun/internal/example"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		var cfgErr *example.ConfigError
		if errors.As(err, &cfgErr) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
