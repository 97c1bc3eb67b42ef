package main

import (
	"context"
	"log"
	"os"

	"github.com/rxtech-lab/argo-replay/internal/version"
	"github.com/urfave/cli/v3"
)

// newApp builds the root command. Output goes to the root command's Writer so tests can capture it.
func newApp() *cli.Command {
	return &cli.Command{
		Name:      "replay",
		Usage:     "Replay trading strategies against cached market data",
		Version:   version.GetVersion(),
		Writer:    os.Stdout,
		ErrWriter: os.Stderr,
		Commands: []*cli.Command{
			runCommand(),
			cacheCommand(),
			schemaCommand(),
			providersCommand(),
			versionCommand(),
		},
	}
}

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
