package main

import (
	"context"
	"fmt"

	"github.com/rxtech-lab/argo-replay/internal/strategy"
	"github.com/rxtech-lab/argo-replay/internal/version"
	"github.com/rxtech-lab/argo-replay/pkg/marketdata/provider"
	"github.com/urfave/cli/v3"
)

func schemaCommand() *cli.Command {
	return &cli.Command{
		Name:  "schema",
		Usage: "Print the JSON schema of strategy params or of a source entry",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "strategy",
				Aliases: []string{"s"},
				Usage:   "Strategy `NAME`; omit to get the source schema",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			var (
				schema string
				err    error
			)

			if name := cmd.String("strategy"); name != "" {
				schema, err = strategy.Schema(name)
			} else {
				schema, err = provider.SourceConfigSchema()
			}

			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.Root().Writer, schema)

			return nil
		},
	}
}

func providersCommand() *cli.Command {
	return &cli.Command{
		Name:  "providers",
		Usage: "List market data providers and built-in strategies",
		Action: func(_ context.Context, cmd *cli.Command) error {
			w := cmd.Root().Writer

			fmt.Fprintln(w, "Providers:")

			for _, name := range provider.SupportedProviders() {
				info, err := provider.GetInfo(name)
				if err != nil {
					return err
				}

				auth := ""
				if info.RequiresAuth {
					auth = " (requires api_key)"
				}

				fmt.Fprintf(w, "  %-10s %s%s\n", info.Name, info.Description, auth)
			}

			fmt.Fprintln(w, "Strategies:")

			for _, name := range strategy.Names() {
				fmt.Fprintf(w, "  %s\n", name)
			}

			return nil
		},
	}
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print the engine version",
		Action: func(_ context.Context, cmd *cli.Command) error {
			fmt.Fprintln(cmd.Root().Writer, version.GetVersion())

			return nil
		},
	}
}
