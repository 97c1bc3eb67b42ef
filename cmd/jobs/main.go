package main

import (
	"context"
	"fmt"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rxtech-lab/argo-replay/internal/ledger"
	"github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:  "jobs",
		Usage: "Browse job results recorded in a ledger",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "ledger",
				Aliases:  []string{"l"},
				Usage:    "Path to the SQLite ledger written by `replay run`",
				Required: true,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.String("ledger")
			if _, err := os.Stat(path); err != nil {
				return fmt.Errorf("ledger %s not found: %w", path, err)
			}

			l, err := ledger.Open(path)
			if err != nil {
				return err
			}
			defer l.Close()

			p := tea.NewProgram(NewModel(l), tea.WithAltScreen(), tea.WithContext(ctx))
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("failed to run job browser: %w", err)
			}

			return nil
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
