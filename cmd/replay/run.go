package main

import (
	"context"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/rxtech-lab/argo-replay/internal/config"
	"github.com/rxtech-lab/argo-replay/internal/ledger"
	"github.com/rxtech-lab/argo-replay/internal/logger"
	"github.com/rxtech-lab/argo-replay/internal/scheduler"
	"github.com/rxtech-lab/argo-replay/internal/strategy"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run every job in a config file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the replay config `FILE`",
				Value:   "configs/replay.yaml",
			},
			&cli.StringSliceFlag{
				Name:    "job",
				Aliases: []string{"j"},
				Usage:   "Only run the job with this key (repeatable)",
			},
			&cli.IntFlag{
				Name:  "concurrency",
				Usage: "Parallel source downloads within one job",
				Value: 4,
			},
		},
		Action: runAction,
	}
}

func runAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return err
	}

	log, err := logger.NewLoggerFromConfig(cfg.Logging)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	opts := []scheduler.Option{
		scheduler.WithWorkers(cfg.Scheduler.Workers),
		scheduler.WithTimeout(cfg.Scheduler.JobTimeout),
		scheduler.WithLogger(log),
	}

	if cfg.Scheduler.LedgerPath != "" {
		l, err := ledger.Open(cfg.Scheduler.LedgerPath)
		if err != nil {
			return err
		}
		defer l.Close()

		opts = append(opts, scheduler.WithSink(l))
	}

	if cfg.Scheduler.Progress {
		opts = append(opts, scheduler.WithProgress(cmd.Root().ErrWriter))
	}

	s := scheduler.New(opts...)
	only := cmd.StringSlice("job")

	jobOpts := strategy.JobOptions{
		Cache:       cfg.Cache,
		ResultsDir:  cfg.Results.Dir,
		Concurrency: int(cmd.Int("concurrency")),
	}

	for _, jobCfg := range cfg.Jobs {
		if len(only) > 0 && !slices.Contains(only, jobCfg.Key) {
			continue
		}

		job, err := strategy.NewJob(jobCfg, jobOpts)
		if err != nil {
			return fmt.Errorf("job %s: %w", jobCfg.Key, err)
		}

		if err := s.Submit(job); err != nil {
			return err
		}
	}

	if s.Len() == 0 {
		return fmt.Errorf("no jobs to run in %s", cmd.String("config"))
	}

	log.Info("Running jobs", zap.Int("jobs", s.Len()), zap.Int("workers", cfg.Scheduler.Workers))

	results, report := s.Run(ctx)

	if err := printResults(cmd.Root().Writer, results, report); err != nil {
		return err
	}

	if !report.Passed() {
		return fmt.Errorf("%d of %d jobs did not pass", report.Total-report.Counts[scheduler.StatusPassed], report.Total)
	}

	return nil
}

func printResults(w io.Writer, results []scheduler.Result, report scheduler.Report) error {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("JOB", "STATUS", "DURATION", "ROI", "FINAL VALUE", "ERROR")

	for _, r := range results {
		roi, final := "-", "-"
		if outcome, ok := r.Value.(strategy.Outcome); ok {
			roi = fmt.Sprintf("%.2f%%", outcome.Summary.ROI*100)
			final = fmt.Sprintf("%.2f", outcome.Summary.FinalValue)
		}

		errText := ""
		if r.Err != nil {
			errText = r.Err.Error()
		}

		t.Row(r.Key, string(r.Status), r.Duration.Round(time.Millisecond).String(), roi, final, errText)
	}

	_, err := fmt.Fprintf(w, "%s\n%d passed, %d failed, %d timeout, %d exception\n",
		t.String(),
		report.Counts[scheduler.StatusPassed],
		report.Counts[scheduler.StatusFailed],
		report.Counts[scheduler.StatusTimeout],
		report.Counts[scheduler.StatusException],
	)

	return err
}
