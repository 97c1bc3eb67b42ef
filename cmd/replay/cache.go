package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rxtech-lab/argo-replay/internal/cache"
	"github.com/rxtech-lab/argo-replay/pkg/errors"
	"github.com/urfave/cli/v3"
)

func cacheCommand() *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect and maintain the request cache",
		Commands: []*cli.Command{
			{
				Name:  "clean",
				Usage: "Evict all but the newest dated buckets of every source type",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "root",
						Usage: "Cache root `DIR`",
						Value: ".cache/argo",
					},
					&cli.IntFlag{
						Name:  "keep",
						Usage: "Buckets to keep per source type",
						Value: 3,
					},
				},
				Action: cleanAction,
			},
			{
				Name:  "fingerprint",
				Usage: "Print the cache key of a request",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "target",
						Usage:    "Function name or URL path of the request",
						Required: true,
					},
					&cli.StringSliceFlag{
						Name:  "param",
						Usage: "Request parameter as `KEY=VALUE` (repeatable)",
					},
					&cli.StringSliceFlag{
						Name:  "deny",
						Usage: "Parameter names left out of the key",
						Value: []string{"apikey", "api_key", "token", "secret", "signature", "password"},
					},
				},
				Action: fingerprintAction,
			},
		},
	}
}

func cleanAction(_ context.Context, cmd *cli.Command) error {
	root := cmd.String("root")
	keep := int(cmd.Int("keep"))

	items, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintf(cmd.Root().Writer, "Cache root %s does not exist\n", root)

			return nil
		}

		return errors.Wrapf(errors.ErrCodeCacheIO, err, "failed to list %s", root)
	}

	total := 0

	for _, item := range items {
		if !item.IsDir() || strings.HasPrefix(item.Name(), ".") {
			continue
		}

		removed, err := cache.CleanBucketRoot(filepath.Join(root, item.Name()), keep)
		for _, path := range removed {
			fmt.Fprintf(cmd.Root().Writer, "removed %s\n", path)
		}

		total += len(removed)

		if err != nil {
			return err
		}
	}

	fmt.Fprintf(cmd.Root().Writer, "Removed %d buckets\n", total)

	return nil
}

func fingerprintAction(_ context.Context, cmd *cli.Command) error {
	params, err := parseParams(cmd.StringSlice("param"))
	if err != nil {
		return err
	}

	req := cache.Request{Target: cmd.String("target"), Params: params}
	f := cache.NewFingerprinter(cmd.StringSlice("deny"))

	fmt.Fprintln(cmd.Root().Writer, f.Canonical(req))
	fmt.Fprintln(cmd.Root().Writer, f.Fingerprint(req))

	return nil
}

func parseParams(raw []string) (map[string]string, error) {
	params := make(map[string]string, len(raw))

	for _, pair := range raw {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, errors.Newf(errors.ErrCodeInvalidParameter, "param %q must be KEY=VALUE", pair)
		}

		params[key] = value
	}

	return params, nil
}
