package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/citizen/pkg/adapter"
	"github.com/m-mizutani/citizen/pkg/usecase/chat"
	"github.com/m-mizutani/citizen/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"google.golang.org/genai"
)

func cacheCommand() *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Manage provider context caches created by chat sessions",
		Commands: []*cli.Command{
			cacheListCommand(),
			cachePurgeCommand(),
		},
	}
}

func cacheListCommand() *cli.Command {
	var (
		cfg config
		all bool
	)

	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:        "all",
			Aliases:     []string{"a"},
			Usage:       "Include caches not created by citizen",
			Destination: &all,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:  "list",
		Usage: "List context caches",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, err := cfg.setupLogger(ctx)
			if err != nil {
				return err
			}

			gemini, err := cfg.newGemini(ctx, "")
			if err != nil {
				return err
			}

			caches, err := listCaches(ctx, gemini, all)
			if err != nil {
				return err
			}

			for _, cc := range caches {
				fmt.Fprintf(c.Root().Writer, "%s\t%s\t%s\texpires %s\n",
					cc.Name,
					cc.DisplayName,
					cc.Model,
					cc.ExpireTime.Format("2006-01-02 15:04:05"),
				)
			}
			return nil
		},
	}
}

func cachePurgeCommand() *cli.Command {
	var (
		cfg config
		all bool
	)

	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:        "all",
			Aliases:     []string{"a"},
			Usage:       "Delete caches not created by citizen too",
			Destination: &all,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:  "purge",
		Usage: "Delete context caches left by interrupted sessions",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, err := cfg.setupLogger(ctx)
			if err != nil {
				return err
			}

			gemini, err := cfg.newGemini(ctx, "")
			if err != nil {
				return err
			}

			deleted, err := purgeCaches(ctx, gemini, all)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.Root().Writer, "Deleted %d cache(s)\n", deleted)
			return nil
		},
	}
}

func listCaches(ctx context.Context, gemini adapter.Gemini, all bool) ([]*genai.CachedContent, error) {
	caches, err := gemini.ListCaches(ctx)
	if err != nil {
		return nil, err
	}
	if all {
		return caches, nil
	}

	var owned []*genai.CachedContent
	for _, cc := range caches {
		if strings.HasPrefix(cc.DisplayName, chat.CacheDisplayNamePrefix) {
			owned = append(owned, cc)
		}
	}
	return owned, nil
}

// purgeCaches deletes caches and returns the number of deleted ones. Every
// cache is attempted; the first failure is returned.
func purgeCaches(ctx context.Context, gemini adapter.Gemini, all bool) (int, error) {
	caches, err := listCaches(ctx, gemini, all)
	if err != nil {
		return 0, err
	}

	var firstErr error
	deleted := 0
	for _, cc := range caches {
		if err := gemini.DeleteCache(ctx, cc.Name); err != nil {
			logging.From(ctx).Warn("failed to delete cache", "name", cc.Name, "error", err)
			if firstErr == nil {
				firstErr = goerr.Wrap(err, "failed to purge caches")
			}
			continue
		}
		logging.From(ctx).Debug("deleted cache", "name", cc.Name, "display_name", cc.DisplayName)
		deleted++
	}
	return deleted, firstErr
}
