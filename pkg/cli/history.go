package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/citizen/pkg/usecase/history"
	"github.com/urfave/cli/v3"
)

func historyCommand() *cli.Command {
	var (
		cfg    config
		offset int64
		limit  int64
	)

	flags := []cli.Flag{
		&cli.IntFlag{
			Name:        "offset",
			Usage:       "Offset for pagination",
			Value:       0,
			Sources:     cli.EnvVars("CITIZEN_HISTORY_OFFSET"),
			Destination: &offset,
		},
		&cli.IntFlag{
			Name:        "limit",
			Usage:       "Maximum number of histories to list",
			Value:       20,
			Sources:     cli.EnvVars("CITIZEN_HISTORY_LIMIT"),
			Destination: &limit,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, historyFlags(&cfg)...)

	return &cli.Command{
		Name:  "history",
		Usage: "List saved conversations, most recent first",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, err := cfg.setupLogger(ctx)
			if err != nil {
				return err
			}

			repo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}
			defer repo.Close()

			histories, err := history.List(ctx, repo, int(offset), int(limit))
			if err != nil {
				return err
			}

			if len(histories) == 0 {
				fmt.Fprintf(c.Root().Writer, "No conversation histories found\n")
				return nil
			}

			for _, h := range histories {
				docs := make([]string, 0, len(h.DocumentIDs))
				for _, id := range h.DocumentIDs {
					docs = append(docs, string(id))
				}
				fmt.Fprintf(c.Root().Writer, "%s\t%s\t%s\t%s\t%s\n",
					h.ID,
					h.Title,
					strings.Join(docs, ", "),
					h.CreatedAt.Format("2006-01-02 15:04:05"),
					h.UpdatedAt.Format("2006-01-02 15:04:05"),
				)
			}

			return nil
		},
	}
}
