package cli

import (
	"context"
	"encoding/json"

	"github.com/m-mizutani/citizen/pkg/adapter"
	"github.com/m-mizutani/citizen/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func summarizeCommand() *cli.Command {
	var (
		cfg    config
		output string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "output",
			Aliases:     []string{"o"},
			Usage:       "Output summaries JSON file, local path or gs://bucket/object",
			Value:       "summaries.json",
			Sources:     cli.EnvVars("CITIZEN_SUMMARIES_OUTPUT"),
			Destination: &output,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, inputFlags(&cfg)...)

	return &cli.Command{
		Name:  "summarize",
		Usage: "Derive document summaries and save them as JSON",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, err := cfg.setupLogger(ctx)
			if err != nil {
				return err
			}

			index, err := cfg.loadIndex(ctx)
			if err != nil {
				return err
			}

			w, err := adapter.Create(ctx, output)
			if err != nil {
				return err
			}

			encoder := json.NewEncoder(w)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(index); err != nil {
				w.Close()
				return goerr.Wrap(err, "failed to encode summaries", goerr.V("output", output))
			}
			if err := w.Close(); err != nil {
				return goerr.Wrap(err, "failed to save summaries", goerr.V("output", output))
			}

			logging.From(ctx).Info("saved summaries",
				"output", output,
				"summaries", index.Len(),
				"derived", index.Derived(),
			)
			return nil
		},
	}
}
