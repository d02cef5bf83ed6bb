package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/m-mizutani/citizen/pkg/corpus"
	"github.com/m-mizutani/citizen/pkg/model"
	"github.com/urfave/cli/v3"
)

const excerptRunes = 100

func documentsCommand() *cli.Command {
	var (
		cfg     config
		docType string
		limit   int64
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "type",
			Aliases:     []string{"t"},
			Usage:       "Show only documents of the type (transcript, bill)",
			Destination: &docType,
		},
		&cli.IntFlag{
			Name:        "limit",
			Aliases:     []string{"n"},
			Usage:       "Maximum number of documents to list, 0 for all",
			Value:       0,
			Destination: &limit,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, inputFlags(&cfg)...)

	return &cli.Command{
		Name:  "documents",
		Usage: "List loaded documents with their summaries",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, err := cfg.setupLogger(ctx)
			if err != nil {
				return err
			}

			if docType != "" {
				if err := model.DocumentType(docType).Validate(); err != nil {
					return err
				}
			}

			index, err := cfg.loadIndex(ctx)
			if err != nil {
				return err
			}

			printDocuments(c.Root().Writer, index, model.DocumentType(docType), int(limit))
			return nil
		},
	}
}

// printDocuments writes one line per document, transcripts newest first then bills
func printDocuments(w io.Writer, index *corpus.Index, docType model.DocumentType, limit int) {
	printed := 0
	for _, s := range index.Summaries() {
		if docType != "" && s.Type != docType {
			continue
		}
		if limit > 0 && printed == limit {
			break
		}

		title := s.Title
		if title == "" {
			title = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", documentColor.Sprint(s.ID), title, excerpt(s.Text))
		printed++
	}
}

func excerpt(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= excerptRunes {
		return text
	}
	return string(runes[:excerptRunes]) + "..."
}
