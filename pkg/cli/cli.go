package cli

import (
	"context"

	"github.com/urfave/cli/v3"
)

type Error struct {
	Code    int
	Message string
}

func Run(ctx context.Context, argv []string) *Error {
	cmd := &cli.Command{
		Name:  "citizen",
		Usage: "AI guide to the Ontario Legislature transcripts and bills",
		Commands: []*cli.Command{
			chatCommand(),
			summarizeCommand(),
			documentsCommand(),
			cacheCommand(),
			historyCommand(),
		},
	}

	if err := cmd.Run(ctx, argv); err != nil {
		return &Error{
			Code:    1,
			Message: err.Error(),
		}
	}

	return nil
}
