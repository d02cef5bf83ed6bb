package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"github.com/m-mizutani/citizen/pkg/model"
	"github.com/m-mizutani/citizen/pkg/usecase/chat"
	"github.com/m-mizutani/citizen/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

const quitCommand = "quit"

var (
	bannerColor    = color.New(color.BgBlue, color.FgWhite)
	infoColor      = color.New(color.FgCyan)
	promptColor    = color.New(color.FgGreen)
	assistantColor = color.New(color.FgBlue, color.Bold)
	errorColor     = color.New(color.FgRed)
	documentColor  = color.New(color.FgYellow)
)

// lineReader reads one line of user input
type lineReader interface {
	Readline() (string, error)
}

// asker answers a question with a stream of text increments
type asker interface {
	Ask(ctx context.Context, question string) iter.Seq2[string, error]
	Active() *model.Bundle
}

// indicator shows progress while waiting for the first increment
type indicator interface {
	Start()
	Stop()
}

func chatCommand() *cli.Command {
	var (
		cfg       config
		historyID string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "history-id",
			Aliases:     []string{"i"},
			Usage:       "History ID to resume a previous conversation",
			Sources:     cli.EnvVars("CITIZEN_HISTORY_ID"),
			Destination: &historyID,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, inputFlags(&cfg)...)
	flags = append(flags, sessionFlags(&cfg)...)
	flags = append(flags, historyFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:  "chat",
		Usage: "Ask questions about the legislative documents",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, err := cfg.setupLogger(ctx)
			if err != nil {
				return err
			}

			sessionCfg, err := cfg.loadSessionConfig()
			if err != nil {
				return err
			}

			index, err := cfg.loadIndex(ctx)
			if err != nil {
				return err
			}

			mainModel, err := cfg.newGemini(ctx, sessionCfg.Main.Model)
			if err != nil {
				return err
			}
			retrievalModel, err := cfg.newGemini(ctx, sessionCfg.Retrieval.Model)
			if err != nil {
				return err
			}

			input := chat.NewInput{
				Index:     index,
				Main:      mainModel,
				Retrieval: retrievalModel,
				Config:    sessionCfg,
			}

			if cfg.persistent() {
				repo, err := cfg.newRepository(ctx)
				if err != nil {
					return err
				}
				defer repo.Close()

				storage, err := cfg.newStorage(ctx)
				if err != nil {
					return err
				}
				input.Repo = repo
				input.Storage = storage
			}

			if historyID != "" {
				id := model.HistoryID(historyID)
				input.HistoryID = &id
			}

			session, err := chat.New(ctx, input)
			if err != nil {
				return goerr.Wrap(err, "failed to create chat session")
			}
			defer func() {
				// caches must be released even if the loop was interrupted
				if err := session.Close(context.WithoutCancel(ctx)); err != nil {
					logging.From(ctx).Error("failed to close chat session", "error", err)
				}
				if id := session.HistoryID(); id != "" {
					infoColor.Fprintf(c.Root().Writer, "History saved: %s\n", id)
				}
			}()

			rl, err := readline.NewEx(&readline.Config{
				Prompt:          promptColor.Sprint("Your question: "),
				HistoryFile:     historyFilePath(),
				InterruptPrompt: "^C",
				EOFPrompt:       quitCommand,
				Stdout:          c.Root().Writer,
			})
			if err != nil {
				return goerr.Wrap(err, "failed to initialize readline")
			}
			defer rl.Close()

			w := c.Root().Writer
			s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
			s.Suffix = " Thinking..."

			printWelcome(w)
			runChatLoop(ctx, rl, w, session, s)
			infoColor.Fprintln(w, "\nGoodbye!")
			return nil
		},
	}
}

func historyFilePath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "citizen_history")
}

func printWelcome(w io.Writer) {
	fmt.Fprintln(w)
	bannerColor.Fprint(w, " CITIZEN GEMINI ")
	fmt.Fprintln(w)
	infoColor.Fprintln(w, "Your AI Guide to the Ontario Legislature")
	infoColor.Fprintf(w, "Type '%s' to exit\n\n", quitCommand)
}

// runChatLoop reads questions until quit, EOF or interrupt. A failed answer
// is reported and the loop continues.
func runChatLoop(ctx context.Context, in lineReader, w io.Writer, session asker, progress indicator) {
	for {
		line, err := in.Readline()
		if err != nil {
			if !errors.Is(err, readline.ErrInterrupt) && !errors.Is(err, io.EOF) {
				logging.From(ctx).Error("failed to read input", "error", err)
			}
			return
		}

		question := strings.TrimSpace(line)
		if question == "" {
			continue
		}
		if strings.EqualFold(question, quitCommand) {
			return
		}

		answer(ctx, w, session, question, progress)
	}
}

func answer(ctx context.Context, w io.Writer, session asker, question string, progress indicator) {
	before := session.Active()

	progress.Start()
	started := false
	for text, err := range session.Ask(ctx, question) {
		if err != nil {
			progress.Stop()
			if started {
				fmt.Fprintln(w)
			}
			errorColor.Fprintf(w, "Sorry, I encountered an error: %s\n\n", err.Error())
			logging.From(ctx).Debug("failed to answer", "error", err)
			return
		}
		if !started {
			progress.Stop()
			printActive(w, before, session.Active())
			assistantColor.Fprint(w, "Assistant: ")
			started = true
		}
		fmt.Fprint(w, text)
	}
	progress.Stop()
	fmt.Fprint(w, "\n\n")
}

// printActive shows the documents in use when the bundle has been replaced
func printActive(w io.Writer, before, after *model.Bundle) {
	if after.IsEmpty() || before == after {
		return
	}
	ids := make([]string, 0, len(after.DocumentIDs))
	for _, id := range after.DocumentIDs {
		ids = append(ids, string(id))
	}
	documentColor.Fprintf(w, "Loaded documents: %s\n", strings.Join(ids, ", "))
}
