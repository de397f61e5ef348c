// Package cli implements the goalctl subcommands.
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/aristath/goalsip/internal/config"
	"github.com/aristath/goalsip/internal/di"
	"github.com/aristath/goalsip/pkg/logger"
	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"
	"github.com/rs/zerolog"
)

var logLevel = flag.String("log-level", "warn", "Log level (debug, info, warn, error)")

// Register the subcommands.
func Register(c *subcommands.Commander) {
	c.Register(c.HelpCommand(), "")
	c.Register(c.FlagsCommand(), "")

	c.Register(&analyzeCmd{}, "planning")
	c.Register(&profilesCmd{}, "planning")

	c.Register(&importCmd{}, "history")
}

// app is the wired service graph a command works against
type app struct {
	cfg       *config.Config
	container *di.Container
	log       zerolog.Logger
}

// openApp loads configuration from the environment and wires the history store and services
func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log := logger.New(logger.Config{
		Level:  *logLevel,
		Pretty: true,
		Output: os.Stderr,
	})

	container, err := di.Wire(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, container: container, log: log}, nil
}

func (a *app) Close() {
	if err := a.container.Close(); err != nil {
		a.log.Warn().Err(err).Msg("Failed to close history database")
	}
}

// printMarkdown renders md for the terminal, falling back to the raw text
func printMarkdown(w io.Writer, md string) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err == nil {
		var out string
		if out, err = r.Render(md); err == nil {
			fmt.Fprint(w, out)
			return
		}
	}
	fmt.Fprint(w, md)
}

func fail(err error) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return subcommands.ExitFailure
}
