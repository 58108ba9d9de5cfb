package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	"github.com/brendtumi/feasible/internal/cache"
	"github.com/brendtumi/feasible/internal/config"
	"github.com/brendtumi/feasible/internal/logging"
	"github.com/brendtumi/feasible/internal/prompt"
	"github.com/brendtumi/feasible/internal/source"
)

// loadConfig locates, reads and validates the configuration.
func loadConfig(ctx context.Context) (*config.Loaded, error) {
	opts := config.LoadOptions{Pattern: configPattern, URL: configURL}
	if configURL != "" {
		opts.Fetcher = newFetcher()
	}
	return config.Load(ctx, opts)
}

// newFetcher returns the HTTP fetcher, backed by the remote configuration
// cache when the cache directory is usable.
func newFetcher() config.Fetcher {
	fetcher := &source.HTTPFetcher{Timeout: timeout}
	c, err := cache.New(cache.DefaultDir())
	if err != nil {
		return fetcher
	}
	return &source.CachedFetcher{Fetcher: fetcher, Cache: c, Log: newLogger()}
}

// newLogger builds the console logger from the global flags.
func newLogger() *logrus.Logger {
	return logging.New(logging.Options{
		Quiet:   quiet,
		Verbose: verbose,
		NoColor: noColor,
	})
}

// newPrompter returns the interactive prompter on a terminal and the
// accept-defaults prompter otherwise.
func newPrompter() prompt.Prompter {
	if term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd())) {
		return &prompt.TUI{In: os.Stdin, Out: os.Stdout}
	}
	return prompt.Defaults{}
}

// info prints a line unless quiet mode is active.
func info(format string, args ...any) {
	if !quiet {
		fmt.Printf(format+"\n", args...)
	}
}

// detail prints a line only in verbose mode.
func detail(format string, args ...any) {
	if verbose {
		fmt.Printf("  "+format+"\n", args...)
	}
}
