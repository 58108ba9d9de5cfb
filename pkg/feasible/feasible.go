// Package feasible provides the public Go library API for feasible.
//
// feasible is a project setup wizard: it collects variables, resolves
// computed defaults, runs hooks and renders files from a declarative
// configuration, and remembers the result in a lock file so later runs only
// act when something changed.
//
// # Basic Usage
//
//	client, err := feasible.New(feasible.Options{
//	    ProjectRoot: "/path/to/project",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Generate files, prompting only when needed
//	result, err := client.Run(ctx, feasible.RunOptions{NoInteraction: true})
//
//	// Report configuration changes and missing outputs
//	checkResult, err := client.Check(ctx)
package feasible

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/brendtumi/feasible/internal/cache"
	"github.com/brendtumi/feasible/internal/config"
	"github.com/brendtumi/feasible/internal/engine"
	"github.com/brendtumi/feasible/internal/hooks"
	"github.com/brendtumi/feasible/internal/lock"
	"github.com/brendtumi/feasible/internal/logging"
	"github.com/brendtumi/feasible/internal/prompt"
	"github.com/brendtumi/feasible/internal/resolve"
	"github.com/brendtumi/feasible/internal/shell"
	"github.com/brendtumi/feasible/internal/source"
)

// Runner runs a configuration.
type Runner interface {
	Run(ctx context.Context, opts RunOptions) (*RunResult, error)
}

// Checker reports drift between the configuration, the lock file and the
// generated outputs.
type Checker interface {
	Check(ctx context.Context) (*CheckResult, error)
}

// RunOptions configures a run.
type RunOptions struct {
	Force         bool
	NoClean       bool
	NoInteraction bool
	Parallel      bool
	// Actions selects the hooks to run: "all" (default), "none", "initial",
	// "pre", "post" or a single stage name such as "pre-defaults".
	Actions string
	// Overrides are "key=value" pairs applied after prompting.
	Overrides []string
	// Separator joins name and value for ${name} tokens. Default: "=".
	Separator string
}

// Options configures a feasible client.
type Options struct {
	// ProjectRoot is where files are generated and hooks run. Default: ".".
	ProjectRoot string

	// ConfigPattern is the glob locating the configuration, relative to
	// ProjectRoot. Default: "feasible.{json,json5,yml,yaml}".
	ConfigPattern string

	// URL fetches the configuration over HTTP instead of ConfigPattern.
	URL string

	// CacheDir keeps the last fetched copy of URL and serves it when the
	// server is unreachable. Empty disables the cache.
	CacheDir string

	// LockfilePath is the path to the lock file. Default: "feasible.lock".
	LockfilePath string

	// Timeout bounds every hook and computed default command (0 = none).
	Timeout time.Duration

	// Prompter asks for variables. Default: accept every default.
	Prompter Prompter

	// Runner executes shell commands. Default: sh -c in ProjectRoot.
	Runner CommandRunner

	// Cloner clones the configured repository. Default: git.
	Cloner Cloner

	// Log receives progress output. Default: discarded.
	Log logrus.FieldLogger
}

// Client is the main entry point for the feasible library.
// It implements Runner and Checker.
type Client struct {
	projectRoot  string
	pattern      string
	url          string
	cacheDir     string
	lockfilePath string
	prompter     Prompter
	runner       CommandRunner
	cloner       Cloner
	log          logrus.FieldLogger
}

// New creates a new feasible Client.
func New(opts Options) (*Client, error) {
	root := opts.ProjectRoot
	if root == "" {
		root = "."
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving project root: %w", err)
	}
	if root != "." {
		root = abs
	}

	c := &Client{
		projectRoot:  root,
		pattern:      opts.ConfigPattern,
		url:          opts.URL,
		cacheDir:     opts.CacheDir,
		lockfilePath: opts.LockfilePath,
		prompter:     opts.Prompter,
		runner:       opts.Runner,
		cloner:       opts.Cloner,
		log:          opts.Log,
	}
	if c.pattern == "" {
		c.pattern = config.DefaultPattern
	}
	if c.lockfilePath == "" {
		c.lockfilePath = lock.DefaultPath
	}
	if c.prompter == nil {
		c.prompter = prompt.Defaults{}
	}
	if c.runner == nil {
		c.runner = &shell.ExecRunner{Dir: root, Timeout: opts.Timeout}
	}
	if c.cloner == nil {
		c.cloner = &source.GitCloner{}
	}
	if c.log == nil {
		c.log = logging.Discard()
	}
	return c, nil
}

func (c *Client) loadConfig(ctx context.Context) (*config.Loaded, error) {
	pattern := c.pattern
	if !filepath.IsAbs(pattern) {
		pattern = filepath.Join(c.projectRoot, pattern)
	}
	opts := config.LoadOptions{Pattern: pattern, URL: c.url}
	if c.url == "" {
		loaded, err := config.Load(ctx, opts)
		if err != nil {
			return nil, err
		}
		// The lock records the source as the CLI run from the project root
		// would see it.
		if rel, err := filepath.Rel(c.projectRoot, loaded.Source); err == nil && filepath.IsLocal(rel) {
			loaded.Source = rel
		}
		return loaded, nil
	}

	opts.Fetcher = &source.HTTPFetcher{}
	if c.cacheDir != "" {
		store, err := cache.New(c.cacheDir)
		if err != nil {
			return nil, err
		}
		opts.Fetcher = &source.CachedFetcher{Fetcher: opts.Fetcher, Cache: store, Log: c.log}
	}
	return config.Load(ctx, opts)
}

// Run executes the configuration.
func (c *Client) Run(ctx context.Context, opts RunOptions) (*RunResult, error) {
	actions, err := hooks.ParseSelection(opts.Actions)
	if err != nil {
		return nil, err
	}
	overrides := make([]resolve.Override, 0, len(opts.Overrides))
	for _, o := range opts.Overrides {
		ov, err := resolve.ParseOverride(o)
		if err != nil {
			return nil, err
		}
		overrides = append(overrides, ov)
	}

	loaded, err := c.loadConfig(ctx)
	if err != nil {
		return nil, err
	}

	eng := &engine.RunEngine{
		ProjectRoot: c.projectRoot,
		LockPath:    c.lockfilePath,
		Prompter:    c.prompter,
		Runner:      c.runner,
		Cloner:      c.cloner,
		Log:         c.log,
	}
	return eng.Run(ctx, loaded, engine.RunOptions{
		Force:         opts.Force,
		NoClean:       opts.NoClean,
		NoInteraction: opts.NoInteraction,
		Parallel:      opts.Parallel,
		Actions:       actions,
		Overrides:     overrides,
		Separator:     opts.Separator,
	})
}

// Check reports whether the configuration changed since the last run and
// which recorded outputs are missing.
func (c *Client) Check(ctx context.Context) (*CheckResult, error) {
	loaded, err := c.loadConfig(ctx)
	if err != nil {
		return nil, err
	}
	eng := &engine.CheckEngine{
		ProjectRoot: c.projectRoot,
		LockPath:    c.lockfilePath,
		Log:         c.log,
	}
	return eng.Check(ctx, loaded)
}
