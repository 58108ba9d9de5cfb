package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/brendtumi/feasible/internal/engine"
	"github.com/brendtumi/feasible/internal/hooks"
	"github.com/brendtumi/feasible/internal/prompt"
	"github.com/brendtumi/feasible/internal/resolve"
	"github.com/brendtumi/feasible/internal/shell"
	"github.com/brendtumi/feasible/internal/source"
)

func runWizard(cmd *cobra.Command, args []string) error {
	log := newLogger()

	selection, err := hooks.ParseSelection(actions)
	if err != nil {
		return err
	}
	overrides := make([]resolve.Override, 0, len(overwrite))
	for _, o := range overwrite {
		ov, err := resolve.ParseOverride(o)
		if err != nil {
			return err
		}
		overrides = append(overrides, ov)
	}

	loaded, err := loadConfig(cmd.Context())
	if err != nil {
		return err
	}
	log.Debugf("Config file parsed: %s", loaded.Source)

	eng := &engine.RunEngine{
		ProjectRoot: ".",
		LockPath:    lockfilePath,
		Prompter:    newPrompter(),
		Runner:      &shell.ExecRunner{Timeout: timeout},
		Cloner:      &source.GitCloner{},
		Log:         log,
	}
	result, err := eng.Run(cmd.Context(), loaded, engine.RunOptions{
		Force:         force,
		NoClean:       noClean,
		NoInteraction: noInteraction,
		Parallel:      parallel,
		Actions:       selection,
		Overrides:     overrides,
		Separator:     separator,
	})
	if errors.Is(err, prompt.ErrAborted) {
		log.Warn("Aborted.")
		return err
	}
	if err != nil {
		return err
	}

	for _, r := range result.Removed {
		detail("removed   %s", r.Path)
	}
	if !result.Skipped {
		log.Debugf("%d file(s) generated", len(result.Written))
	}
	return nil
}
