package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brendtumi/feasible/internal/engine"
	"github.com/brendtumi/feasible/internal/logging"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Report configuration changes and missing generated files",
	Long: `Compares the configuration with feasible.lock and checks that every file
recorded by the last run still exists. Nothing is prompted, executed or written.
Exit 0 if everything matches; exit non-zero otherwise. Suitable for CI pipelines.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := loadConfig(cmd.Context())
		if err != nil {
			return err
		}

		eng := &engine.CheckEngine{
			ProjectRoot: ".",
			LockPath:    lockfilePath,
			Log:         logging.Discard(),
		}
		result, err := eng.Check(cmd.Context(), loaded)
		if err != nil {
			return err
		}

		for _, f := range result.Files {
			detail("%-9s %s", f.Action, f.Path)
		}
		if result.Clean {
			info("Configuration and generated files match the lock file.")
			return nil
		}

		switch {
		case !result.HasLock:
			info("  no lock file, run feasible first")
		case result.ConfigChanged:
			info("  changed   %s", loaded.Source)
		}
		for _, m := range result.Missing {
			info("  missing   %s", m)
		}
		return fmt.Errorf("check failed: configuration changed or %d file(s) missing", len(result.Missing))
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
