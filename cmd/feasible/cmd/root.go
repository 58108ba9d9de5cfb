package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/brendtumi/feasible/internal/config"
	"github.com/brendtumi/feasible/internal/lock"
	"github.com/brendtumi/feasible/internal/transform"
)

// Build-time variables set via -ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Global flags.
var (
	configPattern string
	configURL     string
	lockfilePath  string
	verbose       bool
	quiet         bool
	noColor       bool
)

// Run flags.
var (
	force         bool
	noClean       bool
	noInteraction bool
	parallel      bool
	actions       string
	separator     string
	overwrite     []string
	timeout       time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "feasible",
	Short: "Interactive project setup wizard",
	Long: `feasible reads a feasible.{json,json5,yml,yaml} configuration, asks for the
declared variables, resolves computed defaults, runs the configured hooks and
generates files. The answers and the generated file list are stored in
feasible.lock so later runs only act when the configuration changed.

Every flag can also be set through a FEASIBLE_<FLAG> environment variable,
for example FEASIBLE_NOINTERACTION=true or FEASIBLE_NO_COLOR=true.`,
	Args:              cobra.NoArgs,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return applyEnv(cmd) },
	RunE:              runWizard,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("feasible %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
		fmt.Printf("  lock:    v%d\n", lock.Version)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configPattern, "config", "c", config.DefaultPattern, "glob locating the configuration file")
	pf.StringVarP(&configURL, "url", "u", "", "fetch the configuration from a URL instead")
	pf.StringVar(&lockfilePath, "lockfile", lock.DefaultPath, "path to the lock file")
	pf.BoolVar(&verbose, "verbose", false, "detailed output")
	pf.BoolVarP(&quiet, "quiet", "q", false, "minimal output (errors only)")
	pf.BoolVar(&noColor, "no-color", false, "disable colored output")

	f := rootCmd.Flags()
	f.BoolVarP(&force, "force", "f", false, "run even if nothing changed")
	f.StringArrayVarP(&overwrite, "overwrite", "o", nil, "override a variable (key=value, repeatable)")
	f.StringVarP(&actions, "actions", "a", "all", "hooks to run: none, initial, pre, post, all or a stage name")
	f.BoolVarP(&noClean, "noClean", "n", false, "keep files generated by the previous run")
	f.BoolVarP(&noInteraction, "noInteraction", "i", false, "reuse the previous answers without prompting")
	f.StringVarP(&separator, "separator", "s", transform.DefaultSeparator, "separator between name and value for ${name} tokens")
	f.BoolVarP(&parallel, "parallel", "p", false, "run the commands of a hook concurrently")
	f.DurationVar(&timeout, "timeout", 0, "timeout for each shell command (0 = none)")

	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return nil
}

// ExitCode maps err to a process exit code. Errors that carry their own
// code, such as failed hooks, keep it; everything else exits with 1.
func ExitCode(err error) int {
	var coded interface{ ExitCode() int }
	if errors.As(err, &coded) && coded.ExitCode() != 0 {
		return coded.ExitCode()
	}
	return 1
}
