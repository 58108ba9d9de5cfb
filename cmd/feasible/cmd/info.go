package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/brendtumi/feasible/internal/cache"
	"github.com/brendtumi/feasible/internal/engine"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show information about the configuration and lock file",
	Long: `Displays the feasible version, the configuration in use with its fingerprint,
the lock file path and state, and the declared variables, defaults, hooks and
files.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		loaded, _ := loadConfig(cmd.Context()) // ok if config doesn't exist

		result := engine.Info(version, loaded, ".", lockfilePath)

		fmt.Printf("feasible %s\n", result.Version)
		if result.ConfigSource != "" {
			fmt.Printf("  config:        %s\n", result.ConfigSource)
			fmt.Printf("  fingerprint:   %s\n", result.Fingerprint)
		} else {
			fmt.Printf("  config:        not found (%s)\n", configPattern)
		}

		state := "not found"
		if result.HasLock {
			state = fmt.Sprintf("%d file(s) recorded", len(result.Recorded))
		}
		fmt.Printf("  lockfile:      %s (%s)\n", result.LockPath, state)
		fmt.Printf("  lock version:  %d\n", result.LockVersion)

		printList("variables", result.Variables)
		printList("defaults", result.Defaults)
		printList("hooks", result.Hooks)
		printList("files", result.Files)

		if dir := cache.DefaultDir(); dirExists(dir) {
			c, err := cache.New(dir)
			if err == nil {
				size, _ := c.Size()
				fmt.Printf("  cache:         %s (%s)\n", c.Path(), humanSize(size))
			}
		}
		return nil
	},
}

func printList(title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Printf("  %-14s %s\n", title+":", strings.Join(items, ", "))
}

func dirExists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}

func humanSize(bytes int64) string {
	if bytes == 0 {
		return "0 B"
	}
	units := []string{"B", "KB", "MB", "GB"}
	size := float64(bytes)
	i := 0
	for size >= 1024 && i < len(units)-1 {
		size /= 1024
		i++
	}
	if i == 0 {
		return fmt.Sprintf("%d B", bytes)
	}
	return fmt.Sprintf("%.1f %s", size, units[i])
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
