package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

var initForce bool

// defaultInitFile is written when --config is a glob.
const defaultInitFile = "feasible.yml"

// initTemplate is the default feasible.yml scaffold.
const initTemplate = `# feasible configuration
# Docs: https://github.com/brendtumi/feasible

variables:
  projectName:
    question: What is the project name?
    initial: my-project
  PORT:
    question: Which port should the server listen on?
    type: number
    initial: 3000
  # environment:
  #   question: Target environment?
  #   options: [development, staging, production]
  # apiToken:
  #   type: password
  # instanceId:
  #   type: random

defaults:
  author:
    type: bash
    command: git config user.name
  # meta:
  #   type: bash
  #   command: cat package.json
  #   output: json
  #   query: repository.url

actions:
  pre:
    - echo "Setting up ${projectName.val}"
  # post: npm install

files:
  .env:
    type: env
    variables:
      - PORT
      - [APP_NAME, projectName]
  config.json:
    type: json
    variables: [projectName, PORT]
  README.md: |
    # ${projectName.val.unescape}

    Maintained by ${author.val.unescape}.
  # docker-compose.override.yml:
  #   condition: PORT != 3000
  #   content: "PORT=${PORT.val}"

# repository:
#   url: https://github.com/your-org/template.git#main
#   target: template
`

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a starter feasible.yml configuration",
	Long: `Creates a feasible.yml file in the current directory with a commented
template covering variables, computed defaults, hooks and the three kinds of
generated files. When --config names a file instead of a glob, that path is
used.

Use --force to overwrite an existing configuration file.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		outPath := configPattern
		if outPath == "" || strings.ContainsAny(outPath, "*?[{") {
			outPath = defaultInitFile
		}
		if !filepath.IsAbs(outPath) {
			abs, err := filepath.Abs(outPath)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}
			outPath = abs
		}

		if !initForce {
			if _, err := os.Stat(outPath); err == nil {
				return fmt.Errorf("%s already exists (use --force to overwrite)", outPath)
			}
		}

		if err := os.WriteFile(outPath, []byte(initTemplate), 0644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		info("Created %s", outPath)
		info("")
		info("Next steps:")
		info("  1. Edit the file to declare your variables and files")
		info("  2. Run 'feasible' to answer the questions and generate files")
		info("  3. Run 'feasible check' in CI to detect configuration drift")
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite existing config file")
	rootCmd.AddCommand(initCmd)
}
