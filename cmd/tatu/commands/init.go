package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/garagon/tatu/internal/config"
	"github.com/garagon/tatu/internal/scanner"
)

var (
	flagHook   bool
	flagCIOnly bool
)

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Initialize tatu configuration files",
	Long:  `Scaffolds .tatu.yml, .tatuignore, and a GitHub Actions workflow for tatu scanning.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runInit,
}

func init() {
	initCmd.Flags().BoolVar(&flagHook, "hook", false, "Create a git pre-commit hook that runs tatu")
	initCmd.Flags().BoolVar(&flagCIOnly, "ci", false, "Only generate the GitHub Actions workflow (skip config files)")
	rootCmd.AddCommand(initCmd)
}

type scaffold struct {
	path    string
	content string
	mode    os.FileMode
}

func runInit(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	w := cmd.OutOrStdout()

	if flagHook {
		gitDir := filepath.Join(dir, ".git")
		if _, err := os.Stat(gitDir); errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("no .git directory found in %s (is this a git repository?)", dir)
		}
		return writeScaffolds(w, []scaffold{
			{filepath.Join(gitDir, "hooks", "pre-commit"), preCommitTemplate, 0o755},
		})
	}

	workflow := scaffold{filepath.Join(dir, ".github", "workflows", "tatu.yml"), workflowTemplate, 0o644}
	if flagCIOnly {
		return writeScaffolds(w, []scaffold{workflow})
	}

	return writeScaffolds(w, []scaffold{
		{filepath.Join(dir, config.FileNames[0]), config.Template, 0o644},
		{filepath.Join(dir, scanner.IgnoreFile), ignoreTemplate, 0o644},
		workflow,
	})
}

// writeScaffolds creates each file unless it already exists.
func writeScaffolds(w io.Writer, files []scaffold) error {
	for _, f := range files {
		if _, err := os.Stat(f.path); err == nil {
			fmt.Fprintf(w, "  skip %s (already exists)\n", f.path)
			continue
		}
		if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
			return fmt.Errorf("creating directory for %s: %w", f.path, err)
		}
		if err := os.WriteFile(f.path, []byte(f.content), f.mode); err != nil {
			return fmt.Errorf("writing %s: %w", f.path, err)
		}
		fmt.Fprintf(w, "  create %s\n", f.path)
	}
	return nil
}

const ignoreTemplate = `# tatu ignore patterns (gitignore syntax)
# Files matching these patterns are skipped during scanning.

# Dependencies
vendor/
node_modules/
.venv/
__pycache__/

# Build artifacts
dist/
build/
bin/

# Test fixtures with intentional secrets
testdata/
fixtures/

# Logs and temp
*.log
tmp/
`

const preCommitTemplate = `#!/bin/sh
# tatu pre-commit hook
echo "Running tatu security scan..."
tatu scan . --changed --fail-on high --no-color
exit $?
`

const workflowTemplate = `name: tatu security scan

on:
  push:
    branches: [main]
  pull_request:
    branches: [main]

permissions:
  security-events: write
  contents: read

jobs:
  tatu:
    runs-on: ubuntu-latest
    steps:
      - uses: actions/checkout@v4

      - uses: actions/setup-go@v5
        with:
          go-version: stable

      - name: Install tatu
        run: go install github.com/garagon/tatu/cmd/tatu@latest

      - name: Run tatu scan
        id: scan
        continue-on-error: true
        run: tatu scan . --format sarif --output results.sarif --fail-on high

      - name: Upload SARIF results
        if: always()
        uses: github/codeql-action/upload-sarif@v3
        with:
          sarif_file: results.sarif

      - name: Fail on findings
        if: steps.scan.outcome == 'failure'
        run: exit 1
`
