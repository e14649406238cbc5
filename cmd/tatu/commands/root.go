package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/garagon/tatu/internal/logging"
)

// ErrThresholdExceeded is returned by scan when a finding reaches --fail-on.
var ErrThresholdExceeded = errors.New("findings at or above the fail-on threshold")

var (
	flagFormat       string
	flagOutput       string
	flagWorkers      int
	flagRules        string
	flagNoColor      bool
	flagVerbose      bool
	flagQuiet        bool
	flagLogFile      string
	flagDisableRules []string
)

var (
	logger      = zap.NewNop()
	closeLogger = func() {}

	// newLogger is swapped out in tests.
	newLogger = logging.New
)

var rootCmd = &cobra.Command{
	Use:   "tatu",
	Short: "Local static security scanner for source trees",
	Long: `Tatu scans a source tree for hard-coded secrets, dangerous function calls
and insecure configuration, and reports findings as terminal text, JSON,
SARIF or Markdown.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if os.Getenv("NO_COLOR") != "" {
			flagNoColor = true
		}
		logger, closeLogger = newLogger(logging.Options{
			Verbose: flagVerbose,
			Quiet:   flagQuiet,
			Color:   !flagNoColor && !color.NoColor,
			File:    flagLogFile,
			Console: cmd.ErrOrStderr(),
		})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "terminal", "Output format (terminal, json, sarif, markdown)")
	rootCmd.PersistentFlags().StringVarP(&flagOutput, "output", "o", "", "Output file path (default: stdout)")
	rootCmd.PersistentFlags().IntVar(&flagWorkers, "workers", 0, "Number of worker goroutines (default: NumCPU)")
	rootCmd.PersistentFlags().StringVar(&flagRules, "rules", "", "Additional rules directory")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Show descriptions and remediation; log at debug level")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Only log errors")
	rootCmd.PersistentFlags().StringVar(&flagLogFile, "log-file", "", "Write debug logs as JSON to this file (rotated)")
	rootCmd.PersistentFlags().StringSliceVar(&flagDisableRules, "disable-rule", nil, "Rule IDs to disable (comma-separated, repeatable)")
}

// Execute runs the root command. Errors other than ErrThresholdExceeded are
// printed to stderr. The logger is closed however the command ends; cobra
// skips post-run hooks when a command fails.
func Execute() error {
	defer func() {
		closeLogger()
		logger, closeLogger = zap.NewNop(), func() {}
	}()
	err := rootCmd.Execute()
	if err != nil && !errors.Is(err, ErrThresholdExceeded) {
		fmt.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
	}
	return err
}
