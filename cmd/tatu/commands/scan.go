package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/garagon/tatu/internal/config"
	"github.com/garagon/tatu/internal/detector"
	"github.com/garagon/tatu/internal/output"
	"github.com/garagon/tatu/internal/scanner"
	"github.com/garagon/tatu/internal/types"
	"github.com/garagon/tatu/internal/version"
)

var (
	flagSeverity    string
	flagFailOn      string
	flagCI          bool
	flagChanged     bool
	flagNoConfig    bool
	flagDetectors   []string
	flagInclude     []string
	flagExclude     []string
	flagMaxFileSize int64
)

var scanCmd = &cobra.Command{
	Use:   "scan [path]",
	Short: "Scan a directory or file for security issues",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runScan,
}

func init() {
	scanCmd.Flags().StringVar(&flagSeverity, "severity", "low", "Minimum severity to report (critical, high, medium, low)")
	scanCmd.Flags().StringVar(&flagFailOn, "fail-on", "", "Exit with code 1 if findings at or above this severity (critical, high, medium, low)")
	scanCmd.Flags().BoolVar(&flagCI, "ci", false, "CI mode: equivalent to --fail-on high --no-color")
	scanCmd.Flags().BoolVar(&flagChanged, "changed", false, "Only scan git-changed files (staged, unstaged, untracked)")
	scanCmd.Flags().BoolVar(&flagNoConfig, "no-config", false, "Ignore .tatu.yml files")
	scanCmd.Flags().StringSliceVar(&flagDetectors, "detectors", nil, "Detectors to run (default: all)")
	scanCmd.Flags().StringSliceVar(&flagInclude, "include", nil, "Only scan paths matching these patterns (repeatable)")
	scanCmd.Flags().StringSliceVar(&flagExclude, "exclude", nil, "Skip paths matching these patterns (repeatable)")
	scanCmd.Flags().Int64Var(&flagMaxFileSize, "max-file-size", config.DefaultMaxFileSize, "Skip files larger than this many bytes")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	targetPath := "."
	if len(args) > 0 {
		targetPath = args[0]
	}
	if _, err := os.Stat(targetPath); err != nil {
		return fmt.Errorf("cannot scan %s: %w", targetPath, err)
	}

	cfg := loadScanConfig(cmd, targetPath)
	applyCIDefaults()

	minSev, err := parseSeverityFlag("--severity", flagSeverity)
	if err != nil {
		return err
	}
	if _, err := parseSeverityFlag("--fail-on", flagFailOn); err != nil {
		return err
	}

	reg, err := loadRegistry(cfg)
	if err != nil {
		return err
	}

	s, rulesLoaded := buildScanner(reg, cfg)
	if len(s.Detectors()) == 0 {
		logger.Warn("no detectors selected; nothing will be reported",
			zap.Strings("available", reg.Names()))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	spin := startSpinner(cmd, targetPath)
	report, err := executeScan(ctx, s, targetPath)
	spin.Stop()
	if err != nil {
		return err
	}
	report.Version = version.Version
	report.RulesLoaded = rulesLoaded
	logger.Debug("scan finished",
		zap.String("scan_id", report.ScanID),
		zap.Int("files_scanned", report.FilesScanned),
		zap.Int("files_skipped", report.FilesSkipped),
		zap.Int("findings", len(report.Findings)),
		zap.Duration("duration", report.Duration))

	if err := writeOutput(cmd, report.AtOrAbove(minSev)); err != nil {
		return err
	}
	return checkFailOnThreshold(report)
}

// loadScanConfig reads the config governing targetPath and lets it fill in
// every flag the user did not set. Include and exclude lists are merged.
func loadScanConfig(cmd *cobra.Command, targetPath string) config.Config {
	if flagNoConfig {
		return config.Config{}
	}
	cfg, err := config.Load(targetPath)
	if err != nil {
		logger.Warn("ignoring config", zap.Error(err))
		return config.Config{}
	}
	if cfg.Path != "" {
		logger.Debug("loaded config", zap.String("path", cfg.Path))
	}

	flags := cmd.Flags()
	if !flags.Changed("severity") && cfg.Severity != "" {
		flagSeverity = cfg.Severity
	}
	if !flags.Changed("format") && cfg.Format != "" {
		flagFormat = cfg.Format
	}
	if !flags.Changed("fail-on") && cfg.FailOn != "" {
		flagFailOn = cfg.FailOn
	}
	if !flags.Changed("max-file-size") {
		flagMaxFileSize = cfg.EffectiveMaxFileSize()
	}
	if !flags.Changed("detectors") && len(cfg.Detectors.Enable) > 0 {
		flagDetectors = cfg.Detectors.Enable
	}
	flagInclude = append(cfg.Include, flagInclude...)
	flagExclude = append(cfg.Exclude, flagExclude...)
	return cfg
}

func applyCIDefaults() {
	if !flagCI {
		return
	}
	if flagFailOn == "" {
		flagFailOn = "high"
	}
	flagNoColor = true
}

func parseSeverityFlag(name, value string) (types.Severity, error) {
	if value == "" {
		return types.SeverityLow, nil
	}
	sev, err := types.ParseSeverity(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return sev, nil
}

// loadRegistry builds the detectors from the built-in rules, the custom rules
// directory and the overrides from cfg and --disable-rule.
func loadRegistry(cfg config.Config) (*detector.Registry, error) {
	rulesDir := flagRules
	if rulesDir == "" {
		rulesDir = cfg.RulesDir()
	}

	overrides := cfg.Overrides()
	for _, id := range flagDisableRules {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		o := overrides[id]
		o.Disabled = true
		overrides[id] = o
	}

	reg, warnings, err := detector.Load(rulesDir, overrides)
	for _, w := range warnings {
		logger.Warn("rule skipped", zap.Error(w))
	}
	if err != nil {
		return nil, err
	}
	return reg, nil
}

func buildScanner(reg *detector.Registry, cfg config.Config) (*scanner.Scanner, int) {
	s := scanner.New(flagWorkers)
	s.SetLogger(logger)
	s.SetDiscovery(scanner.Discovery{
		Include:     flagInclude,
		Exclude:     flagExclude,
		MaxFileSize: flagMaxFileSize,
		Logger:      logger,
	})

	rulesLoaded := 0
	for _, d := range reg.Pick(flagDetectors, cfg.Detectors.Disable) {
		s.RegisterDetector(d)
		if rd, ok := d.(*detector.RuleDetector); ok {
			rulesLoaded += len(rd.Rules())
		}
	}
	return s, rulesLoaded
}

func executeScan(ctx context.Context, s *scanner.Scanner, targetPath string) (*types.ScanReport, error) {
	if !flagChanged {
		report, err := s.Scan(ctx, targetPath)
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		return report, nil
	}

	changed, err := scanner.ChangedFiles(targetPath)
	if err != nil {
		return nil, fmt.Errorf("getting changed files: %w", err)
	}
	logger.Debug("git changed files", zap.Int("count", len(changed)))
	report, err := s.ScanPaths(ctx, targetPath, changed)
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}
	return report, nil
}

// startSpinner shows progress on an interactive terminal. The returned
// spinner is nil, and Stop a no-op, when output is redirected.
func startSpinner(cmd *cobra.Command, targetPath string) *output.Spinner {
	if flagQuiet || flagNoColor || color.NoColor || flagOutput != "" || !isTerminalFormat() {
		return nil
	}
	spin := output.NewSpinner(cmd.ErrOrStderr())
	spin.Start("Scanning " + targetPath)
	return spin
}

func isTerminalFormat() bool {
	switch strings.ToLower(flagFormat) {
	case "", "terminal", "text":
		return true
	}
	return false
}

func writeOutput(cmd *cobra.Command, report *types.ScanReport) error {
	noColor := flagNoColor || flagOutput != "" || !isStdout(cmd.OutOrStdout())
	formatter, err := output.New(flagFormat, output.Options{NoColor: noColor, Verbose: flagVerbose})
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if flagOutput != "" {
		f, err := os.Create(flagOutput)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer func() { _ = f.Close() }()
		w = f
	}

	return formatter.Format(w, report)
}

// isStdout reports whether w is the process stdout on a color-capable terminal.
func isStdout(w io.Writer) bool {
	return w == os.Stdout && !color.NoColor
}

func checkFailOnThreshold(report *types.ScanReport) error {
	if flagFailOn == "" {
		return nil
	}
	threshold, err := types.ParseSeverity(flagFailOn)
	if err != nil {
		return fmt.Errorf("invalid --fail-on: %w", err)
	}
	if report.HasFindingsAtOrAbove(threshold) {
		return fmt.Errorf("%w (%s)", ErrThresholdExceeded, threshold)
	}
	return nil
}
