package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/yaklabco/atclint/internal/configloader"
	"github.com/yaklabco/atclint/internal/logging"
	"github.com/yaklabco/atclint/pkg/cache"
	"github.com/yaklabco/atclint/pkg/config"
	"github.com/yaklabco/atclint/pkg/globalusings"
	"github.com/yaklabco/atclint/pkg/lint"
	"github.com/yaklabco/atclint/pkg/lint/rules"
	"github.com/yaklabco/atclint/pkg/parser/csharp"
	"github.com/yaklabco/atclint/pkg/reporter"
	"github.com/yaklabco/atclint/pkg/runner"
)

type lintFlags struct {
	format           string
	ruleFormat       string
	strict           bool
	noContext        bool
	compact          bool
	includeGenerated bool
}

func newLintCommand(info BuildInfo) *cobra.Command {
	cliCfg := &config.Config{}
	flags := &lintFlags{}

	cmd := &cobra.Command{
		Use:   "lint [paths...]",
		Short: "Lint C# files",
		Long:  lintLongDescription,
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLint(cmd, args, cliCfg, flags, info)
		},
	}

	addLintFlags(cmd, cliCfg, flags)

	return cmd
}

const lintLongDescription = `Lint C# files for layout, using-directive and performance issues.

By default, lints every .cs file below the current directory. Generated
and vendored sources (obj/, bin/, *.g.cs, *.Designer.cs) are skipped.

Examples:
  atclint lint                    # Lint current directory
  atclint lint src/               # Lint one directory
  atclint lint Orders.cs          # Lint a single file
  atclint lint --fix              # Lint and fix in place
  atclint lint --dry-run          # Show fixes as a diff without writing
  atclint lint --format sarif     # SARIF output for code scanning
  atclint lint --strict           # Fail on warnings too`

func runLint(cmd *cobra.Command, args []string, cliCfg *config.Config, flags *lintFlags, info BuildInfo) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	logger := logging.FromContext(ctx)

	if err := applyLintFlags(cmd, cliCfg, flags); err != nil {
		return usageError(err)
	}

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return internalError(fmt.Errorf("get config flag: %w", err))
	}

	workDir, err := os.Getwd()
	if err != nil {
		return ioError(fmt.Errorf("get working directory: %w", err))
	}

	registry := rules.NewDefaultRegistry()

	loadResult, err := configloader.Load(ctx, configloader.LoadOptions{
		WorkingDir:   workDir,
		ExplicitPath: configPath,
		Registry:     registry,
		CLIConfig:    cliCfg,
	})
	if err != nil {
		return configError(fmt.Errorf("load configuration: %w", err))
	}
	cfg := loadResult.Config

	for _, warning := range loadResult.Warnings {
		logger.Warn(warning)
	}
	if len(loadResult.LoadedFrom) > 0 {
		logger.Debug("loaded configuration", logging.FieldFiles, loadResult.LoadedFrom)
	}

	format, err := reporter.ParseFormat(string(cfg.Format))
	if err != nil {
		return usageError(err)
	}
	// A diff needs the fixed content, which only a dry run keeps.
	if format == reporter.FormatDiff {
		cfg.Fix, cfg.DryRun = true, true
	}
	if cfg.DryRun {
		cfg.Fix = true
	}

	logger.Debug("configuration resolved",
		logging.FieldFix, cfg.Fix,
		logging.FieldDryRun, cfg.DryRun,
		logging.FieldJobs, cfg.Jobs,
		logging.FieldFormat, format,
		logging.FieldGlobalUsings, cfg.GlobalUsingsFile,
	)

	store, err := globalusings.Open(ctx, cfg.GlobalUsingsFile)
	if err != nil {
		return ioError(err)
	}

	engine := lint.NewEngine(csharp.New(), registry)
	engine.GlobalUsings = store
	engine.Logger = logger.WithPrefix("lint")

	lintRunner := runner.New(lint.NewPipeline(engine))
	lintRunner.Logger = logger.WithPrefix("runner")
	lintRunner.Cache = openCache(cfg, info.Version, logger)

	runOpts := runner.Options{
		Paths:            args,
		WorkingDir:       workDir,
		Extensions:       runner.DefaultExtensions(),
		ExcludeGlobs:     cfg.Ignore,
		IncludeGenerated: flags.includeGenerated,
		Jobs:             cfg.Jobs,
		Config:           cfg,
	}

	logger.Debug("starting lint run",
		logging.FieldPaths, runOpts.Paths,
		logging.FieldWorkingDir, runOpts.WorkingDir,
	)

	started := time.Now()
	result, runErr := lintRunner.Run(ctx, runOpts)
	if result == nil {
		return ioError(fmt.Errorf("lint run failed: %w", runErr))
	}

	logger.Debug("lint run finished",
		logging.FieldFilesProcessed, result.Stats.FilesProcessed,
		logging.FieldFilesCached, result.Stats.FilesCached,
		logging.FieldFilesModified, result.Stats.FilesModified,
		logging.FieldDiagnosticsTotal, result.Stats.DiagnosticsTotal,
		logging.FieldDuration, time.Since(started),
	)

	colorMode, err := cmd.Flags().GetString("color")
	if err != nil {
		colorMode = "auto"
	}

	rep, err := reporter.New(reporter.Options{
		Writer:      cmd.OutOrStdout(),
		ErrorWriter: cmd.ErrOrStderr(),
		Format:      format,
		Color:       colorMode,
		ShowContext: !flags.noContext,
		ShowSummary: true,
		GroupByFile: true,
		Compact:     flags.compact,
		RuleFormat:  cfg.RuleFormat,
		Version:     info.Version,
		WorkingDir:  workDir,
	})
	if err != nil {
		return usageError(fmt.Errorf("create reporter: %w", err))
	}

	if _, err := rep.Report(ctx, result); err != nil {
		return ioError(fmt.Errorf("report results: %w", err))
	}

	if runErr != nil {
		return internalError(runErr)
	}

	if code := ExitCodeFromResult(result, flags.strict); code != ExitSuccess {
		return withCode(code, ErrLintIssuesFound)
	}
	return nil
}

// applyLintFlags copies explicitly set flags into cliCfg. Unset flags stay
// zero so they do not override config files.
func applyLintFlags(cmd *cobra.Command, cliCfg *config.Config, flags *lintFlags) error {
	if cmd.Flags().Changed("format") {
		format, err := reporter.ParseFormat(flags.format)
		if err != nil {
			return err
		}
		cliCfg.Format = config.OutputFormat(format)
	}
	if cmd.Flags().Changed("rule-format") {
		ruleFormat := config.RuleFormat(flags.ruleFormat)
		if !ruleFormat.IsValid() {
			return fmt.Errorf("invalid rule format %q (valid: name, id, combined)", flags.ruleFormat)
		}
		cliCfg.RuleFormat = ruleFormat
	}
	if cliCfg.Jobs < 0 {
		return errors.New("--jobs must be >= 0")
	}
	return nil
}

// openCache returns the result cache when enabled. A cache that cannot be
// opened is logged and the run continues without it.
func openCache(cfg *config.Config, version string, logger *log.Logger) *cache.Cache {
	if !cfg.Cache.Enabled || cfg.Fix {
		return nil
	}
	c, err := cache.New(cfg.Cache.Dir, version, cfg)
	if err != nil {
		logger.Warn("result cache disabled", logging.FieldError, err)
		return nil
	}
	logger.Debug("result cache enabled", logging.FieldCache, c.Dir())
	return c
}

func addLintFlags(cmd *cobra.Command, cfg *config.Config, flags *lintFlags) {
	cmd.Flags().BoolVar(&cfg.Fix, "fix", false, "apply fixes in place")
	cmd.Flags().BoolVar(&cfg.DryRun, "dry-run", false, "compute fixes and show diffs without writing")
	cmd.Flags().StringVar(&flags.format, "format", "text", "output format: text, json, sarif, diff, summary")
	cmd.Flags().IntVar(&cfg.Jobs, "jobs", 0, "number of parallel workers (0 = auto)")
	cmd.Flags().StringSliceVar(&cfg.Ignore, "ignore", nil, "glob patterns to ignore")
	cmd.Flags().StringSliceVar(&cfg.EnableRules, "enable", nil, "rule IDs or names to enable")
	cmd.Flags().StringSliceVar(&cfg.DisableRules, "disable", nil, "rule IDs or names to disable")
	cmd.Flags().StringSliceVar(&cfg.FixRules, "fix-rules", nil, "limit fixes to these rule IDs or names")
	cmd.Flags().BoolVar(&cfg.NoBackups, "no-backups", false, "do not write backup files when fixing")
	cmd.Flags().IntVar(&cfg.MaxLineLength, "max-line-length", 0, "override the layout line length")
	cmd.Flags().BoolVar(&cfg.Cache.Enabled, "cache", false, "reuse results of unchanged files (lint only)")
	cmd.Flags().BoolVar(&flags.strict, "strict", false, "exit non-zero on warnings")
	cmd.Flags().BoolVar(&flags.noContext, "no-context", false, "hide source line context in output")
	cmd.Flags().BoolVar(&flags.compact, "compact", false, "compact JSON and SARIF output")
	cmd.Flags().BoolVar(&flags.includeGenerated, "include-generated", false, "also lint generated and vendored sources")
	cmd.Flags().StringVar(&flags.ruleFormat, "rule-format", "name",
		"rule identifier format in output: name, id, or combined")
}
