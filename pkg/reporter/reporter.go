// Package reporter writes lint results as styled text, JSON, SARIF, unified
// diffs or summary tables.
package reporter

import (
	"context"
	"fmt"

	"github.com/yaklabco/atclint/pkg/analysis"
	"github.com/yaklabco/atclint/pkg/runner"
)

var _ Reporter = (*reporterFacade)(nil)

// Reporter formats and writes lint results.
type Reporter interface {
	// Report writes formatted output for the given result.
	// It returns the number of issues reported and any write errors.
	Report(ctx context.Context, result *runner.Result) (int, error)
}

// reporterFacade adapts a Renderer to the Reporter interface.
type reporterFacade struct {
	renderer     Renderer
	analysisOpts analysis.Options
}

// Report implements Reporter by analyzing the result and rendering it.
func (f *reporterFacade) Report(ctx context.Context, result *runner.Result) (int, error) {
	report := analysis.Analyze(result, f.analysisOpts)
	if err := f.renderer.Render(ctx, report); err != nil {
		return 0, fmt.Errorf("render: %w", err)
	}
	return report.Totals.Issues, nil
}

func newRendererFacade(renderer Renderer, analysisOpts analysis.Options) *reporterFacade {
	return &reporterFacade{renderer: renderer, analysisOpts: analysisOpts}
}

// New creates a Reporter for the specified options.
func New(opts Options) (Reporter, error) {
	defaults := DefaultOptions()
	if opts.Writer == nil {
		opts.Writer = defaults.Writer
	}
	if opts.ErrorWriter == nil {
		opts.ErrorWriter = defaults.ErrorWriter
	}
	if opts.Version == "" {
		opts.Version = defaults.Version
	}

	format := opts.Format
	if format == "" {
		format = FormatText
	}

	analysisOpts := analysis.Options{
		IncludeDiagnostics: true,
		IncludeByFile:      true,
		IncludeByRule:      true,
		IncludeByCategory:  true,
		SortBy:             analysis.SortByCount,
		SortDesc:           true,
		RuleFormat:         opts.RuleFormat,
		WorkingDir:         opts.WorkingDir,
	}

	switch format {
	case FormatText:
		return NewTextReporter(opts), nil
	case FormatJSON:
		analysisOpts.IncludeFixes = true
		return newRendererFacade(NewJSONRenderer(opts), analysisOpts), nil
	case FormatSARIF:
		return NewSARIFReporter(opts), nil
	case FormatDiff:
		return NewDiffReporter(opts), nil
	case FormatSummary:
		analysisOpts.IncludeDiagnostics = false
		return newRendererFacade(NewSummaryRenderer(opts), analysisOpts), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}
