package reporter

import (
	"context"

	"github.com/yaklabco/atclint/pkg/analysis"
)

// Renderer formats an analysis.Report for output.
// Renderers hold no run state and only handle presentation.
type Renderer interface {
	// Render writes the formatted report to the configured output.
	Render(ctx context.Context, report *analysis.Report) error
}
