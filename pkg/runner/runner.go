package runner

import (
	"context"
	"fmt"
	"runtime"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/yaklabco/atclint/pkg/cache"
	"github.com/yaklabco/atclint/pkg/config"
	"github.com/yaklabco/atclint/pkg/fsutil"
	"github.com/yaklabco/atclint/pkg/lint"
)

// Runner orchestrates multi-file linting using a lint.Pipeline.
type Runner struct {
	// Pipeline handles per-file processing with safety guarantees.
	Pipeline *lint.Pipeline

	// Cache stores lint-only results between runs. Nil disables caching.
	Cache *cache.Cache

	// Logger receives debug output. Nil disables logging.
	Logger *log.Logger
}

// New creates a new Runner with the given pipeline.
func New(pipeline *lint.Pipeline) *Runner {
	return &Runner{Pipeline: pipeline}
}

// Run discovers files under opts.Paths and processes them concurrently with
// at most opts.Jobs files in flight. Once ctx is cancelled no new file is
// started; files already running finish their own cancellation handling.
// Outcomes are ordered by path regardless of completion order.
func (r *Runner) Run(ctx context.Context, opts Options) (*Result, error) {
	files, err := Discover(ctx, opts)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Files: make([]FileOutcome, 0, len(files)),
		Stats: newStats(),
	}
	result.Stats.FilesDiscovered = len(files)

	if len(files) == 0 {
		return result, nil
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}
	jobs = min(jobs, len(files))

	pipelineOpts := lint.PipelineOptionsFromConfig(opts.Config)
	r.debug("starting run", "files", len(files), "jobs", jobs, "fix", pipelineOpts.Fix)

	// Each worker owns one slot, so no locking is needed.
	outcomes := make([]*FileOutcome, len(files))

	group := errgroup.Group{}
	group.SetLimit(jobs)

	for idx, path := range files {
		if ctx.Err() != nil {
			break
		}
		group.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			outcome := r.processFile(ctx, path, opts.Config, pipelineOpts)
			outcomes[idx] = &outcome
			return nil
		})
	}
	_ = group.Wait()

	for _, outcome := range outcomes {
		if outcome != nil {
			result.accumulate(*outcome)
		}
	}

	if ctx.Err() != nil {
		return result, fmt.Errorf("run cancelled: %w", ctx.Err())
	}

	return result, nil
}

func (r *Runner) processFile(
	ctx context.Context,
	path string,
	cfg *config.Config,
	opts lint.PipelineOptions,
) FileOutcome {
	outcome := FileOutcome{Path: path}

	if r.Cache != nil && !opts.Fix {
		pr, cached, err := r.processCached(ctx, path, cfg, opts)
		outcome.Result, outcome.Cached, outcome.Error = pr, cached, err
		return outcome
	}

	pr, err := r.Pipeline.ProcessFile(ctx, path, cfg, opts)
	if err != nil {
		outcome.Error = err
		return outcome
	}
	outcome.Result = pr
	return outcome
}

// processCached serves a lint-only evaluation from the cache, filling the
// cache on a miss. Results with rule failures are not stored.
func (r *Runner) processCached(
	ctx context.Context,
	path string,
	cfg *config.Config,
	opts lint.PipelineOptions,
) (*lint.PipelineResult, bool, error) {
	content, info, err := fsutil.ReadFile(ctx, path)
	if err != nil {
		return nil, false, lint.CategorizeError(err)
	}

	key := r.Cache.Key(path, content, r.globalsContent())
	if diags, ok := r.Cache.Get(key, path); ok {
		r.debug("cache hit", "file", path)
		return &lint.PipelineResult{
			FileResult:   &lint.FileResult{Diagnostics: diags},
			Path:         path,
			OriginalInfo: info,
		}, true, nil
	}

	pr, err := r.Pipeline.ProcessContent(ctx, path, content, cfg, opts)
	if err != nil {
		return nil, false, err
	}
	pr.OriginalInfo = info

	if pr.FileResult != nil && len(pr.RuleErrors) == 0 {
		if err := r.Cache.Put(ctx, key, path, pr.Diagnostics); err != nil {
			r.debug("cache store failed", "file", path, "error", err)
		}
	}
	return pr, false, nil
}

func (r *Runner) globalsContent() []byte {
	if r.Pipeline == nil || r.Pipeline.Engine == nil || r.Pipeline.Engine.GlobalUsings == nil {
		return nil
	}
	return r.Pipeline.Engine.GlobalUsings.Snapshot().Content
}

func (r *Runner) debug(msg string, keyvals ...any) {
	if r.Logger != nil {
		r.Logger.Debug(msg, keyvals...)
	}
}
