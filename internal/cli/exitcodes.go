package cli

import (
	"errors"
	"fmt"

	"github.com/yaklabco/atclint/pkg/config"
	"github.com/yaklabco/atclint/pkg/lint"
	"github.com/yaklabco/atclint/pkg/runner"
)

// Exit codes for atclint. The values above 2 follow sysexits.h.
const (
	// ExitSuccess indicates successful execution with no issues.
	ExitSuccess = 0

	// ExitLintErrors indicates lint completed but found errors.
	ExitLintErrors = 1

	// ExitLintWarnings indicates lint found warnings in strict mode.
	ExitLintWarnings = 2

	// ExitInvalidUsage indicates invalid command-line usage.
	ExitInvalidUsage = 64

	// ExitConfigError indicates configuration file errors.
	ExitConfigError = 65

	// ExitInternalError indicates an internal error, including fixes that
	// failed verification.
	ExitInternalError = 70

	// ExitIOError indicates files that could not be read or written.
	ExitIOError = 74
)

// ErrLintIssuesFound signals findings that fail the run. It carries no
// message worth logging.
var ErrLintIssuesFound = errors.New("lint issues found")

// ExitError pairs an error with the process exit code it maps to.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &ExitError{Code: code, Err: err}
}

func usageError(err error) error    { return withCode(ExitInvalidUsage, err) }
func configError(err error) error   { return withCode(ExitConfigError, err) }
func internalError(err error) error { return withCode(ExitInternalError, err) }
func ioError(err error) error       { return withCode(ExitIOError, err) }

// ExitCode maps an error returned by a command to a process exit code.
// Errors without an attached code are internal errors.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitInternalError
}

// ExitCodeFromResult determines the exit code of a finished run. Files that
// could not be processed outrank findings, since their results are
// missing. Fixes that failed verification come next.
func ExitCodeFromResult(result *runner.Result, strict bool) int {
	if result == nil {
		return ExitSuccess
	}

	switch {
	case result.Stats.FilesErrored > 0:
		return fileErrorCode(result)
	case result.Stats.FilesFailedVerification > 0:
		return ExitInternalError
	case result.Stats.DiagnosticsBySeverity[string(config.SeverityError)] > 0:
		return ExitLintErrors
	case strict && result.Stats.DiagnosticsBySeverity[string(config.SeverityWarning)] > 0:
		return ExitLintWarnings
	default:
		return ExitSuccess
	}
}

// fileErrorCode is ExitIOError when any file failed on the file system and
// ExitInternalError otherwise.
func fileErrorCode(result *runner.Result) int {
	for _, outcome := range result.Files {
		if outcome.Error == nil {
			continue
		}
		if errors.Is(outcome.Error, lint.ErrFileNotFound) ||
			errors.Is(outcome.Error, lint.ErrPermissionDenied) ||
			errors.Is(outcome.Error, lint.ErrWriteFailure) {
			return ExitIOError
		}
	}
	return ExitInternalError
}
