package lint

import (
	"context"

	"github.com/yaklabco/atclint/pkg/csast"
)

// Parser parses C# content into a FileSnapshot.
//
// The lint package defines this interface in the consumer package.
// Implementations (e.g., parser/csharp) provide the concrete parsing logic.
//
// Implementations must be:
//   - deterministic for a given (path, content) pair,
//   - safe for concurrent use by multiple goroutines,
//   - side-effect free (no I/O, no global state mutation).
type Parser interface {
	// Parse converts raw C# bytes into a fully-populated FileSnapshot.
	//
	// The returned FileSnapshot must satisfy:
	//   - snapshot.Path == path
	//   - bytes.Equal(snapshot.Content, content)
	//   - csast.ValidateTokens(snapshot.Tokens, len(snapshot.Content)) == true
	//   - snapshot.Root != nil && snapshot.Root.Kind == csast.NodeCompilationUnit
	//   - All nodes have node.File == snapshot
	//
	// On error no partial snapshot is returned.
	Parse(ctx context.Context, path string, content []byte) (*csast.FileSnapshot, error)
}
