// Package langdetect confirms that discovered files are C# source.
// It uses go-enry so that files sharing the .cs extension with other
// languages, and generated or vendored sources, are left out of a run.
package langdetect

import (
	"slices"

	"github.com/go-enry/go-enry/v2"
)

// CSharp is the linguist name of the C# language.
const CSharp = "C#"

// Verdict describes why a file was accepted or rejected.
type Verdict string

const (
	VerdictCSharp    Verdict = "csharp"
	VerdictOther     Verdict = "other-language"
	VerdictGenerated Verdict = "generated"
	VerdictVendored  Verdict = "vendored"
)

// Detect returns the language enry assigns to the file, or "" when it has
// no opinion.
func Detect(path string, content []byte) string {
	return enry.GetLanguage(path, content)
}

// IsCSharp reports whether path with the given content is C#.
//
// The extension must map to C#. When the extension is shared with another
// language, the content heuristics decide; a file they cannot place is
// treated as C#.
func IsCSharp(path string, content []byte) bool {
	candidates := enry.GetLanguagesByExtension(path, content, nil)
	if !slices.Contains(candidates, CSharp) {
		return false
	}
	if len(candidates) == 1 {
		return true
	}

	byContent := enry.GetLanguagesByContent(path, content, candidates)
	return len(byContent) == 0 || slices.Contains(byContent, CSharp)
}

// Classify checks a discovered file. Vendored paths are rejected before the
// content is consulted.
func Classify(path string, content []byte) Verdict {
	if enry.IsVendor(path) {
		return VerdictVendored
	}
	if !IsCSharp(path, content) {
		return VerdictOther
	}
	if enry.IsGenerated(path, content) {
		return VerdictGenerated
	}
	return VerdictCSharp
}
