// Package fix provides the text edit model rules use to describe fixes and the
// logic that applies those edits to file content.
package fix

import "fmt"

// TextEdit represents a single text replacement in a file.
type TextEdit struct {
	// StartOffset is the byte index where the edit begins (inclusive).
	StartOffset int

	// EndOffset is the byte index where the edit ends (exclusive).
	EndOffset int

	// NewText is the replacement text.
	NewText string
}

// Len returns the number of bytes the edit replaces.
func (e TextEdit) Len() int {
	return e.EndOffset - e.StartOffset
}

// IsInsert reports whether the edit replaces nothing.
func (e TextEdit) IsInsert() bool {
	return e.StartOffset == e.EndOffset
}

// Conflicts reports whether two edits cannot both be applied unambiguously.
// Overlapping ranges conflict, an insertion strictly inside another edit's
// range conflicts, and two insertions at the same offset conflict because
// their relative order would be arbitrary.
func (e TextEdit) Conflicts(other TextEdit) bool {
	if e.IsInsert() && other.IsInsert() {
		return e.StartOffset == other.StartOffset
	}
	if e.IsInsert() {
		return other.StartOffset < e.StartOffset && e.StartOffset < other.EndOffset
	}
	if other.IsInsert() {
		return e.StartOffset < other.StartOffset && other.StartOffset < e.EndOffset
	}
	return e.StartOffset < other.EndOffset && other.StartOffset < e.EndOffset
}

func (e TextEdit) String() string {
	return fmt.Sprintf("[%d:%d]%q", e.StartOffset, e.EndOffset, e.NewText)
}

// EditBuilder accumulates text edits for a file.
type EditBuilder struct {
	Edits []TextEdit
}

// NewEditBuilder creates a new EditBuilder.
func NewEditBuilder() *EditBuilder {
	return &EditBuilder{
		Edits: make([]TextEdit, 0),
	}
}

// ReplaceRange adds an edit that replaces bytes [start, end) with newText.
func (b *EditBuilder) ReplaceRange(start, end int, newText string) {
	b.Edits = append(b.Edits, TextEdit{
		StartOffset: start,
		EndOffset:   end,
		NewText:     newText,
	})
}

// Insert adds an edit that inserts text at the given offset.
func (b *EditBuilder) Insert(offset int, text string) {
	b.ReplaceRange(offset, offset, text)
}

// Delete adds an edit that deletes bytes [start, end).
func (b *EditBuilder) Delete(start, end int) {
	b.ReplaceRange(start, end, "")
}

// Len returns the number of accumulated edits.
func (b *EditBuilder) Len() int {
	return len(b.Edits)
}

// Set returns an EditSet holding the accumulated edits as primary edits.
func (b *EditBuilder) Set() *EditSet {
	edits := make([]TextEdit, len(b.Edits))
	copy(edits, b.Edits)
	return &EditSet{Primary: edits}
}

// FileEdits groups edits that target one file other than the one being fixed.
type FileEdits struct {
	Path  string
	Edits []TextEdit
}

// EditSet is the complete output of one fix. Primary edits target the file the
// diagnostic was reported in; External edits target companion files. All parts
// of a set are applied together or not at all.
type EditSet struct {
	Primary  []TextEdit
	External []FileEdits
}

// IsEmpty reports whether the set holds no edits.
func (s *EditSet) IsEmpty() bool {
	if s == nil {
		return true
	}
	if len(s.Primary) > 0 {
		return false
	}
	for _, fe := range s.External {
		if len(fe.Edits) > 0 {
			return false
		}
	}
	return true
}

// IsMultiFile reports whether the set touches a file besides the primary one.
func (s *EditSet) IsMultiFile() bool {
	if s == nil {
		return false
	}
	for _, fe := range s.External {
		if len(fe.Edits) > 0 {
			return true
		}
	}
	return false
}

// AddExternal appends edits for path, merging with an existing entry.
func (s *EditSet) AddExternal(path string, edits ...TextEdit) {
	for i := range s.External {
		if s.External[i].Path == path {
			s.External[i].Edits = append(s.External[i].Edits, edits...)
			return
		}
	}
	s.External = append(s.External, FileEdits{Path: path, Edits: edits})
}

// ExternalFor returns the edits targeting path.
func (s *EditSet) ExternalFor(path string) []TextEdit {
	if s == nil {
		return nil
	}
	var out []TextEdit
	for _, fe := range s.External {
		if fe.Path == path {
			out = append(out, fe.Edits...)
		}
	}
	return out
}

// Validate checks primary edit ranges against contentLen and requires the edits
// of every file in the set to be pairwise non-conflicting. External ranges are
// checked against their own file when they are applied.
func (s *EditSet) Validate(contentLen int) error {
	if s == nil {
		return nil
	}
	if err := ValidateEdits(s.Primary, contentLen); err != nil {
		return err
	}
	if err := DetectConflicts(sortedCopy(s.Primary)); err != nil {
		return err
	}
	for _, fe := range s.External {
		if fe.Path == "" {
			return &ValidationError{Message: "external edits have no target path"}
		}
		if err := ValidateEdits(fe.Edits, -1); err != nil {
			return fmt.Errorf("%s: %w", fe.Path, err)
		}
		if err := DetectConflicts(sortedCopy(fe.Edits)); err != nil {
			return fmt.Errorf("%s: %w", fe.Path, err)
		}
	}
	return nil
}
