package fix

import (
	"errors"
	"fmt"
	"sort"
)

// ErrOverlap is matched by every *ConflictError.
var ErrOverlap = errors.New("overlapping edits")

// ValidationError describes an invalid edit.
type ValidationError struct {
	Edit    TextEdit
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid edit [%d:%d]: %s", e.Edit.StartOffset, e.Edit.EndOffset, e.Message)
}

// ConflictError describes two edits that cannot both be applied.
type ConflictError struct {
	Edit1 TextEdit
	Edit2 TextEdit
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("overlapping edits: [%d:%d] and [%d:%d]",
		e.Edit1.StartOffset, e.Edit1.EndOffset,
		e.Edit2.StartOffset, e.Edit2.EndOffset)
}

// Unwrap lets errors.Is match ErrOverlap.
func (e *ConflictError) Unwrap() error {
	return ErrOverlap
}

// ValidateEdits checks that all edits have valid ranges for the given content
// length. A negative contentLen skips the upper bound check.
func ValidateEdits(edits []TextEdit, contentLen int) error {
	for _, edit := range edits {
		if edit.StartOffset < 0 {
			return &ValidationError{Edit: edit, Message: "start offset is negative"}
		}
		if edit.EndOffset < edit.StartOffset {
			return &ValidationError{Edit: edit, Message: "end offset is before start offset"}
		}
		if contentLen >= 0 && edit.EndOffset > contentLen {
			return &ValidationError{
				Edit:    edit,
				Message: fmt.Sprintf("end offset %d exceeds content length %d", edit.EndOffset, contentLen),
			}
		}
	}
	return nil
}

// SortEdits sorts edits by start offset, then by end offset. The sort is
// stable so that edits with equal ranges keep their input order.
func SortEdits(edits []TextEdit) {
	sort.SliceStable(edits, func(i, j int) bool {
		if edits[i].StartOffset != edits[j].StartOffset {
			return edits[i].StartOffset < edits[j].StartOffset
		}
		return edits[i].EndOffset < edits[j].EndOffset
	})
}

func sortedCopy(edits []TextEdit) []TextEdit {
	out := make([]TextEdit, len(edits))
	copy(out, edits)
	SortEdits(out)
	return out
}

// DetectConflicts checks a sorted slice for conflicting edits and returns the
// first conflict found. Edits must be sorted by SortEdits before calling.
func DetectConflicts(edits []TextEdit) error {
	widest := -1
	for i, curr := range edits {
		if widest >= 0 && edits[widest].Conflicts(curr) {
			return &ConflictError{Edit1: edits[widest], Edit2: curr}
		}
		if i > 0 && edits[i-1].Conflicts(curr) {
			return &ConflictError{Edit1: edits[i-1], Edit2: curr}
		}
		if widest < 0 || curr.EndOffset > edits[widest].EndOffset {
			widest = i
		}
	}
	return nil
}

// PrepareEdits validates, sorts, and checks for conflicts.
// Returns the sorted edits and any error encountered.
func PrepareEdits(edits []TextEdit, contentLen int) ([]TextEdit, error) {
	if len(edits) == 0 {
		return edits, nil
	}

	if err := ValidateEdits(edits, contentLen); err != nil {
		return nil, err
	}

	result := sortedCopy(edits)
	if err := DetectConflicts(result); err != nil {
		return nil, err
	}

	return result, nil
}

// FilterConflicts drops edits that conflict with an earlier accepted edit.
// Edits must be sorted by SortEdits before calling; earlier edits win.
func FilterConflicts(edits []TextEdit) ([]TextEdit, []TextEdit) {
	if len(edits) == 0 {
		return nil, nil
	}

	accepted := make([]TextEdit, 0, len(edits))
	var skipped []TextEdit

	for _, edit := range edits {
		if conflictsWithAny(accepted, edit) {
			skipped = append(skipped, edit)
			continue
		}
		accepted = append(accepted, edit)
	}

	return accepted, skipped
}

// MergeAndFilterConflicts merges overlapping deletions into one deletion
// covering their union and filters whatever conflicts remain. Edits must be
// sorted by SortEdits before calling. Returns the accepted edits, the skipped
// edits, and the number of merges performed.
func MergeAndFilterConflicts(edits []TextEdit) ([]TextEdit, []TextEdit, int) {
	if len(edits) == 0 {
		return nil, nil, 0
	}

	accepted := make([]TextEdit, 0, len(edits))
	var skipped []TextEdit
	merged := 0

	for _, edit := range edits {
		last := len(accepted) - 1
		if last < 0 || !accepted[last].Conflicts(edit) {
			if conflictsWithAny(accepted, edit) {
				skipped = append(skipped, edit)
				continue
			}
			accepted = append(accepted, edit)
			continue
		}

		prev := accepted[last]
		if prev.NewText == "" && edit.NewText == "" {
			accepted[last] = TextEdit{
				StartOffset: min(prev.StartOffset, edit.StartOffset),
				EndOffset:   max(prev.EndOffset, edit.EndOffset),
			}
			merged++
			continue
		}
		skipped = append(skipped, edit)
	}

	return accepted, skipped, merged
}

// PrepareEditsFiltered validates and sorts edits, then merges deletions and
// filters remaining conflicts instead of failing on them. The error is only
// set for invalid ranges.
func PrepareEditsFiltered(edits []TextEdit, contentLen int) ([]TextEdit, []TextEdit, int, error) {
	if len(edits) == 0 {
		return nil, nil, 0, nil
	}

	if err := ValidateEdits(edits, contentLen); err != nil {
		return nil, nil, 0, err
	}

	accepted, skipped, merged := MergeAndFilterConflicts(sortedCopy(edits))
	return accepted, skipped, merged, nil
}

func conflictsWithAny(accepted []TextEdit, edit TextEdit) bool {
	for _, a := range accepted {
		if a.Conflicts(edit) {
			return true
		}
	}
	return false
}

// SelectSets chooses a conflict-free subset of edit sets, visiting them in the
// given order and keeping a set only when every one of its edits is compatible
// with the sets already kept. Sets are never split. Pure insertions into the
// same external file at the same offset are compatible with each other; they
// are applied in selection order (see CombineInserts).
//
// Returns the indices of the accepted and rejected sets.
func SelectSets(sets []*EditSet, contentLen int) ([]int, []int) {
	var accepted, rejected []int
	var primary []TextEdit
	external := make(map[string][]TextEdit)

	for idx, set := range sets {
		if set.IsEmpty() || set.Validate(contentLen) != nil {
			rejected = append(rejected, idx)
			continue
		}

		ok := !anyConflict(primary, set.Primary, false)
		for _, fe := range set.External {
			if !ok {
				break
			}
			ok = !anyConflict(external[fe.Path], fe.Edits, true)
		}
		if !ok {
			rejected = append(rejected, idx)
			continue
		}

		accepted = append(accepted, idx)
		primary = append(primary, set.Primary...)
		for _, fe := range set.External {
			external[fe.Path] = append(external[fe.Path], fe.Edits...)
		}
	}

	return accepted, rejected
}

func anyConflict(kept, candidate []TextEdit, appendable bool) bool {
	for _, c := range candidate {
		for _, k := range kept {
			if appendable && c.IsInsert() && k.IsInsert() {
				continue
			}
			if k.Conflicts(c) {
				return true
			}
		}
	}
	return false
}

// MergeSets flattens the selected sets into primary edits and per-file
// external edits. External insertions sharing an offset are combined.
func MergeSets(sets []*EditSet) ([]TextEdit, []FileEdits) {
	var primary []TextEdit
	var order []string
	external := make(map[string][]TextEdit)

	for _, set := range sets {
		if set == nil {
			continue
		}
		primary = append(primary, set.Primary...)
		for _, fe := range set.External {
			if _, seen := external[fe.Path]; !seen {
				order = append(order, fe.Path)
			}
			external[fe.Path] = append(external[fe.Path], fe.Edits...)
		}
	}

	files := make([]FileEdits, 0, len(order))
	for _, path := range order {
		files = append(files, FileEdits{Path: path, Edits: CombineInserts(external[path])})
	}
	return sortedCopy(primary), files
}
