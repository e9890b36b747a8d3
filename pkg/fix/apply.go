package fix

import "sort"

// ApplyEdits applies non-conflicting edits to content and returns the result.
// Edits are applied in descending start offset so that each splice leaves the
// offsets of the edits still to be applied untouched. For edits sharing a start
// offset the longer one is applied first, which places an insertion at that
// offset ahead of the replacement text. content is never modified.
func ApplyEdits(content []byte, edits []TextEdit) []byte {
	if len(edits) == 0 {
		return content
	}

	ordered := make([]TextEdit, len(edits))
	copy(ordered, edits)
	SortEditsDescending(ordered)

	delta := 0
	for _, e := range ordered {
		delta += len(e.NewText) - e.Len()
	}

	out := make([]byte, len(content), max(len(content), len(content)+delta))
	copy(out, content)

	for _, e := range ordered {
		tail := make([]byte, 0, len(e.NewText)+len(out)-e.EndOffset)
		tail = append(tail, e.NewText...)
		tail = append(tail, out[e.EndOffset:]...)
		out = append(out[:e.StartOffset], tail...)
	}

	return out
}

// ApplyChecked validates edits against content, rejects conflicts, and applies
// them. It is the safe entry point for edits that were not prepared.
func ApplyChecked(content []byte, edits []TextEdit) ([]byte, error) {
	prepared, err := PrepareEdits(edits, len(content))
	if err != nil {
		return nil, err
	}
	return ApplyEdits(content, prepared), nil
}

// SortEditsDescending orders edits by start offset, then end offset, both
// descending. The sort is stable.
func SortEditsDescending(edits []TextEdit) {
	sort.SliceStable(edits, func(i, j int) bool {
		if edits[i].StartOffset != edits[j].StartOffset {
			return edits[i].StartOffset > edits[j].StartOffset
		}
		return edits[i].EndOffset > edits[j].EndOffset
	})
}

// CombineInserts joins pure insertions that share an offset into a single
// insertion, keeping their input order. Other edits pass through unchanged.
// The result is sorted ascending.
func CombineInserts(edits []TextEdit) []TextEdit {
	if len(edits) < 2 {
		return edits
	}

	sorted := sortedCopy(edits)
	out := make([]TextEdit, 0, len(sorted))
	for _, e := range sorted {
		if n := len(out); n > 0 && e.IsInsert() && out[n-1].IsInsert() && out[n-1].StartOffset == e.StartOffset {
			out[n-1].NewText += e.NewText
			continue
		}
		out = append(out, e)
	}
	return out
}
