package lesson

import "sort"

// Provider-generated index mappings commonly drift (a skipped number, an
// off-by-one after the model rewrites a sentence). Renumbering compacts the
// indices deterministically without inventing content: components that are
// still inconsistent after one pass get dropped by the assembler.

// Renumber rewrites the template's gap indices densely (0..n-1) in order of
// first appearance and remaps draggable tokens through the same table.
// Tokens pointing at a gap the template never uses are left as-is so that
// re-validation rejects them.
func (d *DragAndDrop) Renumber() {
	remap := make(map[int]int)
	next := 0
	for i, f := range d.Template {
		if !f.IsGap {
			continue
		}
		n, ok := remap[f.Gap]
		if !ok {
			n = next
			remap[f.Gap] = n
			next++
		}
		d.Template[i].Gap = n
	}

	for token, idx := range d.Draggable {
		if idx == Distractor {
			continue
		}
		if n, ok := remap[idx]; ok {
			d.Draggable[token] = n
		}
	}
}

// Renumber compacts the term indices to 0..n-1 and remaps definitions
// through the same table, so an existing term↔definition pairing survives
// the renumbering. Terms are the authority: a definition index that no term
// uses stays untouched and fails re-validation rather than being paired
// with an arbitrary term. Maps carry no order, so "first seen" is pinned to
// ascending original index to keep the pass deterministic.
func (m *Matching) Renumber() {
	seen := make(map[int]bool)
	var old []int
	for _, idx := range m.Terms {
		if !seen[idx] {
			seen[idx] = true
			old = append(old, idx)
		}
	}
	sort.Ints(old)

	remap := make(map[int]int, len(old))
	for n, idx := range old {
		remap[idx] = n
	}

	for term, idx := range m.Terms {
		m.Terms[term] = remap[idx]
	}
	for def, idx := range m.Definitions {
		if n, ok := remap[idx]; ok {
			m.Definitions[def] = n
		}
	}
}
