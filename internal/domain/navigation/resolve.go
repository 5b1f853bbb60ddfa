package navigation

import "academyhub/internal/domain/feature"

// Resolve builds the ordered, deduplicated navigation list for an actor.
//
// The base list comes from the declarative (role, staffKind) table. Each
// enabled feature's items are then spliced in: immediately before their
// anchor when the anchor exists, otherwise before the terminal tail
// (Settings/Logout). Items are deduplicated by TargetPath, first insertion
// wins. Feature items are considered in catalog order so the result is a
// pure function of its inputs: resolving twice with identical inputs
// yields identical output.
//
// An unregistered (role, staffKind) pair yields an empty list, not an
// error: authorization fails closed.
// INVARIANT: package tables are never mutated; a fresh slice is returned
func Resolve(role, staffKind string, enabled feature.Set) []Item {
	base, ok := BaseTable(role, staffKind)
	if !ok {
		return []Item{}
	}

	items := base
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		seen[it.TargetPath] = true
	}

	// Catalog order, not map order, for deterministic splicing.
	for _, def := range feature.Catalog() {
		if !enabled.Contains(def.ID) {
			continue
		}
		for _, fi := range featureItems[def.ID] {
			if seen[fi.TargetPath] {
				continue
			}
			items = insertAt(items, positionFor(items, fi.InsertionAnchor), fi)
			seen[fi.TargetPath] = true
		}
	}

	return items
}

// positionFor returns the index a feature item should be inserted at:
// before its anchor when present, otherwise before the terminal tail.
func positionFor(items []Item, anchor string) int {
	if anchor != "" {
		for i, it := range items {
			if it.TargetPath == anchor {
				return i
			}
		}
	}
	return tailStart(items)
}

// tailStart returns the index of the first item in the trailing run of
// terminal items, or len(items) when the list has no terminal tail.
func tailStart(items []Item) int {
	i := len(items)
	for i > 0 && terminalPaths[items[i-1].TargetPath] {
		i--
	}
	return i
}

func insertAt(items []Item, pos int, it Item) []Item {
	if pos < 0 || pos > len(items) {
		pos = len(items)
	}
	out := make([]Item, 0, len(items)+1)
	out = append(out, items[:pos]...)
	out = append(out, it)
	out = append(out, items[pos:]...)
	return out
}
