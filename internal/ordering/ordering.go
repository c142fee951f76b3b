// Package ordering keeps a collection of siblings densely ordered: after
// every operation the positions are exactly 0..N-1.
//
// Insert and Remove re-derive every position from sorted order. Move is a
// targeted single pass that only touches the items between the old and new
// slot. Any operation given a non-dense input normalizes it first.
package ordering

import (
	"cmp"
	"errors"
	"slices"
)

// Orderable is satisfied by pointer types carrying an integer position.
type Orderable interface {
	comparable
	Position() int
	SetPosition(int)
}

var (
	ErrNegativeIndex   = errors.New("ordering: negative index")
	ErrIndexOutOfRange = errors.New("ordering: index out of range")
	ErrNotMember       = errors.New("ordering: item not in collection")
)

// Sorted returns a copy of items stably sorted by ascending position.
func Sorted[T Orderable](items []T) []T {
	out := slices.Clone(items)
	slices.SortStableFunc(out, func(a, b T) int {
		return cmp.Compare(a.Position(), b.Position())
	})
	return out
}

// Dense reports whether the positions of items are exactly {0..len-1}.
func Dense[T Orderable](items []T) bool {
	seen := make([]bool, len(items))
	for _, it := range items {
		p := it.Position()
		if p < 0 || p >= len(items) || seen[p] {
			return false
		}
		seen[p] = true
	}
	return true
}

// Normalize assigns every item its index in stable sorted order. It returns
// the sorted items and the subset whose position changed.
func Normalize[T Orderable](items []T) (sorted, changed []T) {
	var tr tracker[T]
	sorted = tr.normalize(items)
	return sorted, tr.items
}

// Insert places item at index, or at the end when index is nil. An index
// past the end appends. Siblings at or after the slot shift back by one.
func Insert[T Orderable](items []T, item T, index *int) (sorted, changed []T, err error) {
	if slices.Contains(items, item) {
		return nil, nil, errors.New("ordering: item already in collection")
	}
	pos := len(items)
	if index != nil {
		if *index < 0 {
			return nil, nil, ErrNegativeIndex
		}
		pos = min(*index, len(items))
	}

	var tr tracker[T]
	sorted = tr.normalize(items)
	for _, it := range sorted[pos:] {
		it.SetPosition(it.Position() + 1)
		tr.add(it)
	}
	item.SetPosition(pos)
	tr.add(item)
	sorted = slices.Insert(sorted, pos, item)
	return sorted, tr.items, nil
}

// Remove drops item and closes the gap it leaves.
func Remove[T Orderable](items []T, item T) (sorted, changed []T, err error) {
	idx := slices.Index(items, item)
	if idx < 0 {
		return nil, nil, ErrNotMember
	}
	rest := slices.Delete(slices.Clone(items), idx, idx+1)

	var tr tracker[T]
	sorted = tr.normalize(rest)
	return sorted, tr.items, nil
}

// Move relocates item to newIndex. Moving forward pulls the items in
// (old, new] back by one; moving backward pushes the items in [new, old)
// forward by one. Moving to the current index is a no-op.
func Move[T Orderable](items []T, item T, newIndex int) (changed []T, err error) {
	if newIndex < 0 {
		return nil, ErrNegativeIndex
	}
	if newIndex >= len(items) {
		return nil, ErrIndexOutOfRange
	}
	if !slices.Contains(items, item) {
		return nil, ErrNotMember
	}

	var tr tracker[T]
	if !Dense(items) {
		tr.normalize(items)
	}

	oldIndex := item.Position()
	if oldIndex == newIndex {
		return tr.items, nil
	}

	for _, it := range items {
		if it == item {
			continue
		}
		p := it.Position()
		switch {
		case oldIndex < newIndex && p > oldIndex && p <= newIndex:
			it.SetPosition(p - 1)
			tr.add(it)
		case oldIndex > newIndex && p >= newIndex && p < oldIndex:
			it.SetPosition(p + 1)
			tr.add(it)
		}
	}
	item.SetPosition(newIndex)
	tr.add(item)
	return tr.items, nil
}

// tracker collects changed items once each, in first-touched order.
type tracker[T Orderable] struct {
	seen  map[T]struct{}
	items []T
}

func (t *tracker[T]) add(it T) {
	if t.seen == nil {
		t.seen = make(map[T]struct{})
	}
	if _, ok := t.seen[it]; ok {
		return
	}
	t.seen[it] = struct{}{}
	t.items = append(t.items, it)
}

func (t *tracker[T]) normalize(items []T) []T {
	sorted := Sorted(items)
	for i, it := range sorted {
		if it.Position() != i {
			it.SetPosition(i)
			t.add(it)
		}
	}
	return sorted
}
