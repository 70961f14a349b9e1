package smg

import (
	"github.com/benbjohnson/immutable"
)

// EdgeOffsetIndex is a persistent collection of has-value edges, grouped by
// object and sorted by offset. Edges of one object never overlap and two
// stored zero edges are never adjacent: zero edges are coalesced on insert
// and split on partial removal. Every update returns a new index.
type EdgeOffsetIndex struct {
	objects *immutable.SortedMap // *Object -> *immutable.SortedMap(int64 -> HasValueEdge)
	size    int
}

// NewEdgeOffsetIndex returns an empty index.
func NewEdgeOffsetIndex() *EdgeOffsetIndex {
	return &EdgeOffsetIndex{objects: immutable.NewSortedMap(&objectComparer{})}
}

// Len returns the total number of stored edges.
func (idx *EdgeOffsetIndex) Len() int { return idx.size }

// offsets returns the offset map of obj or nil if obj has no edges.
func (idx *EdgeOffsetIndex) offsets(obj *Object) *immutable.SortedMap {
	if m, ok := idx.objects.Get(obj); ok {
		return m.(*immutable.SortedMap)
	}
	return nil
}

// HasEdges returns true if obj has at least one edge.
func (idx *EdgeOffsetIndex) HasEdges(obj *Object) bool {
	return idx.offsets(obj) != nil
}

// EdgesForObject returns the edges of obj sorted by offset.
func (idx *EdgeOffsetIndex) EdgesForObject(obj *Object) []HasValueEdge {
	m := idx.offsets(obj)
	if m == nil {
		return nil
	}
	edges := make([]HasValueEdge, 0, m.Len())
	itr := m.Iterator()
	for !itr.Done() {
		_, v := itr.Next()
		edges = append(edges, v.(HasValueEdge))
	}
	return edges
}

// EdgeAtOffset returns the edge of obj starting at offset.
func (idx *EdgeOffsetIndex) EdgeAtOffset(obj *Object, offset int64) (HasValueEdge, bool) {
	if m := idx.offsets(obj); m != nil {
		if v, ok := m.Get(offset); ok {
			return v.(HasValueEdge), true
		}
	}
	return HasValueEdge{}, false
}

// Contains returns true if exactly e is stored.
func (idx *EdgeOffsetIndex) Contains(e HasValueEdge) bool {
	other, ok := idx.EdgeAtOffset(e.Object, e.Offset)
	return ok && other == e
}

// Overlapping returns the stored edges of e.Object intersecting e's range.
func (idx *EdgeOffsetIndex) Overlapping(e HasValueEdge) []HasValueEdge {
	m := idx.offsets(e.Object)
	if m == nil {
		return nil
	}
	return overlapping(m, e.Offset, e.End(), false)
}

// Filter returns every stored edge matched by f, ordered by object then offset.
func (idx *EdgeOffsetIndex) Filter(f HasValueFilter) []HasValueEdge {
	var edges []HasValueEdge
	if obj := f.Object(); obj != nil {
		for _, e := range idx.EdgesForObject(obj) {
			if f.Matches(e) {
				edges = append(edges, e)
			}
		}
		return edges
	}
	idx.ForEach(func(e HasValueEdge) {
		if f.Matches(e) {
			edges = append(edges, e)
		}
	})
	return edges
}

// ForEach calls fn for every stored edge, ordered by object then offset.
func (idx *EdgeOffsetIndex) ForEach(fn func(HasValueEdge)) {
	itr := idx.objects.Iterator()
	for !itr.Done() {
		_, m := itr.Next()
		eitr := m.(*immutable.SortedMap).Iterator()
		for !eitr.Done() {
			_, v := eitr.Next()
			fn(v.(HasValueEdge))
		}
	}
}

// Add returns a new index with e inserted. A zero edge is fused with every
// zero edge it overlaps or touches. Panic if e overlaps a non-zero edge.
func (idx *EdgeOffsetIndex) Add(e HasValueEdge) *EdgeOffsetIndex {
	assert(e.Object != nil, "EdgeOffsetIndex.Add: nil object")
	assert(e.SizeInBits > 0, "EdgeOffsetIndex.Add: invalid size: %d", e.SizeInBits)
	if idx.Contains(e) {
		return idx
	}

	m := idx.offsets(e.Object)
	if m == nil {
		m = immutable.NewSortedMap(&int64Comparer{})
	}
	n := idx.size

	if e.IsZero() {
		start, end := e.Offset, e.End()
		for _, other := range overlapping(m, e.Offset, e.End(), true) {
			if !other.IsZero() {
				assert(!other.Overlaps(e), "EdgeOffsetIndex.Add: %s overlaps %s", e, other)
				continue // adjacent non-zero edge
			}
			if other.Offset < start {
				start = other.Offset
			}
			if other.End() > end {
				end = other.End()
			}
			m, n = m.Delete(other.Offset), n-1
		}
		e = NewHasValueEdge(e.Object, start, end-start, ZeroValue)
	} else if others := overlapping(m, e.Offset, e.End(), false); len(others) > 0 {
		assert(false, "EdgeOffsetIndex.Add: %s overlaps %s", e, others[0])
	}

	return &EdgeOffsetIndex{
		objects: idx.objects.Set(e.Object, m.Set(e.Offset, e)),
		size:    n + 1,
	}
}

// Remove returns a new index without e. Removing a zero edge clears its
// range from every stored zero edge, keeping the uncovered remainders.
// Non-zero edges are removed only on an exact match.
func (idx *EdgeOffsetIndex) Remove(e HasValueEdge) *EdgeOffsetIndex {
	m := idx.offsets(e.Object)
	if m == nil {
		return idx
	}
	n := idx.size

	if !e.IsZero() {
		if !idx.Contains(e) {
			return idx
		}
		m, n = m.Delete(e.Offset), n-1
	} else {
		zeros := overlapping(m, e.Offset, e.End(), false)
		changed := false
		for _, other := range zeros {
			if !other.IsZero() {
				continue
			}
			changed = true
			m, n = m.Delete(other.Offset), n-1
			if other.Offset < e.Offset {
				left := NewHasValueEdge(e.Object, other.Offset, e.Offset-other.Offset, ZeroValue)
				m, n = m.Set(left.Offset, left), n+1
			}
			if other.End() > e.End() {
				right := NewHasValueEdge(e.Object, e.End(), other.End()-e.End(), ZeroValue)
				m, n = m.Set(right.Offset, right), n+1
			}
		}
		if !changed {
			return idx
		}
	}

	other := &EdgeOffsetIndex{objects: idx.objects, size: n}
	if m.Len() == 0 {
		other.objects = other.objects.Delete(e.Object)
	} else {
		other.objects = other.objects.Set(e.Object, m)
	}
	return other
}

// RemoveObject returns a new index without any edge of obj.
func (idx *EdgeOffsetIndex) RemoveObject(obj *Object) *EdgeOffsetIndex {
	m := idx.offsets(obj)
	if m == nil {
		return idx
	}
	return &EdgeOffsetIndex{
		objects: idx.objects.Delete(obj),
		size:    idx.size - m.Len(),
	}
}

// NullEdges returns the zero-covered ranges of obj as offset -> length.
func (idx *EdgeOffsetIndex) NullEdges(obj *Object) map[int64]int64 {
	ranges := make(map[int64]int64)
	for _, e := range idx.EdgesForObject(obj) {
		if e.IsZero() {
			ranges[e.Offset] = e.SizeInBits
		}
	}
	return ranges
}

// IsCoveredByNullEdges returns true if [offset, offset+size) of obj lies
// entirely within zero edges. Stored zero edges are never adjacent, so a
// covered range always lies within a single edge.
func (idx *EdgeOffsetIndex) IsCoveredByNullEdges(obj *Object, offset, size int64) bool {
	m := idx.offsets(obj)
	if m == nil {
		return false
	}
	e, ok := floor(m, offset)
	return ok && e.IsZero() && e.End() >= offset+size
}

// floor returns the edge with the greatest offset less than or equal to offset.
func floor(m *immutable.SortedMap, offset int64) (HasValueEdge, bool) {
	itr := m.Iterator()
	if itr.Seek(offset); itr.Done() {
		itr.Last()
	}

	// Move backwards until the key is at or below offset.
	for !itr.Done() {
		k, v := itr.Prev()
		if k.(int64) <= offset {
			return v.(HasValueEdge), true
		}
	}
	return HasValueEdge{}, false
}

// overlapping returns the edges of m intersecting [start, end), in offset
// order. If touching is true, edges ending at start or beginning at end are
// included as well.
func overlapping(m *immutable.SortedMap, start, end int64, touching bool) []HasValueEdge {
	var edges []HasValueEdge

	// Only the floor edge can reach into the range from the left.
	if e, ok := floor(m, start); ok && e.Offset < start {
		if e.End() > start || (touching && e.End() == start) {
			edges = append(edges, e)
		}
	}

	itr := m.Iterator()
	for itr.Seek(start); !itr.Done(); {
		k, v := itr.Next()
		if off := k.(int64); off > end || (off == end && !touching) {
			break
		}
		edges = append(edges, v.(HasValueEdge))
	}
	return edges
}
