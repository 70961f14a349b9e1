package smg

import (
	"github.com/benbjohnson/immutable"
)

// PointsToIndex is a persistent map from values to their unique outgoing
// points-to edge.
type PointsToIndex struct {
	edges *immutable.SortedMap // Value -> PointsToEdge
}

// NewPointsToIndex returns an empty index.
func NewPointsToIndex() *PointsToIndex {
	return &PointsToIndex{edges: immutable.NewSortedMap(&valueComparer{})}
}

// Len returns the number of stored edges.
func (idx *PointsToIndex) Len() int { return idx.edges.Len() }

// Get returns the edge leaving v.
func (idx *PointsToIndex) Get(v Value) (PointsToEdge, bool) {
	if e, ok := idx.edges.Get(v); ok {
		return e.(PointsToEdge), true
	}
	return PointsToEdge{}, false
}

// Contains returns true if v has an outgoing edge.
func (idx *PointsToIndex) Contains(v Value) bool {
	_, ok := idx.edges.Get(v)
	return ok
}

// Add returns a new index where e is the edge of e.Value, replacing any
// previous one.
func (idx *PointsToIndex) Add(e PointsToEdge) *PointsToIndex {
	return &PointsToIndex{edges: idx.edges.Set(e.Value, e)}
}

// Remove returns a new index without the edge leaving v.
func (idx *PointsToIndex) Remove(v Value) *PointsToIndex {
	if !idx.Contains(v) {
		return idx
	}
	return &PointsToIndex{edges: idx.edges.Delete(v)}
}

// Edges returns every edge ordered by value.
func (idx *PointsToIndex) Edges() []PointsToEdge {
	edges := make([]PointsToEdge, 0, idx.edges.Len())
	itr := idx.edges.Iterator()
	for !itr.Done() {
		_, e := itr.Next()
		edges = append(edges, e.(PointsToEdge))
	}
	return edges
}

// EdgesTo returns the edges targeting obj.
func (idx *PointsToIndex) EdgesTo(obj *Object) []PointsToEdge {
	var edges []PointsToEdge
	for _, e := range idx.Edges() {
		if e.Object == obj {
			edges = append(edges, e)
		}
	}
	return edges
}
