package smg

import (
	"bytes"
	"fmt"

	"github.com/benbjohnson/immutable"
)

// SMG is a symbolic memory graph: a bipartite graph of objects and values
// connected by has-value edges (object -> value) and points-to edges
// (value -> object).
//
// An SMG is persistent. Every update returns a new graph that shares
// structure with the receiver and never mutates it, so an analysis can keep
// any number of versions alive at once.
type SMG struct {
	opts Options

	objects  *immutable.SortedMap // *Object -> struct{}
	values   *immutable.SortedMap // Value -> struct{}
	validity *immutable.Map       // *Object -> bool
	external *immutable.Map       // *Object -> bool

	hvEdges *EdgeOffsetIndex
	ptEdges *PointsToIndex

	neq            *NeqRelation
	pred           *PredRelation
	possibleEquals multimap // *Object -> *Object, symmetric
}

// NewSMG returns a graph holding only the null object and the zero value,
// with the zero value pointing to the null object.
func NewSMG(opts Options) *SMG {
	g := &SMG{
		opts:           opts,
		objects:        immutable.NewSortedMap(&objectComparer{}),
		values:         immutable.NewSortedMap(&valueComparer{}),
		validity:       immutable.NewMap(&keyHasher{}),
		external:       immutable.NewMap(&keyHasher{}),
		hvEdges:        NewEdgeOffsetIndex(),
		ptEdges:        NewPointsToIndex(),
		neq:            NewNeqRelation(),
		pred:           NewPredRelation(),
		possibleEquals: newMultimap(),
	}
	g.objects = g.objects.Set(NullObject, struct{}{})
	g.validity = g.validity.Set(NullObject, false)
	g.external = g.external.Set(NullObject, false)
	g.values = g.values.Set(ZeroValue, struct{}{})
	g.ptEdges = g.ptEdges.Add(NewPointsToEdge(ZeroValue, NullObject, 0))
	return g
}

// clone returns a shallow copy of the graph. Persistent fields are shared.
func (g *SMG) clone() *SMG {
	other := *g
	return &other
}

// Options returns the options the graph was created with.
func (g *SMG) Options() Options { return g.opts }

// MachineModel returns the machine model used for size bookkeeping.
func (g *SMG) MachineModel() MachineModel { return g.opts.MachineModel }

// HasObject returns true if obj is registered.
func (g *SMG) HasObject(obj *Object) bool {
	_, ok := g.objects.Get(obj)
	return ok
}

// ObjectCount returns the number of registered objects, including null.
func (g *SMG) ObjectCount() int { return g.objects.Len() }

// Objects returns every registered object ordered by id.
func (g *SMG) Objects() []*Object {
	a := make([]*Object, 0, g.objects.Len())
	itr := g.objects.Iterator()
	for !itr.Done() {
		k, _ := itr.Next()
		a = append(a, k.(*Object))
	}
	return a
}

// HasValue returns true if v is registered.
func (g *SMG) HasValue(v Value) bool {
	_, ok := g.values.Get(v)
	return ok
}

// ValueCount returns the number of registered values, including zero.
func (g *SMG) ValueCount() int { return g.values.Len() }

// Values returns every registered value in ascending order.
func (g *SMG) Values() []Value {
	a := make([]Value, 0, g.values.Len())
	itr := g.values.Iterator()
	for !itr.Done() {
		k, _ := itr.Next()
		a = append(a, k.(Value))
	}
	return a
}

// AddObject returns a graph with obj registered as valid and not
// externally allocated.
func (g *SMG) AddObject(obj *Object) *SMG {
	return g.AddObjectWithFlags(obj, true, false)
}

// AddObjectWithFlags returns a graph with obj registered using the given
// flags. Panic if obj is the null object or is already registered.
func (g *SMG) AddObjectWithFlags(obj *Object, valid, external bool) *SMG {
	assert(obj != nil && !obj.IsNull(), "SMG.AddObject: cannot add null object")
	assert(!g.HasObject(obj), "SMG.AddObject: object already registered: %s", obj)

	other := g.clone()
	other.objects = g.objects.Set(obj, struct{}{})
	other.validity = g.validity.Set(obj, valid)
	other.external = g.external.Set(obj, external)
	return other
}

// RemoveObject returns a graph without obj. Edges are left untouched: call
// InvalidateAndClearEdges first or use RemoveObjectAndEdges.
func (g *SMG) RemoveObject(obj *Object) *SMG {
	assert(!obj.IsNull(), "SMG.RemoveObject: cannot remove null object")
	if !g.HasObject(obj) {
		return g
	}

	other := g.clone()
	other.objects = g.objects.Delete(obj)
	other.validity = g.validity.Delete(obj)
	other.external = g.external.Delete(obj)
	other.possibleEquals = g.possibleEquals.removeSymmetric(obj)
	return other
}

// RemoveObjectAndEdges returns a graph where obj is invalidated, stripped
// of its has-value edges and deregistered. Points-to edges into obj stay
// until their values are removed.
func (g *SMG) RemoveObjectAndEdges(obj *Object) *SMG {
	return g.InvalidateAndClearEdges(obj).RemoveObject(obj)
}

// InvalidateAndClearEdges returns a graph where obj is invalid and has no
// has-value edges. Points-to edges targeting obj are kept.
func (g *SMG) InvalidateAndClearEdges(obj *Object) *SMG {
	return g.SetValidity(obj, false)
}

// SetValidity returns a graph with the validity of obj updated.
// Invalidating an object deletes its has-value edges.
func (g *SMG) SetValidity(obj *Object, valid bool) *SMG {
	assert(g.HasObject(obj), "SMG.SetValidity: unknown object: %s", obj)
	assert(!valid || !obj.IsNull(), "SMG.SetValidity: null object cannot be valid")

	other := g.clone()
	other.validity = g.validity.Set(obj, valid)
	if !valid {
		other.hvEdges = g.hvEdges.RemoveObject(obj)
	}
	return other
}

// SetExternallyAllocated returns a graph with the external allocation flag
// of obj updated.
func (g *SMG) SetExternallyAllocated(obj *Object, external bool) *SMG {
	assert(g.HasObject(obj), "SMG.SetExternallyAllocated: unknown object: %s", obj)

	other := g.clone()
	other.external = g.external.Set(obj, external)
	return other
}

// IsObjectValid returns the validity of obj. Panic if obj is not registered.
func (g *SMG) IsObjectValid(obj *Object) bool {
	v, ok := g.validity.Get(obj)
	assert(ok, "SMG.IsObjectValid: unknown object: %s", obj)
	return v.(bool)
}

// isValid returns the validity of obj, or false if obj is not registered.
func (g *SMG) isValid(obj *Object) bool {
	v, ok := g.validity.Get(obj)
	return ok && v.(bool)
}

// IsExternallyAllocated returns the external allocation flag of obj.
// Panic if obj is not registered.
func (g *SMG) IsExternallyAllocated(obj *Object) bool {
	v, ok := g.external.Get(obj)
	assert(ok, "SMG.IsExternallyAllocated: unknown object: %s", obj)
	return v.(bool)
}

// AddValue returns a graph with v registered. Panic if v is the zero value.
func (g *SMG) AddValue(v Value) *SMG {
	assert(!v.IsZero(), "SMG.AddValue: cannot add zero value")
	if g.HasValue(v) {
		return g
	}

	other := g.clone()
	other.values = g.values.Set(v, struct{}{})
	return other
}

// RemoveValue returns a graph without v, its points-to edge and its
// relations. Panic if v is the zero value.
func (g *SMG) RemoveValue(v Value) *SMG {
	assert(!v.IsZero(), "SMG.RemoveValue: cannot remove zero value")
	if !g.HasValue(v) {
		return g
	}

	other := g.clone()
	other.values = g.values.Delete(v)
	other.ptEdges = g.ptEdges.Remove(v)
	other.neq = g.neq.RemoveValue(v)
	other.pred = g.pred.RemoveValue(v)
	return other
}

// AddHasValueEdge returns a graph with e added. Zero edges are fused with
// adjacent zero edges. Panic if e's endpoints are unknown, if the object is
// invalid, or if e overlaps a non-zero edge.
func (g *SMG) AddHasValueEdge(e HasValueEdge) *SMG {
	assert(g.HasObject(e.Object), "SMG.AddHasValueEdge: unknown object: %s", e.Object)
	assert(g.HasValue(e.Value), "SMG.AddHasValueEdge: unknown value: %s", e.Value)
	assert(g.IsObjectValid(e.Object), "SMG.AddHasValueEdge: invalid object: %s", e.Object)

	other := g.clone()
	other.hvEdges = g.hvEdges.Add(e)
	return other
}

// RemoveHasValueEdge returns a graph without e. Removing part of a zero
// edge keeps the remaining zero ranges.
func (g *SMG) RemoveHasValueEdge(e HasValueEdge) *SMG {
	assert(g.HasValue(e.Value), "SMG.RemoveHasValueEdge: unknown value: %s", e.Value)

	other := g.clone()
	other.hvEdges = g.hvEdges.Remove(e)
	return other
}

// AddPointsToEdge returns a graph where e is the points-to edge of e.Value.
// A previous edge of the value is replaced.
func (g *SMG) AddPointsToEdge(e PointsToEdge) *SMG {
	assert(g.HasValue(e.Value), "SMG.AddPointsToEdge: unknown value: %s", e.Value)
	assert(g.HasObject(e.Object), "SMG.AddPointsToEdge: unknown object: %s", e.Object)
	assert(!e.Value.IsZero(), "SMG.AddPointsToEdge: cannot redirect zero value")

	other := g.clone()
	other.ptEdges = g.ptEdges.Add(e)
	return other
}

// RemovePointsToEdge returns a graph where v has no points-to edge.
func (g *SMG) RemovePointsToEdge(v Value) *SMG {
	assert(g.HasValue(v), "SMG.RemovePointsToEdge: unknown value: %s", v)
	assert(!v.IsZero(), "SMG.RemovePointsToEdge: cannot remove edge of zero value")

	other := g.clone()
	other.ptEdges = g.ptEdges.Remove(v)
	return other
}

// ReplaceValue returns a graph where every reference to old refers to fresh
// instead, and old is removed.
//
// If both values are pointers, the edge of old is dropped unless its target
// is invalid, in which case it replaces the edge of fresh.
func (g *SMG) ReplaceValue(fresh, old Value) *SMG {
	assert(!old.IsZero(), "SMG.ReplaceValue: cannot replace zero value")
	if fresh == old {
		return g
	}
	assert(g.HasValue(fresh), "SMG.ReplaceValue: unknown value: %s", fresh)
	assert(g.HasValue(old), "SMG.ReplaceValue: unknown value: %s", old)

	other := g.clone()
	for _, e := range g.hvEdges.Filter(HasValueFilter{}.HavingValue(old)) {
		other.hvEdges = other.hvEdges.Remove(e)
		other.hvEdges = other.hvEdges.Add(NewHasValueEdge(e.Object, e.Offset, e.SizeInBits, fresh))
	}

	if pt, ok := g.ptEdges.Get(old); ok {
		freshPT, freshOK := g.ptEdges.Get(fresh)
		if !freshOK || (!fresh.IsZero() && !g.isValid(pt.Object)) {
			pt.Value = fresh
			other.ptEdges = other.ptEdges.Add(pt)
		} else {
			g.opts.logger().Debugf("[replace] dropping %s in favor of %s", pt, freshPT)
		}
	}

	other.neq = g.neq.ReplaceValue(fresh, old)
	other.pred = g.pred.ReplaceValue(fresh, old)
	other = other.RemoveValue(old)

	other.check("ReplaceValue")
	return other
}

// PointsToEdge returns the points-to edge leaving v.
func (g *SMG) PointsToEdge(v Value) (PointsToEdge, bool) {
	return g.ptEdges.Get(v)
}

// PointsToEdges returns every points-to edge ordered by value.
func (g *SMG) PointsToEdges() []PointsToEdge {
	return g.ptEdges.Edges()
}

// ObjectPointedBy returns the object v points to, or nil if v is not a pointer.
func (g *SMG) ObjectPointedBy(v Value) *Object {
	if e, ok := g.ptEdges.Get(v); ok {
		return e.Object
	}
	return nil
}

// IsPointer returns true if v has a points-to edge.
func (g *SMG) IsPointer(v Value) bool {
	return g.ptEdges.Contains(v)
}

// HasValueEdges returns every has-value edge matched by f.
func (g *SMG) HasValueEdges(f HasValueFilter) []HasValueEdge {
	return g.hvEdges.Filter(f)
}

// HasValueEdgeCount returns the number of stored has-value edges.
func (g *SMG) HasValueEdgeCount() int { return g.hvEdges.Len() }

// EdgesForObject returns the has-value edges of obj sorted by offset.
func (g *SMG) EdgesForObject(obj *Object) []HasValueEdge {
	return g.hvEdges.EdgesForObject(obj)
}

// EdgeAtOffset returns the has-value edge of obj starting at offset.
func (g *SMG) EdgeAtOffset(obj *Object, offset int64) (HasValueEdge, bool) {
	return g.hvEdges.EdgeAtOffset(obj, offset)
}

// Overlapping returns the stored has-value edges intersecting e's range.
func (g *SMG) Overlapping(e HasValueEdge) []HasValueEdge {
	return g.hvEdges.Overlapping(e)
}

// NullEdgesForObject returns the zero-covered ranges of obj as offset -> length.
func (g *SMG) NullEdgesForObject(obj *Object) map[int64]int64 {
	return g.hvEdges.NullEdges(obj)
}

// IsCoveredByNullEdges returns true if [offset, offset+size) of obj is
// entirely zero.
func (g *SMG) IsCoveredByNullEdges(obj *Object, offset, size int64) bool {
	return g.hvEdges.IsCoveredByNullEdges(obj, offset, size)
}

// AddPossibleEqualObjects returns a graph hinting that a and b may be merged.
func (g *SMG) AddPossibleEqualObjects(a, b *Object) *SMG {
	other := g.clone()
	other.possibleEquals = g.possibleEquals.putSymmetric(a, b)
	return other
}

// ArePossibleEquals returns true if a and b were hinted as mergeable.
func (g *SMG) ArePossibleEquals(a, b *Object) bool {
	return g.possibleEquals.contains(a, b)
}

// Neq returns the disequality relation over the graph's values.
func (g *SMG) Neq() *NeqRelation { return g.neq }

// Predicates returns the predicate relations over the graph's values.
func (g *SMG) Predicates() *PredRelation { return g.pred }

// AddNeqRelation returns a graph recording a != b.
func (g *SMG) AddNeqRelation(a, b Value) *SMG {
	assert(g.HasValue(a) && g.HasValue(b), "SMG.AddNeqRelation: unknown value: %s, %s", a, b)
	other := g.clone()
	other.neq = g.neq.Add(a, b)
	return other
}

// RemoveNeqRelation returns a graph without the a != b pair.
func (g *SMG) RemoveNeqRelation(a, b Value) *SMG {
	other := g.clone()
	other.neq = g.neq.Remove(a, b)
	return other
}

// AddPredicateRelation returns a graph recording a op b.
func (g *SMG) AddPredicateRelation(a Value, aWidth int64, b Value, bWidth int64, op BinaryOp) *SMG {
	assert(g.HasValue(a) && g.HasValue(b), "SMG.AddPredicateRelation: unknown value: %s, %s", a, b)
	other := g.clone()
	other.pred = g.pred.AddRelation(a, aWidth, b, bWidth, op)
	return other
}

// AddExplicitRelation returns a graph recording v op constant.
func (g *SMG) AddExplicitRelation(v Value, width int64, constant int64, op BinaryOp) *SMG {
	assert(g.HasValue(v), "SMG.AddExplicitRelation: unknown value: %s", v)
	other := g.clone()
	other.pred = g.pred.AddExplicitRelation(v, width, constant, op)
	return other
}

// check runs the verifier if checks are enabled. Panic on failure.
func (g *SMG) check(op string) {
	if g.opts.PerformChecks {
		assert(VerifySMG(g), "%s: inconsistent graph", op)
	}
}

// Dump returns the contents of the graph as a string.
func (g *SMG) Dump() string {
	var buf bytes.Buffer

	fmt.Fprintln(&buf, "== OBJECTS")
	for _, obj := range g.Objects() {
		fmt.Fprintf(&buf, "%s valid=%v external=%v\n", obj, g.IsObjectValid(obj), g.IsExternallyAllocated(obj))
		for _, e := range g.EdgesForObject(obj) {
			fmt.Fprintf(&buf, "  [%d:%d] %s\n", e.Offset, e.End(), e.Value)
		}
	}
	fmt.Fprintln(&buf, "")

	fmt.Fprintln(&buf, "== POINTERS")
	for _, e := range g.PointsToEdges() {
		fmt.Fprintln(&buf, e.String())
	}
	return buf.String()
}
