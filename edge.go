package smg

import (
	"fmt"
)

// HasValueEdge states that Object holds Value in the bit range
// [Offset, Offset+SizeInBits).
type HasValueEdge struct {
	Object     *Object
	Offset     int64
	SizeInBits int64
	Value      Value
}

// NewHasValueEdge returns a new has-value edge.
func NewHasValueEdge(obj *Object, offset, size int64, value Value) HasValueEdge {
	return HasValueEdge{Object: obj, Offset: offset, SizeInBits: size, Value: value}
}

// End returns the first bit offset after the edge.
func (e HasValueEdge) End() int64 { return e.Offset + e.SizeInBits }

// IsZero returns true if the edge nullifies its range.
func (e HasValueEdge) IsZero() bool { return e.Value == ZeroValue }

// Overlaps returns true if both edges are on the same object and their
// ranges intersect.
func (e HasValueEdge) Overlaps(other HasValueEdge) bool {
	return e.Object == other.Object && e.overlapsRange(other.Offset, other.End())
}

func (e HasValueEdge) overlapsRange(start, end int64) bool {
	return e.Offset < end && start < e.End()
}

// IsCompatibleField returns true if other covers exactly the same range.
func (e HasValueEdge) IsCompatibleField(other HasValueEdge) bool {
	return e.Offset == other.Offset && e.SizeInBits == other.SizeInBits
}

// String returns a string representation of the edge.
func (e HasValueEdge) String() string {
	return fmt.Sprintf("%s[%d:%d]->%s", e.Object, e.Offset, e.End(), e.Value)
}

// TargetSpecifier qualifies which part of a target a pointer designates.
type TargetSpecifier int

const (
	TargetRegion TargetSpecifier = iota
	TargetFirst
	TargetLast
	TargetAll
)

var targetSpecifiers = [...]string{
	TargetRegion: "reg",
	TargetFirst:  "fst",
	TargetLast:   "lst",
	TargetAll:    "all",
}

func (t TargetSpecifier) String() string {
	if t >= 0 && int(t) < len(targetSpecifiers) {
		return targetSpecifiers[t]
	}
	return fmt.Sprintf("TargetSpecifier<%d>", int(t))
}

// PointsToEdge states that Value, if dereferenced, designates Offset
// inside Object.
type PointsToEdge struct {
	Value  Value
	Object *Object
	Offset int64
	Target TargetSpecifier
}

// NewPointsToEdge returns a new points-to edge to a region.
func NewPointsToEdge(value Value, obj *Object, offset int64) PointsToEdge {
	return PointsToEdge{Value: value, Object: obj, Offset: offset, Target: TargetRegion}
}

// String returns a string representation of the edge.
func (e PointsToEdge) String() string {
	return fmt.Sprintf("%s->%s+%d(%s)", e.Value, e.Object, e.Offset, e.Target)
}

// HasValueFilter selects has-value edges. The zero filter matches every edge.
type HasValueFilter struct {
	object *Object

	offset    int64
	hasOffset bool

	size    int64
	hasSize bool

	value    Value
	hasValue bool
	notValue bool

	overlapStart, overlapEnd int64
	hasOverlap               bool
}

// FilterByObject returns a filter matching the edges of obj.
func FilterByObject(obj *Object) HasValueFilter {
	return HasValueFilter{object: obj}
}

// Object returns the object the filter is restricted to, if any.
func (f HasValueFilter) Object() *Object { return f.object }

// AtOffset restricts the filter to edges starting at offset.
func (f HasValueFilter) AtOffset(offset int64) HasValueFilter {
	f.offset, f.hasOffset = offset, true
	return f
}

// WithSize restricts the filter to edges of the given width.
func (f HasValueFilter) WithSize(size int64) HasValueFilter {
	f.size, f.hasSize = size, true
	return f
}

// HavingValue restricts the filter to edges holding v.
func (f HasValueFilter) HavingValue(v Value) HasValueFilter {
	f.value, f.hasValue, f.notValue = v, true, false
	return f
}

// NotHavingValue restricts the filter to edges not holding v.
func (f HasValueFilter) NotHavingValue(v Value) HasValueFilter {
	f.value, f.hasValue, f.notValue = v, true, true
	return f
}

// OverlappingWith restricts the filter to edges intersecting [offset, offset+size).
func (f HasValueFilter) OverlappingWith(offset, size int64) HasValueFilter {
	f.overlapStart, f.overlapEnd, f.hasOverlap = offset, offset+size, true
	return f
}

// Matches returns true if e passes every restriction of the filter.
func (f HasValueFilter) Matches(e HasValueEdge) bool {
	if f.object != nil && e.Object != f.object {
		return false
	} else if f.hasOffset && e.Offset != f.offset {
		return false
	} else if f.hasSize && e.SizeInBits != f.size {
		return false
	} else if f.hasValue && (e.Value == f.value) == f.notValue {
		return false
	} else if f.hasOverlap && !e.overlapsRange(f.overlapStart, f.overlapEnd) {
		return false
	}
	return true
}
