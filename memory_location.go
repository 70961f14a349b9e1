package smg

import (
	"fmt"
)

// MemoryLocation names a variable: a local of the innermost frame of
// Function, or a global if Function is empty.
type MemoryLocation struct {
	Function   string
	Identifier string
}

// NewGlobalLocation returns the location of the global named id.
func NewGlobalLocation(id string) MemoryLocation {
	return MemoryLocation{Identifier: id}
}

// NewStackLocation returns the location of the local id of fn.
func NewStackLocation(fn, id string) MemoryLocation {
	return MemoryLocation{Function: fn, Identifier: id}
}

// IsGlobal returns true if the location names a global.
func (loc MemoryLocation) IsGlobal() bool { return loc.Function == "" }

// String returns a string representation of the location.
func (loc MemoryLocation) String() string {
	if loc.IsGlobal() {
		return loc.Identifier
	}
	return fmt.Sprintf("%s::%s", loc.Function, loc.Identifier)
}

// StateSnapshot holds the edges and flags of a forgotten object, one level
// deep: its has-value edges and the points-to edges of the values it held.
type StateSnapshot struct {
	Edges    []HasValueEdge
	Pointers []PointsToEdge
	Valid    bool
	External bool
}

// IsEmpty returns true if the snapshot captured no edge.
func (s StateSnapshot) IsEmpty() bool {
	return len(s.Edges) == 0 && len(s.Pointers) == 0
}

// frameIndex returns the index of the innermost frame of fn, or -1.
func (g *CLangSMG) frameIndex(fn string) int {
	for i := len(g.stack) - 1; i >= 0; i-- {
		if g.stack[i].fn.Name == fn {
			return i
		}
	}
	return -1
}

// ObjectForLocation returns the object bound at loc, or nil.
func (g *CLangSMG) ObjectForLocation(loc MemoryLocation) *Object {
	if loc.IsGlobal() {
		if obj, ok := g.globals.Get(loc.Identifier); ok {
			return obj.(*Object)
		}
		return nil
	}
	if i := g.frameIndex(loc.Function); i >= 0 {
		return g.stack[i].Variable(loc.Identifier)
	}
	return nil
}

// snapshot captures the edges and flags of obj.
func (g *CLangSMG) snapshot(obj *Object) StateSnapshot {
	s := StateSnapshot{
		Edges:    g.smg.EdgesForObject(obj),
		Valid:    g.smg.IsObjectValid(obj),
		External: g.smg.IsExternallyAllocated(obj),
	}
	for _, e := range s.Edges {
		if e.IsZero() {
			continue
		}
		if pt, ok := g.smg.PointsToEdge(e.Value); ok {
			s.Pointers = append(s.Pointers, pt)
		}
	}
	return s
}

// ForgetStackVariable returns a graph where the local at loc is unbound
// from its frame and invalidated, together with a snapshot that Remember
// can restore. Returns false if no such local exists.
func (g *CLangSMG) ForgetStackVariable(loc MemoryLocation) (*CLangSMG, StateSnapshot, bool) {
	assert(!loc.IsGlobal(), "CLangSMG.ForgetStackVariable: global location: %s", loc)
	i := g.frameIndex(loc.Function)
	if i < 0 {
		return g, StateSnapshot{}, false
	}
	obj := g.stack[i].Variable(loc.Identifier)
	if obj == nil {
		return g, StateSnapshot{}, false
	}

	s := g.snapshot(obj)
	other := g.withBase(g.smg.InvalidateAndClearEdges(obj)).clone()
	other.stack = g.replaceFrame(i, g.stack[i].unbind(loc.Identifier))
	return other, s, true
}

// ForgetGlobalVariable returns a graph where the global at loc is unbound
// and invalidated, together with a snapshot that Remember can restore.
// Returns false if no such global exists.
func (g *CLangSMG) ForgetGlobalVariable(loc MemoryLocation) (*CLangSMG, StateSnapshot, bool) {
	assert(loc.IsGlobal(), "CLangSMG.ForgetGlobalVariable: stack location: %s", loc)
	obj := g.ObjectForLocation(loc)
	if obj == nil {
		return g, StateSnapshot{}, false
	}

	s := g.snapshot(obj)
	other := g.withBase(g.smg.InvalidateAndClearEdges(obj)).clone()
	other.globals = g.globals.Delete(loc.Identifier)
	return other, s, true
}

// Forget dispatches to ForgetGlobalVariable or ForgetStackVariable.
func (g *CLangSMG) Forget(loc MemoryLocation) (*CLangSMG, StateSnapshot, bool) {
	if loc.IsGlobal() {
		return g.ForgetGlobalVariable(loc)
	}
	return g.ForgetStackVariable(loc)
}

// Remember returns a graph where region is bound at loc with the flags of s
// and every edge of s not already present is replayed onto region.
// Panic if loc names a function with no frame on the stack or if loc is
// bound to another object.
func (g *CLangSMG) Remember(loc MemoryLocation, region *Object, s StateSnapshot) *CLangSMG {
	bound := g.ObjectForLocation(loc)
	assert(bound == nil || bound == region, "CLangSMG.Remember: %s is bound to %s", loc, bound)

	smg := g.smg
	if !smg.HasObject(region) {
		smg = smg.AddObjectWithFlags(region, s.Valid, s.External)
	} else {
		smg = smg.SetValidity(region, s.Valid).SetExternallyAllocated(region, s.External)
	}

	other := g.withBase(smg).clone()
	if loc.IsGlobal() {
		other.globals = g.globals.Set(loc.Identifier, region)
	} else {
		i := g.frameIndex(loc.Function)
		assert(i >= 0, "CLangSMG.Remember: no frame for %s", loc.Function)
		other.stack = g.replaceFrame(i, g.stack[i].bind(loc.Identifier, region))
	}

	if !s.Valid {
		return other
	}

	for _, pt := range s.Pointers {
		if smg.HasObject(pt.Object) && !smg.IsPointer(pt.Value) {
			smg = smg.AddValue(pt.Value).AddPointsToEdge(pt)
		}
	}
	for _, e := range s.Edges {
		e.Object = region
		if smg.hvEdges.Contains(e) || len(smg.Overlapping(e)) > 0 {
			continue
		}
		if !e.IsZero() {
			smg = smg.AddValue(e.Value)
		}
		smg = smg.AddHasValueEdge(e)
	}
	other.smg = smg
	return other
}
