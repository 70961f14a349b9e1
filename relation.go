package smg

import (
	"fmt"
	"sort"

	"github.com/benbjohnson/immutable"
)

// NeqRelation is a persistent symmetric set of value pairs known to be
// unequal.
type NeqRelation struct {
	mm multimap
}

// NewNeqRelation returns an empty relation.
func NewNeqRelation() *NeqRelation {
	return &NeqRelation{mm: newMultimap()}
}

// Len returns the number of values taking part in at least one pair.
func (r *NeqRelation) Len() int { return r.mm.keys() }

// Add returns a relation that also states a != b.
func (r *NeqRelation) Add(a, b Value) *NeqRelation {
	assert(a != b, "NeqRelation.Add: value unequal to itself: %s", a)
	return &NeqRelation{mm: r.mm.putSymmetric(a, b)}
}

// Remove returns a relation without the pair (a, b).
func (r *NeqRelation) Remove(a, b Value) *NeqRelation {
	return &NeqRelation{mm: r.mm.remove(a, b).remove(b, a)}
}

// Exists returns true if a != b is recorded.
func (r *NeqRelation) Exists(a, b Value) bool {
	return r.mm.contains(a, b)
}

// NeqsFor returns the values recorded unequal to v, in ascending order.
func (r *NeqRelation) NeqsFor(v Value) []Value {
	elems := r.mm.get(v)
	a := make([]Value, len(elems))
	for i := range elems {
		a[i] = elems[i].(Value)
	}
	sort.Slice(a, func(i, j int) bool { return a[i] < a[j] })
	return a
}

// RemoveValue returns a relation without any pair containing v.
func (r *NeqRelation) RemoveValue(v Value) *NeqRelation {
	return &NeqRelation{mm: r.mm.removeSymmetric(v)}
}

// ReplaceValue returns a relation where every pair of old is moved to fresh.
// A pair (old, fresh) is dropped.
func (r *NeqRelation) ReplaceValue(fresh, old Value) *NeqRelation {
	if fresh == old {
		return r
	}
	neqs := r.NeqsFor(old)
	mm := r.mm.removeSymmetric(old)
	for _, n := range neqs {
		if n != fresh {
			mm = mm.putSymmetric(fresh, n)
		}
	}
	return &NeqRelation{mm: mm}
}

// SymbolicRelation states that LHS Op RHS holds.
type SymbolicRelation struct {
	LHS Value
	RHS Value
	Op  BinaryOp
}

// Other returns the operand that is not v.
func (r SymbolicRelation) Other(v Value) Value {
	if r.LHS == v {
		return r.RHS
	}
	return r.LHS
}

func (r SymbolicRelation) String() string {
	return fmt.Sprintf("%s %s %s", r.LHS, r.Op, r.RHS)
}

// ExplicitRelation states that Value Op Constant holds.
type ExplicitRelation struct {
	Value    Value
	Constant int64
	Op       BinaryOp
}

func (r ExplicitRelation) String() string {
	return fmt.Sprintf("%s %s %d", r.Value, r.Op, r.Constant)
}

// PredRelation is a persistent store of relations between symbolic values
// and between symbolic values and explicit constants, together with the
// width each value was recorded with. It is bookkeeping for a solver
// outside the graph; the graph only keeps it in step with its values.
type PredRelation struct {
	symbolic multimap       // Value -> SymbolicRelation, under both operands
	explicit multimap       // Value -> ExplicitRelation
	widths   *immutable.Map // Value -> int64
}

// NewPredRelation returns an empty relation store.
func NewPredRelation() *PredRelation {
	return &PredRelation{
		symbolic: newMultimap(),
		explicit: newMultimap(),
		widths:   immutable.NewMap(&keyHasher{}),
	}
}

// IsEmpty returns true if no relation is recorded.
func (r *PredRelation) IsEmpty() bool {
	return r.symbolic.keys() == 0 && r.explicit.keys() == 0
}

func (r *PredRelation) clone() *PredRelation {
	other := *r
	return &other
}

// AddRelation returns a store that also records a op b, with the widths
// of both operands.
func (r *PredRelation) AddRelation(a Value, aWidth int64, b Value, bWidth int64, op BinaryOp) *PredRelation {
	rel := SymbolicRelation{LHS: a, RHS: b, Op: op}
	other := r.clone()
	other.symbolic = r.symbolic.put(a, rel).put(b, rel)
	other.widths = r.widths.Set(a, aWidth).Set(b, bWidth)
	return other
}

// AddExplicitRelation returns a store that also records v op constant.
func (r *PredRelation) AddExplicitRelation(v Value, width int64, constant int64, op BinaryOp) *PredRelation {
	other := r.clone()
	other.explicit = r.explicit.put(v, ExplicitRelation{Value: v, Constant: constant, Op: op})
	other.widths = r.widths.Set(v, width)
	return other
}

// HasRelation returns true if any symbolic relation links a and b.
func (r *PredRelation) HasRelation(a, b Value) bool {
	for _, rel := range r.RelationsFor(a) {
		if rel.Other(a) == b {
			return true
		}
	}
	return false
}

// RelationsFor returns the symbolic relations v takes part in.
func (r *PredRelation) RelationsFor(v Value) []SymbolicRelation {
	elems := r.symbolic.get(v)
	a := make([]SymbolicRelation, len(elems))
	for i := range elems {
		a[i] = elems[i].(SymbolicRelation)
	}
	sort.Slice(a, func(i, j int) bool {
		if a[i].LHS != a[j].LHS {
			return a[i].LHS < a[j].LHS
		} else if a[i].RHS != a[j].RHS {
			return a[i].RHS < a[j].RHS
		}
		return a[i].Op < a[j].Op
	})
	return a
}

// ExplicitRelationsFor returns the explicit relations of v.
func (r *PredRelation) ExplicitRelationsFor(v Value) []ExplicitRelation {
	elems := r.explicit.get(v)
	a := make([]ExplicitRelation, len(elems))
	for i := range elems {
		a[i] = elems[i].(ExplicitRelation)
	}
	sort.Slice(a, func(i, j int) bool {
		if a[i].Constant != a[j].Constant {
			return a[i].Constant < a[j].Constant
		}
		return a[i].Op < a[j].Op
	})
	return a
}

// WidthOf returns the width v was recorded with, in bits.
func (r *PredRelation) WidthOf(v Value) (int64, bool) {
	if w, ok := r.widths.Get(v); ok {
		return w.(int64), true
	}
	return 0, false
}

// RemoveValue returns a store without any relation or width of v.
func (r *PredRelation) RemoveValue(v Value) *PredRelation {
	other := r.clone()
	for _, rel := range r.RelationsFor(v) {
		other.symbolic = other.symbolic.remove(rel.Other(v), rel)
	}
	other.symbolic = other.symbolic.removeAll(v)
	other.explicit = r.explicit.removeAll(v)
	other.widths = r.widths.Delete(v)
	return other
}

// ReplaceValue returns a store where every relation of old refers to fresh.
func (r *PredRelation) ReplaceValue(fresh, old Value) *PredRelation {
	if fresh == old {
		return r
	}
	rels, explicits := r.RelationsFor(old), r.ExplicitRelationsFor(old)
	width, hasWidth := r.WidthOf(old)

	other := r.RemoveValue(old)
	for _, rel := range rels {
		if rel.LHS == old {
			rel.LHS = fresh
		}
		if rel.RHS == old {
			rel.RHS = fresh
		}
		other.symbolic = other.symbolic.put(rel.LHS, rel).put(rel.RHS, rel)
	}
	for _, rel := range explicits {
		rel.Value = fresh
		other.explicit = other.explicit.put(fresh, rel)
	}
	if _, ok := other.WidthOf(fresh); !ok && hasWidth {
		other.widths = other.widths.Set(fresh, width)
	}
	return other
}
