package smg_test

import (
	"testing"

	"github.com/benbjohnson/smg"
	"github.com/google/go-cmp/cmp"
)

func TestNeqRelation(t *testing.T) {
	a, b, c := smg.NewValue(), smg.NewValue(), smg.NewValue()

	t.Run("Symmetric", func(t *testing.T) {
		r := smg.NewNeqRelation().Add(a, b)
		if !r.Exists(a, b) || !r.Exists(b, a) {
			t.Fatal("expected symmetric pair")
		} else if r.Exists(a, c) {
			t.Fatal("unexpected pair")
		}
		if r = r.Remove(b, a); r.Exists(a, b) || r.Exists(b, a) {
			t.Fatal("expected pair removed")
		}
	})

	t.Run("RemoveValue", func(t *testing.T) {
		r := smg.NewNeqRelation().Add(a, b).Add(a, c).RemoveValue(a)
		if r.Len() != 0 {
			t.Fatalf("unexpected len: %d", r.Len())
		}
	})

	t.Run("ReplaceValue", func(t *testing.T) {
		r := smg.NewNeqRelation().Add(a, b).Add(a, c).ReplaceValue(b, a)
		if diff := cmp.Diff(r.NeqsFor(b), []smg.Value{c}); diff != "" {
			t.Fatal(diff)
		} else if len(r.NeqsFor(a)) != 0 {
			t.Fatal("expected old value gone")
		}
	})

	t.Run("ErrSelf", func(t *testing.T) {
		MustPanic(t, func() { smg.NewNeqRelation().Add(a, a) })
	})
}

func TestPredRelation(t *testing.T) {
	a, b, c := smg.NewValue(), smg.NewValue(), smg.NewValue()

	t.Run("AddRelation", func(t *testing.T) {
		r := smg.NewPredRelation().AddRelation(a, 32, b, 64, smg.ULT)
		if !r.HasRelation(a, b) || !r.HasRelation(b, a) {
			t.Fatal("expected relation under both operands")
		} else if w, ok := r.WidthOf(b); !ok || w != 64 {
			t.Fatalf("unexpected width: %d", w)
		}
		if diff := cmp.Diff(r.RelationsFor(b), []smg.SymbolicRelation{{LHS: a, RHS: b, Op: smg.ULT}}); diff != "" {
			t.Fatal(diff)
		}
	})

	t.Run("Explicit", func(t *testing.T) {
		r := smg.NewPredRelation().AddExplicitRelation(a, 32, 10, smg.SGT).AddExplicitRelation(a, 32, 2, smg.NE)
		if diff := cmp.Diff(r.ExplicitRelationsFor(a), []smg.ExplicitRelation{
			{Value: a, Constant: 2, Op: smg.NE},
			{Value: a, Constant: 10, Op: smg.SGT},
		}); diff != "" {
			t.Fatal(diff)
		} else if r.IsEmpty() {
			t.Fatal("expected relations")
		}
	})

	t.Run("ReplaceValue", func(t *testing.T) {
		r := smg.NewPredRelation().
			AddRelation(a, 32, b, 32, smg.EQ).
			AddExplicitRelation(a, 32, 0, smg.NE).
			ReplaceValue(c, a)
		if r.HasRelation(a, b) {
			t.Fatal("expected old relation removed")
		} else if !r.HasRelation(c, b) {
			t.Fatal("expected relation moved")
		} else if w, ok := r.WidthOf(c); !ok || w != 32 {
			t.Fatal("expected width moved")
		} else if _, ok := r.WidthOf(a); ok {
			t.Fatal("expected old width removed")
		} else if len(r.ExplicitRelationsFor(c)) != 1 {
			t.Fatal("expected explicit relation moved")
		}
	})

	t.Run("RemoveValue", func(t *testing.T) {
		r := smg.NewPredRelation().AddRelation(a, 32, b, 32, smg.EQ).RemoveValue(a)
		if !r.IsEmpty() {
			t.Fatal("expected empty relation")
		}
	})
}

func TestBinaryOp(t *testing.T) {
	if s := smg.SLT.String(); s != "slt" {
		t.Fatalf("unexpected string: %s", s)
	} else if smg.SLT.Flip() != smg.SGT {
		t.Fatal("unexpected flip")
	} else if smg.SLT.Negate() != smg.SGE {
		t.Fatal("unexpected negation")
	} else if !smg.ADD.IsArithmetic() || smg.ADD.IsCompare() {
		t.Fatal("expected arithmetic op")
	}
}
