package smg_test

import (
	"testing"

	"github.com/benbjohnson/smg"
)

func TestEdgeOffsetIndex_Add(t *testing.T) {
	t.Run("ZeroMerge", func(t *testing.T) {
		obj := smg.NewRegion(128, "a")
		idx := smg.NewEdgeOffsetIndex().
			Add(smg.NewHasValueEdge(obj, 0, 32, smg.ZeroValue)).
			Add(smg.NewHasValueEdge(obj, 32, 32, smg.ZeroValue))
		MustEqualEdges(t, idx.EdgesForObject(obj), []smg.HasValueEdge{
			smg.NewHasValueEdge(obj, 0, 64, smg.ZeroValue),
		})
		if n := idx.Len(); n != 1 {
			t.Fatalf("unexpected len: %d", n)
		}
	})

	t.Run("ZeroBridge", func(t *testing.T) {
		obj := smg.NewRegion(128, "a")
		idx := smg.NewEdgeOffsetIndex().
			Add(smg.NewHasValueEdge(obj, 0, 16, smg.ZeroValue)).
			Add(smg.NewHasValueEdge(obj, 64, 16, smg.ZeroValue)).
			Add(smg.NewHasValueEdge(obj, 8, 64, smg.ZeroValue))
		MustEqualEdges(t, idx.EdgesForObject(obj), []smg.HasValueEdge{
			smg.NewHasValueEdge(obj, 0, 80, smg.ZeroValue),
		})
	})

	t.Run("ZeroNextToValue", func(t *testing.T) {
		obj := smg.NewRegion(128, "a")
		v := smg.NewValue()
		idx := smg.NewEdgeOffsetIndex().
			Add(smg.NewHasValueEdge(obj, 0, 32, v)).
			Add(smg.NewHasValueEdge(obj, 32, 32, smg.ZeroValue))
		MustEqualEdges(t, idx.EdgesForObject(obj), []smg.HasValueEdge{
			smg.NewHasValueEdge(obj, 0, 32, v),
			smg.NewHasValueEdge(obj, 32, 32, smg.ZeroValue),
		})
	})

	t.Run("Duplicate", func(t *testing.T) {
		obj := smg.NewRegion(64, "a")
		e := smg.NewHasValueEdge(obj, 0, 32, smg.NewValue())
		idx := smg.NewEdgeOffsetIndex().Add(e)
		if other := idx.Add(e); other != idx {
			t.Fatal("expected same index")
		}
	})

	t.Run("ErrOverlap", func(t *testing.T) {
		obj := smg.NewRegion(64, "a")
		idx := smg.NewEdgeOffsetIndex().Add(smg.NewHasValueEdge(obj, 0, 32, smg.NewValue()))
		MustPanic(t, func() { idx.Add(smg.NewHasValueEdge(obj, 16, 32, smg.NewValue())) })
		MustPanic(t, func() { idx.Add(smg.NewHasValueEdge(obj, 16, 8, smg.ZeroValue)) })
	})

	t.Run("ErrSize", func(t *testing.T) {
		obj := smg.NewRegion(64, "a")
		MustPanic(t, func() { smg.NewEdgeOffsetIndex().Add(smg.NewHasValueEdge(obj, 0, 0, smg.ZeroValue)) })
	})

	t.Run("Persistent", func(t *testing.T) {
		obj := smg.NewRegion(64, "a")
		idx0 := smg.NewEdgeOffsetIndex()
		idx1 := idx0.Add(smg.NewHasValueEdge(obj, 0, 8, smg.NewValue()))
		if idx0.HasEdges(obj) {
			t.Fatal("expected original index to be unchanged")
		} else if !idx1.HasEdges(obj) {
			t.Fatal("expected edge")
		}
	})
}

func TestEdgeOffsetIndex_Remove(t *testing.T) {
	t.Run("ZeroSplit", func(t *testing.T) {
		obj := smg.NewRegion(128, "a")
		idx := smg.NewEdgeOffsetIndex().
			Add(smg.NewHasValueEdge(obj, 0, 64, smg.ZeroValue)).
			Remove(smg.NewHasValueEdge(obj, 16, 16, smg.ZeroValue))
		MustEqualEdges(t, idx.EdgesForObject(obj), []smg.HasValueEdge{
			smg.NewHasValueEdge(obj, 0, 16, smg.ZeroValue),
			smg.NewHasValueEdge(obj, 32, 32, smg.ZeroValue),
		})
		if n := idx.Len(); n != 2 {
			t.Fatalf("unexpected len: %d", n)
		}
	})

	t.Run("ZeroPrefix", func(t *testing.T) {
		obj := smg.NewRegion(128, "a")
		idx := smg.NewEdgeOffsetIndex().
			Add(smg.NewHasValueEdge(obj, 0, 64, smg.ZeroValue)).
			Remove(smg.NewHasValueEdge(obj, 0, 32, smg.ZeroValue))
		MustEqualEdges(t, idx.EdgesForObject(obj), []smg.HasValueEdge{
			smg.NewHasValueEdge(obj, 32, 32, smg.ZeroValue),
		})
	})

	t.Run("ZeroEntire", func(t *testing.T) {
		obj := smg.NewRegion(128, "a")
		idx := smg.NewEdgeOffsetIndex().
			Add(smg.NewHasValueEdge(obj, 0, 64, smg.ZeroValue)).
			Remove(smg.NewHasValueEdge(obj, 0, 64, smg.ZeroValue))
		if idx.HasEdges(obj) {
			t.Fatal("expected no edges")
		} else if idx.Len() != 0 {
			t.Fatalf("unexpected len: %d", idx.Len())
		}
	})

	t.Run("ValueExact", func(t *testing.T) {
		obj := smg.NewRegion(64, "a")
		e := smg.NewHasValueEdge(obj, 0, 32, smg.NewValue())
		idx := smg.NewEdgeOffsetIndex().Add(e)
		if other := idx.Remove(smg.NewHasValueEdge(obj, 0, 16, e.Value)); other != idx {
			t.Fatal("expected partial match to be ignored")
		}
		if idx.Remove(e).HasEdges(obj) {
			t.Fatal("expected edge removed")
		}
	})
}

func TestEdgeOffsetIndex_NullEdges(t *testing.T) {
	obj := smg.NewRegion(128, "a")
	idx := smg.NewEdgeOffsetIndex().
		Add(smg.NewHasValueEdge(obj, 0, 32, smg.ZeroValue)).
		Add(smg.NewHasValueEdge(obj, 32, 32, smg.NewValue())).
		Add(smg.NewHasValueEdge(obj, 64, 64, smg.ZeroValue))

	if m := idx.NullEdges(obj); len(m) != 2 || m[0] != 32 || m[64] != 64 {
		t.Fatalf("unexpected null edges: %v", m)
	}

	t.Run("Covered", func(t *testing.T) {
		if !idx.IsCoveredByNullEdges(obj, 0, 32) {
			t.Fatal("expected [0,32) covered")
		} else if !idx.IsCoveredByNullEdges(obj, 72, 8) {
			t.Fatal("expected [72,80) covered")
		}
	})

	t.Run("NotCovered", func(t *testing.T) {
		if idx.IsCoveredByNullEdges(obj, 16, 32) {
			t.Fatal("expected [16,48) not covered")
		} else if idx.IsCoveredByNullEdges(obj, 32, 8) {
			t.Fatal("expected [32,40) not covered")
		} else if idx.IsCoveredByNullEdges(smg.NewRegion(8, "b"), 0, 8) {
			t.Fatal("expected unknown object not covered")
		}
	})
}

func TestEdgeOffsetIndex_Filter(t *testing.T) {
	a, b := smg.NewRegion(64, "a"), smg.NewRegion(64, "b")
	v := smg.NewValue()
	idx := smg.NewEdgeOffsetIndex().
		Add(smg.NewHasValueEdge(a, 0, 32, v)).
		Add(smg.NewHasValueEdge(a, 32, 32, smg.ZeroValue)).
		Add(smg.NewHasValueEdge(b, 8, 8, v))

	t.Run("Value", func(t *testing.T) {
		MustEqualEdges(t, idx.Filter(smg.HasValueFilter{}.HavingValue(v)), []smg.HasValueEdge{
			smg.NewHasValueEdge(a, 0, 32, v),
			smg.NewHasValueEdge(b, 8, 8, v),
		})
	})

	t.Run("ObjectOffset", func(t *testing.T) {
		MustEqualEdges(t, idx.Filter(smg.FilterByObject(a).AtOffset(32)), []smg.HasValueEdge{
			smg.NewHasValueEdge(a, 32, 32, smg.ZeroValue),
		})
	})

	t.Run("Overlapping", func(t *testing.T) {
		MustEqualEdges(t, idx.Filter(smg.FilterByObject(a).OverlappingWith(24, 16)), []smg.HasValueEdge{
			smg.NewHasValueEdge(a, 0, 32, v),
			smg.NewHasValueEdge(a, 32, 32, smg.ZeroValue),
		})
	})

	t.Run("Size", func(t *testing.T) {
		MustEqualEdges(t, idx.Filter(smg.HasValueFilter{}.WithSize(8)), []smg.HasValueEdge{
			smg.NewHasValueEdge(b, 8, 8, v),
		})
	})

	t.Run("NotValue", func(t *testing.T) {
		MustEqualEdges(t, idx.Filter(smg.FilterByObject(a).NotHavingValue(smg.ZeroValue)), []smg.HasValueEdge{
			smg.NewHasValueEdge(a, 0, 32, v),
		})
	})
}

func TestHasValueEdge_IsCompatibleField(t *testing.T) {
	obj := smg.NewRegion(64, "a")
	e := smg.NewHasValueEdge(obj, 8, 16, smg.NewValue())
	if !e.IsCompatibleField(smg.NewHasValueEdge(obj, 8, 16, smg.ZeroValue)) {
		t.Fatal("expected same range to be compatible")
	} else if e.IsCompatibleField(smg.NewHasValueEdge(obj, 8, 8, e.Value)) {
		t.Fatal("expected narrower range to be incompatible")
	} else if e.IsCompatibleField(smg.NewHasValueEdge(obj, 0, 16, e.Value)) {
		t.Fatal("expected shifted range to be incompatible")
	}
}
