package smg_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/benbjohnson/smg"
	"github.com/sirupsen/logrus"
)

// newCapturedOptions returns options logging to the returned buffer.
func newCapturedOptions() (smg.Options, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.Out = &buf
	logger.SetLevel(logrus.WarnLevel)

	opts := smg.DefaultOptions()
	opts.Logger = logger
	return opts, &buf
}

func TestVerifySMG(t *testing.T) {
	t.Run("OK", func(t *testing.T) {
		opts, buf := newCapturedOptions()
		obj := smg.NewRegion(64, "a")
		v := smg.NewValue()
		g := smg.NewSMG(opts).AddObject(obj).AddValue(v).
			AddHasValueEdge(smg.NewHasValueEdge(obj, 0, 32, v)).
			AddHasValueEdge(smg.NewHasValueEdge(obj, 32, 32, smg.ZeroValue)).
			AddPointsToEdge(smg.NewPointsToEdge(v, obj, 0))
		if !smg.VerifySMG(g) {
			t.Fatalf("unexpected failure: %s", buf.String())
		} else if buf.Len() != 0 {
			t.Fatalf("unexpected log output: %s", buf.String())
		}
	})

	t.Run("ErrFieldBounds", func(t *testing.T) {
		opts, buf := newCapturedOptions()
		obj := smg.NewRegion(32, "a")
		g := smg.NewSMG(opts).AddObject(obj).
			AddHasValueEdge(smg.NewHasValueEdge(obj, 16, 32, smg.ZeroValue))
		if smg.VerifySMG(g) {
			t.Fatal("expected failure")
		} else if !strings.Contains(buf.String(), "exceeds object bounds") {
			t.Fatalf("unexpected log output: %s", buf.String())
		}
	})

	t.Run("ErrInvalidWithEdges", func(t *testing.T) {
		opts, buf := newCapturedOptions()
		obj := smg.NewRegion(32, "a")
		g := smg.NewSMG(opts).AddObjectWithFlags(obj, false, false)
		g = smg.ForceHasValueEdge(g, smg.NewHasValueEdge(obj, 0, 32, smg.ZeroValue))
		if smg.VerifySMG(g) {
			t.Fatal("expected failure")
		} else if !strings.Contains(buf.String(), "invalid object has has-value edges") {
			t.Fatalf("unexpected log output: %s", buf.String())
		}
	})

	t.Run("ErrNullEdges", func(t *testing.T) {
		opts, buf := newCapturedOptions()
		g := smg.ForceHasValueEdge(smg.NewSMG(opts), smg.NewHasValueEdge(smg.NullObject, 0, 8, smg.ZeroValue))
		if smg.VerifySMG(g) {
			t.Fatal("expected failure")
		} else if !strings.Contains(buf.String(), "null object has has-value edges") {
			t.Fatalf("unexpected log output: %s", buf.String())
		}
	})

	t.Run("ErrNullPointedByOther", func(t *testing.T) {
		opts, buf := newCapturedOptions()
		v := smg.NewValue()
		g := smg.NewSMG(opts).AddValue(v).AddPointsToEdge(smg.NewPointsToEdge(v, smg.NullObject, 8))
		if smg.VerifySMG(g) {
			t.Fatal("expected failure")
		} else if !strings.Contains(buf.String(), "exactly one value") {
			t.Fatalf("unexpected log output: %s", buf.String())
		}
	})

	t.Run("ErrZeroRedirected", func(t *testing.T) {
		opts, buf := newCapturedOptions()
		obj := smg.NewRegion(32, "a")
		g := smg.NewSMG(opts).AddObject(obj)
		g = smg.ForcePointsToEdge(g, smg.NewPointsToEdge(smg.ZeroValue, obj, 0))
		if smg.VerifySMG(g) {
			t.Fatal("expected failure")
		} else if !strings.Contains(buf.String(), "zero value does not point to null object") {
			t.Fatalf("unexpected log output: %s", buf.String())
		}
	})

	t.Run("ErrSharedTarget", func(t *testing.T) {
		opts, buf := newCapturedOptions()
		obj := smg.NewRegion(32, "a")
		v, w := smg.NewValue(), smg.NewValue()
		g := smg.NewSMG(opts).AddObject(obj).AddValue(v).AddValue(w).
			AddPointsToEdge(smg.NewPointsToEdge(v, obj, 0)).
			AddPointsToEdge(smg.NewPointsToEdge(w, obj, 0))
		if smg.VerifySMG(g) {
			t.Fatal("expected failure")
		} else if !strings.Contains(buf.String(), "distinct values share a points-to edge") {
			t.Fatalf("unexpected log output: %s", buf.String())
		}
	})

	t.Run("ErrDanglingValue", func(t *testing.T) {
		opts, buf := newCapturedOptions()
		obj := smg.NewRegion(32, "a")
		v := smg.NewValue()
		g := smg.NewSMG(opts).AddObject(obj)
		g = smg.ForceHasValueEdge(g, smg.NewHasValueEdge(obj, 0, 32, v))
		if smg.VerifySMG(g) {
			t.Fatal("expected failure")
		} else if !strings.Contains(buf.String(), "has-value edge references unknown endpoint") {
			t.Fatalf("unexpected log output: %s", buf.String())
		}
	})

	t.Run("ErrDanglingObject", func(t *testing.T) {
		opts, buf := newCapturedOptions()
		obj := smg.NewRegion(32, "a")
		v := smg.NewValue()
		g := smg.NewSMG(opts).AddObject(obj).AddValue(v).
			AddPointsToEdge(smg.NewPointsToEdge(v, obj, 0)).
			RemoveObjectAndEdges(obj)
		if smg.VerifySMG(g) {
			t.Fatal("expected failure")
		} else if !strings.Contains(buf.String(), "points-to edge references unknown endpoint") {
			t.Fatalf("unexpected log output: %s", buf.String())
		}
	})

	t.Run("ErrMissingFlag", func(t *testing.T) {
		opts, buf := newCapturedOptions()
		obj := smg.NewRegion(32, "a")
		g := smg.DropObjectFlags(smg.NewSMG(opts).AddObject(obj), obj)
		if smg.VerifySMG(g) {
			t.Fatal("expected failure")
		}
		for _, msg := range []string{"object has no validity flag", "object has no external allocation flag"} {
			if !strings.Contains(buf.String(), msg) {
				t.Fatalf("expected %q in log output: %s", msg, buf.String())
			}
		}
	})

	t.Run("ReportsAll", func(t *testing.T) {
		opts, buf := newCapturedOptions()
		obj := smg.NewRegion(32, "a")
		v := smg.NewValue()
		g := smg.NewSMG(opts).AddObject(obj).
			AddHasValueEdge(smg.NewHasValueEdge(obj, 16, 32, smg.ZeroValue))
		g = smg.ForceHasValueEdge(g, smg.NewHasValueEdge(smg.NullObject, 0, 8, v))
		if smg.VerifySMG(g) {
			t.Fatal("expected failure")
		}
		for _, msg := range []string{"exceeds object bounds", "null object has has-value edges", "unknown endpoint"} {
			if !strings.Contains(buf.String(), msg) {
				t.Fatalf("expected %q in log output: %s", msg, buf.String())
			}
		}
	})
}

func TestVerifyCLangSMG(t *testing.T) {
	t.Run("ErrDisjoint", func(t *testing.T) {
		opts, buf := newCapturedOptions()
		obj := smg.NewRegion(32, "a")
		g := smg.ForceHeapObject(smg.NewCLangSMG(opts).AddGlobalObject(obj), obj)
		if smg.VerifyCLangSMG(g) {
			t.Fatal("expected failure")
		} else if !strings.Contains(buf.String(), "object in two namespaces") {
			t.Fatalf("unexpected log output: %s", buf.String())
		}
	})

	t.Run("ErrUnregistered", func(t *testing.T) {
		opts, buf := newCapturedOptions()
		g := smg.ForceHeapObject(smg.NewCLangSMG(opts), smg.NewRegion(32, "a"))
		if smg.VerifyCLangSMG(g) {
			t.Fatal("expected failure")
		} else if !strings.Contains(buf.String(), "namespace object not registered") {
			t.Fatalf("unexpected log output: %s", buf.String())
		}
	})

	t.Run("ErrNullInNamespace", func(t *testing.T) {
		opts, buf := newCapturedOptions()
		g := smg.ForceHeapObject(smg.NewCLangSMG(opts), smg.NullObject)
		if smg.VerifyCLangSMG(g) {
			t.Fatal("expected failure")
		} else if !strings.Contains(buf.String(), "null object in a namespace") {
			t.Fatalf("unexpected log output: %s", buf.String())
		}
	})

	t.Run("ErrBase", func(t *testing.T) {
		opts, _ := newCapturedOptions()
		obj := smg.NewRegion(32, "a")
		g := smg.NewCLangSMG(opts).AddHeapObject(obj)
		g = smg.WithBase(g, smg.ForceHasValueEdge(g.Base(), smg.NewHasValueEdge(obj, 0, 64, smg.ZeroValue)))
		if smg.VerifyCLangSMG(g) {
			t.Fatal("expected failure")
		}
	})

	t.Run("ErrStrictChecks", func(t *testing.T) {
		opts, _ := newCapturedOptions()
		opts.PerformChecks = true
		obj := smg.NewRegion(32, "a")
		g := smg.NewCLangSMG(opts).
			AddStackFrame(smg.FunctionDecl{Name: "main"}).
			AddGlobalObject(obj)
		g = smg.ForceHeapObject(g, obj)
		MustPanic(t, func() { g.DropStackFrame() })
	})
}
