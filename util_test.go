package smg_test

import (
	"testing"

	"github.com/benbjohnson/smg"
	"github.com/davecgh/go-spew/spew"
	"github.com/google/go-cmp/cmp"
)

// objectIdentity compares objects by identity.
var objectIdentity = cmp.Comparer(func(a, b *smg.Object) bool { return a == b })

// MustPanic fails tb if fn does not panic.
func MustPanic(tb testing.TB, fn func()) {
	tb.Helper()
	defer func() {
		if r := recover(); r == nil {
			tb.Fatal("expected panic")
		}
	}()
	fn()
}

// MustVerify fails tb with a dump of g if g is inconsistent.
func MustVerify(tb testing.TB, g *smg.CLangSMG) {
	tb.Helper()
	if !smg.VerifyCLangSMG(g) {
		tb.Fatalf("inconsistent graph:\n%s", g.Dump())
	}
}

// MustEqualEdges fails tb if the edges differ.
func MustEqualEdges(tb testing.TB, got, want []smg.HasValueEdge) {
	tb.Helper()
	if diff := cmp.Diff(got, want, objectIdentity); diff != "" {
		tb.Fatalf("unexpected edges: %s\n%s", diff, spew.Sdump(got))
	}
}

// checkedOptions returns options with the verifier enabled.
func checkedOptions() smg.Options {
	opts := smg.DefaultOptions()
	opts.PerformChecks = true
	return opts
}
