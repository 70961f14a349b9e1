package smg

import (
	"bytes"
	"fmt"

	"github.com/benbjohnson/immutable"
)

// CLangSMG is a symbolic memory graph of a C program state. On top of the
// base graph it partitions objects into pairwise disjoint namespaces: a
// stack of frames, named globals, and the heap.
//
// Like SMG, a CLangSMG is persistent: every update returns a new version.
type CLangSMG struct {
	smg *SMG

	// Call stack, bottom first. The slice is never written in place.
	stack []*StackFrame

	globals *immutable.SortedMap // string -> *Object
	heap    *immutable.SortedMap // *Object -> struct{}

	// Set once pruning reports a leak.
	hasLeaks bool
}

// NewCLangSMG returns an empty graph with no stack frames.
func NewCLangSMG(opts Options) *CLangSMG {
	return &CLangSMG{
		smg:     NewSMG(opts),
		globals: immutable.NewSortedMap(&stringComparer{}),
		heap:    immutable.NewSortedMap(&objectComparer{}),
	}
}

func (g *CLangSMG) clone() *CLangSMG {
	other := *g
	return &other
}

// withBase returns a copy of g using smg as its base graph.
func (g *CLangSMG) withBase(smg *SMG) *CLangSMG {
	if smg == g.smg {
		return g
	}
	other := g.clone()
	other.smg = smg
	return other
}

// Base returns the underlying base graph. It is persistent and may be
// retained freely.
func (g *CLangSMG) Base() *SMG { return g.smg }

// Options returns the options the graph was created with.
func (g *CLangSMG) Options() Options { return g.smg.opts }

// HasMemoryLeaks returns true if a prune of this graph's history reported a leak.
func (g *CLangSMG) HasMemoryLeaks() bool { return g.hasLeaks }

// StackFrameCount returns the depth of the call stack.
func (g *CLangSMG) StackFrameCount() int { return len(g.stack) }

// StackFrames returns the frames of the call stack, most recent first.
func (g *CLangSMG) StackFrames() []*StackFrame {
	a := make([]*StackFrame, len(g.stack))
	for i := range g.stack {
		a[len(g.stack)-1-i] = g.stack[i]
	}
	return a
}

// CurrentFrame returns the top stack frame, or nil if the stack is empty.
func (g *CLangSMG) CurrentFrame() *StackFrame {
	if len(g.stack) == 0 {
		return nil
	}
	return g.stack[len(g.stack)-1]
}

// FunctionReturnObject returns the return object of the top frame, or nil.
func (g *CLangSMG) FunctionReturnObject() *Object {
	if f := g.CurrentFrame(); f != nil {
		return f.ReturnObject()
	}
	return nil
}

// GlobalObjects returns the global objects by name.
func (g *CLangSMG) GlobalObjects() map[string]*Object {
	m := make(map[string]*Object, g.globals.Len())
	itr := g.globals.Iterator()
	for !itr.Done() {
		k, v := itr.Next()
		m[k.(string)] = v.(*Object)
	}
	return m
}

// globalObjects returns the global objects sorted by name.
func (g *CLangSMG) globalObjects() []*Object {
	a := make([]*Object, 0, g.globals.Len())
	itr := g.globals.Iterator()
	for !itr.Done() {
		_, v := itr.Next()
		a = append(a, v.(*Object))
	}
	return a
}

// HeapObjects returns the heap objects ordered by id.
func (g *CLangSMG) HeapObjects() []*Object {
	a := make([]*Object, 0, g.heap.Len())
	itr := g.heap.Iterator()
	for !itr.Done() {
		k, _ := itr.Next()
		a = append(a, k.(*Object))
	}
	return a
}

// IsHeapObject returns true if obj is in the heap namespace.
func (g *CLangSMG) IsHeapObject(obj *Object) bool {
	_, ok := g.heap.Get(obj)
	return ok
}

// IsGlobal returns true if obj is in the global namespace.
func (g *CLangSMG) IsGlobal(obj *Object) bool {
	itr := g.globals.Iterator()
	for !itr.Done() {
		if _, v := itr.Next(); v.(*Object) == obj {
			return true
		}
	}
	return false
}

// IsStackObject returns true if obj is owned by any stack frame.
func (g *CLangSMG) IsStackObject(obj *Object) bool {
	for _, f := range g.stack {
		if f.Contains(obj) {
			return true
		}
	}
	return false
}

// AddHeapObject returns a graph with obj registered as a valid heap object.
func (g *CLangSMG) AddHeapObject(obj *Object) *CLangSMG {
	return g.addHeapObject(obj, false)
}

// AddExternalHeapObject returns a graph with obj registered as a valid heap
// object allocated outside the analyzed code. It is never reported as a leak.
func (g *CLangSMG) AddExternalHeapObject(obj *Object) *CLangSMG {
	return g.addHeapObject(obj, true)
}

func (g *CLangSMG) addHeapObject(obj *Object, external bool) *CLangSMG {
	assert(!g.IsHeapObject(obj), "CLangSMG.AddHeapObject: object already in heap: %s", obj)

	other := g.withBase(g.smg.AddObjectWithFlags(obj, true, external))
	other.heap = g.heap.Set(obj, struct{}{})
	return other
}

// FreeHeapObject returns a graph where the heap object obj is invalid and
// has no has-value edges. The object stays registered until pruned.
func (g *CLangSMG) FreeHeapObject(obj *Object) *CLangSMG {
	assert(g.IsHeapObject(obj), "CLangSMG.FreeHeapObject: not a heap object: %s", obj)
	return g.withBase(g.smg.InvalidateAndClearEdges(obj))
}

// AddGlobalObject returns a graph with obj registered as the global named
// by its label. Panic if the object or the name is already taken.
func (g *CLangSMG) AddGlobalObject(obj *Object) *CLangSMG {
	_, exists := g.globals.Get(obj.Label())
	assert(!exists, "CLangSMG.AddGlobalObject: duplicate global name: %s", obj.Label())
	assert(!g.smg.HasObject(obj), "CLangSMG.AddGlobalObject: object already registered: %s", obj)

	other := g.withBase(g.smg.AddObject(obj))
	other.globals = g.globals.Set(obj.Label(), obj)
	return other
}

// AddStackObject returns a graph with obj registered in the top frame
// under its label. Panic if there is no frame or the name is taken.
func (g *CLangSMG) AddStackObject(obj *Object) *CLangSMG {
	f := g.CurrentFrame()
	assert(f != nil, "CLangSMG.AddStackObject: no stack frame")
	assert(!f.HasVariable(obj.Label()), "CLangSMG.AddStackObject: duplicate variable %q in %s", obj.Label(), f.fn.Name)

	other := g.withBase(g.smg.AddObject(obj))
	other.stack = g.replaceFrame(len(g.stack)-1, f.bind(obj.Label(), obj))
	return other
}

// replaceFrame returns a copy of the stack with the i-th frame replaced.
func (g *CLangSMG) replaceFrame(i int, f *StackFrame) []*StackFrame {
	stack := make([]*StackFrame, len(g.stack))
	copy(stack, g.stack)
	stack[i] = f
	return stack
}

// AddStackFrame returns a graph with a new frame for fn on top of the stack.
func (g *CLangSMG) AddStackFrame(fn FunctionDecl) *CLangSMG {
	f := NewStackFrame(fn)

	other := g.clone()
	if obj := f.ReturnObject(); obj != nil {
		other.smg = g.smg.AddObject(obj)
	}
	other.stack = append(g.stack[:len(g.stack):len(g.stack)], f)

	g.Options().logger().Debugf("[frame] push fn=%s depth=%d", fn.Name, len(other.stack))
	return other
}

// DropStackFrame returns a graph with the top frame popped. Every object of
// the frame, including its return object, is invalidated and loses its
// has-value edges; pointers into the frame become dangling.
func (g *CLangSMG) DropStackFrame() *CLangSMG {
	f := g.CurrentFrame()
	assert(f != nil, "CLangSMG.DropStackFrame: no stack frame")

	smg := g.smg
	for _, obj := range f.Objects() {
		smg = smg.InvalidateAndClearEdges(obj)
	}

	other := g.withBase(smg).clone()
	other.stack = g.stack[: len(g.stack)-1 : len(g.stack)-1]

	g.Options().logger().Debugf("[frame] pop fn=%s depth=%d", f.fn.Name, len(other.stack))
	other.check("DropStackFrame")
	return other
}

// ObjectForVisibleVariable returns the object bound to name in the top
// frame, else the global of that name, else nil.
func (g *CLangSMG) ObjectForVisibleVariable(name string) *Object {
	if f := g.CurrentFrame(); f != nil {
		if obj := f.Variable(name); obj != nil {
			return obj
		}
	}
	if obj, ok := g.globals.Get(name); ok {
		return obj.(*Object)
	}
	return nil
}

// AddValue returns a graph with v registered.
func (g *CLangSMG) AddValue(v Value) *CLangSMG {
	return g.withBase(g.smg.AddValue(v))
}

// RemoveValue returns a graph without v.
func (g *CLangSMG) RemoveValue(v Value) *CLangSMG {
	return g.withBase(g.smg.RemoveValue(v))
}

// AddHasValueEdge returns a graph with e added.
func (g *CLangSMG) AddHasValueEdge(e HasValueEdge) *CLangSMG {
	return g.withBase(g.smg.AddHasValueEdge(e))
}

// RemoveHasValueEdge returns a graph without e.
func (g *CLangSMG) RemoveHasValueEdge(e HasValueEdge) *CLangSMG {
	return g.withBase(g.smg.RemoveHasValueEdge(e))
}

// AddPointsToEdge returns a graph with e added.
func (g *CLangSMG) AddPointsToEdge(e PointsToEdge) *CLangSMG {
	return g.withBase(g.smg.AddPointsToEdge(e))
}

// RemovePointsToEdge returns a graph where v has no points-to edge.
func (g *CLangSMG) RemovePointsToEdge(v Value) *CLangSMG {
	return g.withBase(g.smg.RemovePointsToEdge(v))
}

// ReplaceValue returns a graph where fresh substitutes old everywhere.
func (g *CLangSMG) ReplaceValue(fresh, old Value) *CLangSMG {
	return g.withBase(g.smg.ReplaceValue(fresh, old))
}

// InvalidateAndClearEdges returns a graph where obj is invalid and has no
// has-value edges.
func (g *CLangSMG) InvalidateAndClearEdges(obj *Object) *CLangSMG {
	return g.withBase(g.smg.InvalidateAndClearEdges(obj))
}

// SetExternallyAllocated returns a graph with the external flag of obj updated.
func (g *CLangSMG) SetExternallyAllocated(obj *Object, external bool) *CLangSMG {
	return g.withBase(g.smg.SetExternallyAllocated(obj, external))
}

// AddPossibleEqualObjects returns a graph hinting that a and b may be merged.
func (g *CLangSMG) AddPossibleEqualObjects(a, b *Object) *CLangSMG {
	return g.withBase(g.smg.AddPossibleEqualObjects(a, b))
}

// AddNeqRelation returns a graph recording a != b.
func (g *CLangSMG) AddNeqRelation(a, b Value) *CLangSMG {
	return g.withBase(g.smg.AddNeqRelation(a, b))
}

// AddPredicateRelation returns a graph recording a op b.
func (g *CLangSMG) AddPredicateRelation(a Value, aWidth int64, b Value, bWidth int64, op BinaryOp) *CLangSMG {
	return g.withBase(g.smg.AddPredicateRelation(a, aWidth, b, bWidth, op))
}

// AddExplicitRelation returns a graph recording v op constant.
func (g *CLangSMG) AddExplicitRelation(v Value, width int64, constant int64, op BinaryOp) *CLangSMG {
	return g.withBase(g.smg.AddExplicitRelation(v, width, constant, op))
}

// check runs the verifier if checks are enabled. Panic on failure.
func (g *CLangSMG) check(op string) {
	if g.Options().PerformChecks {
		assert(VerifyCLangSMG(g), "%s: inconsistent graph", op)
	}
}

// Dump returns the contents of the stack, globals, heap and base graph as a string.
func (g *CLangSMG) Dump() string {
	var buf bytes.Buffer

	for i := len(g.stack) - 1; i >= 0; i-- {
		fmt.Fprintf(&buf, "== FRAME #%d\n", i)
		fmt.Fprintln(&buf, g.stack[i].Dump())
	}

	fmt.Fprintln(&buf, "== GLOBALS")
	for _, obj := range g.globalObjects() {
		fmt.Fprintln(&buf, obj.String())
	}
	fmt.Fprintln(&buf, "")

	fmt.Fprintln(&buf, "== HEAP")
	for _, obj := range g.HeapObjects() {
		fmt.Fprintln(&buf, obj.String())
	}
	fmt.Fprintln(&buf, "")

	buf.WriteString(g.smg.Dump())
	return buf.String()
}
