package smg

import (
	"bytes"
	"fmt"

	"github.com/benbjohnson/immutable"
)

// FunctionDecl describes the function a stack frame belongs to.
type FunctionDecl struct {
	Name       string
	ReturnSize int64 // in bits; zero for void functions
}

// IsVoid returns true if the function returns nothing.
func (fn FunctionDecl) IsVoid() bool { return fn.ReturnSize == 0 }

// StackFrame represents the state of a call into a function: its local
// variables by name and an optional return object. Frames are immutable.
type StackFrame struct {
	fn           FunctionDecl
	variables    *immutable.SortedMap // string -> *Object
	returnObject *Object
}

// NewStackFrame returns a new frame for fn. Non-void functions get a fresh
// return object sized after their return type.
func NewStackFrame(fn FunctionDecl) *StackFrame {
	f := &StackFrame{
		fn:        fn,
		variables: immutable.NewSortedMap(&stringComparer{}),
	}
	if !fn.IsVoid() {
		f.returnObject = NewRegion(fn.ReturnSize, returnObjectLabel)
	}
	return f
}

const returnObjectLabel = "__retval__"

// Function returns the function of the frame.
func (f *StackFrame) Function() FunctionDecl { return f.fn }

// Variable returns the object bound to name, or nil.
func (f *StackFrame) Variable(name string) *Object {
	if obj, ok := f.variables.Get(name); ok {
		return obj.(*Object)
	}
	return nil
}

// HasVariable returns true if name is bound in the frame.
func (f *StackFrame) HasVariable(name string) bool {
	_, ok := f.variables.Get(name)
	return ok
}

// VariableNames returns the names bound in the frame, sorted.
func (f *StackFrame) VariableNames() []string {
	a := make([]string, 0, f.variables.Len())
	itr := f.variables.Iterator()
	for !itr.Done() {
		k, _ := itr.Next()
		a = append(a, k.(string))
	}
	return a
}

// ReturnObject returns the return object, or nil for void functions.
func (f *StackFrame) ReturnObject() *Object { return f.returnObject }

// Objects returns the objects owned by the frame: variables sorted by name,
// then the return object.
func (f *StackFrame) Objects() []*Object {
	a := make([]*Object, 0, f.variables.Len()+1)
	itr := f.variables.Iterator()
	for !itr.Done() {
		_, v := itr.Next()
		a = append(a, v.(*Object))
	}
	if f.returnObject != nil {
		a = append(a, f.returnObject)
	}
	return a
}

// Contains returns true if obj is owned by the frame.
func (f *StackFrame) Contains(obj *Object) bool {
	if obj == f.returnObject {
		return true
	}
	_, ok := f.nameOf(obj)
	return ok
}

// nameOf returns the name obj is bound to.
func (f *StackFrame) nameOf(obj *Object) (string, bool) {
	itr := f.variables.Iterator()
	for !itr.Done() {
		k, v := itr.Next()
		if v.(*Object) == obj {
			return k.(string), true
		}
	}
	return "", false
}

// bind returns a copy of the frame with name bound to obj.
func (f *StackFrame) bind(name string, obj *Object) *StackFrame {
	other := *f
	other.variables = f.variables.Set(name, obj)
	return &other
}

// unbind returns a copy of the frame without name.
func (f *StackFrame) unbind(name string) *StackFrame {
	other := *f
	other.variables = f.variables.Delete(name)
	return &other
}

// Dump returns the contents of the frame as a string.
func (f *StackFrame) Dump() string {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "fn=%s\n", f.fn.Name)
	for _, name := range f.VariableNames() {
		fmt.Fprintf(&buf, "%s %s\n", name, f.Variable(name))
	}
	if f.returnObject != nil {
		fmt.Fprintf(&buf, "return %s\n", f.returnObject)
	}
	return buf.String()
}
