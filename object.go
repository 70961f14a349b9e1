package smg

import (
	"fmt"
	"sync/atomic"
)

// ObjectKind identifies the kind of memory an Object models.
type ObjectKind int

const (
	KindRegion ObjectKind = iota
	KindNull
)

func (k ObjectKind) String() string {
	switch k {
	case KindRegion:
		return "region"
	case KindNull:
		return "null"
	default:
		return fmt.Sprintf("ObjectKind<%d>", int(k))
	}
}

// Object represents an abstract region of memory. Objects are compared by
// identity: two regions with the same size and label are distinct.
type Object struct {
	id    uint64 // unique id
	size  int64  // width, in bits
	label string // debug name
	kind  ObjectKind
}

// NullObject is the object every null pointer points to. It has size 0, is
// never valid and is never removed from a graph.
var NullObject = &Object{id: 0, kind: KindNull, label: "NULL"}

var objectSeq uint64

// NewRegion returns a new region of the given size, in bits.
func NewRegion(size int64, label string) *Object {
	assert(size >= 0, "smg.NewRegion: negative size: %d", size)
	return &Object{
		id:    atomic.AddUint64(&objectSeq, 1),
		size:  size,
		label: label,
		kind:  KindRegion,
	}
}

// ID returns the unique identifier of the object.
func (o *Object) ID() uint64 { return o.id }

// Size returns the width of the object, in bits.
func (o *Object) Size() int64 { return o.size }

// Label returns the debug name of the object.
func (o *Object) Label() string { return o.label }

// Kind returns the kind of the object.
func (o *Object) Kind() ObjectKind { return o.kind }

// IsNull returns true if o is the null object.
func (o *Object) IsNull() bool { return o.kind == KindNull }

// String returns a string representation of the object.
func (o *Object) String() string {
	if o.IsNull() {
		return "NULL"
	}
	return fmt.Sprintf("(region #%d %q %d)", o.id, o.label, o.size)
}

// objectComparer orders objects by id. Implements immutable.Comparer.
type objectComparer struct{}

func (c *objectComparer) Compare(a, b interface{}) int {
	if i, j := a.(*Object).id, b.(*Object).id; i < j {
		return -1
	} else if i > j {
		return 1
	}
	return 0
}

// Value represents an opaque symbolic scalar or address.
type Value uint64

// ZeroValue represents the literal 0 and the null address. It always points
// to NullObject and is never removed from a graph.
const ZeroValue Value = 0

var valueSeq uint64

// NewValue returns a new unique symbolic value.
func NewValue() Value {
	return Value(atomic.AddUint64(&valueSeq, 1))
}

// IsZero returns true if v is the zero value.
func (v Value) IsZero() bool { return v == ZeroValue }

// String returns a string representation of the value.
func (v Value) String() string {
	if v == ZeroValue {
		return "#0"
	}
	return fmt.Sprintf("#%d", uint64(v))
}
