package smg

import (
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// Standard widths, in bits.
const (
	WidthBool = 1
	Width8    = 8
	Width16   = 16
	Width32   = 32
	Width64   = 64
)

var (
	ErrUnknownObject = errors.New("smg: unknown object")
	ErrUnknownValue  = errors.New("smg: unknown value")
)

// Options configures a graph. Options are carried by every version derived
// from the graph they were passed to.
type Options struct {
	// When set, frame drops, value replacement and pruning run the
	// consistency verifier afterwards and panic on failure.
	PerformChecks bool

	// Used only for bit-size bookkeeping.
	MachineModel MachineModel

	// Receives verifier diagnostics and leak reports. Discarded if nil.
	Logger logrus.FieldLogger
}

// DefaultOptions returns options for a 64-bit little-endian machine with
// checks disabled and logging discarded.
func DefaultOptions() Options {
	return Options{MachineModel: DefaultMachineModel()}
}

func (opts Options) logger() logrus.FieldLogger {
	if opts.Logger != nil {
		return opts.Logger
	}
	return discardLogger
}

var discardLogger = func() *logrus.Logger {
	l := logrus.New()
	l.Out = io.Discard
	l.SetLevel(logrus.PanicLevel)
	return l
}()

// MachineModel describes the target machine. The graph never interprets
// it; it is handed to callers converting types to bit sizes.
type MachineModel struct {
	PointerWidth   int64 // in bits
	IsLittleEndian bool
}

// DefaultMachineModel returns the model of a 64-bit little-endian machine.
func DefaultMachineModel() MachineModel {
	return MachineModel{PointerWidth: Width64, IsLittleEndian: true}
}

// assert panics if condition is false.
func assert(condition bool, format string, args ...interface{}) {
	if !condition {
		panic(fmt.Sprintf("assert: "+format, args...))
	}
}
