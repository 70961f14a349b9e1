package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/benbjohnson/smg"
)

// Scenario describes a C program state as TOML.
//
// Objects are referenced by name: globals and heap objects by their own
// name, locals as "function::variable". Values are referenced by arbitrary
// names; "0" is the zero value.
type Scenario struct {
	Pop      int           `toml:"pop"`
	Globals  []ObjectSpec  `toml:"global"`
	Frames   []FrameSpec   `toml:"frame"`
	Heap     []HeapSpec    `toml:"heap"`
	Edges    []EdgeSpec    `toml:"edge"`
	Pointers []PointerSpec `toml:"pointer"`
}

// ObjectSpec describes a named region.
type ObjectSpec struct {
	Name string `toml:"name"`
	Size int64  `toml:"size"`
}

// FrameSpec describes a stack frame and its locals.
type FrameSpec struct {
	Function   string       `toml:"function"`
	ReturnSize int64        `toml:"return_size"`
	Variables  []ObjectSpec `toml:"variable"`
}

// HeapSpec describes a heap allocation.
type HeapSpec struct {
	Name     string `toml:"name"`
	Size     int64  `toml:"size"`
	External bool   `toml:"external"`
	Freed    bool   `toml:"freed"`
}

// EdgeSpec describes a has-value edge.
type EdgeSpec struct {
	Object string `toml:"object"`
	Offset int64  `toml:"offset"`
	Size   int64  `toml:"size"`
	Value  string `toml:"value"`
}

// PointerSpec describes a points-to edge.
type PointerSpec struct {
	Value  string `toml:"value"`
	Object string `toml:"object"`
	Offset int64  `toml:"offset"`
}

// ParseScenario decodes a TOML scenario.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	md, err := toml.Decode(string(data), &s)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown scenario key: %s", undecoded[0])
	}
	return &s, nil
}

// LoadScenario reads a TOML scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load scenario from %s: %w", path, err)
	}
	s, err := ParseScenario(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse scenario %s: %w", path, err)
	}
	return s, nil
}

// Build returns the graph described by the scenario and the objects by name.
// Graph contract violations are returned as errors.
func (s *Scenario) Build(opts smg.Options) (g *smg.CLangSMG, objects map[string]*smg.Object, err error) {
	defer func() {
		if r := recover(); r != nil {
			g, objects, err = nil, nil, fmt.Errorf("invalid scenario: %v", r)
		}
	}()

	g = smg.NewCLangSMG(opts)
	objects = make(map[string]*smg.Object)
	declare := func(name string, obj *smg.Object) error {
		if name == "" {
			return fmt.Errorf("object without name")
		} else if _, ok := objects[name]; ok {
			return fmt.Errorf("duplicate object name: %s", name)
		}
		objects[name] = obj
		return nil
	}

	for _, spec := range s.Globals {
		obj := smg.NewRegion(spec.Size, spec.Name)
		if err := declare(spec.Name, obj); err != nil {
			return nil, nil, err
		}
		g = g.AddGlobalObject(obj)
	}

	for _, frame := range s.Frames {
		g = g.AddStackFrame(smg.FunctionDecl{Name: frame.Function, ReturnSize: frame.ReturnSize})
		for _, spec := range frame.Variables {
			obj := smg.NewRegion(spec.Size, spec.Name)
			if err := declare(smg.NewStackLocation(frame.Function, spec.Name).String(), obj); err != nil {
				return nil, nil, err
			}
			g = g.AddStackObject(obj)
		}
	}

	for _, spec := range s.Heap {
		obj := smg.NewRegion(spec.Size, spec.Name)
		if err := declare(spec.Name, obj); err != nil {
			return nil, nil, err
		}
		if spec.External {
			g = g.AddExternalHeapObject(obj)
		} else {
			g = g.AddHeapObject(obj)
		}
	}

	values := map[string]smg.Value{"0": smg.ZeroValue}
	value := func(name string) smg.Value {
		if v, ok := values[name]; ok {
			return v
		}
		v := smg.NewValue()
		values[name] = v
		g = g.AddValue(v)
		return v
	}
	lookup := func(name string) (*smg.Object, error) {
		if strings.EqualFold(name, "null") {
			return smg.NullObject, nil
		} else if obj := objects[name]; obj != nil {
			return obj, nil
		}
		return nil, fmt.Errorf("%w: %s", smg.ErrUnknownObject, name)
	}

	for i, spec := range s.Pointers {
		if spec.Value == "0" {
			return nil, nil, fmt.Errorf("pointer %d: zero value cannot be redirected", i)
		}
		obj, err := lookup(spec.Object)
		if err != nil {
			return nil, nil, fmt.Errorf("pointer %d: %w", i, err)
		}
		g = g.AddPointsToEdge(smg.NewPointsToEdge(value(spec.Value), obj, spec.Offset))
	}

	for i, spec := range s.Edges {
		obj, err := lookup(spec.Object)
		if err != nil {
			return nil, nil, fmt.Errorf("edge %d: %w", i, err)
		} else if spec.Value == "" {
			return nil, nil, fmt.Errorf("edge %d: %w", i, smg.ErrUnknownValue)
		}
		g = g.AddHasValueEdge(smg.NewHasValueEdge(obj, spec.Offset, spec.Size, value(spec.Value)))
	}

	for _, spec := range s.Heap {
		if spec.Freed {
			g = g.FreeHeapObject(objects[spec.Name])
		}
	}
	return g, objects, nil
}
