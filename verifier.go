package smg

import (
	"strconv"

	"github.com/sirupsen/logrus"
)

// smgCheck is a single consistency property of a base graph. It logs every
// violation it finds and returns false if there was any.
type smgCheck func(g *SMG, log logrus.FieldLogger) bool

var smgChecks = []smgCheck{
	verifyNullObject,
	verifyInvalidRegionsHaveNoEdges,
	verifyFieldBounds,
	verifyFieldConsistency,
	verifyPointsToConsistency,
	verifyObjectFlags,
	verifyEdgeEndpoints,
}

// VerifySMG audits g and returns true if every consistency property holds.
// Every violated property is logged to the graph's logger. Properties are
// checked independently; a failure does not stop the audit.
func VerifySMG(g *SMG) bool {
	return runChecks(g, g.opts.logger(), smgChecks)
}

func runChecks(g *SMG, log logrus.FieldLogger, checks []smgCheck) bool {
	ok := true
	for _, check := range checks {
		if !check(g, log) {
			ok = false
		}
	}
	return ok
}

// verifyNullObject checks that exactly one value points to the null object,
// that it is the zero value, and that the null object is invalid, empty,
// and has no has-value edges.
func verifyNullObject(g *SMG, log logrus.FieldLogger) bool {
	ok := true

	var nullValues []Value
	for _, e := range g.PointsToEdges() {
		if e.Object == NullObject {
			nullValues = append(nullValues, e.Value)
		}
	}
	if len(nullValues) != 1 {
		log.WithField("values", len(nullValues)).Warn("[verify] null object must be pointed to by exactly one value")
		ok = false
	} else if nullValues[0] != ZeroValue {
		log.WithField("value", nullValues[0].String()).Warn("[verify] null object pointed to by non-zero value")
		ok = false
	}
	if e, found := g.PointsToEdge(ZeroValue); !found || e.Object != NullObject || e.Offset != 0 {
		log.Warn("[verify] zero value does not point to null object at offset 0")
		ok = false
	}

	if !g.HasObject(NullObject) {
		log.Warn("[verify] null object not registered")
		return false
	}
	if g.hvEdges.HasEdges(NullObject) {
		log.Warn("[verify] null object has has-value edges")
		ok = false
	}
	if g.isValid(NullObject) {
		log.Warn("[verify] null object is valid")
		ok = false
	}
	if NullObject.Size() != 0 {
		log.WithField("size", NullObject.Size()).Warn("[verify] null object has non-zero size")
		ok = false
	}
	return ok
}

// verifyInvalidRegionsHaveNoEdges checks that invalid objects hold nothing.
func verifyInvalidRegionsHaveNoEdges(g *SMG, log logrus.FieldLogger) bool {
	ok := true
	for _, obj := range g.Objects() {
		if !g.isValid(obj) && g.hvEdges.HasEdges(obj) {
			log.WithField("object", obj.String()).Warn("[verify] invalid object has has-value edges")
			ok = false
		}
	}
	return ok
}

// verifyFieldBounds checks that every has-value edge lies within its object.
func verifyFieldBounds(g *SMG, log logrus.FieldLogger) bool {
	ok := true
	g.hvEdges.ForEach(func(e HasValueEdge) {
		if e.Offset < 0 || e.End() > e.Object.Size() {
			log.WithFields(logrus.Fields{
				"object": e.Object.String(),
				"offset": e.Offset,
				"size":   e.SizeInBits,
			}).Warn("[verify] has-value edge exceeds object bounds")
			ok = false
		}
	})
	return ok
}

// verifyFieldConsistency checks that the edges of an object neither
// overlap nor disagree at the same offset, and that no two stored zero
// edges are adjacent.
func verifyFieldConsistency(g *SMG, log logrus.FieldLogger) bool {
	ok := true
	for _, obj := range g.Objects() {
		edges := g.EdgesForObject(obj)
		for i := 1; i < len(edges); i++ {
			prev, e := edges[i-1], edges[i]
			fields := logrus.Fields{"object": obj.String(), "offset": e.Offset}
			switch {
			case prev.Offset == e.Offset && prev.Value != e.Value:
				log.WithFields(fields).Warn("[verify] has-value edges disagree at offset")
				ok = false
			case prev.End() > e.Offset:
				log.WithFields(fields).Warn("[verify] has-value edges overlap")
				ok = false
			case prev.End() == e.Offset && prev.IsZero() && e.IsZero():
				log.WithFields(fields).Warn("[verify] adjacent zero edges not merged")
				ok = false
			}
		}
	}
	return ok
}

// verifyPointsToConsistency checks that every points-to edge is keyed by
// its own value and that no two values claim the same target.
func verifyPointsToConsistency(g *SMG, log logrus.FieldLogger) bool {
	ok := true

	type target struct {
		obj    *Object
		offset int64
		spec   TargetSpecifier
	}
	seen := make(map[target]Value)

	itr := g.ptEdges.edges.Iterator()
	for !itr.Done() {
		k, v := itr.Next()
		key, e := k.(Value), v.(PointsToEdge)
		if key != e.Value {
			log.WithFields(logrus.Fields{"value": key.String(), "edge": e.String()}).Warn("[verify] points-to edge stored under wrong value")
			ok = false
		}

		t := target{obj: e.Object, offset: e.Offset, spec: e.Target}
		if other, exists := seen[t]; exists {
			log.WithFields(logrus.Fields{"value": e.Value.String(), "other": other.String(), "object": e.Object.String()}).Warn("[verify] distinct values share a points-to edge")
			ok = false
		}
		seen[t] = e.Value
	}
	return ok
}

// verifyObjectFlags checks that every object has both flags recorded and a
// non-negative size.
func verifyObjectFlags(g *SMG, log logrus.FieldLogger) bool {
	ok := true
	for _, obj := range g.Objects() {
		if _, found := g.validity.Get(obj); !found {
			log.WithField("object", obj.String()).Warn("[verify] object has no validity flag")
			ok = false
		}
		if _, found := g.external.Get(obj); !found {
			log.WithField("object", obj.String()).Warn("[verify] object has no external allocation flag")
			ok = false
		}
		if obj.Size() < 0 {
			log.WithField("object", obj.String()).Warn("[verify] object has negative size")
			ok = false
		}
	}
	return ok
}

// verifyEdgeEndpoints checks that no edge references a removed value or
// object. Points-to edges into invalid objects are allowed.
func verifyEdgeEndpoints(g *SMG, log logrus.FieldLogger) bool {
	ok := true
	g.hvEdges.ForEach(func(e HasValueEdge) {
		if !g.HasObject(e.Object) || !g.HasValue(e.Value) {
			log.WithField("edge", e.String()).Warn("[verify] has-value edge references unknown endpoint")
			ok = false
		}
	})
	for _, e := range g.PointsToEdges() {
		if !g.HasValue(e.Value) || !g.HasObject(e.Object) {
			log.WithField("edge", e.String()).Warn("[verify] points-to edge references unknown endpoint")
			ok = false
		}
	}
	return ok
}

// VerifyCLangSMG audits the base graph of g and the namespaces layered on
// top of it. Returns true if every property holds.
func VerifyCLangSMG(g *CLangSMG) bool {
	log := g.Options().logger()
	ok := VerifySMG(g.smg)
	for _, check := range []func(*CLangSMG, logrus.FieldLogger) bool{
		verifyDisjointNamespaces,
		verifyNamespaceMembership,
	} {
		if !check(g, log) {
			ok = false
		}
	}
	return ok
}

// verifyDisjointNamespaces checks that no object is owned by two of the
// heap, the globals and the stack frames, or by two frames.
func verifyDisjointNamespaces(g *CLangSMG, log logrus.FieldLogger) bool {
	ok := true
	owner := make(map[*Object]string)
	claim := func(obj *Object, ns string) {
		if prev, exists := owner[obj]; exists {
			log.WithFields(logrus.Fields{"object": obj.String(), "first": prev, "second": ns}).Warn("[verify] object in two namespaces")
			ok = false
			return
		}
		owner[obj] = ns
	}

	for _, obj := range g.HeapObjects() {
		claim(obj, "heap")
	}
	for _, obj := range g.globalObjects() {
		claim(obj, "global")
	}
	for i, f := range g.stack {
		for _, obj := range f.Objects() {
			claim(obj, "frame:"+f.fn.Name+"#"+strconv.Itoa(i))
		}
	}
	return ok
}

// verifyNamespaceMembership checks that every namespace member, including
// return objects, is registered in the base graph and is not the null object.
func verifyNamespaceMembership(g *CLangSMG, log logrus.FieldLogger) bool {
	ok := true
	objs := append(g.HeapObjects(), g.globalObjects()...)
	for _, f := range g.stack {
		objs = append(objs, f.Objects()...)
	}
	for _, obj := range objs {
		if obj.IsNull() {
			log.Warn("[verify] null object in a namespace")
			ok = false
		} else if !g.smg.HasObject(obj) {
			log.WithField("object", obj.String()).Warn("[verify] namespace object not registered")
			ok = false
		}
	}
	return ok
}
