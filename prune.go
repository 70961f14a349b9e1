package smg

import (
	"golang.org/x/tools/container/intsets"
)

// PruneUnreachable returns a graph without the objects and values that
// cannot be reached from the globals and the stack frames, and the
// removed objects that were leaked.
//
// Reachability follows the has-value edges of valid objects and the
// points-to edges of the values they hold. An unreachable object is a leak
// if it is valid and not externally allocated. Objects reachable from an
// unreachable externally allocated object are treated as externally
// allocated as well.
func (g *CLangSMG) PruneUnreachable() (*CLangSMG, []*Object) {
	smg := g.smg
	log := g.Options().logger()

	// Seed with every root: globals and all objects owned by stack frames.
	queue := g.globalObjects()
	for _, f := range g.stack {
		queue = append(queue, f.Objects()...)
	}

	var seenObjects, seenValues intsets.Sparse
	for len(queue) > 0 {
		obj := queue[0]
		queue = queue[1:]
		if !seenObjects.Insert(int(obj.id)) || !smg.isValid(obj) {
			continue
		}

		for _, e := range smg.EdgesForObject(obj) {
			seenValues.Insert(int(e.Value))
			if target := smg.ObjectPointedBy(e.Value); target != nil && !seenObjects.Has(int(target.id)) {
				queue = append(queue, target)
			}
		}
	}

	var stray []*Object
	var straySet intsets.Sparse
	for _, obj := range smg.Objects() {
		if !seenObjects.Has(int(obj.id)) && !obj.IsNull() {
			stray = append(stray, obj)
			straySet.Insert(int(obj.id))
		}
	}

	smg = markExternallyAllocated(smg, stray, &straySet)

	other := g.clone()
	var leaks []*Object
	for _, obj := range stray {
		if smg.IsObjectValid(obj) && !smg.IsExternallyAllocated(obj) {
			log.WithField("object", obj.String()).Info("[prune] memory leak")
			leaks = append(leaks, obj)
		}
		smg = smg.RemoveObjectAndEdges(obj)
		other.heap = other.heap.Delete(obj)
	}

	var strayValues int
	for _, v := range smg.Values() {
		if v.IsZero() || seenValues.Has(int(v)) {
			continue
		}
		if smg.IsPointer(v) {
			smg = smg.RemovePointsToEdge(v)
		}
		smg = smg.RemoveValue(v)
		strayValues++
	}

	log.Debugf("[prune] reachable=%d stray=%d values=%d leaks=%d", seenObjects.Len(), len(stray), strayValues, len(leaks))

	other.smg = smg
	other.hasLeaks = g.hasLeaks || len(leaks) > 0
	other.check("PruneUnreachable")
	return other, leaks
}

// markExternallyAllocated returns a graph where every stray object reachable
// from an externally allocated stray object is externally allocated too.
func markExternallyAllocated(smg *SMG, stray []*Object, straySet *intsets.Sparse) *SMG {
	var queue []*Object
	for _, obj := range stray {
		if smg.IsExternallyAllocated(obj) {
			queue = append(queue, obj)
		}
	}

	var seen intsets.Sparse
	for len(queue) > 0 {
		obj := queue[0]
		queue = queue[1:]
		if !seen.Insert(int(obj.id)) {
			continue
		}

		for _, e := range smg.EdgesForObject(obj) {
			target := smg.ObjectPointedBy(e.Value)
			if target == nil || !straySet.Has(int(target.id)) {
				continue
			}
			if !smg.IsExternallyAllocated(target) {
				smg = smg.SetExternallyAllocated(target, true)
			}
			queue = append(queue, target)
		}
	}
	return smg
}
