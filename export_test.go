package smg

// ForceHeapObject adds obj to the heap namespace without registering it.
func ForceHeapObject(g *CLangSMG, obj *Object) *CLangSMG {
	other := g.clone()
	other.heap = g.heap.Set(obj, struct{}{})
	return other
}

// ForceHasValueEdge stores e without checking its endpoints.
func ForceHasValueEdge(g *SMG, e HasValueEdge) *SMG {
	other := g.clone()
	other.hvEdges = g.hvEdges.Add(e)
	return other
}

// ForcePointsToEdge stores e without checking its endpoints.
func ForcePointsToEdge(g *SMG, e PointsToEdge) *SMG {
	other := g.clone()
	other.ptEdges = g.ptEdges.Add(e)
	return other
}

// WithBase returns g with its base graph replaced.
func WithBase(g *CLangSMG, base *SMG) *CLangSMG {
	other := g.clone()
	other.smg = base
	return other
}

// DropObjectFlags deletes the validity and external flags of obj.
func DropObjectFlags(g *SMG, obj *Object) *SMG {
	other := g.clone()
	other.validity = g.validity.Delete(obj)
	other.external = g.external.Delete(obj)
	return other
}
