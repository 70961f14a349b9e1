package smg

import (
	"github.com/benbjohnson/immutable"
)

// multimap is a persistent map from keys to sets of elements. Keys and
// elements must be hashable by keyHasher.
type multimap struct {
	m *immutable.Map // key -> *immutable.Map(elem -> struct{})
}

func newMultimap() multimap {
	return multimap{m: immutable.NewMap(&keyHasher{})}
}

// keys returns the number of keys with at least one element.
func (mm multimap) keys() int { return mm.m.Len() }

func (mm multimap) set(key interface{}) *immutable.Map {
	if s, ok := mm.m.Get(key); ok {
		return s.(*immutable.Map)
	}
	return nil
}

func (mm multimap) contains(key, elem interface{}) bool {
	if s := mm.set(key); s != nil {
		_, ok := s.Get(elem)
		return ok
	}
	return false
}

// get returns the elements of key in unspecified order.
func (mm multimap) get(key interface{}) []interface{} {
	s := mm.set(key)
	if s == nil {
		return nil
	}
	a := make([]interface{}, 0, s.Len())
	itr := s.Iterator()
	for !itr.Done() {
		k, _ := itr.Next()
		a = append(a, k)
	}
	return a
}

func (mm multimap) put(key, elem interface{}) multimap {
	s := mm.set(key)
	if s == nil {
		s = immutable.NewMap(&keyHasher{})
	} else if _, ok := s.Get(elem); ok {
		return mm
	}
	return multimap{m: mm.m.Set(key, s.Set(elem, struct{}{}))}
}

func (mm multimap) remove(key, elem interface{}) multimap {
	s := mm.set(key)
	if s == nil {
		return mm
	} else if _, ok := s.Get(elem); !ok {
		return mm
	}
	if s = s.Delete(elem); s.Len() == 0 {
		return multimap{m: mm.m.Delete(key)}
	}
	return multimap{m: mm.m.Set(key, s)}
}

func (mm multimap) removeAll(key interface{}) multimap {
	if mm.set(key) == nil {
		return mm
	}
	return multimap{m: mm.m.Delete(key)}
}

// putSymmetric records elem under key and key under elem.
func (mm multimap) putSymmetric(a, b interface{}) multimap {
	return mm.put(a, b).put(b, a)
}

// removeSymmetric removes a and every symmetric back reference to it.
func (mm multimap) removeSymmetric(a interface{}) multimap {
	for _, b := range mm.get(a) {
		mm = mm.remove(b, a)
	}
	return mm.removeAll(a)
}
