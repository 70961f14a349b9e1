package smg

import (
	"fmt"
)

// keyHasher hashes the key types used by the graph's persistent maps.
// Objects hash by id and compare by identity. Implements immutable.Hasher.
type keyHasher struct{}

func (h *keyHasher) Hash(key interface{}) uint32 {
	switch key := key.(type) {
	case Value:
		return hashUint64(uint64(key))
	case *Object:
		return hashUint64(key.id)
	case SymbolicRelation:
		return hashUint64(uint64(key.LHS)*31 ^ uint64(key.RHS)<<7 ^ uint64(key.Op))
	case ExplicitRelation:
		return hashUint64(uint64(key.Value)*31 ^ uint64(key.Constant)<<7 ^ uint64(key.Op))
	default:
		panic(fmt.Sprintf("smg: unhashable key type: %T", key))
	}
}

func (h *keyHasher) Equal(a, b interface{}) bool {
	return a == b
}

func hashUint64(v uint64) uint32 {
	v ^= v >> 33
	v *= 0xff51afd7ed558ccd
	v ^= v >> 33
	return uint32(v)
}

// int64Comparer compares two 64-bit signed integers. Implements immutable.Comparer.
type int64Comparer struct{}

// Compare returns -1 if a is less than b, returns 1 if a is greater than b, and
// returns 0 if a is equal to b. Panic if a or b is not an int64.
func (c *int64Comparer) Compare(a, b interface{}) int {
	if i, j := a.(int64), b.(int64); i < j {
		return -1
	} else if i > j {
		return 1
	}
	return 0
}

// valueComparer orders values by handle. Implements immutable.Comparer.
type valueComparer struct{}

func (c *valueComparer) Compare(a, b interface{}) int {
	if i, j := a.(Value), b.(Value); i < j {
		return -1
	} else if i > j {
		return 1
	}
	return 0
}

// stringComparer orders strings lexically. Implements immutable.Comparer.
type stringComparer struct{}

func (c *stringComparer) Compare(a, b interface{}) int {
	if i, j := a.(string), b.(string); i < j {
		return -1
	} else if i > j {
		return 1
	}
	return 0
}
