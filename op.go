package smg

import (
	"fmt"
)

// BinaryOp represents the operator of a recorded value relation.
type BinaryOp int

// Relation operators.
const (
	arithmetic_op_begin = BinaryOp(iota)
	ADD
	SUB
	MUL
	UDIV
	SDIV
	UREM
	SREM
	AND
	OR
	XOR
	SHL
	LSHR
	ASHR
	arithmetic_op_end

	compare_op_begin
	EQ
	NE
	ULT
	ULE
	UGT
	UGE
	SLT
	SLE
	SGT
	SGE
	compare_op_end
)

var binaryOps = [...]string{
	ADD:  "add",
	SUB:  "sub",
	MUL:  "mul",
	UDIV: "udiv",
	SDIV: "sdiv",
	UREM: "urem",
	SREM: "srem",
	AND:  "and",
	OR:   "or",
	XOR:  "xor",
	SHL:  "shl",
	LSHR: "lshr",
	ASHR: "ashr",
	EQ:   "eq",
	NE:   "ne",
	ULT:  "ult",
	ULE:  "ule",
	UGT:  "ugt",
	UGE:  "uge",
	SLT:  "slt",
	SLE:  "sle",
	SGT:  "sgt",
	SGE:  "sge",
}

// String returns the string representation of the operation.
func (op BinaryOp) String() string {
	if op >= 0 && op < BinaryOp(len(binaryOps)) && binaryOps[op] != "" {
		return binaryOps[op]
	}
	return fmt.Sprintf("BinaryOp<%d>", op)
}

// IsArithmetic returns true if op is an arithmetic operator.
func (op BinaryOp) IsArithmetic() bool {
	return op > arithmetic_op_begin && op < arithmetic_op_end
}

// IsCompare returns true if op is a comparison operator.
func (op BinaryOp) IsCompare() bool {
	return op > compare_op_begin && op < compare_op_end
}

// Flip returns the operator that holds with the operands swapped.
// Panic if op is not commutative and has no mirrored form.
func (op BinaryOp) Flip() BinaryOp {
	switch op {
	case ULT:
		return UGT
	case ULE:
		return UGE
	case UGT:
		return ULT
	case UGE:
		return ULE
	case SLT:
		return SGT
	case SLE:
		return SGE
	case SGT:
		return SLT
	case SGE:
		return SLE
	case EQ, NE, ADD, MUL, AND, OR, XOR:
		return op
	default:
		panic(fmt.Sprintf("smg.BinaryOp: cannot flip %s", op))
	}
}

// Negate returns the comparison holding exactly when op does not.
// Panic if op is not a comparison.
func (op BinaryOp) Negate() BinaryOp {
	switch op {
	case EQ:
		return NE
	case NE:
		return EQ
	case ULT:
		return UGE
	case ULE:
		return UGT
	case UGT:
		return ULE
	case UGE:
		return ULT
	case SLT:
		return SGE
	case SLE:
		return SGT
	case SGT:
		return SLE
	case SGE:
		return SLT
	default:
		panic(fmt.Sprintf("smg.BinaryOp: cannot negate %s", op))
	}
}
