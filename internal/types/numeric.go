package types

import "math/big"

// BitSize returns the width in bits of a numeric primitive, 0 otherwise
func (t *Type) BitSize() int {
	switch t.Kind {
	case TypeKindInt8, TypeKindUint8:
		return 8
	case TypeKindInt16, TypeKindUint16:
		return 16
	case TypeKindInt32, TypeKindUint32, TypeKindFloat32:
		return 32
	case TypeKindInt64, TypeKindUint64, TypeKindFloat64:
		return 64
	default:
		return 0
	}
}

// IntBounds returns the inclusive value range of an integer primitive.
// Bool is treated as the two-value domain 0..=1.
func IntBounds(t *Type) (min, max *big.Int, ok bool) {
	if t.Kind == TypeKindBool {
		return big.NewInt(0), big.NewInt(1), true
	}
	if !t.IsInteger() {
		return nil, nil, false
	}
	bits := uint(t.BitSize())
	one := big.NewInt(1)
	if t.IsSigned() {
		max = new(big.Int).Sub(new(big.Int).Lsh(one, bits-1), one)
		min = new(big.Int).Neg(new(big.Int).Lsh(one, bits-1))
		return min, max, true
	}
	max = new(big.Int).Sub(new(big.Int).Lsh(one, bits), one)
	return big.NewInt(0), max, true
}

// FitsInt reports whether the literal value v is representable in t
func FitsInt(t *Type, v *big.Int) bool {
	min, max, ok := IntBounds(t)
	if !ok {
		return false
	}
	return v.Cmp(min) >= 0 && v.Cmp(max) <= 0
}

// CanWiden reports whether a value of type from implicitly converts to to.
// Allowed: signed to wider signed, unsigned to wider unsigned, unsigned to
// strictly wider signed, and float to wider float.
func CanWiden(from, to *Type) bool {
	if from.Kind == to.Kind {
		return false
	}
	fb, tb := from.BitSize(), to.BitSize()
	switch {
	case from.IsSigned() && to.IsSigned():
		return tb > fb
	case from.IsInteger() && !from.IsSigned() && to.IsInteger() && !to.IsSigned():
		return tb > fb
	case from.IsInteger() && !from.IsSigned() && to.IsSigned():
		return tb > fb
	case from.IsFloat() && to.IsFloat():
		return tb > fb
	default:
		return false
	}
}

// CanCast reports whether `from as to` is legal: numeric to numeric, bool
// to integer, and identity casts.
func CanCast(from, to *Type) bool {
	switch {
	case from.Kind == TypeKindInvalid || to.Kind == TypeKindInvalid:
		return true
	case from.IsNumeric() && to.IsNumeric():
		return true
	case from.Kind == TypeKindBool && to.IsInteger():
		return true
	default:
		return from.IsPrimitive() && from.Kind == to.Kind
	}
}
