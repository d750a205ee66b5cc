package vm

import (
	"fmt"
	"strconv"
)

// ---------------------------------------------------------------------------
// Value: Tagged runtime value
// ---------------------------------------------------------------------------

// Kind identifies the runtime type of a Value.
type Kind uint8

const (
	KindUninit Kind = iota // default-initialized global slot, never pushed by scripts
	KindInt
	KindFloat
	KindBool
	KindString
	KindDelta // relative integer, produced by the DELTA instruction
	KindConst // built-in engine constant (enum id)
	KindCurve
	KindNull
	KindBlank // the empty-string literal
)

// String returns the human-readable name of a kind.
func (k Kind) String() string {
	switch k {
	case KindUninit:
		return "uninitialized"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindDelta:
		return "delta"
	case KindConst:
		return "const"
	case KindCurve:
		return "curve"
	case KindNull:
		return "null"
	case KindBlank:
		return "blank"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Value is a tagged union over everything a script can put on the stack.
// The zero Value is the uninitialized value.
type Value struct {
	kind  Kind
	num   int64 // Int, Delta payload, Bool (0/1), Const id
	flt   float64
	str   string
	curve *Curve
}

// Well-known values.
var (
	Null  = Value{kind: KindNull}
	Blank = Value{kind: KindBlank}
	True  = Value{kind: KindBool, num: 1}
	False = Value{kind: KindBool}
)

// Constructors.

func FromInt(n int64) Value      { return Value{kind: KindInt, num: n} }
func FromFloat(f float64) Value  { return Value{kind: KindFloat, flt: f} }
func FromString(s string) Value  { return Value{kind: KindString, str: s} }
func FromDelta(n int64) Value    { return Value{kind: KindDelta, num: n} }
func FromConst(id int64) Value   { return Value{kind: KindConst, num: id} }
func FromCurve(c *Curve) Value   { return Value{kind: KindCurve, curve: c} }

func FromBool(b bool) Value {
	if b {
		return True
	}
	return False
}

// Type checks.

func (v Value) Kind() Kind      { return v.kind }
func (v Value) IsUninit() bool  { return v.kind == KindUninit }
func (v Value) IsInt() bool     { return v.kind == KindInt }
func (v Value) IsFloat() bool   { return v.kind == KindFloat }
func (v Value) IsBool() bool    { return v.kind == KindBool }
func (v Value) IsDelta() bool   { return v.kind == KindDelta }
func (v Value) IsConst() bool   { return v.kind == KindConst }
func (v Value) IsCurve() bool   { return v.kind == KindCurve }
func (v Value) IsNull() bool    { return v.kind == KindNull }

// IsString reports whether v carries string content. The empty-string
// literal has its own tag but behaves as a string everywhere.
func (v Value) IsString() bool {
	return v.kind == KindString || v.kind == KindBlank
}

// IsNumeric reports whether v participates in arithmetic and ordering.
// Deltas are plain integers outside the coordinate-resolution layer.
func (v Value) IsNumeric() bool {
	return v.kind == KindInt || v.kind == KindFloat || v.kind == KindDelta
}

// Accessors.

// Int returns the integer payload of an Int or Delta value.
func (v Value) Int() int64 {
	if v.kind != KindInt && v.kind != KindDelta {
		panic(fmt.Sprintf("Int called on %s value", v.kind))
	}
	return v.num
}

// Float returns the float payload, promoting integers.
func (v Value) Float() float64 {
	switch v.kind {
	case KindFloat:
		return v.flt
	case KindInt, KindDelta:
		return float64(v.num)
	}
	panic(fmt.Sprintf("Float called on %s value", v.kind))
}

func (v Value) Bool() bool {
	if v.kind != KindBool {
		panic(fmt.Sprintf("Bool called on %s value", v.kind))
	}
	return v.num != 0
}

func (v Value) Str() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindBlank:
		return ""
	}
	panic(fmt.Sprintf("Str called on %s value", v.kind))
}

func (v Value) ConstID() int64 {
	if v.kind != KindConst {
		panic(fmt.Sprintf("ConstID called on %s value", v.kind))
	}
	return v.num
}

func (v Value) Curve() *Curve {
	if v.kind != KindCurve {
		panic(fmt.Sprintf("Curve called on %s value", v.kind))
	}
	return v.curve
}

// Truthy reports whether v counts as true in a conditional jump.
// Booleans test their payload, numbers test non-zero; everything else
// (including null) is false.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindBool, KindInt, KindDelta, KindConst:
		return v.num != 0
	case KindFloat:
		return v.flt != 0
	}
	return false
}

// String implements fmt.Stringer for diagnostics and the log builtin.
func (v Value) String() string {
	switch v.kind {
	case KindUninit:
		return "<uninit>"
	case KindInt:
		return strconv.FormatInt(v.num, 10)
	case KindFloat:
		return strconv.FormatFloat(v.flt, 'g', -1, 64)
	case KindBool:
		if v.num != 0 {
			return "true"
		}
		return "false"
	case KindString:
		return v.str
	case KindBlank:
		return ""
	case KindDelta:
		if v.num >= 0 {
			return "+" + strconv.FormatInt(v.num, 10)
		}
		return strconv.FormatInt(v.num, 10)
	case KindConst:
		return "#" + strconv.FormatInt(v.num, 10)
	case KindCurve:
		return fmt.Sprintf("<curve %d segs>", len(v.curve.Segments))
	case KindNull:
		return "null"
	}
	return "<?>"
}

// ---------------------------------------------------------------------------
// Operators
// ---------------------------------------------------------------------------

// BinOp identifies a binary operator decoded from a BINARY instruction.
type BinOp uint8

const (
	BinAdd BinOp = iota
	BinSub
	BinMul
	BinDiv
	BinRem
	BinLt
	BinLe
	BinGt
	BinGe
	BinAnd
	BinOr
)

var binOpNames = [...]string{"+", "-", "*", "/", "%", "<", "<=", ">", ">=", "&&", "||"}

// String returns the operator's source form.
func (op BinOp) String() string {
	if int(op) < len(binOpNames) {
		return binOpNames[op]
	}
	return fmt.Sprintf("binop(%d)", uint8(op))
}

// Equals implements the == operator. It is total: values of different
// kinds compare unequal, except that the numeric kinds promote and the
// two string kinds share content equality. Null only equals Null.
func (v Value) Equals(o Value) bool {
	if v.kind == KindNull || o.kind == KindNull {
		return v.kind == o.kind
	}
	switch {
	case v.kind == KindInt && o.kind == KindInt,
		v.kind == KindDelta && o.kind == KindDelta,
		v.kind == KindConst && o.kind == KindConst:
		return v.num == o.num
	case v.IsNumeric() && o.IsNumeric():
		return v.Float() == o.Float()
	case v.IsString() && o.IsString():
		return v.Str() == o.Str()
	case v.kind == KindBool && o.kind == KindBool:
		return v.num == o.num
	case v.kind == KindCurve && o.kind == KindCurve:
		return v.curve == o.curve
	case v.kind == KindUninit && o.kind == KindUninit:
		return true
	}
	return false
}

// compare returns -1, 0 or 1 for two numeric values. Ordering any other
// kind is a compiler bug in the module, not a script condition.
func compare(a, b Value) int {
	if !a.IsNumeric() || !b.IsNumeric() {
		panic(fmt.Sprintf("ordering operator applied to %s and %s", a.kind, b.kind))
	}
	if a.kind == KindFloat || b.kind == KindFloat {
		af, bf := a.Float(), b.Float()
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		}
		return 0
	}
	switch {
	case a.num < b.num:
		return -1
	case a.num > b.num:
		return 1
	}
	return 0
}

// Apply evaluates a binary operator over two values. Integer pairs stay
// integral, mixed int/float promotes to float, and + concatenates
// strings. An unsupported kind pair is a fatal condition.
func Apply(op BinOp, a, b Value) Value {
	switch op {
	case BinAdd:
		if a.IsString() && b.IsString() {
			return FromString(a.Str() + b.Str())
		}
		return arith(op, a, b)
	case BinSub, BinMul, BinDiv:
		return arith(op, a, b)
	case BinRem:
		// Remainder is a bitwise mask, not modulo. Existing compiled
		// scripts depend on this when stepping fixed-point deltas.
		if a.IsNumeric() && b.IsNumeric() && a.kind != KindFloat && b.kind != KindFloat {
			return FromInt(a.num & b.num)
		}
		panic(fmt.Sprintf("operator %% applied to %s and %s", a.kind, b.kind))
	case BinLt:
		return FromBool(compare(a, b) < 0)
	case BinLe:
		return FromBool(compare(a, b) <= 0)
	case BinGt:
		return FromBool(compare(a, b) > 0)
	case BinGe:
		return FromBool(compare(a, b) >= 0)
	case BinAnd:
		return FromBool(a.Truthy() && b.Truthy())
	case BinOr:
		return FromBool(a.Truthy() || b.Truthy())
	}
	panic(fmt.Sprintf("unknown binary operator %d", uint8(op)))
}

func arith(op BinOp, a, b Value) Value {
	if !a.IsNumeric() || !b.IsNumeric() {
		panic(fmt.Sprintf("operator %s applied to %s and %s", op, a.kind, b.kind))
	}
	if a.kind == KindFloat || b.kind == KindFloat {
		af, bf := a.Float(), b.Float()
		switch op {
		case BinAdd:
			return FromFloat(af + bf)
		case BinSub:
			return FromFloat(af - bf)
		case BinMul:
			return FromFloat(af * bf)
		case BinDiv:
			return FromFloat(af / bf)
		}
	}
	ai, bi := a.num, b.num
	switch op {
	case BinAdd:
		return FromInt(ai + bi)
	case BinSub:
		return FromInt(ai - bi)
	case BinMul:
		return FromInt(ai * bi)
	case BinDiv:
		if bi == 0 {
			panic("integer division by zero")
		}
		return FromInt(ai / bi)
	}
	panic(fmt.Sprintf("unknown arithmetic operator %d", uint8(op)))
}

// Neg negates a numeric value in place.
func (v *Value) Neg() {
	switch v.kind {
	case KindInt, KindDelta:
		v.num = -v.num
	case KindFloat:
		v.flt = -v.flt
	default:
		panic(fmt.Sprintf("unary - applied to %s value", v.kind))
	}
}

// Invert flips a boolean value in place.
func (v *Value) Invert() {
	if v.kind != KindBool {
		panic(fmt.Sprintf("unary ! applied to %s value", v.kind))
	}
	v.num = 1 - v.num
}

// Add1 increments an integer value in place; delta is the step (+1/-1).
func (v *Value) Add1(delta int64) {
	if v.kind != KindInt {
		panic(fmt.Sprintf("++/-- applied to %s value", v.kind))
	}
	v.num += delta
}

// ToDelta retags an integer value as a relative offset in place.
func (v *Value) ToDelta() {
	if v.kind != KindInt {
		panic(fmt.Sprintf("delta marker applied to %s value", v.kind))
	}
	v.kind = KindDelta
}
