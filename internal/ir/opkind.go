package ir

// ArithOpKind enumerates the arithmetic/bitwise ops of spec §4.2.
type ArithOpKind uint8

const (
	ArithInvalid ArithOpKind = iota
	Add
	Sub
	Mul
	UDiv
	URem
	SDiv
	SRem
	FAdd
	FSub
	FMul
	FDiv
	FRem
	And
	Or
	Xor
)

// commutative reports whether this op kind is subject to the commutative
// canonicalization of spec §4.2 (literal-left, else smaller-gid-left).
func (k ArithOpKind) commutative() bool {
	switch k {
	case Add, Mul, And, Or, Xor:
		return true
	default:
		return false
	}
}

func (k ArithOpKind) String() string {
	names := map[ArithOpKind]string{
		Add: "add", Sub: "sub", Mul: "mul",
		UDiv: "udiv", URem: "urem", SDiv: "sdiv", SRem: "srem",
		FAdd: "fadd", FSub: "fsub", FMul: "fmul", FDiv: "fdiv", FRem: "frem",
		And: "and", Or: "or", Xor: "xor",
	}
	if s, ok := names[k]; ok {
		return s
	}
	return "invalid_arith"
}

// isFloatOnly reports whether k is only defined over float operands.
func (k ArithOpKind) isFloatOnly() bool {
	switch k {
	case FAdd, FSub, FMul, FDiv, FRem:
		return true
	default:
		return false
	}
}

// RelOpKind enumerates relational ops after gt/ge normalization to lt/le
// (spec §4.2): only Lt/Le (signed, unsigned, and float ordered/unordered
// variants) plus Eq/Ne survive as primitive kinds.
type RelOpKind uint8

const (
	RelInvalid RelOpKind = iota
	Eq
	Ne
	ULt
	ULe
	SLt
	SLe
	// Float ordered comparisons: false if either operand is NaN.
	FOLt
	FOLe
	// Float unordered comparisons: true if either operand is NaN.
	FULt
	FULe

	// Requested-only kinds: never stored on a Def. RelOp normalizes these
	// to their Lt/Le form with swapped operands before folding/building
	// (spec §4.2 "Normalize gt/ge to lt/le by swapping operands").
	UGt
	UGe
	SGt
	SGe
	FOGt
	FOGe
	FUGt
	FUGe
)

// normalizeGtGe rewrites a requested Gt/Ge kind into its Lt/Le form and
// reports whether the caller's operands must be swapped to match.
func normalizeGtGe(k RelOpKind) (normalized RelOpKind, swap bool) {
	switch k {
	case UGt:
		return ULt, true
	case UGe:
		return ULe, true
	case SGt:
		return SLt, true
	case SGe:
		return SLe, true
	case FOGt:
		return FOLt, true
	case FOGe:
		return FOLe, true
	case FUGt:
		return FULt, true
	case FUGe:
		return FULe, true
	default:
		return k, false
	}
}

func (k RelOpKind) commutative() bool {
	return k == Eq || k == Ne
}

func (k RelOpKind) String() string {
	names := map[RelOpKind]string{
		Eq: "eq", Ne: "ne", ULt: "ult", ULe: "ule", SLt: "slt", SLe: "sle",
		FOLt: "folt", FOLe: "fole", FULt: "fult", FULe: "fule",
	}
	if s, ok := names[k]; ok {
		return s
	}
	return "invalid_rel"
}

// swappedRel returns the kind of opposite strictness in the same family:
// each Lt kind maps to its Le counterpart and each Le kind to its Lt
// counterpart. Eq, Ne and every other kind are returned unchanged. Gt/Ge
// normalization is done by normalizeGtGe, not here.
func swappedRel(k RelOpKind) RelOpKind {
	switch k {
	case ULt:
		return ULe
	case ULe:
		return ULt
	case SLt:
		return SLe
	case SLe:
		return SLt
	case FOLt:
		return FOLe
	case FOLe:
		return FOLt
	case FULt:
		return FULe
	case FULe:
		return FULt
	default:
		return k
	}
}

// ConvOpKind enumerates the conversion kinds accepted by convop (spec §4.2).
type ConvOpKind uint8

const (
	ConvInvalid ConvOpKind = iota
	Bitcast               // same width, reinterpret bits
	ZExt                  // unsigned widen
	SExt                  // signed widen
	Trunc                 // narrow
	IToF                  // int to float
	FToI                  // float to int (truncating toward zero)
	FExt                  // float widen
	FTrunc                // float narrow
)

func (k ConvOpKind) String() string {
	names := map[ConvOpKind]string{
		Bitcast: "bitcast", ZExt: "zext", SExt: "sext", Trunc: "trunc",
		IToF: "itof", FToI: "ftoi", FExt: "fext", FTrunc: "ftrunc",
	}
	if s, ok := names[k]; ok {
		return s
	}
	return "invalid_conv"
}
