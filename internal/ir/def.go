// Package ir implements the core Def universe described in spec §3-4: a
// hash-consed program graph in which types, literals, primitive operations,
// aggregates, continuations, and parameters are all Defs. The graph is built
// through Builder (see builder.go), which performs type checking, constant
// folding, bottom propagation, canonicalization, and unification on every
// constructor call.
package ir

import (
	"fmt"

	"github.com/cpsir/core/internal/position"
)

// Kind tags the variant a Def belongs to. Defs are a tagged union rather than
// a class hierarchy: shared fields live on Def itself, kind-specific payload
// is carried in the fields that variant uses (see the per-field comments).
type Kind uint8

const (
	KindInvalid Kind = iota
	KindPrimType
	KindSigma   // structural or nominal product type ("sigma")
	KindPi      // function/continuation type
	KindBottom  // per-type Bottom value
	KindTop     // per-type Top value
	KindLiteral // literal value of a primitive type
	KindArith   // arithmetic/bitwise op
	KindRel     // relational op, result type bool
	KindTuple
	KindExtract
	KindInsert
	KindSelect
	KindConvert
	KindLambda // nominal continuation
	KindParam  // positional input of a Lambda
)

func (k Kind) String() string {
	switch k {
	case KindPrimType:
		return "prim_type"
	case KindSigma:
		return "sigma"
	case KindPi:
		return "pi"
	case KindBottom:
		return "bottom"
	case KindTop:
		return "top"
	case KindLiteral:
		return "literal"
	case KindArith:
		return "arith"
	case KindRel:
		return "rel"
	case KindTuple:
		return "tuple"
	case KindExtract:
		return "extract"
	case KindInsert:
		return "insert"
	case KindSelect:
		return "select"
	case KindConvert:
		return "convert"
	case KindLambda:
		return "lambda"
	case KindParam:
		return "param"
	default:
		return "invalid"
	}
}

// useEdge is a single back-edge (user, operand index) as described in spec §3.
type useEdge struct {
	User  *Def
	Index int
}

// DebugInfo is optional metadata a front-end may attach to a Def: a name for
// readability and a source span for diagnostics. The core never produces
// these itself (no parser is in scope); it only carries what it was given.
type DebugInfo struct {
	Name string
	Span position.Span
}

// Def is the universal node: every program entity -- types, literals,
// operations, continuations, and parameters -- is a Def (spec §3).
type Def struct {
	Gid  uint64
	Kind Kind
	Type *Def // absent (nil) for top-level kinds with no type of their own
	Ops  []*Def

	Nominal   bool // identity-typed (Lambda, named Sigma) vs structural (hash-consed)
	Finalized bool // nominals start unfinalized until all ops are set and sealed

	Debug DebugInfo

	uses map[useEdge]struct{}

	// --- variant payload -----------------------------------------------
	Prim PrimKind // KindPrimType, KindLiteral (width/signedness of the type)

	IntVal   uint64  // KindLiteral: bit pattern for bool/int literals
	FloatVal float64 // KindLiteral: payload for float literals

	ArithOp ArithOpKind // KindArith
	RelOp   RelOpKind   // KindRel
	ConvOp  ConvOpKind  // KindConvert

	Name  string // KindSigma (nominal): type name
	Index int    // KindExtract/KindInsert: field index; KindParam: param index

	Owner    *Def // KindParam: the owning Lambda
	External bool // KindLambda: true if this is a program entry/exit

	Params []*Def // KindLambda: this lambda's Param defs, one per domain field
}

// Uses returns a snapshot of the Def's back-edges. Callers that intend to
// mutate the graph while iterating must snapshot first (spec §9 "Use lists
// as reverse index"); this method always returns a fresh slice so the
// caller's snapshot is safe by construction.
func (d *Def) Uses() []useEdge {
	out := make([]useEdge, 0, len(d.uses))
	for e := range d.uses {
		out = append(out, e)
	}
	return out
}

// NumUses reports the number of occurrences of d as an operand anywhere in
// the graph.
func (d *Def) NumUses() int { return len(d.uses) }

// IsBottom reports whether d is the per-type Bottom value.
func (d *Def) IsBottom() bool { return d.Kind == KindBottom }

// IsLiteral reports whether d is a literal value.
func (d *Def) IsLiteral() bool { return d.Kind == KindLiteral }

// IsContinuation reports whether d is a Lambda (continuation).
func (d *Def) IsContinuation() bool { return d.Kind == KindLambda }

// String renders a short debugging form: "<kind>#<gid>", followed by
// "(<name>)" when the Def carries a debug name.
func (d *Def) String() string {
	if d == nil {
		return "<nil-def>"
	}
	if d.Debug.Name != "" {
		return fmt.Sprintf("%s#%d(%s)", d.Kind, d.Gid, d.Debug.Name)
	}
	return fmt.Sprintf("%s#%d", d.Kind, d.Gid)
}

func (e useEdge) String() string {
	return fmt.Sprintf("(%s, %d)", e.User, e.Index)
}
