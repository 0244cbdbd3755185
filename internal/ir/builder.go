package ir

import (
	"github.com/cpsir/core/internal/cache"
	"github.com/cpsir/core/internal/diagnostic"
	coreerrors "github.com/cpsir/core/internal/errors"
	"github.com/cpsir/core/internal/position"
)

// Builder is the single entry point for constructing Defs in a World. Its
// constructors perform, where they apply: type check, constant folding,
// bottom propagation, canonicalization, and unification (spec §4.2); the
// order of these steps is stated on each constructor. Builder is
// not safe for concurrent use by multiple goroutines (spec §5); distinct
// Builders over distinct Arenas may run concurrently.
type Builder struct {
	arena *Arena
	sink  diagnostic.Sink

	// memoized common structural Defs, avoiding a bucket probe for the
	// values every program builds (primitive types and the unit type).
	primCache map[PrimKind]*Def
	unitType  *Def

	// AnalysisCache memoizes Scope results (see scope.New) keyed by
	// entry-set hash; CFG, Domtree, LoopTree and Schedule values are not
	// stored here and are recomputed on every call. It is scoped to this Builder's
	// Arena so gids from distinct Builders never collide in the same
	// cache (spec §4.4 "Analyses read the graph through a Scope view").
	AnalysisCache *cache.Analysis[any]
}

// Option configures a Builder at construction time.
type Option func(*Builder)

// WithSink attaches a diagnostic sink that receives construction-error and
// invariant-violation records (spec §6). Defaults to a no-op sink.
func WithSink(sink diagnostic.Sink) Option {
	return func(b *Builder) { b.sink = sink }
}

// NewBuilder creates a Builder over a fresh, empty Arena.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		arena:         NewArena(),
		sink:          diagnostic.NoopSink(),
		primCache:     make(map[PrimKind]*Def),
		AnalysisCache: cache.New[any](128),
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Arena exposes the underlying store, for analyses and Cleanup that need to
// walk every live Def.
func (b *Builder) Arena() *Arena { return b.arena }

func (b *Builder) reportConstruction(code, message string) {
	b.sink.Emit(*diagnostic.ConstructionError(emptySpan, code, message))
}

var emptySpan = position.Span{}

// ----------------------------------------------------------------------
// Types
// ----------------------------------------------------------------------

// PrimType returns the canonical structural Def for a primitive type.
func (b *Builder) PrimType(p PrimKind) *Def {
	if d, ok := b.primCache[p]; ok {
		return d
	}
	d := b.arena.intern(&Def{Kind: KindPrimType, Prim: p})
	b.primCache[p] = d
	return d
}

// Sigma builds a structural (unnamed) product type from field types.
func (b *Builder) Sigma(fields []*Def) *Def {
	cand := &Def{Kind: KindSigma}
	setOps(cand, fields)
	return b.arena.intern(cand)
}

// Unit is the empty structural sigma (spec §3: "A distinguished unit type
// is the empty sigma").
func (b *Builder) Unit() *Def {
	if b.unitType != nil {
		return b.unitType
	}
	b.unitType = b.Sigma(nil)
	return b.unitType
}

// NamedSigma creates a nominal (identity-typed) product type of the given
// arity, permitting recursive field types (spec §3, §4.2). Fields must be
// set via SetSigmaField and the type sealed via FinalizeSigma before use.
func (b *Builder) NamedSigma(arity int, name string) *Def {
	d := &Def{Kind: KindSigma, Name: name}
	d.Ops = make([]*Def, arity)
	return b.arena.insertNominal(d)
}

// SetSigmaField assigns the i-th field type of a not-yet-finalized named
// sigma, registering the use-list edge (spec §4.3).
func (b *Builder) SetSigmaField(sigma *Def, i int, fieldType *Def) {
	setOp(sigma, i, fieldType)
}

// FinalizeSigma seals a named sigma after every field has been set (spec
// §3 invariant 1: "for nominals, finalization asserts all ops set").
func (b *Builder) FinalizeSigma(sigma *Def) error {
	for i, op := range sigma.Ops {
		if op == nil {
			err := coreerrors.UnfinalizedOperand(sigma.String(), i)
			b.reportConstruction(err.Code, err.Message)
			return err
		}
	}
	sigma.Finalized = true
	return nil
}

// Pi builds the structural function/continuation type whose domain is the
// given parameter types (spec §3, §6 "pi(ops)").
func (b *Builder) Pi(domain []*Def) *Def {
	domainSigma := b.Sigma(domain)
	cand := &Def{Kind: KindPi}
	setOps(cand, []*Def{domainSigma})
	return b.arena.intern(cand)
}

// PiDomain returns a pi type's parameter types.
func (b *Builder) PiDomain(pi *Def) []*Def {
	return pi.Ops[0].Ops
}

// Bottom returns the canonical per-type Bottom value (spec §3 "A
// 'bottom'/'top' per type encodes unreachable/unknown").
func (b *Builder) Bottom(t *Def) *Def {
	cand := &Def{Kind: KindBottom, Type: t}
	return b.arena.intern(cand)
}

// Top returns the canonical per-type Top value.
func (b *Builder) Top(t *Def) *Def {
	cand := &Def{Kind: KindTop, Type: t}
	return b.arena.intern(cand)
}

// ----------------------------------------------------------------------
// Literals
// ----------------------------------------------------------------------

// ConstBool returns the literal boolean value.
func (b *Builder) ConstBool(v bool) *Def {
	var iv uint64
	if v {
		iv = 1
	}
	return b.ConstInt(PrimBool, iv)
}

// ConstInt returns the literal integer value, masked to p's width (spec §4.2
// literal folding "preserves width").
func (b *Builder) ConstInt(p PrimKind, bits uint64) *Def {
	cand := &Def{Kind: KindLiteral, Type: b.PrimType(p), Prim: p, IntVal: bits & p.mask()}
	return b.arena.intern(cand)
}

// ConstFloat returns the literal float value at width p.
func (b *Builder) ConstFloat(p PrimKind, v float64) *Def {
	if p == PrimF16 {
		v = truncFloat16(v)
	} else if p == PrimF32 {
		v = float64(float32(v))
	}
	cand := &Def{Kind: KindLiteral, Type: b.PrimType(p), Prim: p, FloatVal: v}
	return b.arena.intern(cand)
}

// ----------------------------------------------------------------------
// Arithmetic and relational ops
// ----------------------------------------------------------------------

// ArithOp builds a pure arithmetic/bitwise op (spec §4.2): type check, then
// bottom propagation, then commutative canonicalization, then constant
// folding, then unification.
func (b *Builder) ArithOp(kind ArithOpKind, a, bOperand *Def) (*Def, error) {
	if a.Type != bOperand.Type {
		err := coreerrors.TypeMismatch(kind.String(), a.Type, bOperand.Type)
		b.reportConstruction(err.Code, err.Message)
		return nil, err
	}
	t := a.Type
	if !t.isPrim() {
		err := coreerrors.ForbiddenCombination(kind.String(), "operand is not a primitive value")
		b.reportConstruction(err.Code, err.Message)
		return nil, err
	}
	if kind.isFloatOnly() != t.Prim.IsFloat() {
		err := coreerrors.ForbiddenCombination(kind.String(), "op/operand width class mismatch (float vs integer)")
		b.reportConstruction(err.Code, err.Message)
		return nil, err
	}

	if a.IsBottom() || bOperand.IsBottom() {
		return b.Bottom(t), nil
	}

	lhs, rhs := a, bOperand
	if kind.commutative() && canonicalOrderSwapped(lhs, rhs) {
		lhs, rhs = rhs, lhs
	}

	if lhs.IsLiteral() && rhs.IsLiteral() {
		if t.Prim.IsFloat() {
			return b.ConstFloat(t.Prim, foldFloatArith(kind, lhs.FloatVal, rhs.FloatVal)), nil
		}
		result, divByZero := foldArith(kind, t.Prim, lhs.IntVal, rhs.IntVal)
		if divByZero {
			return b.Bottom(t), nil
		}
		return b.ConstInt(t.Prim, result), nil
	}

	cand := &Def{Kind: KindArith, Type: t, ArithOp: kind}
	setOps(cand, []*Def{lhs, rhs})
	return b.arena.intern(cand), nil
}

// canonicalOrderSwapped reports whether lhs/rhs should be swapped so a
// literal sorts left, else the lower-gid operand sorts left (spec §4.2
// "Canonicalization: commutative ops sort operands (literal first, else by
// a stable order, e.g. gid)").
func canonicalOrderSwapped(lhs, rhs *Def) bool {
	if rhs.IsLiteral() && !lhs.IsLiteral() {
		return true
	}
	if lhs.IsLiteral() == rhs.IsLiteral() && lhs.Gid > rhs.Gid {
		return true
	}
	return false
}

// RelOp builds a relational op, result typed bool. Gt/Ge requests are
// normalized to their Lt/Le form with operands swapped before the rest of
// the pipeline runs (spec §4.2).
func (b *Builder) RelOp(kind RelOpKind, a, bOperand *Def) (*Def, error) {
	norm, swap := normalizeGtGe(kind)
	if swap {
		a, bOperand = bOperand, a
	}
	kind = norm

	if a.Type != bOperand.Type {
		err := coreerrors.TypeMismatch(kind.String(), a.Type, bOperand.Type)
		b.reportConstruction(err.Code, err.Message)
		return nil, err
	}
	t := a.Type
	if !t.isPrim() {
		err := coreerrors.ForbiddenCombination(kind.String(), "operand is not a primitive value")
		b.reportConstruction(err.Code, err.Message)
		return nil, err
	}
	boolType := b.PrimType(PrimBool)

	if a.IsBottom() || bOperand.IsBottom() {
		return b.Bottom(boolType), nil
	}

	lhs, rhs := a, bOperand
	if kind.commutative() && canonicalOrderSwapped(lhs, rhs) {
		lhs, rhs = rhs, lhs
	}

	if lhs.IsLiteral() && rhs.IsLiteral() {
		var res bool
		if isFloatRel(kind) || (t.Prim.IsFloat() && (kind == Eq || kind == Ne)) {
			res = foldFloatRel(kind, lhs.FloatVal, rhs.FloatVal)
		} else {
			res = foldRel(kind, t.Prim, lhs.IntVal, rhs.IntVal)
		}
		return b.ConstBool(res), nil
	}

	cand := &Def{Kind: KindRel, Type: boolType, RelOp: kind}
	setOps(cand, []*Def{lhs, rhs})
	return b.arena.intern(cand), nil
}

func (d *Def) isPrim() bool { return d != nil && d.Kind == KindPrimType }

// ----------------------------------------------------------------------
// Aggregates
// ----------------------------------------------------------------------

// Tuple builds an aggregate value, bottoming if any element is Bottom
// (spec §4.2 "if any arg is Bottom, result is Bottom of the aggregate's
// type").
func (b *Builder) Tuple(args []*Def) *Def {
	types := make([]*Def, len(args))
	bottom := false
	for i, a := range args {
		types[i] = a.Type
		if a.IsBottom() {
			bottom = true
		}
	}
	aggType := b.Sigma(types)
	if bottom {
		return b.Bottom(aggType)
	}
	cand := &Def{Kind: KindTuple, Type: aggType}
	setOps(cand, args)
	return b.arena.intern(cand)
}

// Extract reads field i of agg. A literal Tuple operand returns the field
// directly without interning an Extract node (spec §8 invariant 6).
func (b *Builder) Extract(agg *Def, i int) (*Def, error) {
	fieldType, err := b.sigmaFieldType(agg.Type, i, "extract")
	if err != nil {
		return nil, err
	}
	if agg.IsBottom() {
		return b.Bottom(fieldType), nil
	}
	if agg.Kind == KindTuple {
		return agg.Ops[i], nil
	}
	cand := &Def{Kind: KindExtract, Type: fieldType, Index: i}
	setOps(cand, []*Def{agg})
	return b.arena.intern(cand), nil
}

// Insert replaces field i of agg with v, returning a fresh Tuple directly
// when agg is already a literal Tuple (spec §8 invariant 7).
func (b *Builder) Insert(agg *Def, i int, v *Def) (*Def, error) {
	fieldType, err := b.sigmaFieldType(agg.Type, i, "insert")
	if err != nil {
		return nil, err
	}
	if v.Type != fieldType {
		cerr := coreerrors.TypeMismatch("insert", fieldType, v.Type)
		b.reportConstruction(cerr.Code, cerr.Message)
		return nil, cerr
	}
	if agg.IsBottom() {
		return b.Bottom(agg.Type), nil
	}
	if agg.Kind == KindTuple {
		fields := append([]*Def(nil), agg.Ops...)
		fields[i] = v
		return b.Tuple(fields), nil
	}
	cand := &Def{Kind: KindInsert, Type: agg.Type, Index: i}
	setOps(cand, []*Def{agg, v})
	return b.arena.intern(cand), nil
}

func (b *Builder) sigmaFieldType(sigma *Def, i int, op string) (*Def, error) {
	if sigma == nil || sigma.Kind != KindSigma {
		err := coreerrors.ForbiddenCombination(op, "operand is not an aggregate type")
		b.reportConstruction(err.Code, err.Message)
		return nil, err
	}
	if i < 0 || i >= len(sigma.Ops) {
		err := coreerrors.IndexOutOfRange(op, i, len(sigma.Ops))
		b.reportConstruction(err.Code, err.Message)
		return nil, err
	}
	return sigma.Ops[i], nil
}

// Select implements spec §4.2/§8 invariant 5: literal cond picks a branch
// directly; identical branches collapse; Bottom in cond or either branch
// bottoms the result.
func (b *Builder) Select(cond, a, bOperand *Def) (*Def, error) {
	if cond.Type != b.PrimType(PrimBool) {
		err := coreerrors.TypeMismatch("select", b.PrimType(PrimBool), cond.Type)
		b.reportConstruction(err.Code, err.Message)
		return nil, err
	}
	if a.Type != bOperand.Type {
		err := coreerrors.TypeMismatch("select", a.Type, bOperand.Type)
		b.reportConstruction(err.Code, err.Message)
		return nil, err
	}

	if cond.IsLiteral() {
		if cond.IntVal != 0 {
			return a, nil
		}
		return bOperand, nil
	}
	if a == bOperand {
		return a, nil
	}
	if cond.IsBottom() || a.IsBottom() || bOperand.IsBottom() {
		return b.Bottom(a.Type), nil
	}

	cand := &Def{Kind: KindSelect, Type: a.Type}
	setOps(cand, []*Def{cond, a, bOperand})
	return b.arena.intern(cand), nil
}

// ----------------------------------------------------------------------
// Conversions
// ----------------------------------------------------------------------

// ConvOp builds a conversion of from to primitive type to (spec §4.2:
// "Bottom propagates. Literal folding is allowed but not required.").
func (b *Builder) ConvOp(kind ConvOpKind, from *Def, to *Def) (*Def, error) {
	if !to.isPrim() {
		err := coreerrors.ForbiddenCombination(kind.String(), "target is not a primitive type")
		b.reportConstruction(err.Code, err.Message)
		return nil, err
	}
	if from.IsBottom() {
		return b.Bottom(to), nil
	}
	if from.IsLiteral() {
		if folded, ok := foldConv(kind, from.Prim, to.Prim, from.IntVal, from.FloatVal); ok {
			if to.Prim.IsFloat() {
				return b.ConstFloat(to.Prim, folded.f), nil
			}
			return b.ConstInt(to.Prim, folded.i), nil
		}
	}

	cand := &Def{Kind: KindConvert, Type: to, ConvOp: kind}
	setOps(cand, []*Def{from})
	return b.arena.intern(cand), nil
}

// ----------------------------------------------------------------------
// Continuations
// ----------------------------------------------------------------------

// Lambda creates a nominal continuation of the given pi type, materializing
// one Param Def per domain field (spec §4.2 "lambda(pi) creates a nominal
// Lambda with Params materialized for each element of the domain").
func (b *Builder) Lambda(pi *Def, name string) *Def {
	domain := b.PiDomain(pi)
	lam := &Def{Kind: KindLambda, Type: pi, Name: name}
	lam.Debug.Name = name
	b.arena.insertNominal(lam)

	lam.Params = make([]*Def, len(domain))
	for i, paramType := range domain {
		p := &Def{Kind: KindParam, Type: paramType, Owner: lam, Index: i}
		b.arena.insertNominal(p)
		lam.Params[i] = p
	}
	return lam
}

// Param returns lambda's i-th parameter (spec §6 "param(lambda,i)").
func (b *Builder) Param(lambda *Def, i int) (*Def, error) {
	if lambda.Kind != KindLambda || i < 0 || i >= len(lambda.Params) {
		err := coreerrors.IndexOutOfRange("param", i, len(lambda.Params))
		b.reportConstruction(err.Code, err.Message)
		return nil, err
	}
	return lambda.Params[i], nil
}

// Jump finalizes lam as an unconditional call: lam.ops = [callee, args...]
// (spec §4.2/§6).
func (b *Builder) Jump(lam *Def, callee *Def, args []*Def) error {
	if lam.Kind != KindLambda {
		err := coreerrors.ForbiddenCombination("jump", "target of jump is not a lambda")
		b.reportConstruction(err.Code, err.Message)
		return err
	}
	want := b.PiDomain(callee.Type)
	if len(want) != len(args) {
		err := coreerrors.ArityMismatch("jump", len(want), len(args))
		b.reportConstruction(err.Code, err.Message)
		return err
	}
	ops := make([]*Def, 0, 1+len(args))
	ops = append(ops, callee)
	ops = append(ops, args...)
	setOps(lam, ops)
	lam.Finalized = true
	return nil
}

// Reconstruct builds a fresh structural Def carrying prototype's kind,
// type, and extra fields but newOps as operands. Used by cfg_simplify's
// single-level continuation fusion to rebuild a pure op under parameter
// substitution (spec §4.7): the prototype already passed the full
// construction pipeline once, and substitution only replaces Param leaves,
// so re-interning the rebuilt shape is sufficient without re-running
// folding. Nominal prototypes (Lambdas, named Sigmas, Params) are returned
// unchanged, since their identity does not derive from their operands.
func (b *Builder) Reconstruct(prototype *Def, newOps []*Def) *Def {
	if prototype.Nominal {
		return prototype
	}
	cand := &Def{
		Kind: prototype.Kind, Type: prototype.Type, Prim: prototype.Prim,
		IntVal: prototype.IntVal, FloatVal: prototype.FloatVal,
		ArithOp: prototype.ArithOp, RelOp: prototype.RelOp, ConvOp: prototype.ConvOp,
		Name: prototype.Name, Index: prototype.Index,
	}
	setOps(cand, newOps)
	return b.arena.intern(cand)
}

// Branch finalizes lam as a two-way conditional jump, lowered to a Select
// over the taken/not-taken continuations followed by a zero-argument jump
// (spec §6 "branch(lam, cond, t, f)").
func (b *Builder) Branch(lam *Def, cond, t, f *Def) error {
	callee, err := b.Select(cond, t, f)
	if err != nil {
		return err
	}
	return b.Jump(lam, callee, nil)
}
