// Package diagnostic implements the core's "debug sink for optional
// diagnostic streams" (spec §6): a structured record of construction
// errors, invariant violations, precondition errors, and cleanup/opt pass
// summaries, adapted from the teacher's internal/diagnostic package (level/
// category/builder/engine shape kept, front-end-specific categories and
// factories replaced with the ones this spec's error taxonomy needs).
package diagnostic

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cpsir/core/internal/position"
)

// Level represents the severity of a diagnostic record.
type Level int

const (
	LevelError Level = iota
	LevelWarning
	LevelInfo
	LevelHint
)

func (l Level) String() string {
	switch l {
	case LevelError:
		return "error"
	case LevelWarning:
		return "warning"
	case LevelInfo:
		return "info"
	case LevelHint:
		return "hint"
	default:
		return "unknown"
	}
}

// Category classifies a diagnostic per the core's error taxonomy (spec §7),
// plus a Pass category for cleanup/opt summaries.
type Category int

const (
	CategoryConstruction Category = iota
	CategoryInvariant
	CategoryPrecondition
	CategoryPass
)

func (c Category) String() string {
	switch c {
	case CategoryConstruction:
		return "construction"
	case CategoryInvariant:
		return "invariant"
	case CategoryPrecondition:
		return "precondition"
	case CategoryPass:
		return "pass"
	default:
		return "unknown"
	}
}

// Diagnostic is a single structured record.
type Diagnostic struct {
	Code     string
	Title    string
	Message  string
	Fields   map[string]any
	Span     position.Span
	Level    Level
	Category Category
}

// Builder provides a fluent API for constructing a Diagnostic, matching the
// teacher's DiagnosticBuilder shape.
type Builder struct {
	d *Diagnostic
}

// New starts a diagnostic builder.
func New() *Builder {
	return &Builder{d: &Diagnostic{Fields: make(map[string]any)}}
}

func (b *Builder) Error() *Builder       { b.d.Level = LevelError; return b }
func (b *Builder) Warning() *Builder     { b.d.Level = LevelWarning; return b }
func (b *Builder) Info() *Builder        { b.d.Level = LevelInfo; return b }
func (b *Builder) Hint() *Builder        { b.d.Level = LevelHint; return b }
func (b *Builder) Construction() *Builder { b.d.Category = CategoryConstruction; return b }
func (b *Builder) Invariant() *Builder   { b.d.Category = CategoryInvariant; return b }
func (b *Builder) Precondition() *Builder { b.d.Category = CategoryPrecondition; return b }
func (b *Builder) Pass() *Builder        { b.d.Category = CategoryPass; return b }

func (b *Builder) Code(code string) *Builder       { b.d.Code = code; return b }
func (b *Builder) Title(title string) *Builder     { b.d.Title = title; return b }
func (b *Builder) Message(message string) *Builder { b.d.Message = message; return b }
func (b *Builder) Span(span position.Span) *Builder {
	b.d.Span = span
	return b
}

func (b *Builder) Field(key string, value any) *Builder {
	b.d.Fields[key] = value
	return b
}

func (b *Builder) Build() *Diagnostic { return b.d }

// Engine collects diagnostics emitted while building/rewriting/analyzing a
// World, in the teacher's DiagnosticEngine idiom.
type Engine struct {
	records []Diagnostic
	config  Config
	sink    Sink
}

// Config controls which diagnostics are retained.
type Config struct {
	IgnoreCategories []Category
	MaxErrors        int
	WarningsAsErrors bool
}

// NewEngine creates an Engine that also forwards every record to sink
// (use NoopSink() if no external sink is wanted).
func NewEngine(config Config, sink Sink) *Engine {
	if sink == nil {
		sink = NoopSink()
	}
	return &Engine{config: config, sink: sink}
}

// Record appends d (after config filtering) and forwards it to the sink.
// Once MaxErrors error records are retained, a single truncation record is
// appended and every later record is dropped.
func (e *Engine) Record(d *Diagnostic) {
	if e.shouldIgnore(d) {
		return
	}
	if e.config.MaxErrors > 0 && len(e.Errors()) > e.config.MaxErrors {
		return // the truncation record is already in place
	}
	if e.config.WarningsAsErrors && d.Level == LevelWarning {
		d.Level = LevelError
	}
	e.records = append(e.records, *d)
	e.sink.Emit(*d)

	if e.config.MaxErrors > 0 && len(e.Errors()) >= e.config.MaxErrors {
		truncation := New().Error().Pass().
			Code("E0001").Title("too many errors").
			Message(fmt.Sprintf("stopping after %d errors", e.config.MaxErrors)).Build()
		e.records = append(e.records, *truncation)
	}
}

func (e *Engine) shouldIgnore(d *Diagnostic) bool {
	for _, c := range e.config.IgnoreCategories {
		if d.Category == c {
			return true
		}
	}
	return false
}

// Records returns every retained diagnostic.
func (e *Engine) Records() []Diagnostic { return e.records }

// Errors returns only error-level records.
func (e *Engine) Errors() []Diagnostic { return e.filter(LevelError) }

// Warnings returns only warning-level records.
func (e *Engine) Warnings() []Diagnostic { return e.filter(LevelWarning) }

func (e *Engine) filter(lvl Level) []Diagnostic {
	out := make([]Diagnostic, 0)
	for _, d := range e.records {
		if d.Level == lvl {
			out = append(out, d)
		}
	}
	return out
}

// HasErrors reports whether any error-level record was retained.
func (e *Engine) HasErrors() bool { return len(e.Errors()) > 0 }

// Clear removes all retained records.
func (e *Engine) Clear() { e.records = e.records[:0] }

// Sort orders records by span then severity, matching the teacher's
// SortDiagnostics.
func (e *Engine) Sort() {
	sort.Slice(e.records, func(i, j int) bool {
		a, b := e.records[i], e.records[j]
		if a.Span.Start.Filename != b.Span.Start.Filename {
			return a.Span.Start.Filename < b.Span.Start.Filename
		}
		if a.Span.Start.Line != b.Span.Start.Line {
			return a.Span.Start.Line < b.Span.Start.Line
		}
		if a.Span.Start.Column != b.Span.Start.Column {
			return a.Span.Start.Column < b.Span.Start.Column
		}
		return a.Level < b.Level
	})
}

// Format renders every retained record followed by a one-line summary.
func (e *Engine) Format() string {
	if len(e.records) == 0 {
		return ""
	}
	e.Sort()

	var out strings.Builder
	for i, d := range e.records {
		if i > 0 {
			out.WriteString("\n")
		}
		out.WriteString(formatOne(&d))
	}
	out.WriteString(e.summary())
	return out.String()
}

func formatOne(d *Diagnostic) string {
	var out strings.Builder
	if d.Span.Start.Filename != "" {
		fmt.Fprintf(&out, "%s: %s[%s]: %s\n", d.Span.Start.String(), d.Level, d.Code, d.Title)
	} else {
		fmt.Fprintf(&out, "%s[%s]: %s\n", d.Level, d.Code, d.Title)
	}
	if d.Message != "" {
		fmt.Fprintf(&out, "  %s\n", d.Message)
	}
	return out.String()
}

func (e *Engine) summary() string {
	errs, warns := len(e.Errors()), len(e.Warnings())
	if errs == 0 && warns == 0 {
		return "\nno issues recorded.\n"
	}
	var parts []string
	if errs > 0 {
		parts = append(parts, fmt.Sprintf("%d error(s)", errs))
	}
	if warns > 0 {
		parts = append(parts, fmt.Sprintf("%d warning(s)", warns))
	}
	return fmt.Sprintf("\n%s.\n", strings.Join(parts, ", "))
}

// Common diagnostic factories for the core's own error taxonomy (spec §7).

// ConstructionError reports a type/arity mismatch or forbidden combination
// raised by a Builder constructor.
func ConstructionError(span position.Span, code, message string) *Diagnostic {
	return New().Error().Construction().Code(code).Title("construction error").
		Message(message).Span(span).Build()
}

// InvariantViolation reports a use-list desync or structural-uniqueness
// break discovered during a rewrite.
func InvariantViolation(code, message string) *Diagnostic {
	return New().Error().Invariant().Code(code).Title("invariant violation").
		Message(message).Build()
}

// PreconditionError reports an analysis invoked on a non-well-formed Scope.
func PreconditionError(code, message string) *Diagnostic {
	return New().Error().Precondition().Code(code).Title("precondition error").
		Message(message).Build()
}

// PassSummary reports how many Defs/Lambdas a cleanup/opt pass removed.
func PassSummary(pass string, defsRemoved, lambdasRemoved int) *Diagnostic {
	return New().Info().Pass().Code("PASS_SUMMARY").Title(pass).
		Message(fmt.Sprintf("%s removed %d defs, %d lambdas", pass, defsRemoved, lambdasRemoved)).
		Field("defs_removed", defsRemoved).
		Field("lambdas_removed", lambdasRemoved).
		Build()
}
