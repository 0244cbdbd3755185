// Package errors provides the IR core's error taxonomy: construction errors,
// invariant violations, and analysis precondition errors (spec §7). Algebraic
// bottoming is never represented as an error here -- it is a Bottom value.
package errors

import (
	"fmt"
	"runtime"
)

// Category classifies a core error per the taxonomy in spec §7.
type Category string

const (
	// CategoryConstruction covers type/arity mismatches and forbidden
	// op/type combinations raised by Builder constructors.
	CategoryConstruction Category = "CONSTRUCTION"
	// CategoryInvariant covers use-list/operand desync and structural
	// duplicates observed after insert -- treated as a bug.
	CategoryInvariant Category = "INVARIANT"
	// CategoryPrecondition covers analyses invoked on a non-well-formed
	// Scope, e.g. an unreached entry.
	CategoryPrecondition Category = "PRECONDITION"
)

// CoreError is the standardized error shape used throughout the core.
type CoreError struct {
	Category Category
	Code     string
	Message  string
	Context  map[string]any
	Caller   string
}

func (e *CoreError) Error() string {
	return fmt.Sprintf("[%s:%s] %s (caller: %s)", e.Category, e.Code, e.Message, e.Caller)
}

// New creates a CoreError, recording the immediate caller for diagnosis.
func New(category Category, code, message string, context map[string]any) *CoreError {
	pc, _, _, ok := runtime.Caller(1)
	caller := "unknown"
	if ok {
		if fn := runtime.FuncForPC(pc); fn != nil {
			caller = fn.Name()
		}
	}

	return &CoreError{
		Category: category,
		Code:     code,
		Message:  message,
		Context:  context,
		Caller:   caller,
	}
}

// Construction-error constructors.

func TypeMismatch(op string, want, got any) *CoreError {
	return New(CategoryConstruction, "TYPE_MISMATCH",
		fmt.Sprintf("%s: expected type %v, got %v", op, want, got),
		map[string]any{"op": op, "want": want, "got": got})
}

func ArityMismatch(op string, want, got int) *CoreError {
	return New(CategoryConstruction, "ARITY_MISMATCH",
		fmt.Sprintf("%s: expected %d operands, got %d", op, want, got),
		map[string]any{"op": op, "want": want, "got": got})
}

func ForbiddenCombination(op string, detail string) *CoreError {
	return New(CategoryConstruction, "FORBIDDEN_COMBINATION",
		fmt.Sprintf("%s: %s", op, detail),
		map[string]any{"op": op, "detail": detail})
}

func IndexOutOfRange(op string, index, length int) *CoreError {
	return New(CategoryConstruction, "INDEX_OUT_OF_RANGE",
		fmt.Sprintf("%s: index %d out of range for length %d", op, index, length),
		map[string]any{"op": op, "index": index, "length": length})
}

// Invariant-violation constructors.

func UseListDesync(def string, index int) *CoreError {
	return New(CategoryInvariant, "USE_LIST_DESYNC",
		fmt.Sprintf("operand %d of %s is not registered in its operand's use list", index, def),
		map[string]any{"def": def, "index": index})
}

func StructuralDuplicate(key string) *CoreError {
	return New(CategoryInvariant, "STRUCTURAL_DUPLICATE",
		fmt.Sprintf("structural key %s observed after insert: interner invariant broken", key),
		map[string]any{"key": key})
}

func UnfinalizedOperand(def string, index int) *CoreError {
	return New(CategoryInvariant, "UNFINALIZED_OPERAND",
		fmt.Sprintf("operand %d of %s is nil after finalization", index, def),
		map[string]any{"def": def, "index": index})
}

// Precondition-error constructors.

func UnreachedEntry(entry string) *CoreError {
	return New(CategoryPrecondition, "SCOPE_UNREACHED_ENTRY",
		fmt.Sprintf("entry %s is not reachable within its own scope", entry),
		map[string]any{"entry": entry})
}

func EmptyScope() *CoreError {
	return New(CategoryPrecondition, "SCOPE_EMPTY",
		"analysis requires at least one entry continuation", nil)
}
