package resolver

import (
	"fmt"

	"github.com/barracuda-lang/barracuda/lang/token"
)

// ErrorKind discriminates the semantic error kinds of spec section 7.
type ErrorKind uint8

const (
	UnknownExtern ErrorKind = iota
	DuplicateSymbol
	UnknownSymbol
	TypeMismatch
	QualifierViolation
	ArgumentCountMismatch
	InvalidDatatype
	InvalidLiteral
)

func (k ErrorKind) String() string {
	switch k {
	case UnknownExtern:
		return "unknown-extern"
	case DuplicateSymbol:
		return "duplicate-symbol"
	case UnknownSymbol:
		return "unknown-symbol"
	case TypeMismatch:
		return "type-mismatch"
	case QualifierViolation:
		return "qualifier-violation"
	case ArgumentCountMismatch:
		return "argument-count-mismatch"
	case InvalidDatatype:
		return "invalid-datatype"
	case InvalidLiteral:
		return "invalid-literal"
	default:
		return "unknown-error"
	}
}

// Error is a fatal semantic-analysis error with a source position and kind.
type Error struct {
	Pos  token.Pos
	Kind ErrorKind
	Msg  string
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s: %s", e.Pos, e.Kind, e.Msg) }
