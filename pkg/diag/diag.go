// Package diag provides the coordinate-tagged error type shared by
// pkg/resolve and pkg/lower, formatted as "<coord>: <message>" the way the
// original badaclang implementation's SymbolError hierarchy does.
package diag

import (
	"fmt"

	"github.com/badaclang/badaclang/pkg/ast"
)

// Kind classifies an Error so callers can branch on it with errors.As
// without string-matching messages.
type Kind int

const (
	// UndeclaredIdentifier is raised by Resolve when an ID, FuncCall, or
	// StructRef names a symbol absent from every enclosing scope.
	UndeclaredIdentifier Kind = iota
	// Redefinition is raised by Resolve when a Decl reuses a name already
	// present in its immediately enclosing scope.
	Redefinition
	// UnsupportedConstruct is raised by Resolve (for Typedef declarations,
	// which badaclang rejects outright) and by Lower (for any AST shape
	// outside the supported subset).
	UnsupportedConstruct
)

func (k Kind) String() string {
	switch k {
	case UndeclaredIdentifier:
		return "undeclared identifier"
	case Redefinition:
		return "redefinition"
	case UnsupportedConstruct:
		return "unsupported construct"
	default:
		return "error"
	}
}

// Error is a diagnostic tied to the source coordinate of the node that
// triggered it.
type Error struct {
	Coord ast.Coord
	Kind  Kind
	Msg   string
}

func (e *Error) Error() string {
	return e.Coord.String() + ": " + e.Msg
}

// Undeclaredf builds an UndeclaredIdentifier Error at the given node.
func Undeclaredf(n ast.Node, format string, args ...any) *Error {
	return newf(n, UndeclaredIdentifier, format, args...)
}

// Redefinitionf builds a Redefinition Error at the given node.
func Redefinitionf(n ast.Node, format string, args ...any) *Error {
	return newf(n, Redefinition, format, args...)
}

// Unsupportedf builds an UnsupportedConstruct Error at the given node.
func Unsupportedf(n ast.Node, format string, args ...any) *Error {
	return newf(n, UnsupportedConstruct, format, args...)
}

func newf(n ast.Node, kind Kind, format string, args ...any) *Error {
	return &Error{Coord: n.Coordinate(), Kind: kind, Msg: fmt.Sprintf(format, args...)}
}
