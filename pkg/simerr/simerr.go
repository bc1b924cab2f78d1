// Package simerr holds the error taxonomy shared by the netlist readers and
// the solvers. Every fallible operation returns a *Error carrying a Code, so
// callers branch on the code instead of on error text.
package simerr

import (
	"errors"
	"fmt"
	"strings"
)

type Code string

const (
	InvalidCircuit    Code = "INVALID_CIRCUIT"
	InvalidComponent  Code = "INVALID_COMPONENT"
	InvalidParameter  Code = "INVALID_PARAMETER"
	NoGround          Code = "NO_GROUND"
	FloatingNode      Code = "FLOATING_NODE" // explicit connectivity check only
	SingularMatrix    Code = "SINGULAR_MATRIX"
	ConvergenceFailed Code = "CONVERGENCE_FAILED"
	ParseError        Code = "PARSE_ERROR"
)

// Sentinels for errors.Is. Matching is by code only.
var (
	ErrInvalidCircuit    = &Error{Code: InvalidCircuit}
	ErrInvalidComponent  = &Error{Code: InvalidComponent}
	ErrInvalidParameter  = &Error{Code: InvalidParameter}
	ErrNoGround          = &Error{Code: NoGround}
	ErrFloatingNode      = &Error{Code: FloatingNode}
	ErrSingularMatrix    = &Error{Code: SingularMatrix}
	ErrConvergenceFailed = &Error{Code: ConvergenceFailed}
	ErrParse             = &Error{Code: ParseError}
)

type Error struct {
	Code        Code
	Message     string
	ComponentID string
	NodeID      string
	Err         error
}

func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap keeps err reachable through errors.Unwrap while reporting code.
func Wrap(code Code, err error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

func (e *Error) WithComponent(id string) *Error {
	c := *e
	c.ComponentID = id
	return &c
}

func (e *Error) WithNode(id string) *Error {
	c := *e
	c.NodeID = id
	return &c
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(string(e.Code))
	if e.Message != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Message)
	}

	var ctx []string
	if e.ComponentID != "" {
		ctx = append(ctx, "component="+e.ComponentID)
	}
	if e.NodeID != "" {
		ctx = append(ctx, "node="+e.NodeID)
	}
	if len(ctx) > 0 {
		sb.WriteString(" (")
		sb.WriteString(strings.Join(ctx, ", "))
		sb.WriteString(")")
	}

	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// CodeOf returns the code of the outermost *Error in err's chain, or "" if
// there is none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// As returns the outermost *Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}
