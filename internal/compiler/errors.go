// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package compiler

import (
	"errors"
	"fmt"

	"nickandperla.net/plural/internal/scanner"
	"nickandperla.net/plural/internal/token"
)

// nearLen caps the length of the source snippet attached to an Error.
const nearLen = 16

// Error is a compile failure. Scanner errors are reported as an Error
// wrapping the original *scanner.SyntaxError.
type Error struct {
	Msg  string
	Pos  token.Pos
	Near string // source text starting at Pos, truncated
	Err  error
}

func (e *Error) Error() string {
	if e.Near != "" {
		return fmt.Sprintf("%s at (%d, %d) near '%s'", e.Msg, e.Pos.Line, e.Pos.Column, e.Near)
	}
	return fmt.Sprintf("%s at (%d, %d)", e.Msg, e.Pos.Line, e.Pos.Column)
}

func (e *Error) Unwrap() error { return e.Err }

func snippet(source string, offset int) string {
	if offset < 0 || offset >= len(source) {
		return ""
	}
	rest := source[offset:]
	if len(rest) > nearLen {
		rest = rest[:nearLen]
	}
	return rest
}

func (p *parser) errorf(pos token.Pos, format string, args ...any) *Error {
	return &Error{
		Msg:  fmt.Sprintf(format, args...),
		Pos:  pos,
		Near: snippet(p.source, pos.Offset),
	}
}

// wrap converts a scanner failure into an *Error.
func (p *parser) wrap(err error) error {
	var se *scanner.SyntaxError
	if errors.As(err, &se) {
		return &Error{Msg: se.Msg, Pos: se.Pos, Near: snippet(p.source, se.Pos.Offset), Err: se}
	}
	return &Error{Msg: err.Error(), Pos: p.s.Pos(), Err: err}
}
