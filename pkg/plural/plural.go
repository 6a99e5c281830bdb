// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package plural compiles gettext Plural-Forms expressions and evaluates
// them for integer counts.
//
//	p, err := plural.Compile("nplurals=2; plural=(n != 1);")
//	idx, err := p.Select(5) // 1
//
// Chained ternaries use the legacy left-associative grouping by default,
// so a ? b : c ? d : e reads as (a ? b : c) ? d : e. WithGNUTernary
// selects the C grouping used by GNU gettext.
package plural

import (
	"errors"
	"fmt"
	"math"

	"nickandperla.net/plural/internal/ast"
	"nickandperla.net/plural/internal/compiler"
	"nickandperla.net/plural/internal/eval"
)

var (
	// ErrNoPlural is returned by Select when the program never assigns plural.
	ErrNoPlural = errors.New("plural: program does not declare plural")
	// ErrNoPluralForms is returned when a header has no Plural-Forms entry.
	ErrNoPluralForms = errors.New("plural: no Plural-Forms header")
	// ErrUnknownLocale is returned when no rule is known for a locale.
	ErrUnknownLocale = errors.New("plural: unknown locale")
	// ErrClosed is returned by a Catalog after Close.
	ErrClosed = errors.New("plural: catalog closed")
)

// Names bound by Plural-Forms programs.
const (
	PluralVar   = "plural"
	NPluralsVar = "nplurals"
)

// Program is a compiled plural-form program. It is immutable and safe for
// concurrent use.
type Program struct {
	source string
	prog   *ast.Program
	gnu    bool
}

// Compile compiles source. Of the options only WithGNUTernary has an
// effect here.
func Compile(source string, opts ...Option) (*Program, error) {
	cfg := newConfig(opts)
	return compile(source, cfg.gnu)
}

func compile(source string, gnu bool) (*Program, error) {
	var copts []compiler.Option
	if gnu {
		copts = append(copts, compiler.WithRightAssociativeTernary())
	}
	prog, err := compiler.Compile(source, copts...)
	if err != nil {
		return nil, err
	}
	return &Program{source: source, prog: prog, gnu: gnu}, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(source string, opts ...Option) *Program {
	p, err := Compile(source, opts...)
	if err != nil {
		panic(fmt.Sprintf("plural: Compile(%q): %v", source, err))
	}
	return p
}

// Evaluate runs the program for n and returns every binding, including n.
func (p *Program) Evaluate(n int64) (map[string]int64, error) {
	return eval.Evaluate(p.prog, n)
}

// maxForm bounds form indexes so they fit an int on every platform.
const maxForm = math.MaxInt32

// Select returns the message form index for n. An index outside
// [0, nplurals) falls back to 0, as gettext does. Without nplurals the
// index is bounded by maxForm.
func (p *Program) Select(n int64) (int, error) {
	vars, err := p.Evaluate(n)
	if err != nil {
		return 0, err
	}
	idx, ok := vars[PluralVar]
	if !ok {
		return 0, ErrNoPlural
	}
	limit := int64(maxForm)
	if nplurals, ok := vars[NPluralsVar]; ok && nplurals < limit {
		limit = nplurals
	}
	if idx < 0 || idx >= limit {
		return 0, nil
	}
	return int(idx), nil
}

// NPlurals returns nplurals when it is declared as a constant.
func (p *Program) NPlurals() (int, bool) {
	d, ok := p.prog.Find(NPluralsVar)
	if !ok {
		return 0, false
	}
	lit, ok := d.Expr.(*ast.Literal)
	if !ok {
		return 0, false
	}
	return int(lit.Value), true
}

// Names returns the declared names in declaration order.
func (p *Program) Names() []string {
	return p.prog.Names()
}

// GNU reports whether the program was compiled with GNU ternary grouping.
func (p *Program) GNU() bool { return p.gnu }

// Source returns the text the program was compiled from.
func (p *Program) Source() string { return p.source }

// String returns the fully parenthesised form of the program.
func (p *Program) String() string { return p.prog.String() }
