// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package token defines plural-form token kinds and the operator table.
package token

import (
	"fmt"
	"strings"
)

// Kind identifies the category of a scanned token.
type Kind int

const (
	EOF Kind = iota

	NUMBER           // 42
	IDENT            // n, plural, $n
	END_OF_STATEMENT // ;
	ASSIGN           // =

	// Operators
	OPEN_BRACKET  // (
	CLOSE_BRACKET // )
	MUL           // *
	DIV           // /
	MOD           // %
	ADD           // +
	SUB           // -
	LT            // <
	LE            // <=
	GT            // >
	GE            // >=
	EQ            // ==
	NE            // !=
	AND           // &&
	OR            // ||
	TERNARY       // ?
	TERNARY_SEP   // :
)

var kindNames = [...]string{
	EOF:              "EOF",
	NUMBER:           "NUMBER",
	IDENT:            "IDENT",
	END_OF_STATEMENT: "END_OF_STATEMENT",
	ASSIGN:           "ASSIGN",
	OPEN_BRACKET:     "OPEN_BRACKET",
	CLOSE_BRACKET:    "CLOSE_BRACKET",
	MUL:              "MUL",
	DIV:              "DIV",
	MOD:              "MOD",
	ADD:              "ADD",
	SUB:              "SUB",
	LT:               "LT",
	LE:               "LE",
	GT:               "GT",
	GE:               "GE",
	EQ:               "EQ",
	NE:               "NE",
	AND:              "AND",
	OR:               "OR",
	TERNARY:          "TERNARY",
	TERNARY_SEP:      "TERNARY_SEP",
}

// String returns the name of the kind.
func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Symbol returns the source text of a fixed-spelling kind, or "" for
// NUMBER, IDENT and EOF.
func (k Kind) Symbol() string {
	for sym, kind := range doubleSymbols {
		if kind == k {
			return sym
		}
	}
	for sym, kind := range singleSymbols {
		if kind == k {
			return string(sym)
		}
	}
	return ""
}

// IsOperator returns true if the kind has an entry in the operator table.
func (k Kind) IsOperator() bool {
	_, ok := operators[k]
	return ok
}

// Operator precedence levels. Lower binds tighter.
const (
	PrecBracket        = 1
	PrecMultiplicative = 3
	PrecAdditive       = 4
	PrecRelational     = 6
	PrecEquality       = 7
	PrecLogicalAnd     = 11
	PrecLogicalOr      = 12
	PrecTernarySep     = 13
	PrecTernary        = 14
)

// Info is the static metadata of an operator kind.
type Info struct {
	Precedence int
	RightAssoc bool
}

// operators is built once and never mutated.
//
// ? and : form the loosest tier together. The separator sits one step
// tighter so that an incoming : reduces the then-branch but never the ?
// it pairs with.
var operators = map[Kind]Info{
	OPEN_BRACKET:  {Precedence: PrecBracket},
	CLOSE_BRACKET: {Precedence: PrecBracket},
	MUL:           {Precedence: PrecMultiplicative},
	DIV:           {Precedence: PrecMultiplicative},
	MOD:           {Precedence: PrecMultiplicative},
	ADD:           {Precedence: PrecAdditive},
	SUB:           {Precedence: PrecAdditive},
	LT:            {Precedence: PrecRelational},
	LE:            {Precedence: PrecRelational},
	GT:            {Precedence: PrecRelational},
	GE:            {Precedence: PrecRelational},
	EQ:            {Precedence: PrecEquality},
	NE:            {Precedence: PrecEquality},
	AND:           {Precedence: PrecLogicalAnd},
	OR:            {Precedence: PrecLogicalOr},
	TERNARY_SEP:   {Precedence: PrecTernarySep},
	TERNARY:       {Precedence: PrecTernary},
}

// Lookup returns the operator metadata for k.
func Lookup(k Kind) (Info, bool) {
	info, ok := operators[k]
	return info, ok
}

// Two-character symbols must be matched before their one-character prefixes.
var doubleSymbols = map[string]Kind{
	"==": EQ,
	"!=": NE,
	">=": GE,
	"<=": LE,
	"&&": AND,
	"||": OR,
}

var singleSymbols = map[rune]Kind{
	'=': ASSIGN,
	';': END_OF_STATEMENT,
	'(': OPEN_BRACKET,
	')': CLOSE_BRACKET,
	'*': MUL,
	'/': DIV,
	'%': MOD,
	'+': ADD,
	'-': SUB,
	'<': LT,
	'>': GT,
	'?': TERNARY,
	':': TERNARY_SEP,
}

// LookupDouble returns the kind spelled by the two runes a and b.
func LookupDouble(a, b rune) (Kind, bool) {
	k, ok := doubleSymbols[string([]rune{a, b})]
	return k, ok
}

// LookupSingle returns the kind spelled by r alone.
func LookupSingle(r rune) (Kind, bool) {
	k, ok := singleSymbols[r]
	return k, ok
}

// StartsDouble returns true if r is the first rune of some two-character
// symbol.
func StartsDouble(r rune) bool {
	for sym := range doubleSymbols {
		if rune(sym[0]) == r {
			return true
		}
	}
	return false
}

// Sigil is the optional variable prefix accepted in identifiers.
const Sigil = '$'

// Pos is a location in source text.
type Pos struct {
	Offset int // byte offset, 0-based
	Line   int // 1-based
	Column int // 1-based
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Token is a single scanned lexeme.
type Token struct {
	Kind   Kind
	Lexeme string // exact source text
	Value  int64  // NUMBER only
	Pos    Pos
}

// Name returns the identifier name with any sigil removed, so that $n and n
// name the same variable.
func (t Token) Name() string {
	return strings.TrimPrefix(t.Lexeme, string(Sigil))
}

func (t Token) String() string {
	return fmt.Sprintf("%s %q at %s", t.Kind, t.Lexeme, t.Pos)
}
