// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package ast defines the plural-form syntax tree.
package ast

import (
	"strconv"
	"strings"

	"nickandperla.net/plural/internal/token"
)

// Node is an expression node. The set of implementations is closed:
// *Literal, *Identifier and *BinaryOp.
type Node interface {
	// String returns a fully parenthesised rendering of the node.
	String() string
	node()
}

// Literal is an integer constant.
type Literal struct {
	Value int64
}

func (*Literal) node() {}

func (l *Literal) String() string { return strconv.FormatInt(l.Value, 10) }

// Identifier is a variable reference, stored without its sigil.
type Identifier struct {
	Name string
}

func (*Identifier) node() {}

func (i *Identifier) String() string { return i.Name }

// BinaryOp applies Op to Left and Right.
//
// A ternary is encoded as BinaryOp{TERNARY, cond, BinaryOp{TERNARY_SEP, then, else}}.
type BinaryOp struct {
	Op    token.Kind
	Left  Node
	Right Node
}

func (*BinaryOp) node() {}

func (b *BinaryOp) String() string {
	var sb strings.Builder
	sb.WriteString("(")
	sb.WriteString(b.Left.String())
	if b.Op == token.TERNARY {
		if sep, ok := b.Right.(*BinaryOp); ok && sep.Op == token.TERNARY_SEP {
			sb.WriteString(" ? ")
			sb.WriteString(sep.Left.String())
			sb.WriteString(" : ")
			sb.WriteString(sep.Right.String())
			sb.WriteString(")")
			return sb.String()
		}
	}
	sb.WriteString(" ")
	sb.WriteString(b.Op.Symbol())
	sb.WriteString(" ")
	sb.WriteString(b.Right.String())
	sb.WriteString(")")
	return sb.String()
}

// NewTernary builds the ternary encoding described on BinaryOp.
func NewTernary(cond, then, els Node) *BinaryOp {
	return &BinaryOp{
		Op:   token.TERNARY,
		Left: cond,
		Right: &BinaryOp{
			Op:    token.TERNARY_SEP,
			Left:  then,
			Right: els,
		},
	}
}

// Ternary splits a ternary node into its parts. ok is false when b is not
// a well-formed ternary.
func (b *BinaryOp) Ternary() (cond, then, els Node, ok bool) {
	if b.Op != token.TERNARY {
		return nil, nil, nil, false
	}
	sep, isOp := b.Right.(*BinaryOp)
	if !isOp || sep.Op != token.TERNARY_SEP {
		return nil, nil, nil, false
	}
	return b.Left, sep.Left, sep.Right, true
}

// Declaration binds Target to the value of Expr.
type Declaration struct {
	Target *Identifier
	Expr   Node
}

func (d Declaration) String() string {
	return d.Target.Name + " = " + d.Expr.String() + ";"
}

// Program is an ordered list of declarations. It is not modified after
// compilation.
type Program struct {
	Declarations []Declaration
}

func (p *Program) String() string {
	parts := make([]string, len(p.Declarations))
	for i, d := range p.Declarations {
		parts[i] = d.String()
	}
	return strings.Join(parts, " ")
}

// Names returns the declared names in declaration order. A name declared
// twice appears once, at its first position.
func (p *Program) Names() []string {
	seen := make(map[string]bool, len(p.Declarations))
	var names []string
	for _, d := range p.Declarations {
		if seen[d.Target.Name] {
			continue
		}
		seen[d.Target.Name] = true
		names = append(names, d.Target.Name)
	}
	return names
}

// Find returns the last declaration of name.
func (p *Program) Find(name string) (Declaration, bool) {
	for i := len(p.Declarations) - 1; i >= 0; i-- {
		if p.Declarations[i].Target.Name == name {
			return p.Declarations[i], true
		}
	}
	return Declaration{}, false
}
