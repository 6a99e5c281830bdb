// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package compiler turns plural-form source into an ast.Program using a
// two-stack operator-precedence parser.
package compiler

import (
	"fmt"
	"io"

	"github.com/edwingeng/deque"

	"nickandperla.net/plural/internal/ast"
	"nickandperla.net/plural/internal/scanner"
	"nickandperla.net/plural/internal/token"
)

// Option configures compilation.
type Option func(*parser)

// WithRightAssociativeTernary groups chained ternaries the way C and GNU
// gettext do: a ? b : c ? d : e is a ? b : (c ? d : e). Without it the
// legacy left-associative grouping (a ? b : c) ? d : e is used.
func WithRightAssociativeTernary() Option {
	return func(p *parser) { p.rightTernary = true }
}

// Compile parses source into a program. Compilation is all-or-nothing:
// on error the returned program is nil.
func Compile(source string, opts ...Option) (*ast.Program, error) {
	p := &parser{
		s:      scanner.NewFromString(source),
		source: source,
	}
	for _, opt := range opts {
		opt(p)
	}
	prog, err := p.parseProgram()
	if err != nil {
		return nil, err
	}
	return prog, nil
}

// CompileReader reads all of r and compiles it.
func CompileReader(r io.Reader, opts ...Option) (*ast.Program, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read source: %w", err)
	}
	return Compile(string(data), opts...)
}

// pending is an operator stack entry. floor is the operand stack height
// at the innermost enclosing open bracket; for an open bracket it is the
// height at the moment the bracket was pushed.
type pending struct {
	tok   token.Token
	floor int
}

type parser struct {
	s            *scanner.Scanner
	source       string
	rightTernary bool

	operands  deque.Deque // ast.Node
	operators deque.Deque // pending
}

func (p *parser) parseProgram() (*ast.Program, error) {
	prog := &ast.Program{}
	for p.s.HasTokens() {
		decl, err := p.parseDeclaration()
		if err != nil {
			return nil, err
		}
		prog.Declarations = append(prog.Declarations, decl)
	}
	return prog, nil
}

func (p *parser) parseDeclaration() (ast.Declaration, error) {
	ident, err := p.s.Next()
	if err != nil {
		return ast.Declaration{}, p.wrap(err)
	}
	if ident.Kind != token.IDENT {
		return ast.Declaration{}, p.errorf(ident.Pos, "expected identifier")
	}

	assign, err := p.s.Next()
	if err != nil {
		return ast.Declaration{}, p.wrap(err)
	}
	if assign.Kind != token.ASSIGN {
		return ast.Declaration{}, p.errorf(assign.Pos, "expected assignment")
	}

	expr, err := p.parseExpression()
	if err != nil {
		return ast.Declaration{}, err
	}

	end, err := p.s.Next()
	if err != nil {
		return ast.Declaration{}, p.wrap(err)
	}
	if end.Kind != token.END_OF_STATEMENT {
		return ast.Declaration{}, p.errorf(end.Pos, "end of statement missing")
	}

	return ast.Declaration{
		Target: &ast.Identifier{Name: ident.Name()},
		Expr:   expr,
	}, nil
}

// parseExpression runs the shunting yard until a token that cannot
// continue the expression. That token is left unconsumed.
func (p *parser) parseExpression() (ast.Node, error) {
	p.operands = deque.NewDeque()
	p.operators = deque.NewDeque()

	var end token.Token
loop:
	for {
		tok, err := p.s.Peek()
		if err != nil {
			return nil, p.wrap(err)
		}

		switch tok.Kind {
		case token.NUMBER:
			p.operands.PushBack(ast.Node(&ast.Literal{Value: tok.Value}))
		case token.IDENT:
			p.operands.PushBack(ast.Node(&ast.Identifier{Name: tok.Name()}))
		case token.OPEN_BRACKET:
			p.operators.PushBack(pending{tok: tok, floor: p.operands.Len()})
		case token.CLOSE_BRACKET:
			if err := p.closeBracket(tok); err != nil {
				return nil, err
			}
		case token.ASSIGN:
			return nil, p.errorf(tok.Pos, "assignment not allowed here")
		default:
			if !tok.Kind.IsOperator() {
				end = tok
				break loop
			}
			if err := p.operator(tok); err != nil {
				return nil, err
			}
		}
		p.s.Next()
	}

	for p.operators.Len() > 0 {
		top := p.top()
		if top.tok.Kind == token.OPEN_BRACKET {
			return nil, p.errorf(top.tok.Pos, "missing close bracket")
		}
		if err := p.reduce(); err != nil {
			return nil, err
		}
	}

	switch p.operands.Len() {
	case 0:
		return nil, p.errorf(end.Pos, "expected expression")
	case 1:
		return p.operands.PopBack().(ast.Node), nil
	default:
		return nil, p.errorf(end.Pos, "expected operator between operands")
	}
}

func (p *parser) top() pending {
	return p.operators.Back().(pending)
}

// floor returns the operand stack height at the innermost open bracket.
func (p *parser) floor() int {
	if p.operators.Len() == 0 {
		return 0
	}
	return p.top().floor
}

// operator handles an incoming binary operator, ? or :.
func (p *parser) operator(tok token.Token) error {
	info, _ := token.Lookup(tok.Kind)
	for p.operators.Len() > 0 {
		top := p.top()
		if top.tok.Kind == token.OPEN_BRACKET {
			break
		}
		// A bare ? stays put until the : that completes it arrives.
		if top.tok.Kind == token.TERNARY {
			break
		}
		if p.rightTernary && tok.Kind == token.TERNARY && top.tok.Kind == token.TERNARY_SEP {
			break
		}
		topInfo, _ := token.Lookup(top.tok.Kind)
		if topInfo.RightAssoc || topInfo.Precedence > info.Precedence {
			break
		}
		if err := p.reduce(); err != nil {
			return err
		}
	}
	p.operators.PushBack(pending{tok: tok, floor: p.floor()})
	return nil
}

// closeBracket reduces back to the matching barrier. A bracket must hold
// exactly one operand, so (2) is accepted and () is not.
func (p *parser) closeBracket(tok token.Token) error {
	for {
		if p.operators.Len() == 0 {
			return p.errorf(tok.Pos, "expected open bracket")
		}
		top := p.top()
		if top.tok.Kind == token.OPEN_BRACKET {
			p.operators.PopBack()
			switch inside := p.operands.Len() - top.floor; {
			case inside == 0:
				return p.errorf(top.tok.Pos, "empty bracket not allowed")
			case inside > 1:
				return p.errorf(tok.Pos, "expected operator between operands")
			}
			return nil
		}
		if err := p.reduce(); err != nil {
			return err
		}
	}
}

// reduce pops one operator and folds its operands into a BinaryOp.
//
// A : reduction also pops the ? beneath it and takes three operands,
// producing BinaryOp(?, cond, BinaryOp(:, then, else)).
func (p *parser) reduce() error {
	op := p.operators.PopBack().(pending)

	switch op.tok.Kind {
	case token.TERNARY:
		// ? with no matching :
		return p.errorf(op.tok.Pos, "incorrectly defined ternary")

	case token.TERNARY_SEP:
		if p.operators.Len() == 0 || p.top().tok.Kind != token.TERNARY {
			return p.errorf(op.tok.Pos, "expected ternary operator")
		}
		p.operators.PopBack()
		if p.operands.Len()-op.floor < 3 {
			return p.errorf(op.tok.Pos, "incorrectly defined ternary")
		}
		els := p.operands.PopBack().(ast.Node)
		then := p.operands.PopBack().(ast.Node)
		cond := p.operands.PopBack().(ast.Node)
		p.operands.PushBack(ast.Node(ast.NewTernary(cond, then, els)))
		return nil
	}

	if p.operands.Len()-op.floor < 2 {
		return p.errorf(op.tok.Pos, "expected two operands")
	}
	right := p.operands.PopBack().(ast.Node)
	left := p.operands.PopBack().(ast.Node)
	p.operands.PushBack(ast.Node(&ast.BinaryOp{Op: op.tok.Kind, Left: left, Right: right}))
	return nil
}
