package eval

import (
	"fmt"
	"strings"

	"nickandperla.net/plural/internal/ast"
	"nickandperla.net/plural/internal/token"
)

// DefaultInput is the name the input count is bound to.
const DefaultInput = "n"

// Error is an evaluation failure. No bindings are returned alongside it.
type Error struct {
	Msg  string
	Node ast.Node // offending node, may be nil
}

func (e *Error) Error() string {
	if e.Node != nil {
		return fmt.Sprintf("evaluation error: %s in %s", e.Msg, e.Node)
	}
	return "evaluation error: " + e.Msg
}

// Evaluator runs programs against an input count. It holds no per-call
// state and may be shared between goroutines.
type Evaluator struct {
	input string
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithInput sets the name the input is bound to. A leading sigil is
// ignored, so "$n" and "n" are the same name.
func WithInput(name string) Option {
	return func(e *Evaluator) {
		name = strings.TrimPrefix(name, string(token.Sigil))
		if name != "" {
			e.input = name
		}
	}
}

// New creates a new Evaluator with the given options.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{input: DefaultInput}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var defaultEvaluator = New()

// Evaluate runs prog with the default Evaluator.
func Evaluate(prog *ast.Program, n int64) (map[string]int64, error) {
	return defaultEvaluator.Evaluate(prog, n)
}

// Evaluate binds the input to n, then evaluates each declaration in order,
// binding its target before the next one runs. The result holds the input
// and every declared name.
func (e *Evaluator) Evaluate(prog *ast.Program, n int64) (map[string]int64, error) {
	if prog == nil {
		return nil, &Error{Msg: "nil program"}
	}
	env := NewEnv()
	env.Set(e.input, n)
	for _, decl := range prog.Declarations {
		v, err := e.solve(env, decl.Expr)
		if err != nil {
			return nil, err
		}
		env.Set(decl.Target.Name, v)
	}
	return env.Map(), nil
}

// Solve evaluates a single expression against env.
func (e *Evaluator) Solve(env *Env, node ast.Node) (int64, error) {
	return e.solve(env, node)
}

func (e *Evaluator) solve(env *Env, node ast.Node) (int64, error) {
	switch n := node.(type) {
	case *ast.Literal:
		return n.Value, nil
	case *ast.Identifier:
		v, ok := env.Get(n.Name)
		if !ok {
			return 0, &Error{Msg: fmt.Sprintf("identifier '%s' not declared", n.Name)}
		}
		return v, nil
	case *ast.BinaryOp:
		if n.Op == token.TERNARY {
			return e.ternary(env, n)
		}
		return e.binary(env, n)
	case nil:
		return 0, &Error{Msg: "missing expression"}
	default:
		return 0, &Error{Msg: fmt.Sprintf("unsupported node %T", node)}
	}
}

// ternary evaluates only the branch selected by the condition.
func (e *Evaluator) ternary(env *Env, n *ast.BinaryOp) (int64, error) {
	cond, then, els, ok := n.Ternary()
	if !ok {
		return 0, &Error{Msg: "malformed ternary", Node: n}
	}
	c, err := e.solve(env, cond)
	if err != nil {
		return 0, err
	}
	if truth(c) {
		return e.solve(env, then)
	}
	return e.solve(env, els)
}

func (e *Evaluator) binary(env *Env, n *ast.BinaryOp) (int64, error) {
	left, err := e.solve(env, n.Left)
	if err != nil {
		return 0, err
	}
	right, err := e.solve(env, n.Right)
	if err != nil {
		return 0, err
	}

	switch n.Op {
	case token.ADD:
		return left + right, nil
	case token.SUB:
		return left - right, nil
	case token.MUL:
		return left * right, nil
	case token.DIV:
		if right == 0 {
			return 0, &Error{Msg: "division by zero", Node: n}
		}
		return left / right, nil
	case token.MOD:
		if right == 0 {
			return 0, &Error{Msg: "modulus by zero", Node: n}
		}
		return left % right, nil
	case token.LT:
		return bool2int(left < right), nil
	case token.LE:
		return bool2int(left <= right), nil
	case token.GT:
		return bool2int(left > right), nil
	case token.GE:
		return bool2int(left >= right), nil
	case token.EQ:
		return bool2int(left == right), nil
	case token.NE:
		return bool2int(left != right), nil
	case token.AND:
		return bool2int(truth(left) && truth(right)), nil
	case token.OR:
		return bool2int(truth(left) || truth(right)), nil
	}
	return 0, &Error{Msg: fmt.Sprintf("unsupported operator '%s'", n.Op.Symbol()), Node: n}
}

// truth is the integer truthiness used by ?, && and ||: only positive
// values are true.
func truth(v int64) bool {
	return v > 0
}

func bool2int(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
