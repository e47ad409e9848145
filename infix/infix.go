// Package infix is a calculator grammar: numbers, variables, assignment and
// the arithmetic operators with the usual precedence. Parsing builds a
// Program that is evaluated separately.
package infix

import (
	"strconv"
	"sync"

	"github.com/cockroachdb/errors"

	ez "github.com/tef/ezpeg"
)

var InfixGrammar = build()

func build() *ez.Grammar {
	g, _ := ez.BuildGrammar(func(g *ez.Grammar) {
		g.Start = "program"

		ws := ez.ZeroOrMore(ez.AnyOf(" \t"))
		wsn := ez.ZeroOrMore(ez.AnyOf(" \t\r\n"))
		sep := ez.Sequence(ws, ez.AnyOf(";\n"), wsn)

		appendStatement := ez.SkippableAction(func(c *ez.Context) bool {
			x := c.Pop().(Expr)
			prog := c.Peek().(Program)
			c.Poke(append(prog[:len(prog):len(prog)], x))
			return true
		})

		g.Define("program", ez.Sequence(
			wsn,
			ez.Push(Program(nil)),
			g.Call("statement"),
			appendStatement,
			ez.ZeroOrMore(ez.Sequence(sep, g.Call("statement"), appendStatement)),
			ez.ZeroOrMore(sep),
			ws,
		))

		g.Define("statement", ez.Choice(
			g.Call("assignment"),
			g.Call("expression"),
		))

		// right associative: a = b = 1
		g.Define("assignment", ez.Sequence(
			g.Call("name"),
			ws,
			ez.Literal("="),
			ez.TestNot(ez.Literal("=")),
			ws,
			g.Call("statement"),
			ez.SkippableAction(func(c *ez.Context) bool {
				x := c.Pop().(Expr)
				name := c.Pop().(Var)
				c.Push(Assign{Name: string(name), X: x})
				return true
			}),
		))

		g.Define("expression", ez.Sequence(
			g.Call("term"),
			ez.ZeroOrMore(ez.Sequence(
				ws,
				ez.Strings("+", "-"),
				pushOperator,
				ws,
				g.Call("term"),
				foldBinary,
			)),
		))

		g.Define("term", ez.Sequence(
			g.Call("unary"),
			ez.ZeroOrMore(ez.Sequence(
				ws,
				ez.Strings("*", "/", "%"),
				pushOperator,
				ws,
				g.Call("unary"),
				foldBinary,
			)),
		))

		g.Define("unary", ez.Choice(
			ez.Sequence(
				ez.Literal("-"),
				ws,
				g.Call("unary"),
				ez.SkippableAction(func(c *ez.Context) bool {
					c.Poke(Neg{X: c.Peek().(Expr)})
					return true
				}),
			),
			g.Call("power"),
		))

		// right associative, and binds tighter than unary minus on its left
		g.Define("power", ez.Sequence(
			g.Call("primary"),
			ez.Optional(ez.Sequence(
				ws,
				ez.Literal("^"),
				pushOperator,
				ws,
				g.Call("unary"),
				foldBinary,
			)),
		))

		g.Define("primary", ez.Choice(
			g.Call("number"),
			g.Call("name"),
			ez.Sequence(
				ez.Literal("("),
				wsn,
				g.Call("statement"),
				wsn,
				ez.Literal(")"),
			),
		))

		g.Define("number", ez.Sequence(
			ez.Regex(`[0-9]+(?:\.[0-9]+)?(?:[eE][+-]?[0-9]+)?`),
			ez.SkippableAction(func(c *ez.Context) bool {
				f, err := strconv.ParseFloat(c.Match(), 64)
				if err != nil {
					return false
				}
				c.Push(Number(f))
				return true
			}),
		))

		letter := ez.Choice(ez.CharRange('a', 'z'), ez.CharRange('A', 'Z'), ez.Literal("_"))
		g.Define("name", ez.Sequence(
			ez.Sequence(letter, ez.ZeroOrMore(ez.Choice(letter, ez.CharRange('0', '9')))),
			ez.SkippableAction(func(c *ez.Context) bool {
				c.Push(Var(c.Match()))
				return true
			}),
		))
	})
	return g
}

var pushOperator = ez.SkippableAction(func(c *ez.Context) bool {
	c.Push(c.Match())
	return true
})

// foldBinary replaces left, operator and right on the stack with one node.
var foldBinary = ez.SkippableAction(func(c *ez.Context) bool {
	r := c.Pop().(Expr)
	op := c.Pop().(string)
	l := c.Pop().(Expr)
	c.Push(Binary{Op: op, L: l, R: r})
	return true
})

var runner = sync.OnceValues(func() (*ez.Runner, error) {
	return InfixGrammar.Runner()
})

// Runner returns a runner for programs, with opts applied.
func Runner(opts ...ez.Option) (*ez.Runner, error) {
	return InfixGrammar.Runner(opts...)
}

// Value returns the program built by a parse of the infix grammar.
func Value(res *ez.Result) (Program, error) {
	if err := res.Failure(); err != nil {
		return nil, err
	}
	if len(res.Values) != 1 {
		return nil, errors.AssertionFailedf("program left %d values", len(res.Values))
	}
	return res.Values[0].(Program), nil
}

func Parse(text string) (Program, error) {
	r, err := runner()
	if err != nil {
		return nil, err
	}
	res, err := r.Parse(text)
	if err != nil {
		return nil, err
	}
	return Value(res)
}

// Eval parses text and evaluates it in env, returning the value of every
// statement.
func Eval(text string, env Env) ([]float64, error) {
	p, err := Parse(text)
	if err != nil {
		return nil, err
	}
	return p.Eval(env)
}
