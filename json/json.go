// Package json is a JSON grammar that decodes documents into the values
// encoding/json produces for an any: map[string]any, []any, string, float64,
// bool and nil.
package json

import (
	"context"
	stdjson "encoding/json"
	"strconv"
	"sync"

	"github.com/cockroachdb/errors"

	ez "github.com/tef/ezpeg"
	"github.com/tef/ezpeg/input"
)

const numberPattern = `-?(?:0|[1-9][0-9]*)(?:\.[0-9]+)?(?:[eE][+-]?[0-9]+)?`

var JsonGrammar = build()

func build() *ez.Grammar {
	g, _ := ez.BuildGrammar(func(g *ez.Grammar) {
		g.Start = "document"

		ws := ez.ZeroOrMore(ez.AnyOf(" \t\r\n"))
		hex := ez.AnyOf("0123456789abcdefABCDEF")

		g.Define("document", ez.Sequence(
			ws,
			ez.Test(ez.Strings("{", "[")),
			g.Call("value"),
			ws,
		))

		g.Define("value", ez.Choice(
			g.Call("list"),
			g.Call("object"),
			g.Call("string"),
			g.Call("number"),
			ez.Sequence(ez.Literal("true"), ez.Push(true)),
			ez.Sequence(ez.Literal("false"), ez.Push(false)),
			ez.Sequence(ez.Literal("null"), ez.Push(nil)),
		))

		g.Define("list", ez.Sequence(
			ez.Literal("["),
			ws,
			ez.SkippableAction(func(c *ez.Context) bool {
				c.Push([]any{})
				return true
			}),
			ez.Optional(ez.Sequence(
				g.Call("value"),
				ez.SkippableAction(appendItem),
				ez.ZeroOrMore(ez.Sequence(
					ws,
					ez.Literal(","),
					ws,
					g.Call("value"),
					ez.SkippableAction(appendItem),
				)),
			)),
			ws,
			ez.Literal("]"),
		))

		g.Define("object", ez.Sequence(
			ez.Literal("{"),
			ws,
			ez.SkippableAction(func(c *ez.Context) bool {
				c.Push(map[string]any{})
				return true
			}),
			ez.Optional(ez.Sequence(
				g.Call("member"),
				ez.ZeroOrMore(ez.Sequence(
					ws,
					ez.Literal(","),
					ws,
					g.Call("member"),
				)),
			)),
			ws,
			ez.Literal("}"),
		))

		g.Define("member", ez.Sequence(
			g.Call("string"),
			ws,
			ez.Literal(":"),
			ws,
			g.Call("value"),
			ez.SkippableAction(setMember),
		))

		g.Define("string", ez.Sequence(
			ez.Literal(`"`),
			ez.ZeroOrMore(ez.Choice(
				ez.Sequence(ez.Literal(`\u`), ez.Times(hex, 4)),
				ez.Sequence(ez.Literal(`\`), ez.AnyOf(`"\/bfnrt`)),
				ez.Sequence(
					ez.TestNot(ez.AnyOf(`\"`)),
					ez.CodePointFunc(func(r rune) bool { return r >= 0x20 }),
				),
			)),
			ez.Literal(`"`),
			ez.SkippableAction(decodeString),
		))

		g.Define("number", ez.Sequence(
			ez.Regex(numberPattern),
			ez.SkippableAction(func(c *ez.Context) bool {
				f, err := strconv.ParseFloat(c.Match(), 64)
				if err != nil {
					return false
				}
				c.Push(f)
				return true
			}),
		))
	})
	return g
}

func appendItem(c *ez.Context) bool {
	v := c.Pop()
	list := c.Peek().([]any)
	c.Poke(append(list, v))
	return true
}

// setMember runs once a member has matched, after which the enclosing object
// either completes or is dropped from the stack whole.
func setMember(c *ez.Context) bool {
	v := c.Pop()
	key := c.Pop().(string)
	c.Peek().(map[string]any)[key] = v
	return true
}

// decodeString decodes the quoted string the enclosing rule has matched so far.
func decodeString(c *ez.Context) bool {
	parent := c.Parent()
	if parent == nil {
		return false
	}
	raw, err := c.Input().Slice(parent.StartIndex(), c.Index())
	if err != nil {
		return false
	}
	var s string
	if err := stdjson.Unmarshal([]byte(raw), &s); err != nil {
		return false
	}
	c.Push(s)
	return true
}

var runner = sync.OnceValues(func() (*ez.Runner, error) {
	return JsonGrammar.Runner()
})

// Runner returns a runner for documents, with opts applied.
func Runner(opts ...ez.Option) (*ez.Runner, error) {
	return JsonGrammar.Runner(opts...)
}

// Value returns the document decoded by a parse of the JSON grammar.
func Value(res *ez.Result) (any, error) {
	if err := res.Failure(); err != nil {
		return nil, err
	}
	if len(res.Values) != 1 {
		return nil, errors.AssertionFailedf("document left %d values", len(res.Values))
	}
	return res.Values[0], nil
}

// Decode parses a document held in text.
func Decode(text string) (any, error) {
	return DecodeInput(context.Background(), input.FromString(text))
}

func DecodeInput(ctx context.Context, buf input.Buffer) (any, error) {
	r, err := runner()
	if err != nil {
		return nil, err
	}
	res, err := r.Run(ctx, buf)
	if err != nil {
		return nil, err
	}
	return Value(res)
}
