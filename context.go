package ez

import (
	"github.com/tef/ezpeg/input"
	"github.com/tef/ezpeg/stack"
)

// parseState is shared by every context of one parse.
type parseState struct {
	buf       input.Buffer
	stack     *stack.Stack[any]
	observers []Observer
	event     *ParseEvent
	lines     *input.Lines
	furthest  int
}

// Context is the record of one rule invocation. Contexts form a chain from
// the rule being matched up to the root rule, and only live for the duration
// of a parse.
type Context struct {
	state  *parseState
	parent *Context
	rule   *Rule

	start int
	index int
	level int

	inPredicate bool
	illegal     bool

	// extent of the last sub-rule that matched, prevEnd < 0 if none did
	prevStart, prevEnd int
}

func (c *Context) child(r *Rule, predicate bool) *Context {
	return &Context{
		state:       c.state,
		parent:      c,
		rule:        r,
		start:       c.index,
		index:       c.index,
		level:       c.level + 1,
		inPredicate: c.inPredicate || predicate,
		prevEnd:     -1,
	}
}

// Rule returns the rule this context is matching.
func (c *Context) Rule() *Rule { return c.rule }

// Parent returns the context of the enclosing rule, nil at the root.
func (c *Context) Parent() *Context {
	if c.parent == nil || c.parent.rule == nil {
		return nil
	}
	return c.parent
}

func (c *Context) Level() int { return c.level }

// StartIndex is the offset at which the rule started matching.
func (c *Context) StartIndex() int { return c.start }

// Index is the current offset.
func (c *Context) Index() int { return c.index }

func (c *Context) Input() input.Buffer { return c.state.buf }

// InPredicate reports whether the rule runs beneath a Test or TestNot.
func (c *Context) InPredicate() bool { return c.inPredicate }

func (c *Context) AtEnd() bool { return c.index >= c.state.buf.Len() }

// Event returns the event shared by the observers of this parse.
func (c *Context) Event() *ParseEvent { return c.state.event }

// Advance moves the index forward by n bytes. A negative n, or one moving
// past the end of the input, is refused and makes the current rule fail.
func (c *Context) Advance(n int) bool {
	if n < 0 || c.index+n > c.state.buf.Len() {
		c.illegal = true
		return false
	}
	c.index += n
	c.reach(c.index)
	return true
}

// reach records that matching got as far as offset i, even if the rule
// goes on to fail there.
func (c *Context) reach(i int) {
	if i > c.state.furthest {
		c.state.furthest = i
	}
}

// MatchRange returns the extent of the input matched by the rule preceding
// this one in the enclosing rule.
func (c *Context) MatchRange() (start, end int, ok bool) {
	if c.parent == nil || c.parent.prevEnd < 0 {
		return 0, 0, false
	}
	return c.parent.prevStart, c.parent.prevEnd, true
}

// Match returns the text matched by the rule preceding this one in the
// enclosing rule, or "" if there is none. Use Parent().Match() to reach
// further out.
func (c *Context) Match() string {
	start, end, ok := c.MatchRange()
	if !ok {
		return ""
	}
	s, err := c.state.buf.Slice(start, end)
	if err != nil {
		return ""
	}
	return s
}

// Position returns the line and column of the current index.
func (c *Context) Position() input.Position {
	if c.state.lines == nil {
		c.state.lines = input.NewLines(c.state.buf)
	}
	p, _ := c.state.lines.Position(c.index)
	return p
}

// Stack returns the value stack of the parse, whose methods report
// contract violations as errors.
func (c *Context) Stack() *stack.Stack[any] { return c.state.stack }

// The helpers below abort the parse when the stack contract is violated;
// Runner.Run returns the error.

func (c *Context) Push(v any) {
	c.state.stack.Push(v)
}

func (c *Context) Pop() any {
	v, err := c.state.stack.Pop()
	if err != nil {
		throw(err)
	}
	return v
}

func (c *Context) PopN(down int) any {
	v, err := c.state.stack.PopN(down)
	if err != nil {
		throw(err)
	}
	return v
}

func (c *Context) Peek() any {
	v, err := c.state.stack.Peek()
	if err != nil {
		throw(err)
	}
	return v
}

func (c *Context) PeekN(down int) any {
	v, err := c.state.stack.PeekN(down)
	if err != nil {
		throw(err)
	}
	return v
}

func (c *Context) Poke(v any) {
	if err := c.state.stack.Poke(v); err != nil {
		throw(err)
	}
}

func (c *Context) PokeN(down int, v any) {
	if err := c.state.stack.PokeN(down, v); err != nil {
		throw(err)
	}
}

func (c *Context) Dup() {
	if err := c.state.stack.Dup(); err != nil {
		throw(err)
	}
}

func (c *Context) Swap() {
	if err := c.state.stack.Swap(); err != nil {
		throw(err)
	}
}
