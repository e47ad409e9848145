package ez

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/tef/ezpeg/input"
)

type countingObserver struct {
	BaseObserver
	mu                           sync.Mutex
	parses, before, ok, failures int
	maxLevel                     int
	predicated                   int
	finished                     []*ParseEvent
}

type countKey struct{}

func (o *countingObserver) BeforeParse(ev *ParseEvent) {
	ev.Set(countKey{}, new(int))
}

func (o *countingObserver) BeforeMatch(c *Context) {
	*c.Event().Get(countKey{}).(*int) += 1
	o.mu.Lock()
	defer o.mu.Unlock()
	o.before++
	if c.Level() > o.maxLevel {
		o.maxLevel = c.Level()
	}
	if c.InPredicate() {
		o.predicated++
	}
}

func (o *countingObserver) MatchSuccess(c *Context) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ok++
}

func (o *countingObserver) MatchFailure(c *Context) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failures++
}

func (o *countingObserver) AfterParse(ev *ParseEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.parses++
	o.finished = append(o.finished, ev)
}

func TestObserver(t *testing.T) {
	obs := &countingObserver{}
	root := Sequence(Literal("a"), TestNot(Literal("b")), Choice(Literal("x"), Literal("c")))
	res, err := Parse(root, "ac", WithObserver(obs))
	require.NoError(t, err)
	assert.True(t, res.MatchedEntireInput)

	// root, a, !b, b, choice, x, c
	assert.Equal(t, 7, obs.before)
	assert.Equal(t, obs.before, obs.ok+obs.failures)
	assert.Equal(t, 2, obs.failures) // b and x
	assert.Equal(t, 1, obs.predicated)
	assert.Equal(t, 2, obs.maxLevel)

	require.Len(t, obs.finished, 1)
	ev := obs.finished[0]
	assert.Same(t, res, ev.Result)
	assert.NoError(t, ev.Err)
	assert.Same(t, root, ev.Root)
	assert.Equal(t, 7, *ev.Get(countKey{}).(*int))
}

func TestObserverSeesErrors(t *testing.T) {
	obs := &countingObserver{}
	root := Action(func(c *Context) bool {
		c.Pop()
		return true
	})
	res, err := Parse(root, "", WithObserver(obs))
	assert.Nil(t, res)
	assert.Error(t, err)
	require.Len(t, obs.finished, 1)
	assert.Equal(t, err, obs.finished[0].Err)
	assert.Nil(t, obs.finished[0].Result)
}

func TestRunnerErrors(t *testing.T) {
	_, err := NewRunner(nil)
	assert.True(t, errors.Is(err, ErrInvalidRule))

	_, err = NewRunner(Sequence(Literal("a"), Ref("b")))
	assert.True(t, errors.Is(err, ErrUnresolvedReference))

	// failure to match is a result, not an error
	res, err := Parse(Literal("a"), "b")
	require.NoError(t, err)
	assert.False(t, res.Matched)
	assert.Equal(t, "b", res.RestOfInput)
	_, ok := res.MatchedInput()
	assert.False(t, ok)
	assert.True(t, errors.Is(res.Failure(), ErrNoMatch))
}

func TestFailurePosition(t *testing.T) {
	root := Sequence(Literal("let "), OneOrMore(CharRange('a', 'z')), Literal(" = 1\n"))
	res := mustParse(t, OneOrMore(root), "let x = 1\nlet y = 2\n")
	assert.True(t, res.Matched)
	assert.False(t, res.MatchedEntireInput)
	assert.Equal(t, "let x = 1\n", func() string { s, _ := res.MatchedInput(); return s }())

	err := res.Failure()
	require.Error(t, err)
	// furthest is the first byte of " = 1\n" that did not match
	assert.Contains(t, err.Error(), `2:9: unexpected '2'`)
	assert.Equal(t, 18, res.Furthest)

	res = mustParse(t, Literal("abc"), "ab")
	assert.False(t, res.Matched)
	assert.Equal(t, 2, res.Furthest)
	assert.Contains(t, res.Failure().Error(), "1:3: unexpected end of input")

	res = mustParse(t, IgnoreCase("LET"), "leT x")
	assert.True(t, res.Matched)
	res = mustParse(t, IgnoreCase("LET"), "lex")
	assert.False(t, res.Matched)
	assert.Contains(t, res.Failure().Error(), "1:3: unexpected 'x'")
}

func TestSegmentInput(t *testing.T) {
	runner, err := NewRunner(Sequence(Literal("hello, "), OneOrMore(Any()), EOI()))
	require.NoError(t, err)
	buf := input.FromSegments("hel", "lo", ", w", "\xc3", "\xb6rld")
	res, err := runner.Run(context.Background(), buf)
	require.NoError(t, err)
	assert.True(t, res.MatchedEntireInput)
	assert.Equal(t, len("hello, wörld"), res.Index)
}

func TestConcurrentRuns(t *testing.T) {
	obs := &countingObserver{}
	runner, err := BuildRunner(func(g *Grammar) {
		g.Start = "sum"
		g.Define("sum", Sequence(
			g.Call("num"),
			ZeroOrMore(Sequence(Literal("+"), g.Call("num"), Action(add))),
			EOI(),
		))
		g.Define("num", Sequence(
			OneOrMore(CharRange('0', '9')),
			Action(func(c *Context) bool {
				var n int
				fmt.Sscan(c.Match(), &n)
				c.Push(n)
				return true
			}),
		))
	}, WithObserver(obs))
	require.NoError(t, err)

	var grp errgroup.Group
	for i := 1; i <= 32; i++ {
		grp.Go(func() error {
			terms := make([]string, i)
			for j := range terms {
				terms[j] = fmt.Sprint(j + 1)
			}
			res, err := runner.Parse(strings.Join(terms, "+"))
			if err != nil {
				return err
			}
			if want := i * (i + 1) / 2; len(res.Values) != 1 || res.Values[0] != want {
				return errors.Newf("sum of 1..%d: got %v, want %d", i, res.Values, want)
			}
			return nil
		})
	}
	require.NoError(t, grp.Wait())
	assert.Equal(t, 32, obs.parses)
}

func TestSharedResult(t *testing.T) {
	res := mustParse(t, OneOrMore(Sequence(Literal("ab"), Literal("\n"))), "ab\nab\nax")
	assert.Equal(t, 7, res.Furthest)

	var grp errgroup.Group
	for i := 0; i < 16; i++ {
		grp.Go(func() error {
			pos, err := res.Position(i % 9)
			if err != nil {
				return err
			}
			if want := i%9/3 + 1; pos.Line != want {
				return errors.Newf("offset %d: got line %d, want %d", i%9, pos.Line, want)
			}
			if err := res.Failure(); !errors.Is(err, ErrNoMatch) {
				return errors.Newf("unexpected failure %v", err)
			}
			return nil
		})
	}
	require.NoError(t, grp.Wait())
	assert.Contains(t, res.Failure().Error(), "3:2: unexpected 'x'")
}

func add(c *Context) bool {
	b := c.Pop().(int)
	a := c.Pop().(int)
	c.Push(a + b)
	return true
}
