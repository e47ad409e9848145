package ez

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/tef/ezpeg/input"
	"github.com/tef/ezpeg/stack"
)

// Option configures a Runner.
type Option func(*Runner)

// WithObserver adds observers notified during every parse.
func WithObserver(o ...Observer) Option {
	return func(r *Runner) {
		r.observers = append(r.observers, o...)
	}
}

// Runner matches a resolved rule tree against inputs. It is safe for
// concurrent use when the grammar's actions are.
type Runner struct {
	root      *Rule
	observers []Observer
}

// NewRunner checks that root contains no unresolved references.
func NewRunner(root *Rule, opts ...Option) (*Runner, error) {
	if root == nil {
		return nil, errors.Wrap(ErrInvalidRule, "nil root rule")
	}
	if key, ok := findReference(root); ok {
		return nil, errors.Wrapf(ErrUnresolvedReference, "%v", key)
	}
	r := &Runner{root: root}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Parse matches root against text.
func Parse(root *Rule, text string, opts ...Option) (*Result, error) {
	r, err := NewRunner(root, opts...)
	if err != nil {
		return nil, err
	}
	return r.Run(context.Background(), input.FromString(text))
}

func (r *Runner) Root() *Rule { return r.root }

func (r *Runner) Parse(text string) (*Result, error) {
	return r.Run(context.Background(), input.FromString(text))
}

// Run matches the root rule from the start of buf. A failed match is not an
// error: the error is for stack contract violations raised by actions and for
// unresolved references.
func (r *Runner) Run(ctx context.Context, buf input.Buffer) (res *Result, err error) {
	ev := &ParseEvent{Context: ctx, Root: r.root, Input: buf}
	st := &parseState{
		buf:       buf,
		stack:     stack.New[any](),
		observers: r.observers,
		event:     ev,
	}
	for _, o := range r.observers {
		o.BeforeParse(ev)
	}
	began := time.Now()

	defer func() {
		if p := recover(); p != nil {
			f, ok := p.(fatal)
			if !ok {
				panic(p)
			}
			res, err = nil, f.err
		}
		ev.Result, ev.Err, ev.Elapsed = res, err, time.Since(began)
		for _, o := range r.observers {
			o.AfterParse(ev)
		}
	}()

	top := &Context{state: st, level: -1, prevEnd: -1}
	matched := top.run(r.root, false)
	return newResult(st, matched, top.index), nil
}

// Result is the outcome of a parse.
type Result struct {
	Matched            bool
	MatchedEntireInput bool
	// RestOfInput is the unmatched tail, or the whole input when nothing
	// matched.
	RestOfInput string
	// Values is the stack at the end of the parse, top first.
	Values []any
	// Index is the offset where matching stopped, 0 when nothing matched.
	Index int
	// Furthest is the highest offset reached by any rule, including rules
	// that were backtracked.
	Furthest int

	matchedInput string
	input        input.Buffer
	lines        func() *input.Lines
}

func newResult(st *parseState, matched bool, index int) *Result {
	buf := st.buf
	res := &Result{
		Matched:  matched,
		Values:   st.stack.Values(),
		Furthest: st.furthest,
		input:    buf,
	}
	known := st.lines
	res.lines = sync.OnceValue(func() *input.Lines {
		if known != nil {
			return known
		}
		return input.NewLines(buf)
	})
	if !matched {
		res.RestOfInput = buf.String()
		return res
	}
	res.Index = index
	res.MatchedEntireInput = index == buf.Len()
	res.matchedInput, _ = buf.Slice(0, index)
	res.RestOfInput, _ = buf.Slice(index, buf.Len())
	return res
}

// MatchedInput returns the matched prefix of the input, if the parse
// matched.
func (r *Result) MatchedInput() (string, bool) {
	return r.matchedInput, r.Matched
}

// Position returns the line and column of an offset into the input.
func (r *Result) Position(offset int) (input.Position, error) {
	return r.lines().Position(offset)
}

// Failure returns nil when the whole input was matched, and otherwise an
// error wrapping ErrNoMatch that points at the furthest offset reached.
func (r *Result) Failure() error {
	if r.MatchedEntireInput {
		return nil
	}
	at := r.Furthest
	if r.Matched && r.Index > at {
		at = r.Index
	}
	pos, err := r.Position(at)
	if err != nil {
		return err
	}
	if at >= r.input.Len() {
		return errors.Wrapf(ErrNoMatch, "%v: unexpected end of input", pos)
	}
	cp, _, err := r.input.CodePointAt(at)
	if err != nil {
		return err
	}
	return errors.Wrapf(ErrNoMatch, "%v: unexpected %q", pos, cp)
}
