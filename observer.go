package ez

import (
	"context"
	"time"

	"github.com/tef/ezpeg/input"
)

// Observer is notified as a parse runs. Observers cannot change the outcome
// of a match. One observer may be called from concurrent parses; per-parse
// state belongs in the ParseEvent.
type Observer interface {
	BeforeParse(ev *ParseEvent)
	BeforeMatch(c *Context)
	MatchSuccess(c *Context)
	MatchFailure(c *Context)
	AfterParse(ev *ParseEvent)
}

// BaseObserver implements Observer with no-ops, for embedding.
type BaseObserver struct{}

func (BaseObserver) BeforeParse(*ParseEvent) {}
func (BaseObserver) BeforeMatch(*Context) {}
func (BaseObserver) MatchSuccess(*Context) {}
func (BaseObserver) MatchFailure(*Context) {}
func (BaseObserver) AfterParse(*ParseEvent) {}

// ParseEvent describes one parse. The same event is passed to BeforeParse,
// reachable from every Context, and passed again to AfterParse with Result,
// Err and Elapsed filled in.
type ParseEvent struct {
	Context context.Context
	Root    *Rule
	Input   input.Buffer

	Result  *Result
	Err     error
	Elapsed time.Duration

	values map[any]any
}

// Set stores per-parse state for an observer under key.
func (e *ParseEvent) Set(key, v any) {
	if e.values == nil {
		e.values = make(map[any]any)
	}
	e.values[key] = v
}

func (e *ParseEvent) Get(key any) any {
	return e.values[key]
}
