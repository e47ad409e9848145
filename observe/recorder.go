package observe

import (
	"sync"

	ez "github.com/tef/ezpeg"
)

// Step is one rule tried during a parse.
type Step struct {
	Rule        string
	Kind        ez.Kind
	Level       int
	Start, End  int
	Matched     bool
	InPredicate bool
}

// Recorder keeps the steps of the last parse, in the order the rules were
// entered. It is meant for one parse at a time.
type Recorder struct {
	ez.BaseObserver

	mu    sync.Mutex
	steps []Step
	open  []int
}

var _ ez.Observer = (*Recorder)(nil)

func (r *Recorder) BeforeParse(*ez.ParseEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps, r.open = nil, nil
}

func (r *Recorder) BeforeMatch(c *ez.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.open = append(r.open, len(r.steps))
	r.steps = append(r.steps, Step{
		Rule:        c.Rule().Label(),
		Kind:        c.Rule().Kind(),
		Level:       c.Level(),
		Start:       c.StartIndex(),
		End:         -1,
		InPredicate: c.InPredicate(),
	})
}

func (r *Recorder) MatchSuccess(c *ez.Context) { r.finish(c, true) }

func (r *Recorder) MatchFailure(c *ez.Context) { r.finish(c, false) }

func (r *Recorder) finish(c *ez.Context, matched bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.open) == 0 {
		return
	}
	i := r.open[len(r.open)-1]
	r.open = r.open[:len(r.open)-1]
	r.steps[i].Matched = matched
	if matched {
		r.steps[i].End = c.Index()
	}
}

// Steps returns a copy of the recorded steps. End is -1 for steps that did
// not match.
func (r *Recorder) Steps() []Step {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Step, len(r.steps))
	copy(out, r.steps)
	return out
}
