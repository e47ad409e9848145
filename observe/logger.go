// Package observe provides ez.Observer implementations for logging, metrics,
// tracing and recording of parses.
package observe

import (
	"github.com/go-logr/logr"

	ez "github.com/tef/ezpeg"
)

// Logger logs parses at V(1) and every rule tried at V(4).
type Logger struct {
	log logr.Logger
}

var _ ez.Observer = (*Logger)(nil)

func NewLogger(log logr.Logger) *Logger {
	return &Logger{log: log}
}

func (l *Logger) BeforeParse(ev *ez.ParseEvent) {
	l.log.V(1).Info("parse started", "rule", ev.Root.Label(), "length", ev.Input.Len())
}

func (l *Logger) BeforeMatch(c *ez.Context) {
	if log := l.log.V(4); log.Enabled() {
		log.Info("trying rule", ruleValues(c)...)
	}
}

func (l *Logger) MatchSuccess(c *ez.Context) {
	if log := l.log.V(4); log.Enabled() {
		log.Info("rule matched", append(ruleValues(c), "start", c.StartIndex())...)
	}
}

func (l *Logger) MatchFailure(c *ez.Context) {
	if log := l.log.V(4); log.Enabled() {
		log.Info("rule failed", ruleValues(c)...)
	}
}

func (l *Logger) AfterParse(ev *ez.ParseEvent) {
	if ev.Err != nil {
		l.log.Error(ev.Err, "parse aborted", "rule", ev.Root.Label(), "elapsed", ev.Elapsed)
		return
	}
	res := ev.Result
	l.log.V(1).Info("parse finished", "rule", ev.Root.Label(),
		"matched", res.Matched, "complete", res.MatchedEntireInput,
		"consumed", res.Index, "furthest", res.Furthest, "elapsed", ev.Elapsed)
}

func ruleValues(c *ez.Context) []any {
	return []any{"rule", c.Rule().Label(), "index", c.Index(), "level", c.Level()}
}
