package ez

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/go-logr/logr"
)

// ruleKey identifies a rule defined by a grammar. Call returns references
// keyed by it, Define fills the table Resolve reads.
type ruleKey struct {
	g    *Grammar
	name string
}

func (k ruleKey) String() string { return k.name }

type position struct {
	file string
	line int
}

func (p position) String() string {
	return fmt.Sprintf("%v:%v", p.file, p.line)
}

type grammarError struct {
	pos     position
	message string
	err     error
}

func (e *grammarError) Error() string {
	return fmt.Sprintf("%v: %v", e.pos, e.message)
}

func (e *grammarError) Unwrap() error { return e.err }

// Grammar collects named rules. Rules refer to each other, including
// recursively, through Call. Mistakes are collected rather than returned one
// by one: see Err and Errors.
type Grammar struct {
	Start string
	// Logger receives the messages of Print rules.
	Logger logr.Logger

	rules   []*Rule
	names   []string
	nameIdx map[string]int

	// list of positions for each called name
	callPos map[string][]position
	// position of each defined rule
	rulePos []position

	pos      position // where BuildGrammar was called
	building bool
	checked  bool
	root     *Rule

	errors []error
	err    error
}

func (g *Grammar) Err() error {
	return g.err
}

func (g *Grammar) Errors() []error {
	if g.errors == nil {
		return []error{}
	}
	return g.errors
}

func (g *Grammar) record(pos position, err error, fatal bool) {
	var gerr error = &grammarError{pos: pos, message: err.Error(), err: err}
	if fatal && g.err == nil {
		g.err = gerr
	}
	g.errors = append(g.errors, gerr)
}

func (g *Grammar) error(pos position, args ...any) {
	g.record(pos, errors.New(fmt.Sprint(args...)), true)
}

func (g *Grammar) errorf(pos position, s string, args ...any) {
	g.record(pos, errors.Newf(s, args...), true)
}

func (g *Grammar) warnf(pos position, s string, args ...any) {
	g.record(pos, errors.Newf(s, args...), false)
}

func markPosition() position {
	_, file, no, ok := runtime.Caller(2)
	if !ok {
		return position{file: "?"}
	}
	base, _ := os.Getwd()
	if rel, err := filepath.Rel(base, file); err == nil {
		file = rel
	}
	return position{file: file, line: no}
}

// Define names rule r. Every name may be defined once.
func (g *Grammar) Define(name string, r *Rule) {
	p := markPosition()
	if g.err != nil {
		return
	} else if !g.building {
		g.error(p, "must call define inside grammar")
		return
	} else if r == nil {
		g.errorf(p, "rule %q is nil", name)
		return
	}

	if old, ok := g.nameIdx[name]; ok {
		g.errorf(p, "cant redefine %q, already defined at %v", name, g.rulePos[old])
		return
	}

	g.nameIdx[name] = len(g.names)
	g.names = append(g.names, name)
	g.rulePos = append(g.rulePos, p)
	g.rules = append(g.rules, Named(name, r))
}

// Call returns a reference to the rule defined under name, which may be
// defined later.
func (g *Grammar) Call(name string) *Rule {
	p := markPosition()
	if g.callPos != nil {
		g.callPos[name] = append(g.callPos[name], p)
	}
	return Ref(ruleKey{g: g, name: name})
}

// Print returns a rule that logs its arguments and the current position
// when reached. It does not log under lookahead.
func (g *Grammar) Print(args ...any) *Rule {
	p := markPosition()
	msg := fmt.Sprint(args...)
	return SkippableAction(func(c *Context) bool {
		inside := ""
		if parent := c.Parent(); parent != nil {
			inside = parent.Rule().Label()
		}
		g.Logger.Info("g.Print called", "at", p.String(), "message", msg,
			"inside", inside, "offset", c.Index(), "position", c.Position().String())
		return true
	})
}

// Check reports missing rules and the start rule as errors, and rules that
// are never called as warnings.
func (g *Grammar) Check() error {
	if g.err != nil || g.checked {
		return g.err
	}
	g.checked = true
	called := make([]string, 0, len(g.callPos))
	for name := range g.callPos {
		called = append(called, name)
	}
	sort.Strings(called)
	for _, name := range called {
		if _, ok := g.nameIdx[name]; !ok {
			for _, p := range g.callPos[name] {
				g.record(p, errors.Wrapf(ErrUndefinedRule, "missing rule %q", name), true)
			}
		}
	}

	for n, name := range g.names {
		if name != g.Start && g.callPos[name] == nil {
			g.warnf(g.rulePos[n], "unused rule %q", name)
		}
	}

	if g.Start == "" {
		g.error(g.pos, "starting rule undefined")
	} else if _, ok := g.nameIdx[g.Start]; !ok {
		g.errorf(g.pos, "starting rule %q is missing", g.Start)
	}

	return g.err
}

// Root resolves the references between the rules and returns the start rule.
func (g *Grammar) Root() (*Rule, error) {
	if g.root != nil {
		return g.root, nil
	}
	if g.Check() != nil {
		return nil, g.err
	}

	table := make(map[any]*Rule, len(g.rules))
	for i, r := range g.rules {
		table[ruleKey{g: g, name: g.names[i]}] = r
	}
	root, err := Resolve(g.rules[g.nameIdx[g.Start]], table)
	if err != nil {
		g.record(g.pos, err, true)
		return nil, g.err
	}
	g.root = root
	return root, nil
}

// Rule returns the resolved rule defined under name.
func (g *Grammar) Rule(name string) (*Rule, bool) {
	if _, err := g.Root(); err != nil {
		return nil, false
	}
	idx, ok := g.nameIdx[name]
	if !ok {
		return nil, false
	}
	return g.rules[idx], true
}

// Runner returns a runner for the start rule.
func (g *Grammar) Runner(opts ...Option) (*Runner, error) {
	root, err := g.Root()
	if err != nil {
		return nil, err
	}
	return NewRunner(root, opts...)
}

func (g *Grammar) buildGrammar(stub func(*Grammar)) (err error) {
	if g.building || g.names != nil {
		return errors.New("use empty grammar")
	}
	g.nameIdx = make(map[string]int)
	g.callPos = make(map[string][]position)
	g.building = true

	defer func() {
		g.building = false
		if p := recover(); p != nil {
			perr, ok := p.(error)
			if !ok || !errors.Is(perr, ErrInvalidRule) {
				panic(p)
			}
			g.record(g.pos, perr, true)
			err = g.err
		}
	}()

	stub(g)
	g.building = false
	return g.Check()
}

// BuildGrammar runs stub to define the rules of a new grammar and checks the
// result. Constructor panics inside stub are reported as errors. The grammar
// is returned even on error so that Errors can be inspected.
func BuildGrammar(stub func(*Grammar)) (*Grammar, error) {
	g := &Grammar{Logger: logr.Discard(), pos: markPosition()}
	err := g.buildGrammar(stub)
	return g, err
}

// BuildRunner builds a grammar and returns a runner for its start rule.
func BuildRunner(stub func(*Grammar), opts ...Option) (*Runner, error) {
	g := &Grammar{Logger: logr.Discard(), pos: markPosition()}
	if err := g.buildGrammar(stub); err != nil {
		return nil, err
	}
	return g.Runner(opts...)
}
