package ez

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tef/ezpeg/trie"
)

// Kind names one of the closed set of rule variants.
type Kind string

const (
	EmptyKind      Kind = "Empty"
	NeverKind      Kind = "Never"
	EndOfInputKind Kind = "EndOfInput"

	CharKind      Kind = "Char"
	CodePointKind Kind = "CodePoint"
	LiteralKind   Kind = "Literal"
	RegexKind     Kind = "Regex"
	TrieKind      Kind = "Trie"

	SequenceKind Kind = "Sequence"
	ChoiceKind   Kind = "Choice"
	RepeatKind   Kind = "Repeat"
	TestKind     Kind = "Test"
	TestNotKind  Kind = "TestNot"
	IfKind       Kind = "If"
	ActionKind   Kind = "Action"

	ReferenceKind Kind = "Reference"
)

// Unbounded is the max of a Repeat with no upper limit.
const Unbounded = -1

// ActionFunc is run by Action rules. It returns whether the rule matched.
type ActionFunc func(*Context) bool

// CondFunc decides which branch of an If rule is taken.
type CondFunc func(*Context) bool

// Rule is a node of a grammar. Rules are created by the constructors of this
// package and are not modified afterwards, except for Ref placeholders that
// Resolve replaces once, before the first parse.
type Rule struct {
	kind     Kind
	name     string
	children []*Rule

	// literal text, regex source, or a description of a predicate
	text       string
	ignoreCase bool

	char      func(byte) bool
	codePoint func(rune) bool
	re        Regexp
	trie      *trie.Trie

	min, max int

	cond      CondFunc
	action    ActionFunc
	skippable bool

	key any
}

func (r *Rule) Kind() Kind { return r.kind }

// Name returns the name given by Named or Grammar.Define, if any.
func (r *Rule) Name() string { return r.name }

// Children returns the sub-rules, in order. For If, the else rule is absent
// when it was not given.
func (r *Rule) Children() []*Rule {
	out := make([]*Rule, len(r.children))
	copy(out, r.children)
	return out
}

// Bounds returns the repetition bounds of a Repeat rule.
func (r *Rule) Bounds() (min, max int) { return r.min, r.max }

// Key returns the key of a Reference rule.
func (r *Rule) Key() any { return r.key }

// Skippable reports whether an Action rule is skipped under lookahead.
func (r *Rule) Skippable() bool { return r.skippable }

// Label returns the name of the rule, or its kind when it has none.
func (r *Rule) Label() string {
	if r.name != "" {
		return r.name
	}
	return string(r.kind)
}

func (r *Rule) String() string {
	var sb strings.Builder
	r.write(&sb, true, map[*Rule]bool{})
	return sb.String()
}

func (r *Rule) write(sb *strings.Builder, top bool, seen map[*Rule]bool) {
	if r.name != "" && !top {
		sb.WriteString(r.name)
		return
	}
	if seen[r] {
		sb.WriteString("...")
		return
	}
	seen[r] = true
	defer delete(seen, r)

	if r.name != "" {
		sb.WriteString(r.name)
		sb.WriteString(" <- ")
	}

	list := func(sep string) {
		sb.WriteByte('(')
		for i, c := range r.children {
			if i > 0 {
				sb.WriteString(sep)
			}
			c.write(sb, false, seen)
		}
		sb.WriteByte(')')
	}

	switch r.kind {
	case EmptyKind:
		sb.WriteString("EMPTY")
	case NeverKind:
		sb.WriteString("NEVER")
	case EndOfInputKind:
		sb.WriteString("EOI")
	case CharKind, CodePointKind:
		if r.text == "" {
			sb.WriteString(string(r.kind))
		} else {
			sb.WriteString(r.text)
		}
	case LiteralKind:
		sb.WriteString(strconv.Quote(r.text))
		if r.ignoreCase {
			sb.WriteByte('i')
		}
	case RegexKind:
		sb.WriteString("/" + r.text + "/")
	case TrieKind:
		words := r.trie.Words()
		for i, w := range words {
			words[i] = strconv.Quote(w)
		}
		sb.WriteString("[" + strings.Join(words, " | ") + "]")
		if r.ignoreCase {
			sb.WriteByte('i')
		}
	case SequenceKind:
		list(" ")
	case ChoiceKind:
		list(" / ")
	case RepeatKind:
		r.children[0].write(sb, false, seen)
		switch {
		case r.min == 0 && r.max == 1:
			sb.WriteByte('?')
		case r.min == 0 && r.max == Unbounded:
			sb.WriteByte('*')
		case r.min == 1 && r.max == Unbounded:
			sb.WriteByte('+')
		case r.max == Unbounded:
			fmt.Fprintf(sb, "{%d,}", r.min)
		default:
			fmt.Fprintf(sb, "{%d,%d}", r.min, r.max)
		}
	case TestKind:
		sb.WriteByte('&')
		r.children[0].write(sb, false, seen)
	case TestNotKind:
		sb.WriteByte('!')
		r.children[0].write(sb, false, seen)
	case IfKind:
		sb.WriteString("if")
		list(", ")
	case ActionKind:
		if r.skippable {
			sb.WriteString("{skippable}")
		} else {
			sb.WriteString("{action}")
		}
	case ReferenceKind:
		fmt.Fprintf(sb, "ref(%v)", r.key)
	}
}

// Equal reports whether r and o are structurally equal: same kind, same
// parameters and equal children. Names are ignored. Rules holding closures
// (custom predicates, conditions, actions) are only equal to themselves.
func (r *Rule) Equal(o *Rule) bool {
	return equalRules(r, o, map[[2]*Rule]bool{})
}

func equalRules(a, b *Rule, assumed map[[2]*Rule]bool) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	pair := [2]*Rule{a, b}
	if assumed[pair] {
		return true
	}
	if a.kind != b.kind || a.text != b.text || a.ignoreCase != b.ignoreCase ||
		a.min != b.min || a.max != b.max || a.skippable != b.skippable ||
		len(a.children) != len(b.children) {
		return false
	}
	switch a.kind {
	case CharKind, CodePointKind:
		if a.text == "" {
			return false
		}
	case IfKind, ActionKind:
		return false
	case RegexKind:
		if fmt.Sprintf("%T", a.re) != fmt.Sprintf("%T", b.re) {
			return false
		}
	case TrieKind:
		aw, bw := a.trie.Words(), b.trie.Words()
		if len(aw) != len(bw) {
			return false
		}
		for i := range aw {
			if aw[i] != bw[i] {
				return false
			}
		}
	case ReferenceKind:
		if a.key != b.key {
			return false
		}
	}
	assumed[pair] = true
	for i := range a.children {
		if !equalRules(a.children[i], b.children[i], assumed) {
			return false
		}
	}
	return true
}
