package ez

import (
	"github.com/cockroachdb/errors"
	"github.com/tef/ezpeg/input"
)

// run matches r in a new child context. On success the child's progress is
// kept, on failure the stack is put back as it was.
func (c *Context) run(r *Rule, predicate bool) bool {
	child := c.child(r, predicate)
	st := c.state
	snap := st.stack.Snapshot()

	for _, o := range st.observers {
		o.BeforeMatch(child)
	}

	ok := match(r, child)

	if ok {
		c.index = child.index
		c.prevStart, c.prevEnd = child.start, child.index
		for _, o := range st.observers {
			o.MatchSuccess(child)
		}
	} else {
		st.stack.Restore(snap)
		for _, o := range st.observers {
			o.MatchFailure(child)
		}
	}
	return ok
}

func match(r *Rule, c *Context) bool {
	buf := c.state.buf

	switch r.kind {
	case EmptyKind:
		return true

	case NeverKind:
		return false

	case EndOfInputKind:
		return c.index == buf.Len()

	case CharKind:
		ch, err := buf.CharAt(c.index)
		if err != nil || !r.char(ch) {
			return false
		}
		return c.Advance(1)

	case CodePointKind:
		cp, w, err := buf.CodePointAt(c.index)
		if err != nil || !r.codePoint(cp) {
			return false
		}
		return c.Advance(w)

	case LiteralKind:
		return matchLiteral(r, c)

	case RegexKind:
		rest, err := buf.Slice(c.index, buf.Len())
		if err != nil {
			return false
		}
		n, ok := r.re.MatchLen(rest)
		return ok && c.Advance(n)

	case TrieKind:
		_, n, ok := r.trie.Match(buf, c.index)
		return ok && c.Advance(n)

	case SequenceKind:
		for _, sub := range r.children {
			if !c.run(sub, false) {
				c.index = c.start
				return false
			}
		}
		return true

	case ChoiceKind:
		for _, sub := range r.children {
			if c.run(sub, false) {
				return true
			}
		}
		return false

	case RepeatKind:
		sub := r.children[0]
		count := 0
		for r.max == Unbounded || count < r.max {
			if !c.run(sub, false) {
				break
			}
			count++
		}
		if count < r.min {
			c.index = c.start
			return false
		}
		return true

	case TestKind, TestNotKind:
		snap := c.state.stack.Snapshot()
		ok := c.run(r.children[0], true)
		c.index = c.start
		c.state.stack.Restore(snap)
		if r.kind == TestNotKind {
			return !ok
		}
		return ok

	case IfKind:
		if r.cond(c) {
			return c.run(r.children[0], false)
		}
		if len(r.children) > 1 {
			return c.run(r.children[1], false)
		}
		return true

	case ActionKind:
		if r.skippable && c.inPredicate {
			return true
		}
		ok := r.action(c)
		return ok && !c.illegal

	case ReferenceKind:
		throw(errors.Wrapf(ErrUnresolvedReference, "%v", r.key))
	}

	throw(errors.AssertionFailedf("unknown rule kind %q", r.kind))
	return false
}

func matchLiteral(r *Rule, c *Context) bool {
	buf := c.state.buf
	i := c.index

	if !r.ignoreCase {
		for k := 0; k < len(r.text); k++ {
			ch, err := buf.CharAt(i + k)
			if err != nil || ch != r.text[k] {
				c.reach(i + k)
				return false
			}
		}
		return c.Advance(len(r.text))
	}

	for _, want := range r.text {
		got, w, err := buf.CodePointAt(i)
		if err != nil || input.Fold(got) != input.Fold(want) {
			c.reach(i)
			return false
		}
		i += w
	}
	return c.Advance(i - c.index)
}
