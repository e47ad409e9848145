package ez

import (
	"github.com/cockroachdb/errors"
)

// Resolve replaces every Ref placeholder reachable from root, or from the
// rules of table, with the rule table holds for its key. Children are
// replaced in place, so Resolve must run before the rules are shared with a
// Runner. Cycles through the table are fine; a key chain that only leads to
// other references, or a key missing from the table, is an error.
//
// The returned rule is root, or its target when root is itself a Ref.
func Resolve(root *Rule, table map[any]*Rule) (*Rule, error) {
	v := &resolver{
		table:    table,
		resolved: make(map[any]*Rule),
		visited:  make(map[*Rule]bool),
	}
	return v.resolveRoot(root, table)
}

type resolver struct {
	table    map[any]*Rule
	resolved map[any]*Rule
	visited  map[*Rule]bool
}

func (v *resolver) resolveRoot(root *Rule, table map[any]*Rule) (*Rule, error) {
	if root == nil {
		return nil, errors.Wrap(ErrInvalidRule, "nil root rule")
	}
	if root.kind == ReferenceKind {
		t, err := v.target(root.key)
		if err != nil {
			return nil, err
		}
		root = t
	}
	if err := v.visit(root); err != nil {
		return nil, err
	}
	for _, r := range table {
		if err := v.visit(r); err != nil {
			return nil, err
		}
	}
	return root, nil
}

// target follows key through the table until it reaches a rule that is not
// a reference.
func (v *resolver) target(key any) (*Rule, error) {
	if r, ok := v.resolved[key]; ok {
		return r, nil
	}
	chain := map[any]bool{}
	k := key
	for {
		if chain[k] {
			return nil, errors.Wrapf(ErrUnresolvedReference, "%v only refers to itself", key)
		}
		chain[k] = true
		r, ok := v.table[k]
		if !ok || r == nil {
			return nil, errors.Wrapf(ErrUndefinedRule, "%v", k)
		}
		if r.kind != ReferenceKind {
			for c := range chain {
				v.resolved[c] = r
			}
			return r, nil
		}
		k = r.key
	}
}

func (v *resolver) visit(r *Rule) error {
	if r == nil || v.visited[r] {
		return nil
	}
	v.visited[r] = true
	for i, c := range r.children {
		if c.kind == ReferenceKind {
			t, err := v.target(c.key)
			if err != nil {
				return err
			}
			r.children[i] = t
			c = t
		}
		if err := v.visit(c); err != nil {
			return err
		}
	}
	return nil
}

// findReference reports the key of a reference left in the tree, if any.
func findReference(root *Rule) (any, bool) {
	seen := map[*Rule]bool{}
	var walk func(r *Rule) (any, bool)
	walk = func(r *Rule) (any, bool) {
		if seen[r] {
			return nil, false
		}
		seen[r] = true
		if r.kind == ReferenceKind {
			return r.key, true
		}
		for _, c := range r.children {
			if k, ok := walk(c); ok {
				return k, true
			}
		}
		return nil, false
	}
	return walk(root)
}
