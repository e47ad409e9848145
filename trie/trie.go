// Package trie matches the longest member of a fixed set of strings at a
// position of the input.
package trie

import (
	"unicode/utf8"

	"github.com/cockroachdb/errors"
	"github.com/tef/ezpeg/input"
)

// ErrNoWords is returned when building a trie from an empty set.
var ErrNoWords = errors.New("trie needs at least one word")

// Source is the part of input.Buffer a trie reads from.
type Source interface {
	Len() int
	CodePointAt(i int) (rune, int, error)
}

type node struct {
	next map[rune]*node
	// index into Trie.words of the word ending here, or -1
	word int
}

func newNode() *node {
	return &node{word: -1}
}

// Trie is immutable once built and safe for concurrent use.
type Trie struct {
	root       *node
	words      []string
	ignoreCase bool
}

// New builds a trie from words. Words that collide, either as duplicates or
// because they are equal ignoring case, keep the first one given.
func New(words []string, ignoreCase bool) (*Trie, error) {
	if len(words) == 0 {
		return nil, ErrNoWords
	}
	t := &Trie{root: newNode(), ignoreCase: ignoreCase}
	for _, w := range words {
		n := t.root
		for _, r := range w {
			r = t.key(r)
			child, ok := n.next[r]
			if !ok {
				if n.next == nil {
					n.next = make(map[rune]*node)
				}
				child = newNode()
				n.next[r] = child
			}
			n = child
		}
		if n.word < 0 {
			n.word = len(t.words)
			t.words = append(t.words, w)
		}
	}
	return t, nil
}

func (t *Trie) key(r rune) rune {
	if t.ignoreCase {
		return input.Fold(r)
	}
	return r
}

// Words returns the distinct words in construction order.
func (t *Trie) Words() []string {
	out := make([]string, len(t.words))
	copy(out, t.words)
	return out
}

func (t *Trie) IgnoreCase() bool { return t.ignoreCase }

// Match finds the longest word that src starts with at offset at. It returns
// the word as given at construction and the number of bytes of src it spans.
func (t *Trie) Match(src Source, at int) (word string, n int, ok bool) {
	best, bestEnd := -1, at
	if t.root.word >= 0 {
		best = t.root.word
	}
	cur := t.root
	for i := at; i < src.Len() && cur.next != nil; {
		r, w, err := src.CodePointAt(i)
		if err != nil {
			break
		}
		next, found := cur.next[t.key(r)]
		if !found {
			break
		}
		cur = next
		i += w
		if cur.word >= 0 {
			best, bestEnd = cur.word, i
		}
	}
	if best < 0 {
		return "", 0, false
	}
	return t.words[best], bestEnd - at, true
}

// MatchString is Match over a plain string starting at offset 0.
func (t *Trie) MatchString(s string) (string, int, bool) {
	return t.Match(stringSource(s), 0)
}

type stringSource string

func (s stringSource) Len() int { return len(s) }

func (s stringSource) CodePointAt(i int) (rune, int, error) {
	if i < 0 || i >= len(s) {
		return 0, 0, errors.Wrapf(input.ErrOutOfRange, "offset %d, length %d", i, len(s))
	}
	r, w := utf8.DecodeRuneInString(string(s[i:]))
	return r, w, nil
}
