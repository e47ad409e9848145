package ez

import (
	"regexp"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
	"github.com/dlclark/regexp2"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Regexp is the contract between Regex rules and a regular expression
// engine: given the rest of the input, report how many bytes of its prefix
// the expression matches.
type Regexp interface {
	MatchLen(s string) (n int, ok bool)
	String() string
}

const regexCacheSize = 256

// anchored patterns compiled by Regex, shared by every grammar in the process
var regexCache = func() *lru.Cache[string, *regexp.Regexp] {
	c, err := lru.New[string, *regexp.Regexp](regexCacheSize)
	if err != nil {
		panic(err)
	}
	return c
}()

type stdRegexp struct {
	src string
	re  *regexp.Regexp
}

// CompileRegexp compiles pattern with the standard library engine, anchored
// at the start of the input.
func CompileRegexp(pattern string) (Regexp, error) {
	if re, ok := regexCache.Get(pattern); ok {
		return &stdRegexp{src: pattern, re: re}, nil
	}
	re, err := regexp.Compile(`\A(?:` + pattern + `)`)
	if err != nil {
		return nil, errors.Wrapf(err, "regex %q", pattern)
	}
	regexCache.Add(pattern, re)
	return &stdRegexp{src: pattern, re: re}, nil
}

func (r *stdRegexp) MatchLen(s string) (int, bool) {
	loc := r.re.FindStringIndex(s)
	if loc == nil {
		return 0, false
	}
	return loc[1], true
}

func (r *stdRegexp) String() string { return r.src }

type backtrackRegexp struct {
	src string
	re  *regexp2.Regexp
}

// CompileRegexp2 compiles pattern with github.com/dlclark/regexp2, which
// supports lookaround and backreferences, anchored at the start of the input.
func CompileRegexp2(pattern string, opts regexp2.RegexOptions) (Regexp, error) {
	re, err := regexp2.Compile(`\A(?:`+pattern+`)`, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "regex %q", pattern)
	}
	return &backtrackRegexp{src: pattern, re: re}, nil
}

func (r *backtrackRegexp) MatchLen(s string) (int, bool) {
	m, err := r.re.FindStringMatch(s)
	if err != nil || m == nil {
		return 0, false
	}
	// Index and Length of a regexp2 match count runes, and an invalid byte
	// is one rune, so walk s rather than re-encode the match
	start := runeOffset(s, 0, m.Index)
	return runeOffset(s, start, m.Length) - start, true
}

// runeOffset returns the byte offset n runes past from in s.
func runeOffset(s string, from, n int) int {
	i := from
	for ; n > 0 && i < len(s); n-- {
		_, w := utf8.DecodeRuneInString(s[i:])
		i += w
	}
	return i
}

func (r *backtrackRegexp) String() string { return r.src }
