package ez

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/dlclark/regexp2"
	"github.com/tef/ezpeg/trie"
)

// Constructors panic with an error wrapping ErrInvalidRule when given bad
// arguments, the same way regexp.MustCompile does. BuildGrammar turns those
// panics into grammar errors.

var (
	emptyRule = &Rule{kind: EmptyKind}
	neverRule = &Rule{kind: NeverKind}
	eoiRule   = &Rule{kind: EndOfInputKind}
)

// Empty always matches without consuming input.
func Empty() *Rule { return emptyRule }

// Never always fails.
func Never() *Rule { return neverRule }

// EOI matches at the end of the input.
func EOI() *Rule { return eoiRule }

// Named returns a copy of r carrying name, used when printing and tracing.
func Named(name string, r *Rule) *Rule {
	checkRules("named", r)
	c := *r
	c.name = name
	c.children = append([]*Rule(nil), r.children...)
	return &c
}

func checkRules(op string, rules ...*Rule) {
	for i, r := range rules {
		if r == nil {
			panic(invalidRule("%s: rule %d is nil", op, i))
		}
	}
}

// CharFunc matches one byte for which pred holds.
func CharFunc(pred func(byte) bool) *Rule {
	if pred == nil {
		panic(invalidRule("char: nil predicate"))
	}
	return &Rule{kind: CharKind, char: pred}
}

// CharRange matches one byte in [lo, hi].
func CharRange(lo, hi byte) *Rule {
	if lo > hi {
		panic(invalidRule("char range: %q > %q", lo, hi))
	}
	return &Rule{
		kind: CharKind,
		text: fmt.Sprintf("[%s-%s]", quoteByte(lo), quoteByte(hi)),
		char: func(c byte) bool { return lo <= c && c <= hi },
	}
}

// AnyChar matches any single byte.
func AnyChar() *Rule {
	return &Rule{kind: CharKind, text: "ANY_CHAR", char: func(byte) bool { return true }}
}

func quoteByte(c byte) string {
	s := strconv.QuoteRuneToASCII(rune(c))
	return s[1 : len(s)-1]
}

// CodePointFunc matches one code point for which pred holds.
func CodePointFunc(pred func(rune) bool) *Rule {
	if pred == nil {
		panic(invalidRule("code point: nil predicate"))
	}
	return &Rule{kind: CodePointKind, codePoint: pred}
}

// CodePointRange matches one code point in [lo, hi].
func CodePointRange(lo, hi rune) *Rule {
	if lo > hi {
		panic(invalidRule("code point range: %U > %U", lo, hi))
	}
	return &Rule{
		kind:      CodePointKind,
		text:      fmt.Sprintf("[%U-%U]", lo, hi),
		codePoint: func(r rune) bool { return lo <= r && r <= hi },
	}
}

// Any matches any single code point.
func Any() *Rule {
	return &Rule{kind: CodePointKind, text: "ANY", codePoint: func(rune) bool { return true }}
}

// AnyOf matches one code point contained in set.
func AnyOf(set string) *Rule {
	if set == "" {
		panic(invalidRule("any of: empty set"))
	}
	return &Rule{
		kind:      CodePointKind,
		text:      "[" + strconv.Quote(set) + "]",
		codePoint: func(r rune) bool { return strings.ContainsRune(set, r) },
	}
}

// NoneOf matches one code point not contained in set.
func NoneOf(set string) *Rule {
	return &Rule{
		kind:      CodePointKind,
		text:      "[^" + strconv.Quote(set) + "]",
		codePoint: func(r rune) bool { return !strings.ContainsRune(set, r) },
	}
}

// Literal matches s exactly. Literal("") is Empty().
func Literal(s string) *Rule {
	if s == "" {
		return Empty()
	}
	return &Rule{kind: LiteralKind, text: s}
}

// IgnoreCase matches s ignoring case. IgnoreCase("") is Empty().
func IgnoreCase(s string) *Rule {
	if s == "" {
		return Empty()
	}
	return &Rule{kind: LiteralKind, text: s, ignoreCase: true}
}

// Regex matches pattern, anchored at the current position, using the
// standard library engine.
func Regex(pattern string) *Rule {
	re, err := CompileRegexp(pattern)
	if err != nil {
		panic(invalidRule("%v", err))
	}
	return RegexWith(re)
}

// Regexp2 matches pattern using the backtracking regexp2 engine.
func Regexp2(pattern string) *Rule {
	re, err := CompileRegexp2(pattern, regexp2.None)
	if err != nil {
		panic(invalidRule("%v", err))
	}
	return RegexWith(re)
}

// RegexWith wraps any Regexp implementation.
func RegexWith(re Regexp) *Rule {
	if re == nil {
		panic(invalidRule("regex: nil engine"))
	}
	return &Rule{kind: RegexKind, text: re.String(), re: re}
}

// Strings matches the longest of words.
func Strings(words ...string) *Rule {
	return newTrie(words, false)
}

// StringsIgnoreCase matches the longest of words, ignoring case.
func StringsIgnoreCase(words ...string) *Rule {
	return newTrie(words, true)
}

func newTrie(words []string, ignoreCase bool) *Rule {
	t, err := trie.New(words, ignoreCase)
	if err != nil {
		panic(invalidRule("%v", err))
	}
	return &Rule{kind: TrieKind, trie: t, ignoreCase: ignoreCase}
}

// Sequence matches every rule in turn. Sequence() is Empty().
func Sequence(rules ...*Rule) *Rule {
	checkRules("sequence", rules...)
	if len(rules) == 0 {
		return Empty()
	}
	return &Rule{kind: SequenceKind, children: append([]*Rule(nil), rules...)}
}

// Choice matches the first rule that matches. Choice() is Empty().
func Choice(rules ...*Rule) *Rule {
	checkRules("choice", rules...)
	if len(rules) == 0 {
		return Empty()
	}
	return &Rule{kind: ChoiceKind, children: append([]*Rule(nil), rules...)}
}

// Repeat matches r greedily at least min and at most max times. max may be
// Unbounded.
func Repeat(r *Rule, min, max int) *Rule {
	checkRules("repeat", r)
	if min < 0 {
		panic(invalidRule("repeat: min %d < 0", min))
	}
	if max != Unbounded && max < min {
		panic(invalidRule("repeat: max %d < min %d", max, min))
	}
	return &Rule{kind: RepeatKind, children: []*Rule{r}, min: min, max: max}
}

func Optional(r *Rule) *Rule { return Repeat(r, 0, 1) }

func ZeroOrMore(r *Rule) *Rule { return Repeat(r, 0, Unbounded) }

func OneOrMore(r *Rule) *Rule { return Repeat(r, 1, Unbounded) }

// Times matches r exactly n times.
func Times(r *Rule, n int) *Rule { return Repeat(r, n, n) }

// Test matches when r matches, without consuming input or keeping r's
// effects on the stack.
func Test(r *Rule) *Rule {
	checkRules("test", r)
	return &Rule{kind: TestKind, children: []*Rule{r}}
}

// TestNot matches when r does not match. It never consumes input.
func TestNot(r *Rule) *Rule {
	checkRules("test not", r)
	return &Rule{kind: TestNotKind, children: []*Rule{r}}
}

// If evaluates cond and matches then or, when cond is false, otherwise.
// otherwise may be nil, in which case a false cond matches nothing.
func If(cond CondFunc, then, otherwise *Rule) *Rule {
	if cond == nil {
		panic(invalidRule("if: nil condition"))
	}
	checkRules("if", then)
	children := []*Rule{then}
	if otherwise != nil {
		children = append(children, otherwise)
	}
	return &Rule{kind: IfKind, cond: cond, children: children}
}

// Action runs fn, which decides whether the rule matches. It runs under
// lookahead too.
func Action(fn ActionFunc) *Rule {
	if fn == nil {
		panic(invalidRule("action: nil func"))
	}
	return &Rule{kind: ActionKind, action: fn}
}

// SkippableAction is an Action that is not run inside Test or TestNot, where
// it matches without doing anything.
func SkippableAction(fn ActionFunc) *Rule {
	if fn == nil {
		panic(invalidRule("action: nil func"))
	}
	return &Rule{kind: ActionKind, action: fn, skippable: true}
}

// Push is a skippable action pushing v.
func Push(v any) *Rule {
	return SkippableAction(func(c *Context) bool {
		c.Push(v)
		return true
	})
}

// Ref is a placeholder for the rule stored under key, replaced by Resolve.
// key must be comparable.
func Ref(key any) *Rule {
	if key == nil || !reflect.TypeOf(key).Comparable() {
		panic(invalidRule("ref: key %v is not comparable", key))
	}
	return &Rule{kind: ReferenceKind, key: key}
}
