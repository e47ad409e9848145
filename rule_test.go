package ez

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRuleString(t *testing.T) {
	cases := []struct {
		rule *Rule
		want string
	}{
		{Empty(), "EMPTY"},
		{Never(), "NEVER"},
		{EOI(), "EOI"},
		{Literal("a\"b"), `"a\"b"`},
		{IgnoreCase("select"), `"select"i`},
		{CharRange('a', 'z'), "[a-z]"},
		{CharRange(0, '\n'), `[\x00-\n]`},
		{CodePointRange('α', 'ω'), "[U+03B1-U+03C9]"},
		{Regex(`[0-9]+`), "/[0-9]+/"},
		{Strings("b", "a"), `["b" | "a"]`},
		{Sequence(Literal("a"), Choice(Literal("b"), Literal("c"))), `("a" ("b" / "c"))`},
		{Optional(Literal("a")), `"a"?`},
		{ZeroOrMore(Literal("a")), `"a"*`},
		{OneOrMore(Literal("a")), `"a"+`},
		{Repeat(Literal("a"), 2, Unbounded), `"a"{2,}`},
		{Times(Literal("a"), 3), `"a"{3,3}`},
		{Test(Literal("a")), `&"a"`},
		{TestNot(Literal("a")), `!"a"`},
		{Push(1), "{skippable}"},
		{Action(func(*Context) bool { return true }), "{action}"},
		{Ref("expr"), "ref(expr)"},
		{Named("word", OneOrMore(CharRange('a', 'z'))), "word <- [a-z]+"},
		{Sequence(Named("word", Literal("w")), Literal("!")), `(word "!")`},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, c.rule.String())
	}
}

func TestRuleStringCycle(t *testing.T) {
	list := Sequence(Literal("("), ZeroOrMore(Ref("list")), Literal(")"))
	_, err := Resolve(list, map[any]*Rule{"list": list})
	assert.NoError(t, err)
	assert.Equal(t, `("(" ...* ")")`, list.String())
}

func TestRuleEqual(t *testing.T) {
	a := Sequence(Literal("a"), Optional(CharRange('0', '9')), Strings("x", "y"))
	b := Sequence(Literal("a"), Optional(CharRange('0', '9')), Strings("x", "y"))
	assert.True(t, a.Equal(b))
	assert.True(t, Named("n", a).Equal(b))

	assert.False(t, a.Equal(Sequence(Literal("a"), Optional(CharRange('0', '8')), Strings("x", "y"))))
	assert.False(t, Literal("a").Equal(IgnoreCase("a")))
	assert.False(t, Repeat(Literal("a"), 1, 2).Equal(Repeat(Literal("a"), 1, 3)))
	assert.False(t, Strings("x", "y").Equal(Strings("y", "x")))
	assert.False(t, Regex("a").Equal(Regexp2("a")))
	assert.True(t, Regex("a+").Equal(Regex("a+")))
	assert.True(t, Ref("k").Equal(Ref("k")))
	assert.False(t, Ref("k").Equal(Ref("j")))

	act := Action(func(*Context) bool { return true })
	assert.True(t, act.Equal(act))
	assert.False(t, act.Equal(Action(func(*Context) bool { return true })))
	pred := CodePointFunc(func(rune) bool { return true })
	assert.False(t, pred.Equal(CodePointFunc(func(rune) bool { return true })))
}

func TestRuleAccessors(t *testing.T) {
	r := Repeat(Literal("a"), 1, 4)
	min, max := r.Bounds()
	assert.Equal(t, 1, min)
	assert.Equal(t, 4, max)
	assert.Equal(t, RepeatKind, r.Kind())
	assert.Equal(t, "Repeat", r.Label())
	assert.Len(t, r.Children(), 1)

	n := Named("as", r)
	assert.Equal(t, "as", n.Name())
	assert.Equal(t, "as", n.Label())
	assert.Equal(t, "", r.Name())

	assert.True(t, Push(1).Skippable())
	assert.Equal(t, "k", Ref("k").Key())
	assert.Len(t, If(func(*Context) bool { return true }, Empty(), nil).Children(), 1)
}
