package ez

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type method int

const (
	exprMethod method = iota
	termMethod
	factorMethod
)

func TestResolveMutualRecursion(t *testing.T) {
	digit := CharRange('0', '9')
	expr := Sequence(Ref(termMethod), ZeroOrMore(Sequence(Literal("+"), Ref(termMethod))))
	term := Sequence(Ref(factorMethod), ZeroOrMore(Sequence(Literal("*"), Ref(factorMethod))))
	factor := Choice(OneOrMore(digit), Sequence(Literal("("), Ref(exprMethod), Literal(")")))

	table := map[any]*Rule{exprMethod: expr, termMethod: term, factorMethod: factor}
	root, err := Resolve(Ref(exprMethod), table)
	require.NoError(t, err)
	assert.Same(t, expr, root)

	_, ok := findReference(root)
	assert.False(t, ok)

	assert.True(t, testRule(t, root,
		[]string{"1", "1+2", "1*(2+3)*4", "((1))"},
		[]string{"", "+", "1+", "(1", "1)"},
	))

	// a second pass has nothing left to do
	again, err := Resolve(root, table)
	require.NoError(t, err)
	assert.Same(t, root, again)
}

func TestResolveSharedNodes(t *testing.T) {
	shared := Sequence(Literal("x"), Ref("tail"))
	a := Choice(shared, Literal("a"))
	b := Sequence(Literal("b"), shared)
	root := Sequence(a, b)

	_, err := Resolve(root, map[any]*Rule{"tail": Literal("!")})
	require.NoError(t, err)
	assert.True(t, mustParse(t, root, "x!bx!").MatchedEntireInput)
}

func TestResolveChains(t *testing.T) {
	target := Literal("t")
	table := map[any]*Rule{
		"a": Ref("b"),
		"b": Ref("c"),
		"c": target,
	}
	root := Sequence(Ref("a"), Ref("b"))
	_, err := Resolve(root, table)
	require.NoError(t, err)
	assert.Same(t, target, root.Children()[0])
	assert.Same(t, target, root.Children()[1])
}

func TestResolveErrors(t *testing.T) {
	_, err := Resolve(Sequence(Ref("missing")), map[any]*Rule{})
	assert.True(t, errors.Is(err, ErrUndefinedRule))

	_, err = Resolve(Ref("a"), map[any]*Rule{"a": Ref("b"), "b": Ref("a")})
	assert.True(t, errors.Is(err, ErrUnresolvedReference))

	// every table entry is checked, reachable or not
	_, err = Resolve(Literal("x"), map[any]*Rule{"unused": Sequence(Ref("nowhere"))})
	assert.True(t, errors.Is(err, ErrUndefinedRule))

	_, err = Resolve(nil, nil)
	assert.True(t, errors.Is(err, ErrInvalidRule))
}
