package stack

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func filled(vs ...int) *Stack[int] {
	s := New[int]()
	for _, v := range vs {
		s.Push(v)
	}
	return s
}

func TestPushPop(t *testing.T) {
	s := filled(1, 2, 3)
	require.Equal(t, 3, s.Size())
	assert.Equal(t, []int{3, 2, 1}, s.Values())

	v, err := s.Pop()
	require.NoError(t, err)
	assert.Equal(t, 3, v)

	v, err = s.PopN(1)
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	assert.Equal(t, []int{2}, s.Values())

	v, err = s.Peek()
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestPopNKeepsOrder(t *testing.T) {
	s := filled(1, 2, 3, 4, 5)
	v, err := s.PopN(2)
	require.NoError(t, err)
	assert.Equal(t, 3, v)
	assert.Equal(t, []int{5, 4, 2, 1}, s.Values())
}

func TestPeekPoke(t *testing.T) {
	s := filled(1, 2, 3)
	v, err := s.PeekN(2)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	require.NoError(t, s.Poke(30))
	require.NoError(t, s.PokeN(1, 20))
	assert.Equal(t, []int{30, 20, 1}, s.Values())
}

func TestDupSwap(t *testing.T) {
	s := filled(1, 2)
	require.NoError(t, s.Swap())
	assert.Equal(t, []int{1, 2}, s.Values())
	require.NoError(t, s.Dup())
	assert.Equal(t, []int{1, 1, 2}, s.Values())
}

func TestContractErrors(t *testing.T) {
	s := New[int]()
	_, err := s.Pop()
	assert.True(t, errors.Is(err, ErrEmpty))
	_, err = s.Peek()
	assert.True(t, errors.Is(err, ErrEmpty))
	assert.True(t, errors.Is(s.Poke(1), ErrEmpty))
	assert.True(t, errors.Is(s.Dup(), ErrEmpty))
	assert.True(t, errors.Is(s.Swap(), ErrOutOfRange))

	s.Push(1)
	assert.True(t, errors.Is(s.Swap(), ErrOutOfRange))
	_, err = s.PopN(1)
	assert.True(t, errors.Is(err, ErrOutOfRange))
	_, err = s.PeekN(-1)
	assert.True(t, errors.Is(err, ErrOutOfRange))
	assert.True(t, errors.Is(s.PokeN(5, 0), ErrOutOfRange))
	assert.Equal(t, 1, s.Size())
}

func TestSnapshotRestore(t *testing.T) {
	s := filled(1, 2, 3)
	snap := s.Snapshot()
	assert.Equal(t, 3, snap.Size())

	_, err := s.Pop()
	require.NoError(t, err)
	s.Push(10)
	require.NoError(t, s.PokeN(1, 20))
	require.NoError(t, s.Swap())
	_, err = s.PopN(2)
	require.NoError(t, err)
	s.Clear()
	s.Push(99)

	s.Restore(snap)
	assert.Equal(t, []int{3, 2, 1}, s.Values())
	assert.True(t, snap == s.Snapshot())
}

func TestNestedSnapshots(t *testing.T) {
	s := New[string]()
	outer := s.Snapshot()
	s.Push("a")
	inner := s.Snapshot()
	s.Push("b")
	s.Restore(inner)
	assert.Equal(t, []string{"a"}, s.Values())
	s.Restore(outer)
	assert.True(t, s.IsEmpty())
	assert.False(t, inner == outer)
}
