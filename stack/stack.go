// Package stack implements the value stack used by semantic actions.
//
// The stack is a persistent linked list: a Snapshot is the current top node
// plus the size, so taking and restoring one is O(1) and mutations made after
// a snapshot never disturb it.
package stack

import (
	"github.com/cockroachdb/errors"
)

var (
	// ErrEmpty is returned when popping, peeking or duplicating an empty stack.
	ErrEmpty = errors.New("stack is empty")
	// ErrOutOfRange is returned when an operation reaches below the bottom
	// of the stack.
	ErrOutOfRange = errors.New("stack index out of range")
)

type node[T any] struct {
	value T
	next  *node[T]
}

// Snapshot captures the contents of a stack. Snapshots are comparable with ==.
type Snapshot[T any] struct {
	head *node[T]
	size int
}

// Size returns the number of values captured.
func (s Snapshot[T]) Size() int { return s.size }

// Stack is a LIFO of values. The zero value is an empty stack.
type Stack[T any] struct {
	head *node[T]
	size int
}

// New returns an empty stack.
func New[T any]() *Stack[T] {
	return &Stack[T]{}
}

func (s *Stack[T]) Size() int { return s.size }

func (s *Stack[T]) IsEmpty() bool { return s.size == 0 }

func (s *Stack[T]) Push(v T) {
	s.head = &node[T]{value: v, next: s.head}
	s.size++
}

func (s *Stack[T]) checkDown(op string, down int) error {
	if s.size == 0 {
		return errors.Wrapf(ErrEmpty, "%s", op)
	}
	if down < 0 || down >= s.size {
		return errors.Wrapf(ErrOutOfRange, "%s %d, size %d", op, down, s.size)
	}
	return nil
}

// Pop removes and returns the top value.
func (s *Stack[T]) Pop() (T, error) {
	return s.PopN(0)
}

// PopN removes and returns the value down positions below the top. The
// remaining values keep their order.
func (s *Stack[T]) PopN(down int) (T, error) {
	var zero T
	if err := s.checkDown("pop", down); err != nil {
		return zero, err
	}
	above, n := s.split(down)
	v := n.value
	s.head = rebuild(above, n.next)
	s.size--
	return v, nil
}

// Peek returns the top value.
func (s *Stack[T]) Peek() (T, error) {
	return s.PeekN(0)
}

// PeekN returns the value down positions below the top.
func (s *Stack[T]) PeekN(down int) (T, error) {
	var zero T
	if err := s.checkDown("peek", down); err != nil {
		return zero, err
	}
	n := s.head
	for i := 0; i < down; i++ {
		n = n.next
	}
	return n.value, nil
}

// Poke replaces the top value.
func (s *Stack[T]) Poke(v T) error {
	return s.PokeN(0, v)
}

// PokeN replaces the value down positions below the top.
func (s *Stack[T]) PokeN(down int, v T) error {
	if err := s.checkDown("poke", down); err != nil {
		return err
	}
	above, n := s.split(down)
	s.head = rebuild(above, &node[T]{value: v, next: n.next})
	return nil
}

// Dup pushes a copy of the top value.
func (s *Stack[T]) Dup() error {
	if s.size == 0 {
		return errors.Wrapf(ErrEmpty, "dup")
	}
	s.Push(s.head.value)
	return nil
}

// Swap exchanges the two topmost values.
func (s *Stack[T]) Swap() error {
	if s.size < 2 {
		return errors.Wrapf(ErrOutOfRange, "swap needs 2 values, size %d", s.size)
	}
	a, b := s.head, s.head.next
	s.head = &node[T]{value: b.value, next: &node[T]{value: a.value, next: b.next}}
	return nil
}

// Clear removes all values.
func (s *Stack[T]) Clear() {
	s.head = nil
	s.size = 0
}

// Values returns the contents, top first.
func (s *Stack[T]) Values() []T {
	out := make([]T, 0, s.size)
	for n := s.head; n != nil; n = n.next {
		out = append(out, n.value)
	}
	return out
}

func (s *Stack[T]) Snapshot() Snapshot[T] {
	return Snapshot[T]{head: s.head, size: s.size}
}

func (s *Stack[T]) Restore(snap Snapshot[T]) {
	s.head = snap.head
	s.size = snap.size
}

// split returns the values above position down, top first, and the node at
// position down.
func (s *Stack[T]) split(down int) ([]T, *node[T]) {
	above := make([]T, 0, down)
	n := s.head
	for i := 0; i < down; i++ {
		above = append(above, n.value)
		n = n.next
	}
	return above, n
}

// rebuild pushes copies of above onto tail, so nodes shared with snapshots
// are never written to.
func rebuild[T any](above []T, tail *node[T]) *node[T] {
	for i := len(above) - 1; i >= 0; i-- {
		tail = &node[T]{value: above[i], next: tail}
	}
	return tail
}
