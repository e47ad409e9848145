package input

import (
	"fmt"
	"sort"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
)

// Position is a 1-based line and column. Columns count code points.
type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Lines indexes the line breaks of a buffer so that offsets can be turned
// into positions for error messages.
type Lines struct {
	buf Buffer
	// offset of the first byte of every line but the first
	starts []int
}

// NewLines scans buf once for '\n' line breaks.
func NewLines(buf Buffer) *Lines {
	l := &Lines{buf: buf}
	n := buf.Len()
	for i := 0; i < n; i++ {
		c, _ := buf.CharAt(i)
		if c == '\n' {
			l.starts = append(l.starts, i+1)
		}
	}
	return l
}

// Count returns the number of lines, 0 for an empty buffer. A trailing line
// break starts a new, empty, line.
func (l *Lines) Count() int {
	if l.buf.Len() == 0 {
		return 0
	}
	return len(l.starts) + 1
}

// Position returns the line and column of offset i, where 0 <= i <= Len().
func (l *Lines) Position(i int) (Position, error) {
	if i < 0 || i > l.buf.Len() {
		return Position{}, errors.Wrapf(ErrOutOfRange, "position of offset %d, length %d", i, l.buf.Len())
	}
	line := sort.Search(len(l.starts), func(k int) bool { return l.starts[k] > i })
	start := 0
	if line > 0 {
		start = l.starts[line-1]
	}
	s, err := l.buf.Slice(start, i)
	if err != nil {
		return Position{}, err
	}
	return Position{Line: line + 1, Column: utf8.RuneCountInString(s) + 1}, nil
}
