// Package input provides random access views over the text being parsed.
//
// Offsets are byte offsets into UTF-8 text. CharAt returns a single byte,
// CodePointAt decodes the rune starting at an offset. Every backing decodes
// multi-byte sequences the same way, including sequences split across the
// segments of a segmented buffer.
package input

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
)

// ErrOutOfRange is returned for offsets outside of the buffer.
var ErrOutOfRange = errors.New("offset out of range")

// Buffer is the text a rule tree is matched against.
type Buffer interface {
	Len() int
	CharAt(i int) (byte, error)
	CodePointAt(i int) (r rune, width int, err error)
	// Slice returns the text in [from, to). to may equal Len().
	Slice(from, to int) (string, error)
	String() string
}

func outOfRange(i, length int) error {
	return errors.Wrapf(ErrOutOfRange, "offset %d, length %d", i, length)
}

func checkSlice(from, to, length int) error {
	if from < 0 || to > length || from > to {
		return errors.Wrapf(ErrOutOfRange, "slice [%d:%d], length %d", from, to, length)
	}
	return nil
}

type stringBuffer struct {
	s string
}

// FromString returns a buffer backed by s.
func FromString(s string) Buffer {
	return &stringBuffer{s: s}
}

func (b *stringBuffer) Len() int { return len(b.s) }

func (b *stringBuffer) CharAt(i int) (byte, error) {
	if i < 0 || i >= len(b.s) {
		return 0, outOfRange(i, len(b.s))
	}
	return b.s[i], nil
}

func (b *stringBuffer) CodePointAt(i int) (rune, int, error) {
	if i < 0 || i >= len(b.s) {
		return 0, 0, outOfRange(i, len(b.s))
	}
	if c := b.s[i]; c < utf8.RuneSelf {
		return rune(c), 1, nil
	}
	r, w := utf8.DecodeRuneInString(b.s[i:])
	return r, w, nil
}

func (b *stringBuffer) Slice(from, to int) (string, error) {
	if err := checkSlice(from, to, len(b.s)); err != nil {
		return "", err
	}
	return b.s[from:to], nil
}

func (b *stringBuffer) String() string { return b.s }

type bytesBuffer struct {
	b []byte
}

// FromBytes returns a buffer backed by a copy of b, as produced by a
// bytes.Buffer or strings.Builder style accumulator.
func FromBytes(b []byte) Buffer {
	c := make([]byte, len(b))
	copy(c, b)
	return &bytesBuffer{b: c}
}

func (b *bytesBuffer) Len() int { return len(b.b) }

func (b *bytesBuffer) CharAt(i int) (byte, error) {
	if i < 0 || i >= len(b.b) {
		return 0, outOfRange(i, len(b.b))
	}
	return b.b[i], nil
}

func (b *bytesBuffer) CodePointAt(i int) (rune, int, error) {
	if i < 0 || i >= len(b.b) {
		return 0, 0, outOfRange(i, len(b.b))
	}
	if c := b.b[i]; c < utf8.RuneSelf {
		return rune(c), 1, nil
	}
	r, w := utf8.DecodeRune(b.b[i:])
	return r, w, nil
}

func (b *bytesBuffer) Slice(from, to int) (string, error) {
	if err := checkSlice(from, to, len(b.b)); err != nil {
		return "", err
	}
	return string(b.b[from:to]), nil
}

func (b *bytesBuffer) String() string { return string(b.b) }

// segmentBuffer joins several pieces of text without copying them. starts[i]
// is the offset of segs[i] within the whole buffer.
type segmentBuffer struct {
	segs   []string
	starts []int
	length int
}

// FromSegments returns a buffer over the concatenation of segs.
func FromSegments(segs ...string) Buffer {
	b := &segmentBuffer{}
	for _, s := range segs {
		if s == "" {
			continue
		}
		b.segs = append(b.segs, s)
		b.starts = append(b.starts, b.length)
		b.length += len(s)
	}
	return b
}

func (b *segmentBuffer) Len() int { return b.length }

func (b *segmentBuffer) locate(i int) (seg, off int) {
	seg = sort.Search(len(b.starts), func(k int) bool { return b.starts[k] > i }) - 1
	return seg, i - b.starts[seg]
}

func (b *segmentBuffer) CharAt(i int) (byte, error) {
	if i < 0 || i >= b.length {
		return 0, outOfRange(i, b.length)
	}
	seg, off := b.locate(i)
	return b.segs[seg][off], nil
}

func (b *segmentBuffer) CodePointAt(i int) (rune, int, error) {
	if i < 0 || i >= b.length {
		return 0, 0, outOfRange(i, b.length)
	}
	seg, off := b.locate(i)
	s := b.segs[seg]
	if s[off] < utf8.RuneSelf {
		return rune(s[off]), 1, nil
	}
	if utf8.FullRuneInString(s[off:]) || seg == len(b.segs)-1 {
		r, w := utf8.DecodeRuneInString(s[off:])
		return r, w, nil
	}

	// the sequence continues in the following segments
	var p [utf8.UTFMax]byte
	n := 0
	for j := i; j < b.length && n < utf8.UTFMax; j++ {
		c, _ := b.CharAt(j)
		p[n] = c
		n++
	}
	r, w := utf8.DecodeRune(p[:n])
	return r, w, nil
}

func (b *segmentBuffer) Slice(from, to int) (string, error) {
	if err := checkSlice(from, to, b.length); err != nil {
		return "", err
	}
	if from == to {
		return "", nil
	}
	seg, off := b.locate(from)
	if first := b.segs[seg]; off+(to-from) <= len(first) {
		return first[off : off+(to-from)], nil
	}
	var sb strings.Builder
	sb.Grow(to - from)
	for i := from; i < to; {
		seg, off = b.locate(i)
		s := b.segs[seg][off:]
		if len(s) > to-i {
			s = s[:to-i]
		}
		sb.WriteString(s)
		i += len(s)
	}
	return sb.String(), nil
}

func (b *segmentBuffer) String() string {
	return strings.Join(b.segs, "")
}
