package input

import "unicode"

// Fold maps r to the smallest rune of its simple case folding orbit, so two
// runes are equal ignoring case iff their folds are equal.
func Fold(r rune) rune {
	if r < 0x80 {
		if 'a' <= r && r <= 'z' {
			return r - 'a' + 'A'
		}
		return r
	}
	min := r
	for f := unicode.SimpleFold(r); f != r; f = unicode.SimpleFold(f) {
		if f < min {
			min = f
		}
	}
	return min
}
