package filter

import "errors"

// textEscape flags the byte that follows as either a folded capital
// letter or, when it repeats itself, a literal occurrence of the
// escape byte.
const textEscape = 0x01

// ErrNotText is returned by Forward when src contains enough non-text
// bytes that the transform would not help (the caller falls back to
// DefaultFilter).
var ErrNotText = errors.New("text filter: binary content")

// TextFilter folds capital letters to lowercase behind an escape byte,
// the word-case half of the bijective word/case preprocessing the
// original delegates to an external WRT (word-reduction transform)
// library (spec.md §4.12 calls this out as an external collaborator).
// Dictionary-based word replacement is not reimplemented here -
// grounded on the case-folding behavior WRT performs before its
// dictionary pass, which is self-contained and worth keeping on its
// own: case flags are cheap for the predictor's word model to learn
// and strip, the same way order-N contexts ignore a learned stationary
// bias.
type TextFilter struct{}

// NewTextFilter returns the case-folding transform.
func NewTextFilter() *TextFilter { return &TextFilter{} }

// MaxEncodedLen doubles srcLen: the worst case is every byte needing
// an escape (all capitals, or text saturated with 0x01 bytes).
func (this *TextFilter) MaxEncodedLen(srcLen int) int { return srcLen * 2 }

// Forward escapes every capital letter (emits textEscape, lower(b)) and
// every literal textEscape byte (emits textEscape, textEscape).
// Returns ErrNotText if src looks binary (too many control bytes) to
// avoid bloating non-text payloads with escapes.
func (this *TextFilter) Forward(src, dst []byte) (int, int, error) {
	if len(src) == 0 {
		return 0, 0, nil
	}
	control := 0
	for _, b := range src {
		if b < 9 || (b > 13 && b < 32) {
			control++
		}
	}
	if control*20 > len(src) {
		return 0, 0, ErrNotText
	}

	r, w := 0, 0
	for r < len(src) {
		b := src[r]
		switch {
		case b == textEscape:
			dst[w], dst[w+1] = textEscape, textEscape
			w += 2
		case b >= 'A' && b <= 'Z':
			dst[w], dst[w+1] = textEscape, b+32
			w += 2
		default:
			dst[w] = b
			w++
		}
		r++
	}
	return r, w, nil
}

// Inverse reverses Forward: an escape followed by itself is a literal
// escape byte, any other escaped byte is re-uppercased.
func (this *TextFilter) Inverse(src, dst []byte) (int, int, error) {
	r, w := 0, 0
	for r < len(src) {
		b := src[r]
		if b == textEscape && r+1 < len(src) {
			n := src[r+1]
			if n == textEscape {
				dst[w] = textEscape
			} else {
				dst[w] = n - 32
			}
			w++
			r += 2
			continue
		}
		dst[w] = b
		w++
		r++
	}
	return r, w, nil
}
