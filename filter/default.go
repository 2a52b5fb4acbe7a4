// Package filter implements the reversible byte-stream transforms
// applied to a file before it reaches the predictor (spec.md §4.12),
// and the self-verifying driver that always falls back to the
// identity transform when a transform's round trip cannot be proven
// safe. Grounded on the Filter/DefaultFilter/ExeFilter/TextFilter
// classes in _examples/original_source/paq8b/src/Paq8b.cpp, in the Go
// idiom (Forward/Inverse, "this" receivers) of
// _examples/flanglet-kanzi-go/v2/transform/EXECodec.go and TextCodec.go.
package filter

import "github.com/avesus/paq"

// DefaultFilter is the identity transform: every file type falls back
// to it when no structural transform applies or round-trips cleanly.
type DefaultFilter struct{}

// NewDefaultFilter returns the identity transform.
func NewDefaultFilter() *DefaultFilter { return &DefaultFilter{} }

// Forward copies src to dst unchanged.
func (this *DefaultFilter) Forward(src, dst []byte) (int, int, error) {
	n := copy(dst, src)
	return n, n, nil
}

// Inverse copies src to dst unchanged.
func (this *DefaultFilter) Inverse(src, dst []byte) (int, int, error) {
	n := copy(dst, src)
	return n, n, nil
}

// MaxEncodedLen returns srcLen: the identity transform never grows.
func (this *DefaultFilter) MaxEncodedLen(srcLen int) int { return srcLen }

var _ paq.ByteTransform = (*DefaultFilter)(nil)
