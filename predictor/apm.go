package predictor

import "github.com/avesus/paq/internal"

// APM (adaptive probability map) refines a probability using context: it
// locates the stretched input in one of 32 segments across 33 anchor
// points, interpolates between the two nearest anchors, and trains the
// anchors used on the *previous* call toward the true bit. Grounded on
// the APM class in _examples/original_source/paq8b/src/Paq8b.cpp.
type APM struct {
	t     []uint16 // n*33 entries
	n     int
	index int
}

// NewAPM builds an APM over n contexts, each seeded from squash() so a
// fresh map starts out as the identity function.
func NewAPM(n int) *APM {
	a := &APM{t: make([]uint16, n*33), n: n}
	for i := 0; i < n; i++ {
		for j := 0; j < 33; j++ {
			if i == 0 {
				a.t[j] = uint16(internal.Squash((j-16)*128) * 16)
			} else {
				a.t[i*33+j] = a.t[j]
			}
		}
	}
	return a
}

// P refines pr (12-bit) in context cx (0..n-1) at the given learning
// rate, training the anchors touched on the previous call toward y.
func (a *APM) P(pr, cx int, y byte, rate int) int {
	g := (int(y) << 16) + (int(y) << uint(rate)) - int(y) - int(y)
	a.t[a.index] = uint16(int(a.t[a.index]) + ((g - int(a.t[a.index])) >> uint(rate)))
	a.t[a.index+1] = uint16(int(a.t[a.index+1]) + ((g - int(a.t[a.index+1])) >> uint(rate)))

	s := internal.Stretch(pr)
	w := s & 127
	a.index = ((s + 2048) >> 7) + cx*33
	return (int(a.t[a.index])*(128-w) + int(a.t[a.index+1])*w) >> 11
}
