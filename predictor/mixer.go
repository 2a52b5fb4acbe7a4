package predictor

import "github.com/avesus/paq/internal"

// Mixer is a two-layer online logistic regression: up to S parallel
// layer-1 units, each with N inputs and its own weight row selected by
// a context id, feeding a single layer-2 unit when S>1. Grounded on the
// Mixer class in _examples/original_source/paq8b/src/Paq8b.cpp
// (dot_product/train/p()), generalized per spec.md §9 into an owned
// value (no function-local statics) with an explicit second Mixer held
// by pointer exactly as the original's `mp` does.
type Mixer struct {
	n, m, s int
	tx      []int32 // inputs, length n
	wx      []int32 // n*m weights
	cxt     []int32 // up to s context ids
	ncxt    int
	base    int32
	nx      int
	pr      []int32
	second  *Mixer
}

// NewMixer builds a mixer with n inputs (rounded up to a multiple of 8),
// m weight sets, and s concurrently selectable contexts. When s>1 a
// second-layer Mixer(s,1,1) is created to combine the s outputs.
func NewMixer(n, m, s int) *Mixer {
	n = (n + 7) &^ 7
	mx := &Mixer{
		n:   n,
		m:   m,
		s:   s,
		tx:  make([]int32, n),
		wx:  make([]int32, n*m),
		cxt: make([]int32, s),
		pr:  make([]int32, s),
	}
	for i := range mx.pr {
		mx.pr[i] = 2048
	}
	if s > 1 {
		mx.second = NewMixer(s, 1, 1)
	}
	return mx
}

// Add pushes one stretched model prediction into the input vector.
func (mx *Mixer) Add(x int) {
	mx.tx[mx.nx] = int32(x)
	mx.nx++
}

// SetContext selects a weight-row context; callable up to s times per
// bit, with the ranges summing to at most m.
func (mx *Mixer) SetContext(cx, rng int) {
	mx.cxt[mx.ncxt] = mx.base + int32(cx)
	mx.ncxt++
	mx.base += int32(rng)
}

// P evaluates the network: layer 1 for each active context, combined
// through the layer-2 mixer if s>1.
func (mx *Mixer) P() int {
	for mx.nx&7 != 0 {
		mx.tx[mx.nx] = 0
		mx.nx++
	}
	if mx.second != nil {
		for i := 0; i < mx.ncxt; i++ {
			row := mx.wx[int(mx.cxt[i])*mx.n : int(mx.cxt[i])*mx.n+mx.nx]
			dp := dotProduct(mx.tx[:mx.nx], row)
			mx.pr[i] = int32(internal.Squash(int(dp >> 5)))
			mx.second.Add(internal.Stretch(int(mx.pr[i])))
		}
		mx.second.SetContext(0, 1)
		return mx.second.P()
	}
	row := mx.wx[int(mx.cxt[0])*mx.n : int(mx.cxt[0])*mx.n+mx.nx]
	dp := dotProduct(mx.tx[:mx.nx], row)
	mx.pr[0] = int32(internal.Squash(int(dp >> 8)))
	return int(mx.pr[0])
}

// Update trains every active context's weight row on the true bit y and
// clears the per-bit input/context state (must be called once per bit,
// after Update the mixer is ready for the next bit's Add/SetContext).
func (mx *Mixer) Update(y byte) {
	if mx.second != nil {
		mx.second.Update(y)
	}
	for i := 0; i < mx.ncxt; i++ {
		err := ((int32(y) << 12) - mx.pr[i]) * 7
		row := mx.wx[int(mx.cxt[i])*mx.n : int(mx.cxt[i])*mx.n+mx.nx]
		train(mx.tx[:mx.nx], row, err)
	}
	mx.nx, mx.base, mx.ncxt = 0, 0, 0
}

// dotProduct returns (t . w) for equal-length slices, matching the
// original's n-rounded-to-8, >>8-scaled fixed-point dot product.
func dotProduct(t, w []int32) int64 {
	var sum int64
	for i := range t {
		sum += int64(t[i]) * int64(w[i])
	}
	return sum >> 8
}

// train applies the coding-cost gradient update to one weight row,
// saturating every weight to signed 16 bits (spec.md §4.8).
func train(t, w []int32, err int32) {
	for i := range t {
		delta := ((t[i]*err*2)>>16 + 1) >> 1
		wt := w[i] + delta
		if wt < -32768 {
			wt = -32768
		}
		if wt > 32767 {
			wt = 32767
		}
		w[i] = wt
	}
}
