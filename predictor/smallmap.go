package predictor

import (
	"github.com/avesus/paq"
	"github.com/avesus/paq/internal"
)

// SmallStationaryContextMap is a direct-indexed (no hashing, no
// checksum) adaptive probability table for contexts small enough to
// fit without collision, e.g. the BMP sub-model's pixel contexts. Grounded on
// the SmallStationaryContextMap class in
// _examples/original_source/paq8b/src/Paq8b.cpp.
type SmallStationaryContextMap struct {
	t    []uint16
	size uint32
	cxt  uint32
	cur  uint32
	ctx  *paq.Context
}

// NewSmallStationaryContextMap allocates m/2 16-bit entries, all
// seeded at p=1/2.
func NewSmallStationaryContextMap(m int, ctx *paq.Context) *SmallStationaryContextMap {
	n := m / 2
	s := &SmallStationaryContextMap{t: make([]uint16, n), size: uint32(n), ctx: ctx}
	for i := range s.t {
		s.t[i] = 32768
	}
	return s
}

// Set selects context cx for the byte about to be coded.
func (s *SmallStationaryContextMap) Set(cx uint32) {
	s.cxt = (cx * 256) & (s.size - 256)
}

// Mix trains the entry used for the previous bit toward y at the given
// rate, selects the entry for the current partial byte, and pushes its
// stretched probability into mx.
func (s *SmallStationaryContextMap) Mix(mx *Mixer, rate uint) {
	y := s.ctx.Y
	p := &s.t[s.cur]
	*p = uint16(int(*p) + ((int(y)<<16)-int(*p)+(1<<(rate-1)))>>rate)
	s.cur = s.cxt + uint32(s.ctx.C0)
	mx.Add(internal.Stretch(int(s.t[s.cur]) >> 4))
}
