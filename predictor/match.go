package predictor

import (
	"github.com/avesus/paq"
	"github.com/avesus/paq/internal"
)

// maxMatchLen caps both the measured match length and the length fed
// to ilog, matching the original's "longest allowed match + 1" bound.
const maxMatchLen = 2047

// MatchModel detects long repeats of the recent byte stream via a
// rolling 7-byte hash into a table of positions, then predicts the bit
// that continued the match last time. Grounded on matchModel() in
// _examples/original_source/paq8b/src/Paq8b.cpp.
type MatchModel struct {
	ctx     *paq.Context
	t       []int64 // hash -> last position with this context
	mask    uint32
	h       uint32
	ptr     int64
	matched int
}

// NewMatchModel allocates a position table sized mem entries (a power
// of two).
func NewMatchModel(mem int, ctx *paq.Context) *MatchModel {
	return &MatchModel{ctx: ctx, t: make([]int64, mem), mask: uint32(mem - 1)}
}

// Mix updates the match at byte boundaries, predicts the continuation
// bit into mx, and returns the current match length (the top-level
// predictor bypasses most other models when this exceeds 400).
func (mm *MatchModel) Mix(mx *Mixer) int {
	c := mm.ctx
	bp := c.BitsConsumed()
	if bp == 0 {
		mm.h = (mm.h*997*8 + uint32(c.Back(1)) + 1) & mm.mask
		if mm.matched > 0 {
			mm.matched++
			mm.ptr++
		} else {
			mm.ptr = mm.t[mm.h]
			if mm.ptr != 0 && c.Pos-mm.ptr < int64(c.BufLen()) {
				for mm.matched < maxMatchLen && c.Back(int32(mm.matched+1)) == c.At(int32(mm.ptr-int64(mm.matched)-1)) {
					mm.matched++
				}
			}
		}
		mm.t[mm.h] = c.Pos
	}

	length := mm.matched
	if length > maxMatchLen {
		length = maxMatchLen
	}

	sgn := 0
	if length > 0 && c.Back(1) == c.At(int32(mm.ptr-1)) &&
		c.C0 == (int32(c.At(int32(mm.ptr)))+256)>>uint(8-bp) {
		if (c.At(int32(mm.ptr))>>uint(7-bp))&1 != 0 {
			sgn = 1
		} else {
			sgn = -1
		}
	} else {
		sgn, length, mm.matched = 0, 0, 0
	}

	mx.Add(sgn * 4 * internal.ILog(uint16(length)))
	minLen := length
	if minLen > 32 {
		minLen = 32
	}
	mx.Add(sgn * 64 * minLen)
	return mm.matched
}
