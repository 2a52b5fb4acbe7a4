package predictor

import (
	"github.com/avesus/paq"
	"github.com/avesus/paq/internal"
)

// RunContextMap predicts the next bit from a (count, last-byte) pair
// keyed on a hashed context, using the same 4-byte BH<4> bucket as the
// original (2-byte checksum, 1-byte count, 1-byte value). Grounded on
// the RunContextMap class in
// _examples/original_source/paq8b/src/Paq8b.cpp.
type RunContextMap struct {
	t    []byte // numEntries*4
	mask uint32
	cur  uint32 // absolute offset of the current entry's count byte
	ctx  *paq.Context
}

// NewRunContextMap allocates m bytes (m/4 entries of 4 bytes each).
func NewRunContextMap(m int, ctx *paq.Context) *RunContextMap {
	n := m / 4
	r := &RunContextMap{t: make([]byte, n*4), mask: uint32(n - 1), ctx: ctx}
	r.cur = 2 // offset of entry 0's count byte (bytes 0-1 are its checksum)
	return r
}

// entryOffset hashes cx into a bucket, searching up to 8 nearby slots
// the way BH<4> does, and returns the absolute offset of that entry's
// count byte (entry+2, after the 2-byte checksum; the value byte
// follows at entry+3).
func (r *RunContextMap) entryOffset(cx uint32) uint32 {
	chk := uint16((cx>>16 ^ cx) & 0xffff)
	i := (cx * 8) & r.mask
	var found uint32 = ^uint32(0)
	for j := uint32(0); j < 8; j++ {
		idx := (i + j) & r.mask
		off := idx * 4
		cur := uint16(r.t[off]) | uint16(r.t[off+1])<<8
		if r.t[off+2] == 0 {
			r.t[off] = byte(chk)
			r.t[off+1] = byte(chk >> 8)
			cur = chk
		}
		if cur == chk {
			found = off
			break
		}
	}
	if found == ^uint32(0) {
		off := i * 4
		r.t[off] = byte(chk)
		r.t[off+1] = byte(chk >> 8)
		r.t[off+2] = 0
		r.t[off+3] = 0
		found = off
	}
	return found + 2
}

// Set selects context cx for the byte about to be coded, first
// recording the previous context's observed value as its new count.
func (r *RunContextMap) Set(cx uint32) {
	count := r.t[r.cur]
	val := r.t[r.cur+1]
	prev := r.ctx.Back(1)
	if count == 0 || val != prev {
		r.t[r.cur], r.t[r.cur+1] = 1, prev
	} else if count < 255 {
		r.t[r.cur]++
	}
	r.cur = r.entryOffset(cx)
}

// P returns the signed, count-scaled feature for the current context.
func (r *RunContextMap) P() int {
	count, val := r.t[r.cur], r.t[r.cur+1]
	bpos := r.ctx.BitsConsumed()
	if bpos < 8 && (int(val)+256)>>uint(8-bpos) == int(r.ctx.C0) {
		bit := (int(val) >> uint(7-bpos)) & 1
		return (bit*2 - 1) * internal.ILog(uint16(count)+1) * 8
	}
	return 0
}

// Mix pushes P() into mx and reports whether the current entry holds a
// live run (count != 0).
func (r *RunContextMap) Mix(mx *Mixer) int {
	mx.Add(r.P())
	if r.t[r.cur] != 0 {
		return 1
	}
	return 0
}
