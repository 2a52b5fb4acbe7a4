package predictor

import (
	"github.com/avesus/paq"
	"github.com/avesus/paq/internal"
)

// RecordModel detects a fixed record stride by requiring four
// consecutive equal gaps between repeats of the same byte, then emits
// contexts keyed on column-in-record and the bytes at the same column
// in previous records. Grounded on recordModel() in
// _examples/original_source/paq8b/src/Paq8b.cpp.
type RecordModel struct {
	ctx                      *paq.Context
	cm                       *ContextMap
	cpos1, cpos2, cpos3, cpos4 [256]int64
	wpos1                    []int64
	rlen, rlen1, rlen2       int64
	rcount1, rcount2         int
}

// NewRecordModel allocates a 7-context ContextMap sized mem*4 bytes.
func NewRecordModel(mem int, ctx *paq.Context, st *StateTable, prng *internal.PRNG) *RecordModel {
	return &RecordModel{
		ctx:   ctx,
		cm:    NewContextMap(mem*4, 7, st, prng),
		wpos1: make([]int64, 0x10000),
		rlen:  2, rlen1: 3, rlen2: 4,
	}
}

func (rm *RecordModel) Mix(mx *Mixer) {
	c := rm.ctx
	if c.BitsConsumed() == 0 {
		cb := c.Back(1)
		w := c.C4 & 0xffff
		r := c.Pos - rm.cpos1[cb]
		if r > 1 && r == rm.cpos1[cb]-rm.cpos2[cb] && r == rm.cpos2[cb]-rm.cpos3[cb] &&
			r == rm.cpos3[cb]-rm.cpos4[cb] &&
			(r > 15 || (cb == c.Back(int32(r*5+1)) && cb == c.Back(int32(r*6+1)))) {
			switch {
			case r == rm.rlen1:
				rm.rcount1++
			case r == rm.rlen2:
				rm.rcount2++
			case rm.rcount1 > rm.rcount2:
				rm.rlen2, rm.rcount2 = r, 1
			default:
				rm.rlen1, rm.rcount1 = r, 1
			}
		}
		if rm.rcount1 > 15 && rm.rlen != rm.rlen1 {
			rm.rlen, rm.rcount1, rm.rcount2 = rm.rlen1, 0, 0
		}
		if rm.rcount2 > 15 && rm.rlen != rm.rlen2 {
			rm.rlen, rm.rcount1, rm.rcount2 = rm.rlen2, 0, 0
		}

		dist := c.Pos - rm.cpos1[cb]
		if dist > 255 {
			dist = 255
		}
		rm.cm.Set(uint32(cb)<<8|uint32(dist), 0)
		rm.cm.Set(uint32(cb)<<17|uint32(c.Back(2))<<9|uint32(internal.LLog(uint32(c.Pos-rm.wpos1[w])))>>2, 1)
		col := c.Pos % rm.rlen
		rm.cm.Set(uint32(cb)<<8|uint32(c.Back(int32(rm.rlen))), 2)
		rm.cm.Set(uint32(rm.rlen)|uint32(c.Back(int32(rm.rlen)))<<10|uint32(c.Back(int32(rm.rlen*2)))<<18, 3)
		rm.cm.Set(uint32(rm.rlen)|uint32(c.Back(int32(rm.rlen)))<<10|uint32(col)<<18, 4)
		rm.cm.Set(uint32(rm.rlen)|uint32(c.Back(1))<<10|uint32(col)<<18, 5)
		rm.cm.Set(uint32(col)|uint32(rm.rlen)<<12, 6)

		rm.cpos4[cb] = rm.cpos3[cb]
		rm.cpos3[cb] = rm.cpos2[cb]
		rm.cpos2[cb] = rm.cpos1[cb]
		rm.cpos1[cb] = c.Pos
		rm.wpos1[w] = c.Pos
	}
	rm.cm.Mix(mx, c.Y)
}
