package predictor

import (
	"github.com/avesus/paq"
	"github.com/avesus/paq/internal"
)

// PictureModel predicts a 1-bit-per-pixel CCITT fax bitmap (spec.md
// §4.10 "Picture model") from the five pixels above and one to the
// left, each context driving its own bit-history state and StateMap.
// Grounded on picModel() in
// _examples/original_source/paq8b/src/Paq8b.cpp. The caller supplies
// the fixed 216-byte row stride (1728 px / 8) that the original hard
// codes as buf(215)/buf(431)/buf(647).
type PictureModel struct {
	ctx            *paq.Context
	st             *StateTable
	t              []byte // 0x10200 states
	r0, r1, r2, r3 uint32
	cxt            [3]uint32
	sm             [3]*StateMap
	stride         int32
}

// NewPictureModel builds the model for a fixed row stride in bytes
// (216 for the canonical 1728-pixel-per-row CCITT layout).
func NewPictureModel(ctx *paq.Context, st *StateTable, stride int32) *PictureModel {
	pm := &PictureModel{ctx: ctx, st: st, t: make([]byte, 0x10200), stride: stride}
	for i := range pm.sm {
		pm.sm[i] = NewStateMap()
	}
	return pm
}

func (pm *PictureModel) Mix(mx *Mixer) {
	c := pm.ctx
	for i := 0; i < 3; i++ {
		pm.t[pm.cxt[i]] = pm.st.Next(pm.t[pm.cxt[i]], c.Y)
	}

	bp := uint(7 - c.BitsConsumed())
	pm.r0 = pm.r0<<1 | uint32(c.Y)
	pm.r1 = pm.r1<<1 | uint32((c.Back(pm.stride-1)>>bp)&1)
	pm.r2 = pm.r2<<1 | uint32((c.Back(2*pm.stride-1)>>bp)&1)
	pm.r3 = pm.r3<<1 | uint32((c.Back(3*pm.stride-1)>>bp)&1)

	pm.cxt[0] = pm.r0&0x7 | pm.r1>>4&0x38 | pm.r2>>3&0xc0
	pm.cxt[1] = 0x100 + (pm.r0&1 | pm.r1>>4&0x3e | pm.r2>>2&0x40 | pm.r3>>1&0x80)
	pm.cxt[2] = 0x200 + (pm.r0&0x3f ^ pm.r1&0x3ffe ^ pm.r2<<2&0x7f00 ^ pm.r3<<5&0xf800)

	for i := 0; i < 3; i++ {
		p := pm.sm[i].P(int(pm.t[pm.cxt[i]]), c.Y)
		mx.Add(internal.Stretch(p))
	}
}
