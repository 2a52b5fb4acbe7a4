package predictor

import (
	"github.com/avesus/paq"
	"github.com/avesus/paq/internal"
)

// SparseModel emits order 1-2 contexts with byte gaps: pairs of bytes
// separated by a non-adjacent distance. Grounded on sparseModel() in
// _examples/original_source/paq8b/src/Paq8b.cpp.
type SparseModel struct {
	ctx      *paq.Context
	cm, scm  *ContextMap
}

// NewSparseModel allocates an 8-context gap map (mem*4 bytes) and an
// 8-context small run map (mem bytes).
func NewSparseModel(mem int, ctx *paq.Context, st *StateTable, prng *internal.PRNG) *SparseModel {
	return &SparseModel{
		ctx: ctx,
		cm:  NewContextMap(mem*4, 8, st, prng),
		scm: NewContextMap(mem, 8, st, prng),
	}
}

func (sp *SparseModel) Mix(mx *Mixer) {
	c := sp.ctx
	if c.BitsConsumed() == 0 {
		sp.cm.Set(uint32(c.C4)&0x00ff00ff, 0)
		sp.cm.Set(uint32(c.C4)&0xff0000ff, 1)
		sp.cm.Set(uint32(c.Back(1))|uint32(c.Back(5))<<8, 2)
		sp.cm.Set(uint32(c.Back(1))|uint32(c.Back(6))<<8, 3)
		sp.cm.Set(uint32(c.C4)&0x00ffff00, 4)
		sp.cm.Set(uint32(c.C4)&0xff00ff00, 5)
		sp.cm.Set(uint32(c.Back(3))|uint32(c.Back(6))<<8, 6)
		sp.cm.Set(uint32(c.Back(4))|uint32(c.Back(8))<<8, 7)
		for i := 0; i < 8; i++ {
			sp.scm.Set(uint32(c.Back(int32(i+1))), i)
		}
	}
	sp.cm.Mix(mx, c.Y)
	sp.scm.Mix(mx, c.Y)
}
