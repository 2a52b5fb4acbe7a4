package predictor

import (
	"github.com/avesus/paq"
	"github.com/avesus/paq/internal"
)

// execxtN is the number of sparse x86 contexts the model maintains.
const execxtN = 12

// EXEModel extracts 12 contexts from the two prefix bytes, opcode, and
// mod+r/m field of x86 instructions, ignoring the reg field so the
// same opcode/operand shape hashes together regardless of register
// choice. Grounded on execxt()/exeModel() in
// _examples/original_source/paq8b/src/Paq8b.cpp.
type EXEModel struct {
	ctx *paq.Context
	cm  *ContextMap
}

// NewEXEModel allocates a 12-context ContextMap sized mem*2 bytes.
func NewEXEModel(mem int, ctx *paq.Context, st *StateTable, prng *internal.PRNG) *EXEModel {
	return &EXEModel{ctx: ctx, cm: NewContextMap(mem*2, execxtN, st, prng)}
}

func (em *EXEModel) execxt(i int32, x uint32) uint32 {
	c := em.ctx
	prefix := uint32(0)
	if c.Back(i+2) == 0x0f {
		prefix += 1
	}
	if c.Back(i+2) == 0x66 {
		prefix += 2
	}
	if c.Back(i+2) == 0x67 {
		prefix += 3
	}
	if c.Back(i+3) == 0x0f {
		prefix += 4
	}
	if c.Back(i+3) == 0x66 {
		prefix += 8
	}
	if c.Back(i+3) == 0x67 {
		prefix += 12
	}
	opcode := uint32(c.Back(i + 1))
	modrm := uint32(c.Back(i)) & 0xc7
	return prefix | opcode<<4 | modrm<<12 | x<<20
}

func (em *EXEModel) Mix(mx *Mixer) {
	c := em.ctx
	if c.BitsConsumed() == 0 {
		for i := 0; i < execxtN; i++ {
			x := uint32(0)
			if i > 4 {
				x = uint32(c.Back(1))
			}
			em.cm.Set(em.execxt(int32(i), x), i)
		}
	}
	em.cm.Mix(mx, c.Y)
}
