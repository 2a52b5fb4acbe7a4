package predictor

import (
	"github.com/avesus/paq"
	"github.com/avesus/paq/internal"
)

// WordModel tracks a running hash of the current lowercase word and
// the last four complete words, plus a text-column context using the
// byte directly above the cursor on the previous line. Grounded on
// wordModel() in _examples/original_source/paq8b/src/Paq8b.cpp.
type WordModel struct {
	ctx                            *paq.Context
	cm                             *ContextMap
	word0, word1, word2, word3, w4 uint32
	text0                          uint32
	nl1, nl                        int64
}

// NewWordModel allocates a 14-context ContextMap sized mem*32 bytes.
func NewWordModel(mem int, ctx *paq.Context, st *StateTable, prng *internal.PRNG) *WordModel {
	return &WordModel{
		ctx: ctx,
		cm:  NewContextMap(mem*32, 14, st, prng),
		nl1: -3, nl: -2,
	}
}

// Mix updates word/column tracking at byte boundaries, then mixes the
// underlying context map's 14 contexts for this bit.
func (wm *WordModel) Mix(mx *Mixer) {
	c := wm.ctx
	if c.BitsConsumed() == 0 {
		ch := int(c.C4 & 255)
		if ch >= 'A' && ch <= 'Z' {
			ch += 'a' - 'A'
		}
		if (ch >= 'a' && ch <= 'z') || ch >= 128 {
			wm.word0 = wm.word0*263*4 + uint32(ch)
			wm.text0 = wm.text0*997*16 + uint32(ch)
		} else if wm.word0 != 0 {
			wm.w4 = wm.word3 * 11
			wm.word3 = wm.word2 * 7
			wm.word2 = wm.word1 * 5
			wm.word1 = wm.word0 * 3
			wm.word0 = 0
		}
		if ch == 10 {
			wm.nl1, wm.nl = wm.nl, c.Pos-1
		}
		col := c.Pos - wm.nl
		if col > 255 {
			col = 255
		}
		above := c.At(int32(wm.nl1 + col))
		h := wm.word0*271 + uint32(c.Back(1))

		wm.cm.Set(h, 0)
		wm.cm.Set(wm.word0, 1)
		wm.cm.Set(h+wm.word1, 2)
		wm.cm.Set(wm.word0+wm.word1*17, 3)
		wm.cm.Set(h+wm.word2, 4)
		wm.cm.Set(h+wm.word1+wm.word2, 5)
		wm.cm.Set(h+wm.word3, 6)
		wm.cm.Set(h+wm.w4, 7)
		wm.cm.Set(wm.text0&0xffff, 8)
		wm.cm.Set(wm.text0&0xfffff, 9)
		wm.cm.Set(uint32(col)<<8|uint32(above), 10)
		wm.cm.Set(uint32(col)<<8|uint32(c.Back(1)), 11)
		wm.cm.Set(uint32(c.Back(1))<<8|uint32(above), 12)
		wm.cm.Set(uint32(col), 13)
	}
	wm.cm.Mix(mx, c.Y)
}
