// Package predictor implements the context-mixing prediction engine:
// a shared StateTable and PRNG, a set of structural sub-models that
// each turn the recent byte history into one or more stretched
// log-odds features, and a two-layer Mixer/APM chain that blends those
// features into the single 12-bit probability the range coder needs.
// Grounded throughout on _examples/original_source/paq8b/src/Paq8b.cpp
// (contextModel2/Predictor::p/Predictor::update), adapted from one big
// function with static locals into an explicit CMPredictor value whose
// fields are exactly that function's former statics.
package predictor

import (
	"github.com/avesus/paq"
	"github.com/avesus/paq/internal"
)

// pictureStride is the row width in bytes of the canonical CCITT fax
// layout (1728 pixels / 8) the original hard-codes for the picture
// model; there is no header to sniff it from.
const pictureStride = 216

// CMPredictor owns every model, the context register block, and the
// two-stage mixer/APM chain, and implements paq.Predictor.
type CMPredictor struct {
	ctx *paq.Context
	st  *StateTable
	rng *internal.PRNG

	order0 *ContextMap // 9 contexts: orders 1-7, an order-3 hash of C4, and a position hash
	rcm7   *RunContextMap
	rcm9   *RunContextMap
	rcm10  *RunContextMap

	match  *MatchModel
	word   *WordModel
	record *RecordModel
	sparse *SparseModel
	exe    *EXEModel
	pic    *PictureModel
	bmp    *BMPModel
	jpeg   *JPEGModel

	useStructural bool // mem large enough to afford the heavier models

	mixer *Mixer
	a1    *APM
	a2    *APM
	a3    *APM
	a4    *APM

	pr int
}

// NewCMPredictor builds a predictor sized to mem bytes of model memory
// (a power of two, spec.md §5 "MEM" knob) operating over ctx, whose
// ring buffer must already be sized mem*8 bytes by the caller
// (paq.NewContext).
func NewCMPredictor(mem int, ctx *paq.Context) *CMPredictor {
	st := NewStateTable()
	rng := internal.NewPRNG()

	p := &CMPredictor{
		ctx:           ctx,
		st:            st,
		rng:           rng,
		order0:        NewContextMap(mem*32, 9, st, rng),
		rcm7:          NewRunContextMap(mem, ctx),
		rcm9:          NewRunContextMap(mem, ctx),
		rcm10:         NewRunContextMap(mem, ctx),
		match:         NewMatchModel(mem*4, ctx),
		useStructural: mem >= 0x20000,
	}

	if p.useStructural {
		p.word = NewWordModel(mem, ctx, st, rng)
		p.record = NewRecordModel(mem, ctx, st, rng)
		p.sparse = NewSparseModel(mem, ctx, st, rng)
		p.exe = NewEXEModel(mem, ctx, st, rng)
		p.pic = NewPictureModel(ctx, st, pictureStride)
		p.bmp = NewBMPModel(mem, ctx, st, rng)
		p.jpeg = NewJPEGModel(mem, ctx, st, rng)
	}

	// Layer-1 input budget: 9 order-N contexts * 6 features each, plus
	// 3 run maps, plus 2 match features, plus (when active) word(14),
	// record(7), sparse(16), exe(12) contexts * 6 features. The picture
	// model's 3 inputs are never mixed together with exe's, and the
	// bmp/jpeg branches replace this set with fewer inputs, so the sum
	// bounds every branch. Mixer pads short rows with zero; an Add past
	// n panics.
	inputs := 9*6 + 3 + 2
	if p.useStructural {
		inputs += (14 + 7 + 16 + 12) * 6
	}
	p.mixer = NewMixer(inputs, 2048, 8)
	p.a1 = NewAPM(256)
	p.a2 = NewAPM(0x10000)
	p.a3 = NewAPM(0x10000)
	p.a4 = NewAPM(0x10000)
	return p
}

// orderHash returns the order-n context hash of the n bytes before the
// partial current byte, matching contextModel2's o0..o7 hashes.
func orderHash(c *paq.Context, n int32) uint32 {
	h := uint32(n) * 0x9E3779B1
	for i := int32(1); i <= n; i++ {
		h = hash(h, uint32(c.Back(i)))
	}
	return h
}

// refreshByteContexts recomputes every per-byte context at the start
// of a new byte (ctx.BitsConsumed()==0), the way contextModel2 does
// before the bit loop.
func (p *CMPredictor) refreshByteContexts() {
	c := p.ctx
	orders := [7]int32{1, 2, 3, 4, 5, 6, 7}
	for i, n := range orders {
		p.order0.Set(orderHash(c, n), i)
	}
	p.order0.Set(hash(8, uint32(c.C4)&0xffffff), 7)
	p.order0.Set(hash(9, uint32(c.Pos)), 8)

	p.rcm7.Set(orderHash(c, 7))
	p.rcm9.Set(orderHash(c, 9))
	p.rcm10.Set(orderHash(c, 10))
}

// nn4Range is the total size of the folded NN4 mixer context
// (filetype x order-bucket x high-3-bits x repeat).
const nn4Range = 4 * 10 * 8 * 2

// Get implements paq.Predictor: it refreshes per-byte state on byte
// boundaries, then dispatches to one of four mutually exclusive
// feature sets per contextModel2's early-return structure (spec.md
// §4.11 point 3 / SPEC_FULL.md §6):
//
//  1. match length > 400: the match features already carry nearly all
//     the signal, so every other model is skipped and the mixer gets
//     a single context (#0).
//  2. JPEG scan data active: only the JPEG sub-mixer's feature runs,
//     under context #1 plus c0 and the previous byte.
//  3. BMP/TIFF pixel data active: only the BMP feature set runs,
//     under context #2 plus the pixel's column-within-pixel position
//     and a combined neighbor-mean context.
//  4. otherwise: word/sparse/record, picture (default and bintext
//     files only), exe (EXE files only), plus the
//     order-N/run-context/match-order models, under the four "low
//     order" mixer contexts NN1-4 (c0, previous byte, two bytes back,
//     and a folded filetype/order-bucket/high-bits/repeat context).
func (p *CMPredictor) Get() int {
	c := p.ctx
	if c.BitsConsumed() == 0 {
		p.refreshByteContexts()
	}
	if p.useStructural {
		p.jpeg.DetectHeader()
		p.bmp.DetectHeader()
	}

	matchLen := p.match.Mix(p.mixer)

	switch {
	case matchLen > 400:
		p.mixer.SetContext(0, 4)

	case p.useStructural && p.jpeg.Active():
		p.jpeg.Mix(p.mixer)
		p.mixer.SetContext(1, 4)
		p.mixer.SetContext(int(c.C0), 256)
		p.mixer.SetContext(int(c.Back(1)), 256)

	case p.useStructural && p.bmp.Active():
		p.bmp.Mix(p.mixer)
		p.mixer.SetContext(2, 4)
		p.mixer.SetContext(p.bmp.ColumnContext(), 24)
		p.mixer.SetContext(p.bmp.NeighborContext(), 256)

	default:
		p.rcm7.Mix(p.mixer)
		p.rcm9.Mix(p.mixer)
		p.rcm10.Mix(p.mixer)
		order := p.order0.Mix(p.mixer, c.Y)

		if p.useStructural {
			p.word.Mix(p.mixer)
			p.sparse.Mix(p.mixer)
			p.record.Mix(p.mixer)
			if c.FileType == paq.TypeBinText || c.FileType == paq.TypeDefault {
				p.pic.Mix(p.mixer)
			}
			if c.FileType == paq.TypeEXE {
				p.exe.Mix(p.mixer)
			}
		}

		// NN1: c0 (already distinct per bits-consumed-so-far, so it
		// doubles as "c0,bpos"). NN2: previous byte. NN3: two bytes
		// back. NN4: filetype, the order0 ContextMap's count of
		// non-empty contexts, the previous byte's high 3 bits, and whether
		// the last two bytes repeat, folded into one context id.
		p.mixer.SetContext(int(c.C0), 256)
		p.mixer.SetContext(int(c.Back(1)), 256)
		p.mixer.SetContext(int(c.Back(2)), 256)

		highBits := int(c.Back(1)) >> 5
		repeat := 0
		if c.Back(1) == c.Back(2) {
			repeat = 1
		}
		nn4 := ((int(c.FileType)*10+order)*8+highBits)*2 + repeat
		p.mixer.SetContext(nn4, nn4Range)
	}

	pr := p.mixer.P()

	pr1 := p.a1.P(pr, int(c.C0), c.Y, 7)
	pr = (pr1*3 + pr) >> 2

	pr2 := p.a2.P(pr, int(c.C0)|int(c.Back(1))<<8, c.Y, 7)
	pr3 := p.a3.P(pr, int(hash(uint32(c.C0), uint32(c.C4)&0xff))&0xffff, c.Y, 7)
	pr4 := p.a4.P(pr, int(c.C0)^int(hash(uint32(c.Back(1)), uint32(c.Back(2)))&0xffff), c.Y, 7)

	pr = (pr2 + pr3*2 + pr4 + 2) >> 2
	if pr < 1 {
		pr = 1
	}
	if pr > 4095 {
		pr = 4095
	}
	p.pr = pr
	return pr
}

// Update implements paq.Predictor: trains the mixer on the observed
// bit, then advances the shared context register.
func (p *CMPredictor) Update(bit byte) {
	p.mixer.Update(bit)
	done, b := p.ctx.UpdateBit(bit)
	if done {
		p.ctx.PushByte(b)
	}
}
