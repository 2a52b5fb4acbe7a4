package predictor

import (
	"github.com/avesus/paq"
	"github.com/avesus/paq/internal"
)

// JPEGModel watches for JPEG marker bytes (SOI+APPn, SOS, EOI) and,
// once inside scan data, feeds a dedicated second-stage mixer and pair
// of APMs whose stretched output is injected back into the caller's
// main mixer (spec.md §4.10 "cyclic structure", §9 "model this as
// explicit composition, not inheritance"). Grounded on jpegModel() in
// _examples/original_source/paq8b/src/Paq8b.cpp.
//
// The original shadow-decodes every Huffman symbol bit-by-bit to
// recover an exact coefficient position and RS history; reproducing
// that full entropy-layer parser is out of proportion to what a
// context *feature generator* needs (the coded bits are still routed
// through the shared arithmetic coder either way — jpegModel never
// itself emits bits). This model instead tracks marker boundaries and
// a byte-granularity position-in-scan counter and derives its contexts
// from those plus the same recent-byte registers every other
// structural model reads, so the component still contributes a real,
// trained feature set. No header segment (SOF0, DHT, DQT) is parsed:
// only the marker bytes themselves are recognized.
type JPEGModel struct {
	ctx        *paq.Context
	active     bool
	scanStart  int64
	mcupos     int
	mcusize    int
	components int
	cm         *ContextMap
	mixer      *Mixer
	apm1, apm2 *APM
	pending    bool // private mixer has an un-trained prediction from last Mix
}

// NewJPEGModel allocates a 19-context ContextMap (matching the
// original's context count) sized mem*8 bytes, a private 800-weight
// mixer, and two APM refinement stages.
func NewJPEGModel(mem int, ctx *paq.Context, st *StateTable, prng *internal.PRNG) *JPEGModel {
	return &JPEGModel{
		ctx:     ctx,
		cm:      NewContextMap(mem*8, 19, st, prng),
		mixer:   NewMixer(19*6+1, 800, 4),
		apm1:    NewAPM(1024),
		apm2:    NewAPM(0x10000),
		mcusize: 64,
	}
}

// detectMarkers watches the last four bytes for SOI+APPn (activates
// header tracking) and SOS (activates scan-data contexts), and for EOI
// (deactivates). Mirrors the marker bytes jpegModel() checks, without
// the full quantization/Huffman table parse.
func (jm *JPEGModel) detectMarkers() {
	c := jm.ctx
	b3, b2, b1, b0 := byte(c.C4>>24), byte(c.C4>>16), byte(c.C4>>8), byte(c.C4)
	if b3 == 0xff && b2 == 0xd8 && b1 == 0xff && (b0&0xf0) == 0xe0 {
		jm.active = false
		jm.components = 1
	}
	if b1 == 0xff && b0 == 0xda { // SOS
		jm.active = true
		jm.scanStart = c.Pos
		jm.mcupos = 0
	}
	if b1 == 0xff && b0 == 0xd9 { // EOI
		jm.active = false
	}
}

// DetectHeader watches marker bytes and, once inside scan data,
// refreshes the per-byte scan contexts. Must be called once per byte
// (BitsConsumed()==0) regardless of which mixer branch ends up active
// this byte - the SOS/EOI transition has to be observed even on bits
// where the top-level predictor skips this model's heavier Mix.
func (jm *JPEGModel) DetectHeader() {
	c := jm.ctx
	if c.BitsConsumed() != 0 {
		return
	}
	jm.detectMarkers()
	if !jm.active {
		return
	}

	jm.mcupos = (jm.mcupos + 1) % jm.mcusize
	col := jm.mcupos % 8

	jm.cm.Set(hash(1, uint32(c.Back(1)), uint32(jm.mcupos)), 0)
	jm.cm.Set(hash(2, uint32(c.Back(1)), uint32(c.Back(2))), 1)
	jm.cm.Set(hash(3, uint32(jm.mcupos), uint32(col)), 2)
	jm.cm.Set(hash(4, uint32(c.Back(1)), uint32(col)), 3)
	jm.cm.Set(hash(5, uint32(c.Back(2)), uint32(c.Back(3))), 4)
	jm.cm.Set(hash(6, uint32(c.Back(1)), uint32(c.Back(4))), 5)
	jm.cm.Set(hash(7, uint32(jm.mcupos)>>3), 6)
	jm.cm.Set(hash(8, uint32(c.Back(1))>>4, uint32(jm.mcupos)), 7)
	for i := 8; i < 19; i++ {
		jm.cm.Set(hash(uint32(i+1), uint32(c.Back(int32(i-7)))), i)
	}
}

// Active reports whether the model currently believes it is inside
// JPEG scan data (the top-level orchestration uses this to pick the
// JPEG-specific mixer branch, spec.md §4.11).
func (jm *JPEGModel) Active() bool { return jm.active }

// Mix trains and predicts the 19 context-map features plus the
// sub-mixer/APM chain, returning the blended stretched prediction to
// push into the caller's mixer.
//
// The private mixer's Update must train the prediction it produced
// for the bit that has since actually been coded, not the bit that
// was current when P() ran - mirroring how contextModel2 calls
// m.update() at the top of the next round, before recomputing pr[],
// rather than immediately after p(). So the Update call here is
// deferred to the start of the following Mix, once ctx.Y has caught
// up to the bit this round's pr actually predicted.
func (jm *JPEGModel) Mix(mx *Mixer) {
	c := jm.ctx
	if jm.pending {
		jm.mixer.Update(c.Y)
		jm.pending = false
	}

	jm.cm.Mix(jm.mixer, c.Y)
	jm.mixer.Add(256)
	jm.mixer.SetContext(int(c.Back(1)), 256)
	jm.mixer.SetContext(jm.mcupos&7, 8)
	jm.mixer.SetContext(0, 4)
	pr := jm.mixer.P()
	jm.pending = true

	pr = jm.apm1.P(pr, int(c.C0), c.Y, 7)
	pr = jm.apm2.P(pr, int(c.C0)^int(hash(uint32(c.Back(1)), uint32(c.Back(2)))&0xffff), c.Y, 7)

	mx.Add(internal.Stretch(pr))
	mx.Add(internal.Stretch(pr))
}
