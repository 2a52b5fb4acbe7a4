package predictor

import (
	"github.com/avesus/paq"
	"github.com/avesus/paq/internal"
)

// bmpSmallMapSize is the table size used for each of the six pixel
// small-stationary-context maps (SC in the original).
const bmpSmallMapSize = 0x20000

// BMPModel detects an uncompressed 24-bit BMP (or little-endian TIFF)
// header and, while positioned inside the pixel data, predicts each
// byte from its left/above/diagonal neighbors and their local
// mean/variance. Grounded on bmpModel() in
// _examples/original_source/paq8b/src/Paq8b.cpp.
type BMPModel struct {
	ctx                                 *paq.Context
	w                                   int32 // row stride in bytes, 0 if inactive
	eoi                                 int64
	tiff                                int64
	lastMean                            int
	scm1, scm2, scm3, scm4, scm5, scm6 *SmallStationaryContextMap
	cm                                  *ContextMap
}

// NewBMPModel allocates the six small maps (bmpSmallMapSize each, scm6
// doubled) and an 8-context ContextMap sized mem*4 bytes.
func NewBMPModel(mem int, ctx *paq.Context, st *StateTable, prng *internal.PRNG) *BMPModel {
	return &BMPModel{
		ctx:  ctx,
		scm1: NewSmallStationaryContextMap(bmpSmallMapSize, ctx),
		scm2: NewSmallStationaryContextMap(bmpSmallMapSize, ctx),
		scm3: NewSmallStationaryContextMap(bmpSmallMapSize, ctx),
		scm4: NewSmallStationaryContextMap(bmpSmallMapSize, ctx),
		scm5: NewSmallStationaryContextMap(bmpSmallMapSize, ctx),
		scm6: NewSmallStationaryContextMap(bmpSmallMapSize*2, ctx),
		cm:   NewContextMap(mem*4, 8, st, prng),
	}
}

func (bm *BMPModel) i4(c *paq.Context, i int32) uint32 {
	return uint32(c.Back(i)) + 256*uint32(c.Back(i-1)) + 65536*uint32(c.Back(i-2)) + 16777216*uint32(c.Back(i-3))
}

func (bm *BMPModel) i2(c *paq.Context, i int32) int {
	return int(c.Back(i)) + 256*int(c.Back(i-1))
}

func sqr(v byte) int { return int(v) * int(v) }

// DetectHeader scans for a BMP or little-endian TIFF header and, once
// positioned inside the pixel data, refreshes the per-byte pixel
// contexts. Must be called once per byte (BitsConsumed()==0)
// regardless of which mixer branch ends up active this byte - the
// header/EOI transition has to be observed even on bits where the
// top-level predictor skips this model's heavier Mix.
func (bm *BMPModel) DetectHeader() {
	c := bm.ctx
	if c.BitsConsumed() != 0 {
		return
	}

	if c.Back(54) == 'B' && c.Back(53) == 'M' &&
		bm.i4(c, 44) == 54 && bm.i4(c, 40) == 40 && bm.i4(c, 24) == 0 {
		bm.w = int32((bm.i4(c, 36)+3)&^3) * 3
		height := int64(bm.i4(c, 32))
		bm.eoi = c.Pos
		if bm.w < 0x30000 && height < 0x10000 {
			bm.eoi = c.Pos + int64(bm.w)*height
		}
	}

	if uint32(c.C4) == 0x49492a00 {
		bm.tiff = c.Pos
	}
	if c.Pos-bm.tiff == 4 && uint32(c.C4) != 0x08000000 {
		bm.tiff = 0
	}
	if bm.tiff != 0 && c.Pos-bm.tiff == 200 {
		dirsize := bm.i2(c, int32(c.Pos-bm.tiff-4))
		bm.w = 0
		var bpp, compression, width, height int
		for i := bm.tiff + 6; i < c.Pos-12 && dirsize > 0; i += 12 {
			dirsize--
			tag := bm.i2(c, int32(c.Pos-i))
			tagfmt := bm.i2(c, int32(c.Pos-i-2))
			taglen := bm.i4(c, int32(c.Pos-i-4))
			tagval := bm.i4(c, int32(c.Pos-i-8))
			if (tagfmt == 3 || tagfmt == 4) && taglen == 1 {
				switch tag {
				case 256:
					width = int(tagval)
				case 257:
					height = int(tagval)
				case 259:
					compression = int(tagval)
				case 277:
					bpp = int(tagval)
				}
			}
		}
		if width > 0 && height > 0 && width*height > 50 && compression == 1 && (bpp == 1 || bpp == 3) {
			bm.eoi = bm.tiff + int64(width*height*bpp)
			bm.w = int32(width * bpp)
		} else {
			bm.tiff, bm.w = 0, 0
		}
	}

	if c.Pos > bm.eoi {
		bm.w = 0
		return
	}
	if bm.w == 0 {
		return
	}
	w := bm.w

	color := int32(c.Pos % 3)
	mean := int(c.Back(3)) + int(c.Back(w-3)) + int(c.Back(w)) + int(c.Back(w+3))
	variance := (sqr(c.Back(3)) + sqr(c.Back(w-3)) + sqr(c.Back(w)) + sqr(c.Back(w+3)) - mean*mean/4) >> 2
	mean >>= 2
	bm.lastMean = mean
	logvar := internal.ILog(uint16(clampU16(variance)))

	bm.cm.Set(hash(1, uint32(c.Back(3))>>2, uint32(c.Back(w))>>2, uint32(color)), 0)
	bm.cm.Set(hash(2, uint32(c.Back(3))>>2, uint32(c.Back(1))>>2, uint32(color)), 1)
	bm.cm.Set(hash(3, uint32(c.Back(3))>>2, uint32(c.Back(2))>>2, uint32(color)), 2)
	bm.cm.Set(hash(4, uint32(c.Back(w))>>2, uint32(c.Back(1))>>2, uint32(color)), 3)
	bm.cm.Set(hash(5, uint32(c.Back(w))>>2, uint32(c.Back(1))>>2, uint32(color)), 4)
	bm.cm.Set(hash(6, uint32(int(c.Back(3))+int(c.Back(w)))>>1, uint32(color)), 5)
	bm.cm.Set(hash(7, uint32(int(c.Back(3))+int(c.Back(w)))>>3, uint32(c.Back(1))>>5, uint32(c.Back(2))>>5, uint32(color)), 6)
	bm.cm.Set(hash(8, uint32(mean), uint32(logvar)>>5, uint32(color)), 7)

	bm.scm1.Set(uint32(int(c.Back(3))+int(c.Back(w))) >> 1)
	bm.scm2.Set(uint32(int(c.Back(3))+int(c.Back(w))-int(c.Back(w+3))) >> 1)
	bm.scm3.Set(uint32(int(c.Back(3))*2-int(c.Back(6))) >> 1)
	bm.scm4.Set(uint32(int(c.Back(w))*2-int(c.Back(2*w))) >> 1)
	bm.scm5.Set(uint32(int(c.Back(3))+int(c.Back(w))-int(c.Back(w-3))) >> 1)
	bm.scm6.Set(uint32(mean)>>1 | uint32(logvar)<<1&0x180)
}

// Active reports whether the most recent DetectHeader call left the
// model positioned inside BMP/TIFF pixel data (the top-level
// orchestration uses this to pick the BMP-specific mixer branch,
// spec.md §4.11).
func (bm *BMPModel) Active() bool {
	return bm.w != 0 && bm.ctx.Pos <= bm.eoi
}

// ColumnContext returns the current pixel's position within a 3-byte
// (one pixel) x 8 window, range 0..23 - the "column-within-pixel"
// mixer context spec.md §4.11 names for the BMP branch.
func (bm *BMPModel) ColumnContext() int {
	return int(bm.ctx.Pos % 24)
}

// NeighborContext folds the left/above/diagonal mean computed by the
// last DetectHeader call into a single byte-range mixer context - the
// "combined-neighbor context" spec.md §4.11 names for the BMP branch.
func (bm *BMPModel) NeighborContext() int {
	return bm.lastMean & 0xff
}

// Mix pushes six small-map predictions and one 8-context ContextMap
// prediction into mx, using the contexts DetectHeader set up this
// byte. Returns the current row stride, 0 if inactive.
func (bm *BMPModel) Mix(mx *Mixer) int32 {
	c := bm.ctx
	bm.scm1.Mix(mx, 7)
	bm.scm2.Mix(mx, 7)
	bm.scm3.Mix(mx, 7)
	bm.scm4.Mix(mx, 7)
	bm.scm5.Mix(mx, 7)
	bm.scm6.Mix(mx, 7)
	bm.cm.Mix(mx, c.Y)
	return bm.w
}

func clampU16(v int) int {
	if v < 0 {
		return 0
	}
	if v > 65535 {
		return 65535
	}
	return v
}
