package paq

// Context packs every process-wide register the predictor models share:
// the ring buffer of recently coded bytes, the partial-byte cursor, the
// four-byte and four-byte-before history words, and the active file
// type. Spec design note: pack pervasive globals into one value passed
// by pointer instead of hiding them in package-level state, so resetting
// between archives (or running encoder/decoder side by side in tests)
// is explicit.
type Context struct {
	Pos      int64 // total bytes committed to buf (monotonic)
	C0       int32 // partial byte: 1<<bits_seen | bits_so_far, range 1..255
	C4       int32 // last 4 whole bytes, most recent in low 8 bits
	C8       int32 // the 4 whole bytes before C4
	Bpos     uint  // bits remaining in the current byte, 8..1; see BitsConsumed
	Y        byte  // most recently coded/decoded bit
	FileType FileType

	buf     []byte
	bufMask int32
}

// NewContext allocates a ring buffer of the given power-of-two size
// (MEM*8 bytes per spec.md §5) and an initial predictor state matching
// "no bytes seen yet": C0=1 represents a partial byte with zero bits.
func NewContext(bufSize int) *Context {
	size := nextPow2(bufSize)
	return &Context{
		C0:      1,
		Bpos:    8,
		buf:     make([]byte, size),
		bufMask: int32(size - 1),
	}
}

func nextPow2(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// BufLen returns the ring buffer's capacity.
func (c *Context) BufLen() int { return len(c.buf) }

// BitsConsumed returns the number of bits already coded of the current
// byte (0..7), the "bpos" quantity models condition on: 0 at the start
// of a byte, incrementing as bits are consumed. Derived from Bpos
// (which instead counts bits remaining, 8..1) so callers never need to
// invert the countdown themselves.
func (c *Context) BitsConsumed() int { return 8 - int(c.Bpos) }

// At returns the byte at the given absolute wrapped position.
func (c *Context) At(i int32) byte {
	return c.buf[i&c.bufMask]
}

// Back returns the byte i positions before the current Pos, for i>0.
// Back(1) is the most recently pushed byte.
func (c *Context) Back(i int32) byte {
	return c.buf[(int32(c.Pos)-i)&c.bufMask]
}

// PushByte commits a fully coded byte to the ring buffer and rotates the
// C4/C8 history words. Must be called exactly once per whole byte, when
// Bpos has just wrapped back to 8 (spec.md invariant i).
func (c *Context) PushByte(b byte) {
	c.buf[int32(c.Pos)&c.bufMask] = b
	c.Pos++
	c.C8 = (c.C8 << 8) | ((c.C4 >> 24) & 0xFF)
	c.C4 = (c.C4 << 8) | int32(b)
}

// UpdateBit folds one observed bit into C0/Bpos. Returns true and the
// completed byte when the byte is now complete; Bpos is then already
// back at 8 and C0 at 1, and the caller commits the byte with PushByte.
func (c *Context) UpdateBit(bit byte) (byteDone bool, completedByte byte) {
	c.Y = bit
	c.C0 = (c.C0 << 1) | int32(bit)
	c.Bpos--

	if c.Bpos == 0 {
		completedByte = byte(c.C0)
		c.C0 = 1
		c.Bpos = 8
		return true, completedByte
	}

	return false, 0
}
