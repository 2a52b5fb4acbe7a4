// Package rangecoder implements the 32-bit binary arithmetic coder
// described in spec.md §4.12: a carryless range coder driven by an
// external bit predictor, renormalizing one byte at a time whenever the
// top byte of the [x1,x2) interval stabilizes.
//
// Grounded on github.com/flanglet/kanzi-go/v2/entropy/BinaryEntropyCodec.go
// (same split-then-renormalize shape, same "predictor provides p, coder
// narrows the interval, predictor.Update trains on the coded bit"
// division of labor) but adapted to the spec's 32-bit x1/x2 design
// (kanzi's own coder works on a 56-bit low/high pair with four-byte
// flush batches; the spec tests byte-at-a-time renormalization and the
// high-byte-equality invariant directly in §8, so the narrower,
// classic-range-coder form is what is implemented and tested here).
package rangecoder

import "io"

// Predictor is the minimal surface the coder needs from a bit predictor:
// a 12-bit probability and a training update. paq.Predictor satisfies
// this without importing the paq package here (avoids an import cycle,
// since paq.Context is predictor-owned state the coder never touches).
type Predictor interface {
	Get() int
	Update(bit byte)
}

// Encoder narrows [x1,x2) for each coded bit and writes stabilized high
// bytes to the underlying writer.
type Encoder struct {
	out       io.ByteWriter
	predictor Predictor
	x1, x2    uint32
}

// NewEncoder creates an encoder writing to w, driven by predictor.
func NewEncoder(w io.ByteWriter, predictor Predictor) *Encoder {
	return &Encoder{out: w, predictor: predictor, x1: 0, x2: 0xFFFFFFFF}
}

// EncodeBit codes one bit using the predictor's current probability,
// then trains the predictor on the bit that was actually coded.
func (e *Encoder) EncodeBit(bit byte) error {
	p := uint32(e.predictor.Get())
	if p < 1 {
		p = 1
	} else if p > 4094 {
		p = 4094
	}

	r := e.x2 - e.x1
	mid := e.x1 + (r>>12)*p + (((r & 0xFFF) * p) >> 12)

	if bit != 0 {
		e.x2 = mid
	} else {
		e.x1 = mid + 1
	}

	e.predictor.Update(bit)

	for (e.x1^e.x2)&0xFF000000 == 0 {
		if err := e.out.WriteByte(byte(e.x2 >> 24)); err != nil {
			return err
		}
		e.x1 <<= 8
		e.x2 = (e.x2 << 8) | 0xFF
	}

	return nil
}

// EncodeByte codes a whole byte MSB-first.
func (e *Encoder) EncodeByte(v byte) error {
	for i := 7; i >= 0; i-- {
		if err := e.EncodeBit((v >> uint(i)) & 1); err != nil {
			return err
		}
	}
	return nil
}

// Flush writes the four bytes of x1, which is guaranteed to lie in
// [x1,x2) (spec.md §4.12 "Finalization: encoder emits x1 >> 24" -
// extended here to all four bytes so the decoder can always prime its
// 32-bit window regardless of how many renormalizations already ran).
func (e *Encoder) Flush() error {
	for i := 0; i < 4; i++ {
		if err := e.out.WriteByte(byte(e.x1 >> 24)); err != nil {
			return err
		}
		e.x1 <<= 8
	}
	return nil
}

// Decoder mirrors Encoder exactly, recovering bits from the coded
// stream and replaying the same predict-then-update sequence so its
// model state stays in lockstep with the encoder's.
type Decoder struct {
	in        io.ByteReader
	predictor Predictor
	x1, x2, x uint32
}

// NewDecoder creates a decoder reading from r, driven by predictor. It
// primes its 32-bit code window by reading the first four bytes Flush
// wrote.
func NewDecoder(r io.ByteReader, predictor Predictor) (*Decoder, error) {
	d := &Decoder{in: r, predictor: predictor, x1: 0, x2: 0xFFFFFFFF}
	for i := 0; i < 4; i++ {
		b, err := r.ReadByte()
		if err != nil {
			b = 0 // starvation: treat missing bytes as zero (spec.md §7)
		}
		d.x = (d.x << 8) | uint32(b)
	}
	return d, nil
}

// DecodeBit recovers one bit and drives the predictor identically to
// Encoder.EncodeBit.
func (d *Decoder) DecodeBit() (byte, error) {
	p := uint32(d.predictor.Get())
	if p < 1 {
		p = 1
	} else if p > 4094 {
		p = 4094
	}

	r := d.x2 - d.x1
	mid := d.x1 + (r>>12)*p + (((r & 0xFFF) * p) >> 12)

	var bit byte
	if d.x <= mid {
		bit = 1
		d.x2 = mid
	} else {
		bit = 0
		d.x1 = mid + 1
	}

	d.predictor.Update(bit)

	for (d.x1^d.x2)&0xFF000000 == 0 {
		d.x1 <<= 8
		d.x2 = (d.x2 << 8) | 0xFF
		b, err := d.in.ReadByte()
		if err != nil {
			b = 0
		}
		d.x = (d.x << 8) | uint32(b)
	}

	return bit, nil
}

// DecodeByte decodes a whole byte MSB-first.
func (d *Decoder) DecodeByte() (byte, error) {
	var v byte
	for i := 0; i < 8; i++ {
		bit, err := d.DecodeBit()
		if err != nil {
			return 0, err
		}
		v = (v << 1) | bit
	}
	return v, nil
}
