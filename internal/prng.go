package internal

// PRNG is the subtractive generator used by the large context map to
// apply probabilistic bit-count increments above state 204 (spec.md §3,
// §9 "Open question"). Preserved bit-exactly: a 64-element ring seeded
// with 123456789 and 987654321, because round-trip correctness for a
// given memory option depends on encoder and decoder drawing the exact
// same sequence.
type PRNG struct {
	table [64]uint32
	i1    int
	i2    int
}

// NewPRNG seeds a fresh generator and discards the first 64*4 values the
// way the original subtractive generator primes its ring before use.
func NewPRNG() *PRNG {
	p := &PRNG{i1: 63, i2: 37}
	p.table[0] = 123456789
	p.table[1] = 987654321

	for i := 2; i < 64; i++ {
		p.table[i] = p.table[i-1]*1664525 + p.table[i-2]*22695477 + 1
	}

	for i := 0; i < 64*4; i++ {
		p.Next()
	}

	return p
}

// Next returns the next pseudo-random 32-bit value and advances the ring.
func (p *PRNG) Next() uint32 {
	p.table[p.i1] -= p.table[p.i2]
	result := p.table[p.i1]
	p.i1--
	if p.i1 < 0 {
		p.i1 = 63
	}
	p.i2--
	if p.i2 < 0 {
		p.i2 = 63
	}
	return result
}
