package predictor

// hash combines 2-5 context fields into one 32-bit value. Unused
// trailing arguments should be passed as hashNone. Grounded on the
// free function `hash` in
// _examples/original_source/paq8b/src/Paq8b.cpp, used throughout the
// structural sub-models to build context hashes from arbitrary byte
// and count features.
func hash(a, b uint32, rest ...uint32) uint32 {
	c, d, e := hashNone, hashNone, hashNone
	if len(rest) > 0 {
		c = rest[0]
	}
	if len(rest) > 1 {
		d = rest[1]
	}
	if len(rest) > 2 {
		e = rest[2]
	}
	h := a*200002979 + b*30005491 + c*50004239 + d*70004807 + e*110002499
	return h ^ h>>9 ^ a>>2 ^ b>>3 ^ c>>4 ^ d>>5 ^ e>>6
}

const hashNone uint32 = 0xFFFFFFFF
