// Package internal holds the archiver's math primitives: the stretch/squash
// logistic tables and the integer log2 approximations used throughout the
// predictor to turn bit counts into features. Grounded on
// github.com/flanglet/kanzi-go/v2/internal/Global.go (SQUASH/STRETCH/_INV_EXP
// construction), extended with the ilog/llog primitives spec.md §4.2 names
// explicitly and kanzi does not need for its own (order-N, not
// context-mixing) entropy coders.
package internal

import "math"

// invExp approximates 65536/(1+exp(-alpha*x)) with alpha ~= 0.54 at 32
// anchor points, the same table kanzi's Global.go uses to build SQUASH.
var invExp = [33]int{
	0, 8, 22, 47, 88, 160, 283, 492,
	848, 1451, 2459, 4117, 6766, 10819, 16608, 24127,
	32768, 41409, 48928, 54717, 58770, 61419, 63077, 64085,
	64688, 65044, 65253, 65376, 65448, 65489, 65514, 65528,
	65536,
}

// Squash and Stretch are built once at package init. Stretch(p) is the
// smallest d with Squash(d) >= p, so Stretch(Squash(d)) is within one unit
// of d only where Squash is strictly increasing; in the saturated tails,
// where many d share one Squash value (Squash(-2047) == Squash(-2045) == 0),
// it returns the low end of that run instead.
var (
	squashTable [4096]int
	stretchTable [4096]int
	ilogTable    [65536]int16
)

func init() {
	for x := -2047; x <= 2047; x++ {
		w := x & 127
		y := (x >> 7) + 16
		squashTable[x+2047] = (invExp[y]*(128-w) + invExp[y+1]*w) >> 11
	}
	squashTable[4095] = 4095

	pi := 0
	for x := -2047; x <= 2047; x++ {
		i := Squash(x)
		for pi <= i {
			stretchTable[pi] = x
			pi++
		}
	}
	stretchTable[4095] = 2047

	// ilog(x) = round(16*log2(x)), built by accumulating the integral of
	// 1/t over each unit step [x-1, x] from 1 to x (equivalent to
	// 16*ln(x)/ln(2), computed once here so lookups need no floating point).
	const ln2 = 0.6931471805599453
	acc := 0.0
	ilogTable[0] = 0
	ilogTable[1] = 0
	for x := 2; x < 65536; x++ {
		acc += math.Log(float64(x) / float64(x-1))
		ilogTable[x] = int16(acc/ln2*16.0 + 0.5)
	}
}

// Squash returns p = 1/(1+exp(-d)), d scaled by 8 bits in [-2047,2047],
// p scaled by 12 bits in [0,4095].
func Squash(d int) int {
	if d >= 2048 {
		return 4095
	}
	if d <= -2048 {
		return 0
	}
	return squashTable[d+2047]
}

// Stretch is the inverse of Squash: d = ln(p/(1-p)) scaled by 8 bits.
func Stretch(p int) int {
	return stretchTable[p]
}

// ILog returns round(16*log2(x)) for a 16-bit magnitude x. ILog(0) == 0.
func ILog(x uint16) int {
	return int(ilogTable[x])
}

// LLog extends ILog across a 32-bit magnitude by right-shifting into the
// 16-bit ILog table in three ranges, the way lpaq/paq8-family coders do:
// llog(x) = 256+ilog(x>>16) for x>=2^24, 128+ilog(x>>8) for x>=2^16,
// else ilog(x).
func LLog(x uint32) int {
	switch {
	case x >= 1<<24:
		return 256 + ILog(uint16(x>>16))
	case x >= 1<<16:
		return 128 + ILog(uint16(x>>8))
	default:
		return ILog(uint16(x))
	}
}
