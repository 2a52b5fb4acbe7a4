package predictor

import "github.com/avesus/paq/internal"

// bucketSize is the size in bytes of one hash-table bucket E (spec.md
// §3 "Large context map bucket"): seven 2-byte checksums, one LRU
// byte, then seven 7-byte bit-history slots. 7*2 + 1 + 7*7 == 64,
// matching a cache line.
const bucketSize = 64

// ContextMap maps whole-byte contexts to bit-history states, one
// hash-table lookup per bucket every 0/2/5 bits, plus a built-in
// piggybacked run model on the first history slot of each bucket.
// Grounded on the ContextMap/E/BH classes in
// _examples/original_source/paq8b/src/Paq8b.cpp; ported from raw
// pointer arithmetic over a flat byte array to Go slice offsets, one
// ContextMap instance per value of C rather than a templated BH<B>.
type ContextMap struct {
	c          int
	t          []byte
	bucketMask uint32
	cp         []uint32
	cp0        []uint32
	cxt        []uint32
	runp       []uint32
	bp, bp3    int
	c1         byte
	cc         int
	sm         []*StateMap
	st         *StateTable
	prng       *internal.PRNG
}

// NewContextMap allocates m bytes (rounded by the caller to a power of
// two, m>>6 buckets) for c independently settable contexts.
func NewContextMap(m, c int, st *StateTable, prng *internal.PRNG) *ContextMap {
	numBuckets := m / bucketSize
	cm := &ContextMap{
		c:          c,
		t:          make([]byte, numBuckets*bucketSize),
		bucketMask: uint32(numBuckets - 1),
		cp:         make([]uint32, c),
		cp0:        make([]uint32, c),
		cxt:        make([]uint32, c),
		runp:       make([]uint32, c),
		bp:         1,
		cc:         1,
		sm:         make([]*StateMap, c),
		st:         st,
		prng:       prng,
	}
	for i := 0; i < c; i++ {
		cm.sm[i] = NewStateMap()
		cm.sm[i].SeedFromCounts(st)
		cm.cp0[i] = 15
		cm.cp[i] = 15
		cm.runp[i] = cm.cp[i] + 3
	}
	return cm
}

// Set assigns the i'th context (0<=i<C) for the byte about to be
// coded; must be called once per context at the start of each byte.
func (cm *ContextMap) Set(cx uint32, i int) {
	cx = cx*987654323 + uint32(i)
	cx = cx<<16 | cx>>16
	cm.cxt[i] = cx*123456791 + uint32(i)
	cm.bp, cm.bp3 = 0, 0
}

// get finds or inserts the bucket element matching checksum ch within
// the bucket starting at byte offset bucketBase, returning the
// absolute offset of that element's 7-byte bh slot.
func (cm *ContextMap) get(bucketBase uint32, ch uint16) uint32 {
	t := cm.t
	last := t[bucketBase+14]
	chkOf := func(i int) uint16 {
		o := bucketBase + uint32(2*i)
		return uint16(t[o]) | uint16(t[o+1])<<8
	}
	setChk := func(i int, v uint16) {
		o := bucketBase + uint32(2*i)
		t[o] = byte(v)
		t[o+1] = byte(v >> 8)
	}
	bhOff := func(i int) uint32 { return bucketBase + 15 + uint32(i*7) }

	if chkOf(int(last & 15)) == ch {
		return bhOff(int(last & 15))
	}
	lowestPri, lowestIdx := 0xffff, 0
	for i := 0; i < 7; i++ {
		if chkOf(i) == ch {
			t[bucketBase+14] = last<<4 | byte(i)
			return bhOff(i)
		}
		pri := int(t[bhOff(i)])
		if int(last&15) != i && int(last>>4) != i && pri < lowestPri {
			lowestPri, lowestIdx = pri, i
		}
	}
	t[bucketBase+14] = 0xf0 | byte(lowestIdx)
	setChk(lowestIdx, ch)
	off := bhOff(lowestIdx)
	for k := uint32(0); k < 7; k++ {
		t[off+k] = 0
	}
	return off
}

// Mix updates the model with the previously coded bit's training
// signal folded into y1, predicts the next bit into mx for every
// context, and returns nonzero if any context's current bit-history
// state is non-empty (a proxy for "an order matched").
func (cm *ContextMap) Mix(mx *Mixer, y1 byte) int {
	cm.cc = cm.cc*2 + int(y1)
	if cm.cc >= 256 {
		cm.c1 = byte(cm.cc - 256)
		cm.cc = 1
	}

	result := 0
	for i := 0; i < cm.c; i++ {
		ns := cm.st.Next(cm.t[cm.cp[i]], y1)
		if ns >= 204 {
			shift := uint((452 - int(ns)) >> 3)
			if shift < 32 && cm.prng.Next()<<shift != 0 {
				ns -= 4
			}
		}
		cm.t[cm.cp[i]] = ns

		switch cm.bp3 {
		case 0:
			bucket := ((cm.cxt[i] + uint32(cm.cc)) & cm.bucketMask) * bucketSize
			cm.cp0[i] = cm.get(bucket, uint16(cm.cxt[i]>>16))
			cm.cp[i] = cm.cp0[i]
		case 1:
			cm.cp[i] = cm.cp0[i] + 1 + uint32(cm.cc&1)
		default:
			cm.cp[i] = cm.cp0[i] + 3 + uint32(cm.cc&3)
		}

		if cm.bp == 0 {
			rc := cm.runp[i]
			if cm.t[rc] == 0 || cm.t[rc+1] != cm.c1 {
				cm.t[rc], cm.t[rc+1] = 1, cm.c1
			} else if cm.t[rc] < 255 {
				cm.t[rc]++
			}
			cm.runp[i] = cm.cp0[i] + 3
		}

		if cm.bp < 8 && (int(cm.t[cm.runp[i]+1])+256)>>uint(8-cm.bp) == cm.cc {
			bit := (int(cm.t[cm.runp[i]+1]) >> uint(7-cm.bp)) & 1
			mx.Add((bit*2 - 1) * 8 * internal.ILog(uint16(cm.t[cm.runp[i]]+1)))
		} else {
			mx.Add(0)
		}

		s := cm.t[cm.cp[i]]
		result += mix2(mx, s, cm.sm[i], y1, cm.st)
	}

	cm.bp++
	cm.bp3++
	if cm.bp3 == 3 || cm.bp == 2 {
		cm.bp3 = 0
	}
	return result
}

// mix2 predicts from a single bit-history state s (spec.md §4.4 "five
// history features"), training sm on the state used by the previous
// call and pushing this bucket's run-model-independent features.
func mix2(mx *Mixer, s byte, sm *StateMap, y byte, st *StateTable) int {
	p1 := sm.P(int(s), y)
	n0, n1 := st.Counts(s)
	stv := internal.Stretch(p1) >> 2
	mx.Add(stv)
	p1 >>= 4
	p0 := 255 - p1
	mx.Add(p1 - p0)

	notN0, notN1 := 0, 0
	if n0 == 0 {
		notN0 = 1
	}
	if n1 == 0 {
		notN1 = 1
	}
	mx.Add(stv * (notN0 - notN1))
	mx.Add(ifInt(n0 == 0, p1, 0) - ifInt(n1 == 0, p0, 0))
	mx.Add(ifInt(n1 == 0, p1, 0) - ifInt(n0 == 0, p0, 0))

	if s > 0 {
		return 1
	}
	return 0
}

func ifInt(cond bool, a, b int) int {
	if cond {
		return a
	}
	return b
}
