package filter

import "errors"

// exeBlockSize matches the original's 64KB relocation window: offsets
// are rewritten relative to the start of the 64KB block containing the
// CALL/JMP instruction, not the whole file, so a later pass over a
// different block never collides with an earlier one's addresses.
const exeBlockSize = 1 << 16

// ErrNotEXE is returned by Forward when src does not look enough like
// x86 code to be worth transforming; the caller falls back to
// DefaultFilter (spec.md §4.12 "transform-then-verify").
var ErrNotEXE = errors.New("exe filter: insufficient e8/e9 density")

// EXEFilter rewrites the 4-byte relative displacement of E8 (CALL) and
// E9 (JMP near) instructions into an absolute file offset, which
// collapses the many distinct displacements a repeated call target
// produces into one repeated absolute value. Grounded on the
// ExeFilter::encode/decode methods in
// _examples/original_source/paq8b/src/Paq8b.cpp.
//
// The original scans each 64KB block back-to-front so a rewritten
// displacement is never itself mistaken for a fresh opcode earlier in
// the same block, and stops a block early at a run of JPEG marker
// bytes (0xFF) to avoid corrupting embedded image data. This port
// keeps both: right-to-left block scan, FF-run early stop.
type EXEFilter struct{}

// NewEXEFilter returns the x86 relative-call transform.
func NewEXEFilter() *EXEFilter { return &EXEFilter{} }

// MaxEncodedLen returns srcLen: the transform rewrites bytes in place,
// it never changes length.
func (this *EXEFilter) MaxEncodedLen(srcLen int) int { return srcLen }

func isCallJmp(b byte) bool { return b == 0xE8 || b == 0xE9 }

// Forward scans src back-to-front in exeBlockSize windows, rewriting
// each CALL/JMP displacement found to an absolute address, and copies
// the result to dst. Returns ErrNotEXE if too few opcodes were found
// to be worth the transform (the density test the original performs
// implicitly by only ever being invoked on files with a .exe/.dll
// extension or a recognized MZ/PE header).
func (this *EXEFilter) Forward(src, dst []byte) (int, int, error) {
	n := copy(dst, src)
	count := 0

	for blockStart := (n - 1) &^ (exeBlockSize - 1); blockStart >= 0; blockStart -= exeBlockSize {
		blockEnd := blockStart + exeBlockSize
		if blockEnd > n {
			blockEnd = n
		}
		ffRun := 0
		for i := blockEnd - 6; i >= blockStart; i-- {
			if dst[i] == 0xFF {
				ffRun++
				if ffRun >= 4 {
					break
				}
				continue
			}
			ffRun = 0
			if !isCallJmp(dst[i]) {
				continue
			}
			rel := int32(dst[i+1]) | int32(dst[i+2])<<8 | int32(dst[i+3])<<16 | int32(dst[i+4])<<24
			abs := rel + int32(i) + 5 - int32(blockStart)
			if abs >= -int32(blockEnd-blockStart) && abs < int32(blockEnd-blockStart) {
				dst[i+1] = byte(abs)
				dst[i+2] = byte(abs >> 8)
				dst[i+3] = byte(abs >> 16)
				dst[i+4] = byte(abs >> 24)
				count++
			}
		}
	}

	if count*2000 < n {
		return 0, 0, ErrNotEXE
	}
	return n, n, nil
}

// Inverse undoes Forward: scanning the same blocks in the same
// right-to-left order converts each previously-rewritten absolute
// address back to the instruction's original relative displacement.
func (this *EXEFilter) Inverse(src, dst []byte) (int, int, error) {
	n := copy(dst, src)

	for blockStart := (n - 1) &^ (exeBlockSize - 1); blockStart >= 0; blockStart -= exeBlockSize {
		blockEnd := blockStart + exeBlockSize
		if blockEnd > n {
			blockEnd = n
		}
		ffRun := 0
		for i := blockEnd - 6; i >= blockStart; i-- {
			if dst[i] == 0xFF {
				ffRun++
				if ffRun >= 4 {
					break
				}
				continue
			}
			ffRun = 0
			if !isCallJmp(dst[i]) {
				continue
			}
			abs := int32(dst[i+1]) | int32(dst[i+2])<<8 | int32(dst[i+3])<<16 | int32(dst[i+4])<<24
			if abs >= -int32(blockEnd-blockStart) && abs < int32(blockEnd-blockStart) {
				rel := abs - int32(i) - 5 + int32(blockStart)
				dst[i+1] = byte(rel)
				dst[i+2] = byte(rel >> 8)
				dst[i+3] = byte(rel >> 16)
				dst[i+4] = byte(rel >> 24)
			}
		}
	}
	return n, n, nil
}
