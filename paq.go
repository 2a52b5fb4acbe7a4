// Package paq defines the top level interfaces shared by the archiver's
// sub-packages: the predictor, the range coder and the reversible filters.
//
// The implementations live in sub-packages: internal (math primitives),
// predictor (the context-mixing model ensemble), rangecoder (the binary
// arithmetic coder), filter (reversible byte-stream transforms) and
// archive (the container format and per-file driver).
package paq

const (
	ErrBadMagic      = 1
	ErrBadOption     = 2
	ErrOpenArchive   = 3
	ErrOpenFile      = 4
	ErrCreateFile    = 5
	ErrReadFile      = 6
	ErrWriteFile     = 7
	ErrFilenameChars = 8
	ErrTooBig        = 9
	ErrCompare       = 10
	ErrUnknown       = 127
)

// FileType identifies the reversible filter applied to one archived file.
// It is written as the first coded byte of every file's payload.
type FileType byte

const (
	// TypeDefault is the identity filter (no transform applied).
	TypeDefault FileType = 0
	// TypeEXE rewrites relative x86 CALL/JMP targets to absolute addresses.
	TypeEXE FileType = 1
	// TypeText applies the bijective capital-letter case-folding text
	// transform (no dictionary word replacement).
	TypeText FileType = 2
	// TypeBinText is TypeText for files that are mostly but not fully text.
	TypeBinText FileType = 3
)

// Predictor predicts the probability that the next bit will be 1.
// Update must be called once per bit, immediately after Get(), with the
// bit that was actually coded (observed on encode, decoded on decode) -
// this is what keeps encoder and decoder state bit-exact (spec.md
// invariant iii).
type Predictor interface {
	// Get returns a 12-bit probability (0..4095) that the next bit is 1.
	Get() int

	// Update advances every model, map and mixer weight using bit as the
	// training signal.
	Update(bit byte)
}

// ByteTransform is a reversible, stateless byte-stream transform, the
// shape shared by every filter in package filter.
type ByteTransform interface {
	// Forward writes the transformed form of src to dst, returning bytes
	// read/written. Returns an error if src does not match the filter's
	// expected shape (the caller falls back to TypeDefault).
	Forward(src, dst []byte) (int, int, error)

	// Inverse reverses Forward.
	Inverse(src, dst []byte) (int, int, error)

	// MaxEncodedLen returns the largest output Forward can produce for a
	// given input length.
	MaxEncodedLen(srcLen int) int
}
