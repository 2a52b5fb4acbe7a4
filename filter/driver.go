package filter

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/avesus/paq"
)

// transforms maps every non-default FileType to the ByteTransform that
// implements it.
var transforms = map[paq.FileType]paq.ByteTransform{
	paq.TypeEXE:     NewEXEFilter(),
	paq.TypeText:    NewTextFilter(),
	paq.TypeBinText: NewTextFilter(),
}

// exeExtensions lists the extensions Filter::make dispatches to the
// EXE transform without needing to sniff content.
var exeExtensions = map[string]bool{
	".exe": true, ".dll": true, ".obj": true, ".o": true,
}

// textExtensions lists extensions dispatched straight to the text
// transform.
var textExtensions = map[string]bool{
	".txt": true, ".htm": true, ".html": true, ".xml": true,
	".c": true, ".h": true, ".cpp": true, ".java": true, ".go": true,
}

// Sniff picks a candidate FileType for content from its filename and,
// failing an extension match, its leading bytes - an MZ/PE header for
// EXE, a high printable-ASCII ratio for text. Grounded on Filter::make
// in _examples/original_source/paq8b/src/Paq8b.cpp.
func Sniff(name string, content []byte) paq.FileType {
	ext := strings.ToLower(filepath.Ext(name))
	if exeExtensions[ext] {
		return paq.TypeEXE
	}
	if textExtensions[ext] {
		return paq.TypeText
	}
	if len(content) >= 2 && content[0] == 'M' && content[1] == 'Z' {
		return paq.TypeEXE
	}
	return sniffText(content)
}

func sniffText(content []byte) paq.FileType {
	if len(content) == 0 {
		return paq.TypeDefault
	}
	printable := 0
	for _, b := range content {
		if b == '\t' || b == '\n' || b == '\r' || (b >= 32 && b < 127) {
			printable++
		}
	}
	switch {
	case printable == len(content):
		return paq.TypeText
	case printable*10 >= len(content)*9:
		return paq.TypeBinText
	default:
		return paq.TypeDefault
	}
}

// Apply runs the transform for candidate, verifies it round-trips
// exactly back to src, and falls back to TypeDefault (copying src
// unchanged) on any error or mismatch - spec.md §4.12's
// "transform-then-verify": a corrupt or merely unlucky transform must
// never cost correctness, only the compression it would have bought.
// Grounded on Filter::compress's encode/decode/compare sequence.
func Apply(candidate paq.FileType, src []byte) (paq.FileType, []byte) {
	if candidate == paq.TypeDefault {
		return paq.TypeDefault, append([]byte(nil), src...)
	}
	tr, ok := transforms[candidate]
	if !ok {
		return paq.TypeDefault, append([]byte(nil), src...)
	}

	dst := make([]byte, tr.MaxEncodedLen(len(src)))
	_, n, err := tr.Forward(src, dst)
	if err != nil {
		return paq.TypeDefault, append([]byte(nil), src...)
	}
	encoded := dst[:n]

	back := make([]byte, len(src)+64)
	_, bn, err := tr.Inverse(encoded, back)
	if err != nil || bn != len(src) || !bytes.Equal(back[:bn], src) {
		return paq.TypeDefault, append([]byte(nil), src...)
	}
	return candidate, encoded
}

// Undo reverses whichever transform produced encoded under ft,
// returning the original bytes. TypeDefault is the identity.
func Undo(ft paq.FileType, encoded []byte, origLen int) ([]byte, error) {
	if ft == paq.TypeDefault {
		return append([]byte(nil), encoded...), nil
	}
	tr := transforms[ft]
	dst := make([]byte, origLen)
	_, n, err := tr.Inverse(encoded, dst)
	if err != nil {
		return nil, err
	}
	return dst[:n], nil
}
