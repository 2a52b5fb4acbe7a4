package filter

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/avesus/paq"
)

func TestDefaultFilterIdentity(t *testing.T) {
	src := []byte("arbitrary bytes \x00\x01\xff")
	dst := make([]byte, len(src))
	f := NewDefaultFilter()
	if _, n, err := f.Forward(src, dst); err != nil || n != len(src) {
		t.Fatalf("forward: n=%d err=%v", n, err)
	}
	if !bytes.Equal(dst, src) {
		t.Fatalf("identity transform changed bytes")
	}
}

func TestTextFilterRoundTrip(t *testing.T) {
	cases := [][]byte{
		[]byte("Hello, World! This Is A Test."),
		[]byte("no capitals here"),
		[]byte("ALL CAPS SENTENCE"),
		[]byte("Literal escape bytes \x01\x01A\x01 survive the round trip inside ordinary sentence text."),
		[]byte(""),
	}
	f := NewTextFilter()
	for _, src := range cases {
		dst := make([]byte, f.MaxEncodedLen(len(src)))
		_, n, err := f.Forward(src, dst)
		if err != nil {
			t.Fatalf("forward(%q): %v", src, err)
		}
		encoded := dst[:n]

		back := make([]byte, len(src)+8)
		_, bn, err := f.Inverse(encoded, back)
		if err != nil {
			t.Fatalf("inverse(%q): %v", src, err)
		}
		if !bytes.Equal(back[:bn], src) {
			t.Fatalf("round trip mismatch: got %q, want %q", back[:bn], src)
		}
	}
}

func TestTextFilterRejectsBinary(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	src := make([]byte, 200)
	for i := range src {
		src[i] = byte(r.Intn(9)) // mostly control bytes, well under printable
	}
	f := NewTextFilter()
	dst := make([]byte, f.MaxEncodedLen(len(src)))
	if _, _, err := f.Forward(src, dst); err != ErrNotText {
		t.Fatalf("expected ErrNotText for control-byte-heavy input, got %v", err)
	}
}

func TestEXEFilterRoundTrip(t *testing.T) {
	// A filler byte (0x90, x86 NOP) that is never mistaken for E8/E9 or
	// the 0xFF early-stop marker, so the only call/jmp sites the filter
	// can find are the ones planted below - this keeps the test immune
	// to the rare false-positive collisions inherent to the heuristic
	// scan (the archive driver's round-trip self-check is what protects
	// real, unpredictable input).
	// Positions are chosen small enough relative to the buffer length
	// that Forward's absolute-address range check always accepts them,
	// so every planted site is actually transformed and Inverse has no
	// untransformed-but-plausible occurrence to collide with.
	src := bytes.Repeat([]byte{0x90}, 5000)
	for _, pos := range []int{100, 500, 900} {
		src[pos] = 0xE8
		rel := int32(pos + 37)
		src[pos+1] = byte(rel)
		src[pos+2] = byte(rel >> 8)
		src[pos+3] = byte(rel >> 16)
		src[pos+4] = byte(rel >> 24)
	}

	f := NewEXEFilter()
	dst := make([]byte, f.MaxEncodedLen(len(src)))
	_, n, err := f.Forward(src, dst)
	if err != nil {
		t.Fatalf("forward: %v", err)
	}
	encoded := dst[:n]

	back := make([]byte, len(src))
	_, bn, err := f.Inverse(encoded, back)
	if err != nil {
		t.Fatalf("inverse: %v", err)
	}
	if !bytes.Equal(back[:bn], src) {
		t.Fatalf("EXE filter round trip mismatch")
	}
}

func TestApplyFallsBackOnRejectedTransform(t *testing.T) {
	r := rand.New(rand.NewSource(5))
	src := make([]byte, 200)
	for i := range src {
		src[i] = byte(r.Intn(9))
	}
	ft, out := Apply(paq.TypeText, src)
	if ft != paq.TypeDefault {
		t.Fatalf("expected fallback to TypeDefault, got %v", ft)
	}
	if !bytes.Equal(out, src) {
		t.Fatalf("fallback output should equal source unchanged")
	}
}

func TestApplyAndUndoRoundTrip(t *testing.T) {
	src := []byte("The Quick Brown Fox Jumps Over The Lazy Dog")
	ft, encoded := Apply(paq.TypeText, src)
	back, err := Undo(ft, encoded, len(src))
	if err != nil {
		t.Fatalf("undo: %v", err)
	}
	if !bytes.Equal(back, src) {
		t.Fatalf("apply/undo mismatch: got %q want %q", back, src)
	}
}

func TestSniffByExtension(t *testing.T) {
	if got := Sniff("prog.exe", nil); got != paq.TypeEXE {
		t.Fatalf("want TypeEXE for .exe, got %v", got)
	}
	if got := Sniff("notes.txt", nil); got != paq.TypeText {
		t.Fatalf("want TypeText for .txt, got %v", got)
	}
}
