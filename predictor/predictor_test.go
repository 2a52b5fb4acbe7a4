package predictor

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/avesus/paq"
	"github.com/avesus/paq/rangecoder"
)

// roundTrip compresses data through one CMPredictor/encoder pair and
// decompresses it through a second, independently constructed pair,
// exactly the way the archive package drives two separate processes
// sharing only the bitstream.
func roundTrip(t *testing.T, mem int, data []byte) []byte {
	t.Helper()

	encCtx := paq.NewContext(mem * 8)
	encPred := NewCMPredictor(mem, encCtx)
	var buf bytes.Buffer
	enc := rangecoder.NewEncoder(&buf, encPred)
	for _, b := range data {
		if err := enc.EncodeByte(b); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	if err := enc.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	decCtx := paq.NewContext(mem * 8)
	decPred := NewCMPredictor(mem, decCtx)
	dec, err := rangecoder.NewDecoder(bytes.NewReader(buf.Bytes()), decPred)
	if err != nil {
		t.Fatalf("new decoder: %v", err)
	}

	out := make([]byte, len(data))
	for i := range out {
		b, err := dec.DecodeByte()
		if err != nil {
			t.Fatalf("decode at %d: %v", i, err)
		}
		out[i] = b
	}
	return out
}

func TestRoundTripEmptyInput(t *testing.T) {
	got := roundTrip(t, 0x10000, nil)
	if len(got) != 0 {
		t.Fatalf("expected zero bytes back, got %d", len(got))
	}
}

func TestRoundTripRepetitiveText(t *testing.T) {
	data := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog. "), 200)
	got := roundTrip(t, 0x20000, data)
	if !bytes.Equal(got, data) {
		t.Fatalf("round trip mismatch: got %d bytes, want %d", len(got), len(data))
	}
}

func TestRoundTripRandomBytes(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	data := make([]byte, 4000)
	r.Read(data)
	got := roundTrip(t, 0x10000, data)
	if !bytes.Equal(got, data) {
		t.Fatalf("round trip mismatch on random data")
	}
}

func TestRoundTripCCITTBitmap(t *testing.T) {
	// Several rows of the 216-byte fax stride PictureModel assumes,
	// alternating runs so the above/left neighbor contexts actually
	// vary from row to row - drives the "BMP/BMP-active" gate off and
	// the default-branch picture model on.
	const stride = 216
	data := make([]byte, stride*6)
	for i := range data {
		if (i/3+i/stride)%2 == 0 {
			data[i] = 0x00
		} else {
			data[i] = 0xff
		}
	}
	got := roundTrip(t, 0x20000, data)
	if !bytes.Equal(got, data) {
		t.Fatalf("round trip mismatch on CCITT-style bitmap")
	}
}

func TestRoundTripBMPBitmap(t *testing.T) {
	// A minimal valid 24-bit BMP header (the exact offsets
	// BMPModel.DetectHeader's magic-constant checks read) followed by
	// pixel data, exercising the BMP-active mixer branch directly.
	width, height := int32(8), int32(4)
	header := make([]byte, 54)
	header[0], header[1] = 'B', 'M'
	putLE32 := func(off int, v uint32) {
		header[off] = byte(v)
		header[off+1] = byte(v >> 8)
		header[off+2] = byte(v >> 16)
		header[off+3] = byte(v >> 24)
	}
	putLE32(10, 54)
	putLE32(14, 40)
	putLE32(18, uint32(width))
	putLE32(22, uint32(height))
	header[26], header[27] = 1, 0
	header[28], header[29] = 24, 0
	putLE32(30, 0)

	stride := int(((width + 3) &^ 3) * 3)
	pixels := make([]byte, stride*int(height))
	for i := range pixels {
		pixels[i] = byte(i * 37 % 251)
	}
	data := append(header, pixels...)

	got := roundTrip(t, 0x20000, data)
	if !bytes.Equal(got, data) {
		t.Fatalf("round trip mismatch on BMP-header input")
	}
}

func TestRoundTripTinyJPEG(t *testing.T) {
	// Real SOI/APPn, SOS and EOI marker bytes around filler that
	// contains no stray 0xff byte, so JPEGModel's Active() flips on at
	// SOS exactly once and stays on through the trailing EOI (the last
	// two bytes, after which no further byte is coded), exercising its private
	// mixer/APM chain across many consecutive bits.
	data := []byte{
		0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00,
		0x01, 0x01, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00,
		0xff, 0xda, 0x00, 0x0c, 0x03, 0x01, 0x00, 0x02, 0x11, 0x03, 0x11, 0x00, 0x3f, 0x00,
	}
	scan := bytes.Repeat([]byte{0x12, 0x34, 0x56, 0x78, 0x9a, 0xbc, 0xde, 0x01}, 40)
	data = append(data, scan...)
	data = append(data, 0xff, 0xd9)

	got := roundTrip(t, 0x20000, data)
	if !bytes.Equal(got, data) {
		t.Fatalf("round trip mismatch on JPEG-marker input")
	}
}

func TestRoundTripSmallMemoryWithoutStructuralModels(t *testing.T) {
	// mem below the 0x20000 structural-model threshold exercises the
	// order-N/match/run-context path alone.
	data := []byte("AAAAAAAAAAAAAAAABBBBBBBBBBBBBBBBCCCCCCCCCCCCCCCC")
	got := roundTrip(t, 0x8000, data)
	if !bytes.Equal(got, data) {
		t.Fatalf("round trip mismatch with structural models disabled")
	}
}
