package archive

import (
	"bufio"
	"bytes"
	"testing"
)

// archiveRoundTrip writes every (name, content) pair to a fresh
// archive at the given memory option and reads them all back,
// asserting byte-for-byte equality - the end-to-end scenario spec.md
// §8 calls for on top of the per-component unit tests.
func archiveRoundTrip(t *testing.T, option byte, files map[string][]byte, order []string) {
	t.Helper()

	entries := make([]Entry, 0, len(order))
	for _, name := range order {
		entries = append(entries, Entry{Name: name, Size: int64(len(files[name]))})
	}

	var buf bytes.Buffer
	w, err := NewWriter(&buf, option, entries)
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	for _, name := range order {
		if err := w.WriteFile(name, files[name]); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	r, err := NewReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("new reader: %v", err)
	}
	if len(r.Entries) != len(order) {
		t.Fatalf("got %d header entries, want %d", len(r.Entries), len(order))
	}
	for i, name := range order {
		if r.Entries[i].Name != name {
			t.Fatalf("entry %d name: got %q want %q", i, r.Entries[i].Name, name)
		}
		got, err := r.ReadFile(r.Entries[i].Size)
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		if !bytes.Equal(got, files[name]) {
			t.Fatalf("content mismatch for %s: got %d bytes, want %d", name, len(got), len(files[name]))
		}
	}
}

func TestArchiveEmptyFile(t *testing.T) {
	archiveRoundTrip(t, '0', map[string][]byte{"empty.bin": {}}, []string{"empty.bin"})
}

func TestArchiveSingleByteFile(t *testing.T) {
	archiveRoundTrip(t, '0', map[string][]byte{"one.bin": {0x42}}, []string{"one.bin"})
}

func TestArchiveRepeatedEXEPattern(t *testing.T) {
	data := bytes.Repeat([]byte{0x90, 0x90, 0xE8, 0x10, 0x00, 0x00, 0x00}, 300)
	archiveRoundTrip(t, '1', map[string][]byte{"prog.exe": data}, []string{"prog.exe"})
}

func TestArchiveTextAndEXEConcatenated(t *testing.T) {
	files := map[string][]byte{
		"readme.txt": bytes.Repeat([]byte("Hello World. This Is A Readme File.\n"), 50),
		"prog.exe":   bytes.Repeat([]byte{0x90, 0xE8, 0x05, 0x00, 0x00, 0x00}, 100),
	}
	archiveRoundTrip(t, '1', files, []string{"readme.txt", "prog.exe"})
}

// ccittBitmap builds a synthetic fax-style bitmap: several rows of the
// canonical 216-byte (1728-pixel) CCITT stride the picture model
// assumes, alternating runs of black/white so neighboring-row context
// actually varies from row to row.
func ccittBitmap(rows int) []byte {
	const stride = 216
	data := make([]byte, stride*rows)
	for i := range data {
		if (i/3+i/stride)%2 == 0 {
			data[i] = 0x00
		} else {
			data[i] = 0xff
		}
	}
	return data
}

func TestArchiveCCITTBitmap(t *testing.T) {
	data := ccittBitmap(6)
	archiveRoundTrip(t, '1', map[string][]byte{"fax.pic": data}, []string{"fax.pic"})
}

// bmpImage builds a minimal valid 24-bit BMP: the standard 54-byte
// BITMAPFILEHEADER+BITMAPINFOHEADER pair BMPModel.DetectHeader reads
// its magic offsets from, followed by width*height*3 bytes (row
// stride rounded to a 4-byte boundary) of pixel data.
func bmpImage(width, height int32) []byte {
	header := make([]byte, 54)
	header[0], header[1] = 'B', 'M'
	putLE32 := func(off int, v uint32) {
		header[off] = byte(v)
		header[off+1] = byte(v >> 8)
		header[off+2] = byte(v >> 16)
		header[off+3] = byte(v >> 24)
	}
	putLE32(10, 54) // pixel data offset
	putLE32(14, 40) // DIB header size
	putLE32(18, uint32(width))
	putLE32(22, uint32(height))
	header[26], header[27] = 1, 0  // planes
	header[28], header[29] = 24, 0 // bits per pixel
	putLE32(30, 0)                 // compression

	stride := int(((width + 3) &^ 3) * 3)
	pixels := make([]byte, stride*int(height))
	for i := range pixels {
		pixels[i] = byte(i * 37 % 251)
	}
	return append(header, pixels...)
}

func TestArchiveBMPBitmap(t *testing.T) {
	data := bmpImage(8, 4)
	archiveRoundTrip(t, '1', map[string][]byte{"photo.bmp": data}, []string{"photo.bmp"})
}

// tinyJPEG builds a synthetic byte stream carrying real SOI/APPn, SOS
// and EOI marker bytes (the only structure JPEGModel's marker-level
// detection reads) around a block of scan-like filler that avoids any
// stray 0xff byte, so no marker fires by accident inside the scan.
func tinyJPEG() []byte {
	data := []byte{
		0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00,
		0x01, 0x01, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00,
		0xff, 0xda, 0x00, 0x0c, 0x03, 0x01, 0x00, 0x02, 0x11, 0x03, 0x11, 0x00, 0x3f, 0x00,
	}
	scan := bytes.Repeat([]byte{0x12, 0x34, 0x56, 0x78, 0x9a, 0xbc, 0xde, 0x01}, 40)
	data = append(data, scan...)
	data = append(data, 0xff, 0xd9)
	return data
}

func TestArchiveTinyJPEG(t *testing.T) {
	data := tinyJPEG()
	archiveRoundTrip(t, '1', map[string][]byte{"shot.jpg": data}, []string{"shot.jpg"})
}

func TestArchiveHeaderRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	entries := []Entry{{Name: "a.txt", Size: 10}, {Name: "b.bin", Size: 0}}
	if err := WriteHeader(&buf, '5', entries); err != nil {
		t.Fatalf("write header: %v", err)
	}

	br := bufio.NewReader(bytes.NewReader(buf.Bytes()))
	option, got, err := ReadHeader(br)
	if err != nil {
		t.Fatalf("read header: %v", err)
	}
	if option != '5' {
		t.Fatalf("option: got %q want 5", option)
	}
	if len(got) != 2 || got[0] != entries[0] || got[1] != entries[1] {
		t.Fatalf("entries round trip mismatch: got %+v", got)
	}
}

func TestMemOptionRange(t *testing.T) {
	m, err := Mem('0')
	if err != nil || m != 0x10000 {
		t.Fatalf("Mem('0')=%d,%v want 0x10000,nil", m, err)
	}
	if _, err := Mem('a'); err == nil {
		t.Fatalf("Mem('a') should reject a non-digit option")
	}
}
