// Package archive implements the single-file container format (spec.md
// §6 "External Interfaces"): one text header naming every archived
// file and its size, a CTRL-Z terminator, then each file's payload
// back to back - a filetype byte, the transform's output length, and
// the range-coded bytes, all sharing one predictor and one
// encoder/decoder across every file in the archive (spec.md §5: the
// model never resets between files, so file N benefits from whatever
// file N-1 already taught the mixer). Grounded on main() in
// _examples/original_source/paq8b/src/Paq8b.cpp.
package archive

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/avesus/paq"
	"github.com/avesus/paq/filter"
	"github.com/avesus/paq/predictor"
	"github.com/avesus/paq/rangecoder"
)

// magic is the first line of every archive, carrying the MEM option
// digit used to build it (spec.md §6 "-0".."-9" sizing the model).
const magic = "paqz"

// eofMarker is the CTRL-Z byte terminating the header, unlikely to
// appear in a filename and cheap to scan for.
const eofMarker = 0x1A

// Entry describes one archived file: its stored name and the
// plaintext length the decoder must stop at.
type Entry struct {
	Name string
	Size int64
}

// Mem resolves a "-0".."-9" option digit to a model memory size
// (spec.md §5 "MEM = 0x10000 << option").
func Mem(option byte) (int, error) {
	if option < '0' || option > '9' {
		return 0, fmt.Errorf("archive: bad option %q", option)
	}
	return 0x10000 << (option - '0'), nil
}

// WriteHeader writes the magic/option line, one "<size>\t<name>\r\n"
// line per entry, then the CTRL-Z terminator.
func WriteHeader(w io.Writer, option byte, entries []Entry) error {
	if _, err := fmt.Fprintf(w, "%s -%c\r\n", magic, option); err != nil {
		return err
	}
	for _, e := range entries {
		if strings.ContainsAny(e.Name, "\t\r\n") {
			return fmt.Errorf("archive: filename %q contains a reserved character", e.Name)
		}
		if _, err := fmt.Fprintf(w, "%d\t%s\r\n", e.Size, e.Name); err != nil {
			return err
		}
	}
	_, err := w.Write([]byte{eofMarker})
	return err
}

// ReadHeader parses the magic/option line and the entry list up to
// the CTRL-Z terminator.
func ReadHeader(r *bufio.Reader) (option byte, entries []Entry, err error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return 0, nil, err
	}
	line = strings.TrimRight(line, "\r\n")
	prefix := magic + " -"
	if !strings.HasPrefix(line, prefix) || len(line) != len(prefix)+1 {
		return 0, nil, fmt.Errorf("archive: bad magic line %q", line)
	}
	option = line[len(prefix)]

	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, nil, err
		}
		if b == eofMarker {
			return option, entries, nil
		}
		if err := r.UnreadByte(); err != nil {
			return 0, nil, err
		}
		line, err := r.ReadString('\n')
		if err != nil {
			return 0, nil, err
		}
		line = strings.TrimRight(line, "\r\n")
		tab := strings.IndexByte(line, '\t')
		if tab < 0 {
			return 0, nil, fmt.Errorf("archive: malformed entry line %q", line)
		}
		size, err := strconv.ParseInt(line[:tab], 10, 64)
		if err != nil {
			return 0, nil, fmt.Errorf("archive: bad size in %q: %w", line, err)
		}
		entries = append(entries, Entry{Name: line[tab+1:], Size: size})
	}
}

// compressPayload lets the encoder write a whole transformed file one
// byte at a time into the shared range coder.
func compressPayload(enc *rangecoder.Encoder, payload []byte) error {
	for _, b := range payload {
		if err := enc.EncodeByte(b); err != nil {
			return err
		}
	}
	return nil
}

func decompressPayload(dec *rangecoder.Decoder, n int) ([]byte, error) {
	out := make([]byte, n)
	for i := range out {
		b, err := dec.DecodeByte()
		if err != nil {
			return nil, err
		}
		out[i] = b
	}
	return out, nil
}

// Writer drives compression of a sequence of files into one archive,
// sharing a single predictor and encoder across all of them.
type Writer struct {
	w    *bufio.Writer
	pred *predictor.CMPredictor
	ctx  *paq.Context
	enc  *rangecoder.Encoder
}

// NewWriter allocates a predictor sized by option and wraps w,
// writing the header for entries immediately (the original emits the
// header before any file body, so a reader can list contents without
// decompressing anything).
func NewWriter(w io.Writer, option byte, entries []Entry) (*Writer, error) {
	mem, err := Mem(option)
	if err != nil {
		return nil, err
	}
	bw := bufio.NewWriter(w)
	if err := WriteHeader(bw, option, entries); err != nil {
		return nil, err
	}
	ctx := paq.NewContext(mem * 8)
	pred := predictor.NewCMPredictor(mem, ctx)
	return &Writer{w: bw, pred: pred, ctx: ctx, enc: rangecoder.NewEncoder(bw, pred)}, nil
}

// WriteFile filters content, then range-codes the one-byte file type
// tag, the transformed length (as a little-endian varint, one coded
// byte at a time) and the transformed payload - every byte of a file's
// record goes through the same shared encoder, so the stream never
// mixes raw and coded bytes (spec.md §6: "the archive is one
// contiguous coded stream after the header").
func (ar *Writer) WriteFile(name string, content []byte) error {
	ft := filter.Sniff(name, content)
	actual, transformed := filter.Apply(ft, content)

	if err := ar.enc.EncodeByte(byte(actual)); err != nil {
		return err
	}
	ar.ctx.FileType = actual
	for _, b := range encodeVarint(uint64(len(transformed))) {
		if err := ar.enc.EncodeByte(b); err != nil {
			return err
		}
	}
	return compressPayload(ar.enc, transformed)
}

// Close flushes the range coder and the underlying writer.
func (ar *Writer) Close() error {
	if err := ar.enc.Flush(); err != nil {
		return err
	}
	return ar.w.Flush()
}

// Reader drives decompression, mirroring Writer's shared predictor.
type Reader struct {
	r       *bufio.Reader
	pred    *predictor.CMPredictor
	ctx     *paq.Context
	dec     *rangecoder.Decoder
	Option  byte
	Entries []Entry
}

// NewReader parses the header from r and prepares the shared predictor
// and decoder for ReadFile calls in entry order.
func NewReader(r io.Reader) (*Reader, error) {
	br := bufio.NewReader(r)
	option, entries, err := ReadHeader(br)
	if err != nil {
		return nil, err
	}
	mem, err := Mem(option)
	if err != nil {
		return nil, err
	}
	ctx := paq.NewContext(mem * 8)
	pred := predictor.NewCMPredictor(mem, ctx)
	dec, err := rangecoder.NewDecoder(br, pred)
	if err != nil {
		return nil, err
	}
	return &Reader{r: br, pred: pred, ctx: ctx, dec: dec, Option: option, Entries: entries}, nil
}

// ReadFile decodes the next file's type tag, transformed length and
// payload, then inverts the transform back to the original bytes
// (origLen comes from the corresponding Entry.Size).
func (ar *Reader) ReadFile(origLen int64) ([]byte, error) {
	ftByte, err := ar.dec.DecodeByte()
	if err != nil {
		return nil, err
	}
	ft := paq.FileType(ftByte)
	ar.ctx.FileType = ft

	n, err := decodeVarint(ar.dec)
	if err != nil {
		return nil, err
	}

	payload, err := decompressPayload(ar.dec, int(n))
	if err != nil {
		return nil, err
	}
	return filter.Undo(ft, payload, int(origLen))
}

// encodeVarint/decodeVarint store each file's transformed length as a
// small, self-delimiting prefix immediately ahead of its payload, both
// coded through the same shared range coder as every other byte in
// the record.
func encodeVarint(v uint64) []byte {
	var buf []byte
	for v >= 0x80 {
		buf = append(buf, byte(v)|0x80)
		v >>= 7
	}
	return append(buf, byte(v))
}

func decodeVarint(dec *rangecoder.Decoder) (uint64, error) {
	var v uint64
	var shift uint
	for {
		b, err := dec.DecodeByte()
		if err != nil {
			return 0, err
		}
		v |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return v, nil
		}
		shift += 7
	}
}
