package codec

import (
	"bytes"
	"compress/flate"
	"encoding/binary"
	"fmt"
	"io"
)

// HeaderSize is the fixed size, in bytes, of the embedded-table header
// that precedes the compressed payload in the target's reserved region.
const HeaderSize = 16

// DefaultMagic is the 8-byte marker the patch tool searches the target
// binary for, little-endian as two 4-byte halves (A1 07 23 45, F0 5C AE
// 4C), matching the firmware's recommended word-array declaration.
var DefaultMagic = [8]byte{0xa1, 0x07, 0x23, 0x45, 0xf0, 0x5c, 0xae, 0x4c}

// Header is the 16-byte embedded-table header: magic, the capacity of
// the reserved region, and the length of the payload that follows.
type Header struct {
	Magic    [8]byte
	MaxSize  uint32
	DataSize uint32
}

// ParseHeader reads a Header from the first HeaderSize bytes of buf.
func ParseHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, fmt.Errorf("codec: header needs %d bytes, got %d", HeaderSize, len(buf))
	}
	var h Header
	copy(h.Magic[:], buf[0:8])
	h.MaxSize = binary.LittleEndian.Uint32(buf[8:12])
	h.DataSize = binary.LittleEndian.Uint32(buf[12:16])
	return h, nil
}

// Bytes serializes h to its 16-byte on-wire form.
func (h Header) Bytes() []byte {
	buf := make([]byte, HeaderSize)
	copy(buf[0:8], h.Magic[:])
	binary.LittleEndian.PutUint32(buf[8:12], h.MaxSize)
	binary.LittleEndian.PutUint32(buf[12:16], h.DataSize)
	return buf
}

// Deflate compresses data with raw DEFLATE (no zlib or gzip wrapper),
// matching the wire format's bare 16-byte header plus payload: there
// is no room in that layout for zlib's 2-byte header and Adler-32
// trailer.
func Deflate(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	fw, err := flate.NewWriter(&buf, flate.BestCompression)
	if err != nil {
		return nil, fmt.Errorf("codec: create deflate writer: %w", err)
	}
	if _, err := fw.Write(data); err != nil {
		return nil, fmt.Errorf("codec: deflate write: %w", err)
	}
	if err := fw.Close(); err != nil {
		return nil, fmt.Errorf("codec: deflate close: %w", err)
	}
	return buf.Bytes(), nil
}

// Inflate reverses Deflate.
func Inflate(data []byte) ([]byte, error) {
	fr := flate.NewReader(bytes.NewReader(data))
	defer fr.Close()
	out, err := io.ReadAll(fr)
	if err != nil {
		return nil, fmt.Errorf("codec: inflate: %w", err)
	}
	return out, nil
}
