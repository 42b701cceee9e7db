// Package codec implements the on-wire encoding of a debug-information
// graph (pkg/value): a striped, columnar layout of LEB128 varints,
// chosen because like-typed fields cluster and compress far better than
// a record-interleaved layout.
//
// Grounded on the original tool's store.py wire format, adapted to the
// newer striped-column revision, and on the teacher's mc.ProgramFile
// writer/dumper (_examples/.../mc/programfilewriter.go,
// programfiledump.go) for the reader/writer idiom.
package codec

import (
	"bufio"
	"fmt"
	"io"
)

// putUvarint appends the LEB128 encoding of v to w: seven bits per byte,
// low-to-high, continuation flagged by the high bit.
func putUvarint(w *bufio.Writer, v uint64) error {
	for v >= 0x80 {
		if err := w.WriteByte(byte(v) | 0x80); err != nil {
			return err
		}
		v >>= 7
	}
	return w.WriteByte(byte(v))
}

// readUvarint inverts putUvarint.
func readUvarint(r *bufio.Reader) (uint64, error) {
	var result uint64
	var shift uint
	for {
		if shift >= 64 {
			return 0, fmt.Errorf("codec: varint overflows 64 bits")
		}
		b, err := r.ReadByte()
		if err != nil {
			if err == io.EOF {
				return 0, fmt.Errorf("codec: truncated varint: %w", io.ErrUnexpectedEOF)
			}
			return 0, err
		}
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, nil
		}
		shift += 7
	}
}
