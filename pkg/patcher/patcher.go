// Package patcher locates the embedded-table reservation in a target
// binary and overwrites it with a freshly encoded debug table (C6).
//
// Grounded on the original tool's patch.py write_db/help_header, in the
// file-open/defer-close idiom of the teacher's llvm.BinaryFileParser
// (_examples/.../llvm/binaryfileparser.go).
package patcher

import (
	"bytes"
	"fmt"
	"os"

	"github.com/dbgtable/inspect/pkg/codec"
)

// Patch locates magic in the file at path, verifies the reserved
// region can hold payload, and overwrites data_size and the payload in
// place, zero-filling the remainder of the region. It returns the
// offset the table was found at and the region's max_size, for
// reporting.
func Patch(path string, magic [8]byte, payload []byte) (offset int64, maxSize uint32, err error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return 0, 0, fmt.Errorf("patcher: read %s: %w", path, err)
	}

	idx := bytes.Index(contents, magic[:])
	if idx < 0 {
		return 0, 0, fmt.Errorf("%w: magic %x not found in %s", ErrMagicNotFound, magic, path)
	}

	hdr, err := codec.ParseHeader(contents[idx:])
	if err != nil {
		return 0, 0, fmt.Errorf("patcher: %w", err)
	}

	needed := uint32(len(payload)) + codec.HeaderSize
	if needed > hdr.MaxSize {
		return 0, 0, fmt.Errorf("%w: need %d bytes, reservation holds %d", ErrReservationTooSmall, needed, hdr.MaxSize)
	}

	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return 0, 0, fmt.Errorf("patcher: open %s for writing: %w", path, err)
	}
	defer f.Close()

	newHeader := codec.Header{Magic: magic, MaxSize: hdr.MaxSize, DataSize: uint32(len(payload))}
	region := make([]byte, hdr.MaxSize)
	copy(region, newHeader.Bytes())
	copy(region[codec.HeaderSize:], payload)
	// The rest of region is already zero from make(), zero-filling the
	// remainder of the reservation.

	if _, err := f.WriteAt(region, int64(idx)); err != nil {
		return 0, 0, fmt.Errorf("patcher: write table at offset %d: %w", idx, err)
	}

	return int64(idx), hdr.MaxSize, nil
}

// ErrMagicNotFound and ErrReservationTooSmall classify Patch's fatal
// failure modes so callers (cmd/patch) can print the guidance snippet
// only when appropriate.
var (
	ErrMagicNotFound       = fmt.Errorf("debug table magic not found")
	ErrReservationTooSmall = fmt.Errorf("reserved region too small")
)
