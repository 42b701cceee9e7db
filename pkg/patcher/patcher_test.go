package patcher_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbgtable/inspect/pkg/codec"
	"github.com/dbgtable/inspect/pkg/patcher"
)

func writeFixture(t *testing.T, magic [8]byte, maxSize uint32, prefix, suffix []byte) string {
	t.Helper()
	hdr := codec.Header{Magic: magic, MaxSize: maxSize, DataSize: 0}
	region := make([]byte, maxSize)
	copy(region, hdr.Bytes())

	path := filepath.Join(t.TempDir(), "firmware.bin")
	contents := append(append(append([]byte{}, prefix...), region...), suffix...)
	require.NoError(t, os.WriteFile(path, contents, 0o644))
	return path
}

func TestPatchOverwritesReservedRegion(t *testing.T) {
	payload := []byte("compressed-table-bytes")
	path := writeFixture(t, codec.DefaultMagic, uint32(len(payload)+codec.HeaderSize+16), []byte("junk-before"), []byte("junk-after"))

	offset, maxSize, err := patcher.Patch(path, codec.DefaultMagic, payload)
	require.NoError(t, err)
	assert.EqualValues(t, len("junk-before"), offset)
	assert.EqualValues(t, len(payload)+codec.HeaderSize+16, maxSize)

	got, err := os.ReadFile(path)
	require.NoError(t, err)

	hdr, err := codec.ParseHeader(got[offset:])
	require.NoError(t, err)
	assert.Equal(t, codec.DefaultMagic, hdr.Magic)
	assert.EqualValues(t, len(payload), hdr.DataSize)

	gotPayload := got[offset+codec.HeaderSize : offset+codec.HeaderSize+int64(len(payload))]
	assert.Equal(t, payload, gotPayload)

	// Confirm the reservation tail was zero-filled.
	tailStart := offset + codec.HeaderSize + int64(len(payload))
	tailEnd := offset + int64(maxSize)
	assert.True(t, bytes.Equal(got[tailStart:tailEnd], make([]byte, tailEnd-tailStart)))
}

func TestPatchRejectsMissingMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "firmware.bin")
	require.NoError(t, os.WriteFile(path, []byte("no magic here at all"), 0o644))

	_, _, err := patcher.Patch(path, codec.DefaultMagic, []byte("payload"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, patcher.ErrMagicNotFound))
}

func TestPatchRejectsInsufficientReservation(t *testing.T) {
	path := writeFixture(t, codec.DefaultMagic, codec.HeaderSize+4, nil, nil)

	_, _, err := patcher.Patch(path, codec.DefaultMagic, []byte("way too big for 4 bytes"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, patcher.ErrReservationTooSmall))
}

func TestWriteGuidancePrintsCSnippetByDefault(t *testing.T) {
	var buf bytes.Buffer
	patcher.WriteGuidance(&buf, codec.DefaultMagic, 64, patcher.LangC, "DEBUG_DATA")
	assert.Contains(t, buf.String(), "unsigned int DEBUG_DATA[16]")
}

func TestWriteGuidancePrintsRustSnippet(t *testing.T) {
	var buf bytes.Buffer
	patcher.WriteGuidance(&buf, codec.DefaultMagic, 64, patcher.LangRust, "DEBUG_DATA")
	assert.Contains(t, buf.String(), "DEBUG_DATA_SIZE")
}
