package walker

import (
	"bytes"
	"fmt"

	"github.com/dbgtable/inspect/pkg/codec"
	"github.com/dbgtable/inspect/pkg/value"
)

// DefaultSymbol is the variable the walker looks up to compute the
// load base when the operator hasn't configured a different one.
const DefaultSymbol = "DEBUG_DATA"

// Transport is the subset of *transport.Client the walker depends on,
// kept as an interface so tests can fake the wire without a real
// socket.
type Transport interface {
	Info() (uint64, error)
	Read(addr uint64, size uint64) ([]byte, error)
	ReadUint(addr uint64, size uint64) (uint64, error)
	WriteUint(addr uint64, size uint64, v uint64) error
}

// Table is a decoded debug-information graph paired with the load base
// computed against a specific running target.
type Table struct {
	Root *value.Value
	Base uint64
}

// Load discovers the embedded debug table on t, decodes it, and
// computes the load base against the variable named symbol (default
// DefaultSymbol). magic is the expected header magic; a mismatch is
// fatal, since it almost always means the table address is wrong or
// the firmware wasn't built with a matching reservation.
func Load(t Transport, symbol string, magic [8]byte) (*Table, error) {
	if symbol == "" {
		symbol = DefaultSymbol
	}

	addr, err := t.Info()
	if err != nil {
		return nil, fmt.Errorf("walker: INFO: %w", err)
	}

	hdrBytes, err := t.Read(addr, codec.HeaderSize)
	if err != nil {
		return nil, fmt.Errorf("walker: read header at 0x%x: %w", addr, err)
	}
	hdr, err := codec.ParseHeader(hdrBytes)
	if err != nil {
		return nil, fmt.Errorf("walker: %w", err)
	}
	if hdr.Magic != magic {
		return nil, fmt.Errorf("walker: magic mismatch at 0x%x: got % x, want % x", addr, hdr.Magic, magic)
	}
	if hdr.DataSize > hdr.MaxSize {
		return nil, fmt.Errorf("walker: data_size %d exceeds max_size %d", hdr.DataSize, hdr.MaxSize)
	}

	payload, err := t.Read(addr+codec.HeaderSize, uint64(hdr.DataSize))
	if err != nil {
		return nil, fmt.Errorf("walker: read payload at 0x%x: %w", addr+codec.HeaderSize, err)
	}
	raw, err := codec.Inflate(payload)
	if err != nil {
		return nil, fmt.Errorf("walker: %w", err)
	}
	root, err := codec.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("walker: %w", err)
	}

	sym := root.FindVariable(symbol)
	if sym == nil {
		return nil, fmt.Errorf("walker: symbol %q not found in debug table", symbol)
	}

	return &Table{Root: root, Base: addr - sym.Value}, nil
}

// Cursor returns the top-level Cursor for the named variable, its
// address computed from the table's load base.
func (tab *Table) Cursor(name string) (Cursor, error) {
	v := tab.Root.FindVariable(name)
	if v == nil {
		return Cursor{}, fmt.Errorf("walker: variable %q not found", name)
	}
	return Cursor{Value: v, Addr: tab.Base + v.Value}, nil
}
