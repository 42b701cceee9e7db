// Package transport implements the three-command wire protocol spoken
// between this tool and the target's in-firmware command server: INFO
// locates the embedded debug table, READ/WRITE move bytes to and from
// absolute target addresses.
//
// Grounded on the original tool's client.py socket protocol, in the
// idiom of the teacher's backend.go synchronous request/response
// calls over a single connection (_examples/.../debugger/backend.go).
package transport

import (
	"encoding/binary"
	"fmt"
	"io"
)

const (
	opInfo  byte = 0x00
	opRead  byte = 0x01
	opWrite byte = 0x02
)

// Client speaks the protocol over a single reliable byte channel (a
// TCP connection in practice, anything satisfying io.ReadWriter in
// tests). It is not safe for concurrent use: the protocol has no
// pipelining, and the client issues at most one outstanding request at
// a time.
type Client struct {
	rw io.ReadWriter
}

// New wraps an already-connected channel. The Client does not own rw's
// lifetime; closing it, if it is a Closer, is the caller's
// responsibility.
func New(rw io.ReadWriter) *Client {
	return &Client{rw: rw}
}

// Info issues the INFO command and returns the target's address of the
// embedded debug table.
func (c *Client) Info() (uint64, error) {
	if _, err := c.rw.Write([]byte{opInfo}); err != nil {
		return 0, fmt.Errorf("transport: send INFO: %w", err)
	}

	var buf [8]byte
	if _, err := io.ReadFull(c.rw, buf[:]); err != nil {
		return 0, fmt.Errorf("transport: read INFO response: %w", err)
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

// Read issues the READ command and returns exactly size bytes read
// from the target at addr. size == 0 is a no-op that returns an empty,
// non-nil slice without touching the channel.
func (c *Client) Read(addr uint64, size uint64) ([]byte, error) {
	if size == 0 {
		return []byte{}, nil
	}

	req := make([]byte, 1+8+8)
	req[0] = opRead
	binary.LittleEndian.PutUint64(req[1:9], addr)
	binary.LittleEndian.PutUint64(req[9:17], size)
	if _, err := c.rw.Write(req); err != nil {
		return nil, fmt.Errorf("transport: send READ: %w", err)
	}

	data := make([]byte, size)
	if _, err := io.ReadFull(c.rw, data); err != nil {
		return nil, fmt.Errorf("transport: read %d bytes at 0x%x: %w", size, addr, err)
	}
	return data, nil
}

// Write issues the WRITE command, sending data to the target at addr.
// WRITE has no response.
func (c *Client) Write(addr uint64, data []byte) error {
	if len(data) == 0 {
		return nil
	}

	req := make([]byte, 1+8+8+len(data))
	req[0] = opWrite
	binary.LittleEndian.PutUint64(req[1:9], addr)
	binary.LittleEndian.PutUint64(req[9:17], uint64(len(data)))
	copy(req[17:], data)

	if _, err := c.rw.Write(req); err != nil {
		return fmt.Errorf("transport: send WRITE of %d bytes at 0x%x: %w", len(data), addr, err)
	}
	return nil
}

// ReadUint reads size bytes (1, 2, 4 or 8) at addr and interprets them
// as a little-endian unsigned integer, the representation the walker
// needs for pointers, enums and base types.
func (c *Client) ReadUint(addr uint64, size uint64) (uint64, error) {
	data, err := c.Read(addr, size)
	if err != nil {
		return 0, err
	}
	var v uint64
	for i := len(data) - 1; i >= 0; i-- {
		v = v<<8 | uint64(data[i])
	}
	return v, nil
}

// WriteUint encodes v as size little-endian bytes and writes them to
// addr.
func (c *Client) WriteUint(addr uint64, size uint64, v uint64) error {
	data := make([]byte, size)
	for i := uint64(0); i < size; i++ {
		data[i] = byte(v)
		v >>= 8
	}
	return c.Write(addr, data)
}
