package transport_test

import (
	"encoding/binary"
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbgtable/inspect/pkg/transport"
)

// fakeServer implements just enough of the wire protocol on one end of
// a net.Pipe to exercise the Client against a real io.ReadWriter,
// rather than a hand-rolled buffer.
func fakeServer(t *testing.T, conn net.Conn, tableAddr uint64, mem map[uint64][]byte) {
	t.Helper()
	go func() {
		for {
			var op [1]byte
			if _, err := io.ReadFull(conn, op[:]); err != nil {
				return
			}
			switch op[0] {
			case 0x00:
				var buf [8]byte
				binary.LittleEndian.PutUint64(buf[:], tableAddr)
				conn.Write(buf[:])
			case 0x01:
				var hdr [16]byte
				if _, err := io.ReadFull(conn, hdr[:]); err != nil {
					return
				}
				addr := binary.LittleEndian.Uint64(hdr[0:8])
				size := binary.LittleEndian.Uint64(hdr[8:16])
				data := mem[addr]
				out := make([]byte, size)
				copy(out, data)
				conn.Write(out)
			case 0x02:
				var hdr [16]byte
				if _, err := io.ReadFull(conn, hdr[:]); err != nil {
					return
				}
				addr := binary.LittleEndian.Uint64(hdr[0:8])
				size := binary.LittleEndian.Uint64(hdr[8:16])
				data := make([]byte, size)
				if _, err := io.ReadFull(conn, data); err != nil {
					return
				}
				mem[addr] = data
			default:
				return
			}
		}
	}()
}

func TestClientInfo(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer serverConn.Close()
	defer clientConn.Close()
	fakeServer(t, serverConn, 0xbeef0000, map[uint64][]byte{})

	c := transport.New(clientConn)
	addr, err := c.Info()
	require.NoError(t, err)
	assert.EqualValues(t, 0xbeef0000, addr)
}

func TestClientReadExactBytes(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer serverConn.Close()
	defer clientConn.Close()
	fakeServer(t, serverConn, 0, map[uint64][]byte{0x1000: {0x04, 0x03, 0x02, 0x01}})

	c := transport.New(clientConn)
	data, err := c.Read(0x1000, 4)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x04, 0x03, 0x02, 0x01}, data)
}

func TestClientReadZeroSizeIsNoOp(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer serverConn.Close()
	defer clientConn.Close()
	fakeServer(t, serverConn, 0, map[uint64][]byte{})

	c := transport.New(clientConn)
	data, err := c.Read(0x1000, 0)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestClientReadUintLittleEndian(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer serverConn.Close()
	defer clientConn.Close()
	fakeServer(t, serverConn, 0, map[uint64][]byte{0x1000: {0x04, 0x03, 0x02, 0x01}})

	c := transport.New(clientConn)
	v, err := c.ReadUint(0x1000, 4)
	require.NoError(t, err)
	assert.EqualValues(t, 0x01020304, v)
}

func TestClientWriteThenReadBack(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer serverConn.Close()
	defer clientConn.Close()
	mem := map[uint64][]byte{}
	fakeServer(t, serverConn, 0, mem)

	c := transport.New(clientConn)
	require.NoError(t, c.WriteUint(0x2000, 2, 0xcafe))

	// fakeServer mutates the shared map synchronously within its own
	// goroutine, so re-read through the same client to observe it.
	v, err := c.ReadUint(0x2000, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 0xcafe, v)
}
