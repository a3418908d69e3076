package cmd

import "net"

// connTransport adapts a net.Conn to channel.Transport. A real socket's
// Read/Write block until progress or an error, so they never produce
// the (0, nil) would-block reading transportRead/flush also handle for
// non-blocking transports; here that branch simply never triggers.
type connTransport struct {
	net.Conn
}

func (t connTransport) ReadChunk(p []byte) (int, error)  { return t.Conn.Read(p) }
func (t connTransport) WriteChunk(p []byte) (int, error) { return t.Conn.Write(p) }
