package channel

import (
	"bytes"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tlschannel/tlschannel/testengine"
)

// pairedTransport adapts one end of a net.Pipe (a synchronous,
// in-memory, full-duplex connection, as used throughout the ambient
// stack's own networking tests) to the Transport interface.
type pairedTransport struct {
	net.Conn
}

func (p pairedTransport) ReadChunk(b []byte) (int, error)  { return p.Conn.Read(b) }
func (p pairedTransport) WriteChunk(b []byte) (int, error) { return p.Conn.Write(b) }

func newChannelPair(t *testing.T) (*Channel, *Channel) {
	t.Helper()
	clientConn, serverConn := net.Pipe()
	client := New(testengine.New(true), pairedTransport{clientConn}, Options{})
	server := New(testengine.New(false), pairedTransport{serverConn}, Options{})
	t.Cleanup(func() {
		// Close's best-effort shutdown now writes a real close_notify
		// before tearing down the transport. net.Pipe has no buffering,
		// so that write only returns once the peer reads it; a short
		// deadline here stands in for the kernel buffering a real socket
		// would provide, so an unread close_notify times out instead of
		// wedging the test.
		deadline := time.Now().Add(50 * time.Millisecond)
		_ = clientConn.SetDeadline(deadline)
		_ = serverConn.SetDeadline(deadline)
		_ = client.Close()
		_ = server.Close()
	})
	return client, server
}

// Scenario 1 (spec §8): plain echo round trip drives the implicit
// handshake and then carries application data both ways.
func TestChannel_PlainEcho(t *testing.T) {
	client, server := newChannelPair(t)

	done := make(chan error, 1)
	go func() {
		buf := make([]byte, 5)
		_, err := io.ReadFull(server, buf)
		if err != nil {
			done <- err
			return
		}
		_, err = server.Write(buf)
		done <- err
	}()

	_, err := client.Write([]byte("hello"))
	require.NoError(t, err)

	reply := make([]byte, 5)
	_, err = io.ReadFull(client, reply)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(reply))
	require.NoError(t, <-done)
}

// Scenario 2 (spec §8): a write larger than one record forces the
// wrap loop to produce and flush multiple records, and the read side
// reassembles them transparently.
func TestChannel_LargeWriteSpansMultipleRecords(t *testing.T) {
	client, server := newChannelPair(t)

	payload := bytes.Repeat([]byte{0xAB}, 65536)
	errCh := make(chan error, 1)
	go func() {
		_, err := client.Write(payload)
		errCh <- err
	}()

	received := make([]byte, len(payload))
	_, err := io.ReadFull(server, received)
	require.NoError(t, err)
	require.NoError(t, <-errCh)
	assert.True(t, bytes.Equal(payload, received))
}

// Scenario 4 (spec §8): with ExplicitHandshake set, Read/Write refuse
// until Handshake() completes.
func TestChannel_ExplicitHandshakeGate(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	client := New(testengine.New(true), pairedTransport{clientConn}, Options{ExplicitHandshake: true})
	server := New(testengine.New(false), pairedTransport{serverConn}, Options{ExplicitHandshake: true})

	errCh := make(chan error, 1)
	go func() { errCh <- server.Handshake() }()

	require.NoError(t, client.Handshake())
	require.NoError(t, <-errCh)

	done := make(chan struct{})
	go func() {
		buf := make([]byte, 2)
		_, _ = io.ReadFull(server, buf)
		close(done)
	}()
	_, err := client.Write([]byte("hi"))
	require.NoError(t, err)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for post-handshake write to arrive")
	}
}

// Scenario 5 (spec §8): with RunTasks false, the channel surfaces the
// delegated task instead of running it inline.
func TestChannel_SurfacesDelegatedTask(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	client := New(testengine.New(true), pairedTransport{clientConn}, Options{ExplicitHandshake: true, RunTasks: false})
	server := New(testengine.New(false), pairedTransport{serverConn}, Options{ExplicitHandshake: true, RunTasks: true})

	go func() { _ = server.Handshake() }()

	err := client.Handshake()
	var taskErr *NeedsTaskError
	if assert.ErrorAs(t, err, &taskErr) {
		require.NoError(t, taskErr.Task())
		require.NoError(t, client.Handshake())
	}
}

// Scenario 6 (spec §8): renegotiation is refused once the engine
// reports a TLS 1.3-or-later protocol.
func TestChannel_RenegotiationRefusedAtTLS13(t *testing.T) {
	clientConn, _ := net.Pipe()
	defer clientConn.Close()

	clientEngine := testengine.New(true)
	clientEngine.SetProtocol("TLSv1.3")

	client := New(clientEngine, pairedTransport{clientConn}, Options{RunTasks: true})

	var tlsErr *TLSError
	err := client.Renegotiate()
	assert.ErrorAs(t, err, &tlsErr)
}

// Uses gateTransport rather than newChannelPair's net.Pipe: Close's
// best-effort shutdown now writes a real close_notify to the transport,
// and nothing here ever reads the other end of a net.Pipe, which would
// make that write block forever.
func TestChannel_CloseIsIdempotent(t *testing.T) {
	gt := &gateTransport{out: &bytes.Buffer{}, in: &bytes.Buffer{}}
	client := New(testengine.New(true), gt, Options{})
	require.NoError(t, client.Close())
	require.NoError(t, client.Close())
	assert.False(t, client.IsOpen())
}

// Scenario 1's shutdown tail (spec §8, §4.3.10): client.Shutdown() sends
// close_notify and reports false since the peer's hasn't arrived yet;
// server.Shutdown() observes the client's already-sent close while
// sending its own, so it completes in one call; the client's second
// Shutdown() then drains the server's close and also reports true. Uses
// the non-blocking gateTransport pair (rather than net.Pipe) so each
// step's return value is asserted synchronously instead of racing
// goroutines against a blocking socket.
func TestChannel_ShutdownRoundTrip(t *testing.T) {
	a, b := &bytes.Buffer{}, &bytes.Buffer{}
	clientTransport := &gateTransport{out: a, in: b}
	serverTransport := &gateTransport{out: b, in: a}

	client := New(testengine.New(true), clientTransport, Options{RunTasks: true})
	server := New(testengine.New(false), serverTransport, Options{RunTasks: true})
	t.Cleanup(func() {
		_ = client.Close()
		_ = server.Close()
	})

	// Drive the handshake by hand: testengine's non-blocking transport
	// means a side with nothing to read returns ErrNeedsRead rather than
	// blocking, so completing it takes exactly these three calls.
	err := client.Handshake()
	assert.ErrorIs(t, err, ErrNeedsRead)
	require.NoError(t, server.Handshake())
	require.NoError(t, client.Handshake())

	done, err := client.Shutdown()
	require.NoError(t, err)
	assert.False(t, done)

	done, err = server.Shutdown()
	require.NoError(t, err)
	assert.True(t, done)

	done, err = client.Shutdown()
	require.NoError(t, err)
	assert.True(t, done)
}
