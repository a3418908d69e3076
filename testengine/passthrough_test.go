package testengine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tlschannel/tlschannel/engine"
	"github.com/tlschannel/tlschannel/internal/buffers"
)

func TestEngine_HandshakeAlternatesWrapUnwrapThenTask(t *testing.T) {
	client := New(true)
	server := New(false)
	require.NoError(t, client.BeginHandshake())
	require.NoError(t, server.BeginHandshake())

	assert.Equal(t, engine.NeedWrap, client.HandshakeStatus())
	assert.Equal(t, engine.NeedUnwrap, server.HandshakeStatus())

	wire := buffers.NewHolder(buffers.NewDirectAllocator(), buffers.KindEncrypted, 256, 4096)
	wire.Prepare()

	// Client's first handshake message.
	dummy := buffers.NewByteSliceSet(nil, false)
	res, err := client.Wrap(dummy, wire)
	require.NoError(t, err)
	assert.Equal(t, engine.OK, res.Status)
	assert.Equal(t, engine.NeedUnwrap, client.HandshakeStatus())

	res, err = server.Unwrap(wire, dummy)
	require.NoError(t, err)
	assert.Equal(t, engine.OK, res.Status)
	assert.Equal(t, engine.NeedWrap, server.HandshakeStatus())
	wire.Reset()

	// Server's reply.
	res, err = server.Wrap(dummy, wire)
	require.NoError(t, err)
	assert.Equal(t, engine.NeedTask, server.HandshakeStatus())

	res, err = client.Unwrap(wire, dummy)
	require.NoError(t, err)
	assert.Equal(t, engine.NeedTask, client.HandshakeStatus())

	require.NotNil(t, client.DelegatedTask())
	require.NoError(t, client.DelegatedTask()())
	assert.Equal(t, engine.Finished, client.HandshakeStatus())

	require.NotNil(t, server.DelegatedTask())
	require.NoError(t, server.DelegatedTask()())
	assert.Equal(t, engine.Finished, server.HandshakeStatus())
}

func TestEngine_WrapDataOverflowLeavesSourceUntouched(t *testing.T) {
	e := New(true)
	e.status = engine.Finished

	src := buffers.NewByteSliceSet([]byte("hello world"), false)
	out := buffers.NewHolder(buffers.NewDirectAllocator(), buffers.KindEncrypted, 2, 2)
	out.Prepare()

	res, err := e.Wrap(src, out)
	require.NoError(t, err)
	assert.Equal(t, engine.BufferOverflow, res.Status)
	assert.Equal(t, 0, res.BytesConsumed)
	assert.Equal(t, 11, src.Remaining())
}

func TestEngine_ProtocolDefaultsBelowRenegotiationGate(t *testing.T) {
	e := New(true)
	assert.Equal(t, "TLSv1.2", e.Protocol())
	e.SetProtocol("TLSv1.3")
	assert.Equal(t, "TLSv1.3", e.Protocol())
}
