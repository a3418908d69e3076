package noiseengine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tlschannel/tlschannel/engine"
	"github.com/tlschannel/tlschannel/internal/buffers"
)

func newWire() *buffers.Holder {
	h := buffers.NewHolder(buffers.NewDirectAllocator(), buffers.KindEncrypted, 4096, 17*1024)
	h.Prepare()
	return h
}

func runHandshake(t *testing.T, client, server *Engine) {
	t.Helper()
	require.NoError(t, client.BeginHandshake())
	require.NoError(t, server.BeginHandshake())

	wire := newWire()
	dummy := buffers.NewByteSliceSet(nil, false)

	// Message 1: client -> server.
	res, err := client.Wrap(dummy, wire)
	require.NoError(t, err)
	assert.Equal(t, engine.OK, res.Status)
	assert.Equal(t, engine.NeedUnwrap, client.HandshakeStatus())

	res, err = server.Unwrap(wire, dummy)
	require.NoError(t, err)
	assert.Equal(t, engine.NeedWrap, server.HandshakeStatus())
	wire.Reset()

	// Message 2: server -> client, completes both sides.
	res, err = server.Wrap(dummy, wire)
	require.NoError(t, err)
	assert.Equal(t, engine.Finished, server.HandshakeStatus())

	res, err = client.Unwrap(wire, dummy)
	require.NoError(t, err)
	assert.Equal(t, engine.Finished, client.HandshakeStatus())
	wire.Reset()
}

func TestEngine_HandshakeCompletesNNPattern(t *testing.T) {
	client := NewInitiator()
	server := NewResponder()
	runHandshake(t, client, server)

	assert.Equal(t, "", NewInitiator().Protocol())
	assert.Contains(t, client.Protocol(), "TLSv1.3")
}

func TestEngine_DataRoundTrip(t *testing.T) {
	client := NewInitiator()
	server := NewResponder()
	runHandshake(t, client, server)

	wire := newWire()
	src := buffers.NewByteSliceSet([]byte("a confidential payload"), false)
	res, err := client.Wrap(src, wire)
	require.NoError(t, err)
	assert.Equal(t, engine.OK, res.Status)
	assert.Equal(t, 23, res.BytesConsumed)

	dst := make([]byte, 64)
	dstSet := buffers.NewByteSliceSet(dst, false)
	res, err = server.Unwrap(wire, dstSet)
	require.NoError(t, err)
	assert.Equal(t, 23, res.BytesProduced)
	assert.Equal(t, "a confidential payload", string(dst[:23]))
}

func TestEngine_CloseRoundTrip(t *testing.T) {
	client := NewInitiator()
	server := NewResponder()
	runHandshake(t, client, server)

	wire := newWire()
	client.CloseOutbound()
	dummy := buffers.NewByteSliceSet(nil, false)
	res, err := client.Wrap(dummy, wire)
	require.NoError(t, err)
	assert.Equal(t, engine.Closed, res.Status)

	res, err = server.Unwrap(wire, dummy)
	require.NoError(t, err)
	assert.Equal(t, engine.Closed, res.Status)

	_, err = client.Wrap(dummy, wire)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestEngine_OverflowDoesNotDoubleDecrypt(t *testing.T) {
	client := NewInitiator()
	server := NewResponder()
	runHandshake(t, client, server)

	wire := newWire()
	src := buffers.NewByteSliceSet([]byte("twenty-three byte msg!!"), false)
	_, err := client.Wrap(src, wire)
	require.NoError(t, err)

	tooSmall := buffers.NewByteSliceSet(make([]byte, 1), false)
	res, err := server.Unwrap(wire, tooSmall)
	require.NoError(t, err)
	assert.Equal(t, engine.BufferOverflow, res.Status)

	bigEnough := buffers.NewByteSliceSet(make([]byte, 64), false)
	res, err = server.Unwrap(wire, bigEnough)
	require.NoError(t, err)
	assert.Equal(t, engine.OK, res.Status)
}
