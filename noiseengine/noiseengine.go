// Package noiseengine is an engine.Engine backed by the Noise Protocol
// Framework (github.com/flynn/noise), using the NN handshake pattern:
// no static keys, an anonymous ephemeral Diffie-Hellman exchange in
// two messages. It is the production collaborator Channel drives when
// there's no certificate authority to plug in, the way a raw PSK or
// anonymous-DH TLS cipher suite would be used.
//
// Records are framed as a 4-byte big-endian length prefix followed by
// a Noise ciphertext (handshake message or AEAD-sealed application
// data), mirroring the length-prefixed wire format the rest of the
// retrieved corpus uses for Noise traffic. Encrypted records carry one
// leading plaintext-side byte identifying the record as application
// data or a close notification, since the Noise Protocol itself has no
// notion of a closing message.
package noiseengine

import (
	"encoding/binary"
	"errors"

	"github.com/flynn/noise"

	"github.com/tlschannel/tlschannel/engine"
	"github.com/tlschannel/tlschannel/internal/buffers"
)

const headerLen = 4

// tagOverhead is the AES-GCM authentication tag size flynn/noise's
// default cipher suite appends to every sealed message.
const tagOverhead = 16

// maxChunkDataLen caps how much application data one record carries, so
// a single Wrap call never needs a buffer bigger than the session's
// initial allocation, even before any resizing.
const maxChunkDataLen = 16000

const (
	recordTypeData  = 0
	recordTypeClose = 1
)

// ErrClosed is returned from Wrap/Unwrap once the close record has
// been sent or received.
var ErrClosed = errors.New("noiseengine: engine closed")

var defaultCipherSuite = noise.NewCipherSuite(noise.DH25519, noise.CipherAESGCM, noise.HashSHA256)

// Engine is the Noise NN engine.Engine implementation. Build one with
// NewInitiator or NewResponder per connection; it is not reusable
// across handshakes (use BeginHandshake only for the initial one -
// Noise has no renegotiation, so the channel facade's renegotiation
// gate must refuse it, see Protocol).
type Engine struct {
	initiator bool
	hs        *noise.HandshakeState
	cs1, cs2  *noise.CipherState // cs1 encrypts initiator->responder, cs2 responder->initiator

	status   engine.HandshakeStatus
	complete bool
	closing  bool
	closed   bool
}

// NewInitiator builds the client-side (initiator) engine.
func NewInitiator() *Engine { return &Engine{initiator: true} }

// NewResponder builds the server-side (responder) engine.
func NewResponder() *Engine { return &Engine{initiator: false} }

func (e *Engine) BeginHandshake() error {
	hs, err := noise.NewHandshakeState(noise.Config{
		CipherSuite: defaultCipherSuite,
		Pattern:     noise.HandshakeNN,
		Initiator:   e.initiator,
	})
	if err != nil {
		return err
	}
	e.hs = hs
	e.complete = false
	e.cs1, e.cs2 = nil, nil
	if e.initiator {
		e.status = engine.NeedWrap
	} else {
		e.status = engine.NeedUnwrap
	}
	return nil
}

func (e *Engine) HandshakeStatus() engine.HandshakeStatus { return e.status }

// DelegatedTask always returns nil: flynn/noise's NN pattern does no
// background work (no certificate validation, no static-key signing),
// so this engine never has a task to offload.
func (e *Engine) DelegatedTask() func() error { return nil }

func (e *Engine) CloseOutbound() { e.closing = true }

// Protocol reports a synthetic protocol name once the handshake has
// completed, so the channel's renegotiation gate (spec §4.3.9, gated
// at "TLSv1.3") always refuses: Noise has no renegotiation concept, a
// fresh handshake means a fresh connection.
func (e *Engine) Protocol() string {
	if e.complete {
		return "Noise_NN_25519_AESGCM_SHA256/TLSv1.3"
	}
	return ""
}

func (e *Engine) Wrap(source buffers.Set, out *buffers.Holder) (engine.Result, error) {
	if e.closed {
		return engine.Result{}, ErrClosed
	}
	if !e.complete {
		return e.wrapHandshake(out)
	}
	if e.closing {
		return e.wrapClose(out)
	}
	return e.wrapData(source, out)
}

func (e *Engine) wrapHandshake(out *buffers.Holder) (engine.Result, error) {
	if e.status != engine.NeedWrap {
		return engine.Result{}, errors.New("noiseengine: wrap called out of turn")
	}
	msg, cs1, cs2, err := e.hs.WriteMessage(nil, nil)
	if err != nil {
		return engine.Result{}, err
	}
	if out.FreeSpace() < headerLen+len(msg) {
		return engine.Result{Status: engine.BufferOverflow, HandshakeStatus: e.status}, nil
	}
	writeFrame(out, msg)
	if cs1 != nil && cs2 != nil {
		e.cs1, e.cs2 = cs1, cs2
		e.complete = true
		e.status = engine.Finished
	} else {
		e.status = engine.NeedUnwrap
	}
	return engine.Result{Status: engine.OK, HandshakeStatus: e.status}, nil
}

func (e *Engine) wrapClose(out *buffers.Holder) (engine.Result, error) {
	ciphertext, err := e.sendCipher().Encrypt(nil, nil, []byte{recordTypeClose})
	if err != nil {
		return engine.Result{}, err
	}
	if out.FreeSpace() < headerLen+len(ciphertext) {
		return engine.Result{Status: engine.BufferOverflow, HandshakeStatus: e.status}, nil
	}
	writeFrame(out, ciphertext)
	e.closed = true
	return engine.Result{Status: engine.Closed, HandshakeStatus: e.status}, nil
}

func (e *Engine) wrapData(source buffers.Set, out *buffers.Holder) (engine.Result, error) {
	want := source.Remaining()
	if want > maxChunkDataLen {
		want = maxChunkDataLen
	}
	if out.FreeSpace() < headerLen+1+want+tagOverhead {
		return engine.Result{Status: engine.BufferOverflow, HandshakeStatus: e.status}, nil
	}

	plain := make([]byte, 1+want)
	plain[0] = recordTypeData
	got := source.GetRemaining(plain[1:])

	ciphertext, err := e.sendCipher().Encrypt(nil, nil, plain[:1+got])
	if err != nil {
		return engine.Result{}, err
	}
	writeFrame(out, ciphertext)
	return engine.Result{Status: engine.OK, HandshakeStatus: e.status, BytesConsumed: got}, nil
}

func (e *Engine) Unwrap(in *buffers.Holder, dest buffers.Set) (engine.Result, error) {
	if e.closed {
		return engine.Result{}, ErrClosed
	}
	if in.Remaining() < headerLen {
		return engine.Result{Status: engine.BufferUnderflow, HandshakeStatus: e.status}, nil
	}
	n := int(binary.BigEndian.Uint32(in.Pending()[:headerLen]))
	if in.Remaining() < headerLen+n {
		return engine.Result{Status: engine.BufferUnderflow, HandshakeStatus: e.status}, nil
	}

	if !e.complete {
		return e.unwrapHandshake(in, n)
	}
	return e.unwrapData(in, n, dest)
}

func (e *Engine) unwrapHandshake(in *buffers.Holder, n int) (engine.Result, error) {
	if e.status != engine.NeedUnwrap {
		return engine.Result{}, errors.New("noiseengine: unwrap called out of turn")
	}
	msg := in.Pending()[headerLen : headerLen+n]
	_, cs1, cs2, err := e.hs.ReadMessage(nil, msg)
	if err != nil {
		return engine.Result{}, err
	}
	in.Consumed(headerLen + n)
	if cs1 != nil && cs2 != nil {
		e.cs1, e.cs2 = cs1, cs2
		e.complete = true
		e.status = engine.Finished
	} else {
		e.status = engine.NeedWrap
	}
	return engine.Result{Status: engine.OK, HandshakeStatus: e.status}, nil
}

// unwrapData decrypts one record. The destination space check happens
// before decryption, purely from the ciphertext length, so a
// BUFFER_OVERFLOW never calls Decrypt twice on the same ciphertext -
// the recv CipherState's nonce counter only advances on a successful
// decrypt, and a replayed nonce would fail authentication.
func (e *Engine) unwrapData(in *buffers.Holder, n int, dest buffers.Set) (engine.Result, error) {
	plainLen := n - tagOverhead
	if plainLen < 1 {
		return engine.Result{}, errors.New("noiseengine: truncated record")
	}
	payloadLen := plainLen - 1
	if dest.Remaining() < payloadLen {
		return engine.Result{Status: engine.BufferOverflow, HandshakeStatus: e.status}, nil
	}

	ciphertext := in.Pending()[headerLen : headerLen+n]
	plain, err := e.recvCipher().Decrypt(nil, nil, ciphertext)
	if err != nil {
		return engine.Result{}, err
	}

	if plain[0] == recordTypeClose {
		in.Consumed(headerLen + n)
		e.closed = true
		return engine.Result{Status: engine.Closed, HandshakeStatus: e.status}, nil
	}

	produced := dest.PutRemaining(plain[1:])
	in.Consumed(headerLen + n)
	return engine.Result{Status: engine.OK, HandshakeStatus: e.status, BytesConsumed: headerLen + n, BytesProduced: produced}, nil
}

// sendCipher and recvCipher follow flynn/noise's convention that cs1
// encrypts initiator->responder traffic and cs2 the reverse.
func (e *Engine) sendCipher() *noise.CipherState {
	if e.initiator {
		return e.cs1
	}
	return e.cs2
}

func (e *Engine) recvCipher() *noise.CipherState {
	if e.initiator {
		return e.cs2
	}
	return e.cs1
}

func writeFrame(out *buffers.Holder, payload []byte) {
	var hdr [headerLen]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(len(payload)))
	out.Produced(copy(out.Tail(), hdr[:]))
	out.Produced(copy(out.Tail(), payload))
}
