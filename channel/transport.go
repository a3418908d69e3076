package channel

import "io"

// Reader is the readable half of the underlying transport. Its contract
// translates the Java-NIO tri-state ByteChannel semantics from spec §6
// into idiomatic Go: a positive return is progress, (0, nil) is
// non-blocking backpressure ("would block, retry later"), and (0, io.EOF)
// or (n, io.EOF) is a graceful end of stream. Any other error is fatal.
type Reader interface {
	ReadChunk(p []byte) (n int, err error)
}

// Writer is the writable half of the underlying transport, with the same
// tri-state contract: (0, nil) means the transport couldn't accept any
// bytes right now (non-blocking backpressure); n>0 is progress.
type Writer interface {
	WriteChunk(p []byte) (n int, err error)
}

// Transport is the pair of channels the pump reads TLS records from and
// writes them to.
type Transport interface {
	Reader
	Writer
}

// transportRead performs one logical transport read, translating its
// result into the internal Eof/NeedsRead signals spec §4.3.4 describes.
func transportRead(t Reader, p []byte) (int, error) {
	n, err := t.ReadChunk(p)
	if n == 0 {
		if err == io.EOF {
			return 0, errEOF
		}
		if err != nil {
			return 0, err
		}
		return 0, ErrNeedsRead
	}
	if err != nil && err != io.EOF {
		return n, err
	}
	return n, nil
}

// flush writes all of p to t, honoring the would-block contract: a
// zero-progress write raises ErrNeedsWrite so the caller can retry once
// the transport is ready (spec §4.3.5).
func flush(t Writer, p []byte) (int, error) {
	total := 0
	for total < len(p) {
		n, err := t.WriteChunk(p[total:])
		if n == 0 && err == nil {
			return total, ErrNeedsWrite
		}
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}
