package utils

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
)

const (
	defaultChunkSize = 32 * 1024
	// Buffers that grew past this are dropped instead of pooled.
	maxPooledBuffer = 8 * 1024 * 1024
)

var readPool = sync.Pool{
	New: func() interface{} { return new(bytes.Buffer) },
}

// ErrTooLarge is returned when a source holds more bytes than allowed.
var ErrTooLarge = errors.New("input exceeds size limit")

// ReadSource reads r to the end in chunkSize reads, checking ctx before each
// one.  With limit > 0 a source longer than limit bytes fails with
// ErrTooLarge.  The returned slice belongs to the caller.
func ReadSource(ctx context.Context, r io.Reader, limit int64, chunkSize int) ([]byte, error) {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	if limit > 0 {
		r = &LimitedReader{R: r, Max: limit}
	}

	buf := readPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer func() {
		if buf.Cap() <= maxPooledBuffer {
			readPool.Put(buf)
		}
	}()

	chunk := make([]byte, chunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := r.Read(chunk)
		buf.Write(chunk[:n])
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
	}
	return bytes.Clone(buf.Bytes()), nil
}

// LimitedReader passes through at most Max bytes of R and fails with
// ErrTooLarge if R has more.  Unlike io.LimitedReader, a source of exactly Max
// bytes reads cleanly to io.EOF and a longer one is an error, not a silent
// truncation.  Max <= 0 means no limit.
type LimitedReader struct {
	R    io.Reader
	Max  int64
	read int64
}

func (l *LimitedReader) Read(p []byte) (int, error) {
	if l.Max <= 0 {
		return l.R.Read(p)
	}
	if l.read == l.Max {
		// One more byte means the source is over the limit.
		var extra [1]byte
		n, err := l.R.Read(extra[:])
		if n > 0 {
			return 0, ErrTooLarge
		}
		return 0, err
	}
	if rest := l.Max - l.read; int64(len(p)) > rest {
		p = p[:rest]
	}
	n, err := l.R.Read(p)
	l.read += int64(n)
	return n, err
}
