package process

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/bnema/slotbot/internal/domain"
)

const (
	readChunkSize = 4096
	// maxPending bounds unmatched output kept between calls to Expect.
	maxPending = 64 * 1024
	// maxMatchSpan is the longest protocol match looked for. Output already
	// scanned further back than this cannot start a new match.
	maxMatchSpan = 4096
)

// expecter turns a byte stream into protocol matches. A background reader
// feeds chunks; Expect must not be called from more than one goroutine.
type expecter struct {
	chunks chan []byte
	stop   chan struct{}
	done   chan struct{}

	stopOnce sync.Once

	pending []byte
	// scanned is the prefix of pending known to hold no complete match.
	scanned int
	eof     bool
}

func newExpecter(r io.Reader) *expecter {
	e := &expecter{
		chunks: make(chan []byte),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go e.read(r)
	return e
}

func (e *expecter) read(r io.Reader) {
	defer close(e.done)
	defer close(e.chunks)

	buf := make([]byte, readChunkSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunk := append([]byte(nil), buf[:n]...)
			select {
			case e.chunks <- chunk:
			case <-e.stop:
				return
			}
		}
		if err != nil {
			return
		}
	}
}

// Expect waits for the next protocol pattern. It reports MatchTimedOut when
// nothing matched within timeout and MatchStreamEnded once the stream is
// exhausted; both carry the unmatched text in Before. A timeout <= 0 waits
// until ctx is done.
func (e *expecter) Expect(ctx context.Context, timeout time.Duration) (domain.Match, error) {
	if m, ok, err := e.next(); ok || err != nil {
		return m, err
	}
	if e.eof {
		return e.sentinel(domain.MatchStreamEnded), nil
	}

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return domain.Match{}, ctx.Err()
		case <-expired:
			return e.sentinel(domain.MatchTimedOut), nil
		case chunk, ok := <-e.chunks:
			if !ok {
				e.eof = true
				return e.sentinel(domain.MatchStreamEnded), nil
			}
			e.buffer(chunk)
			if m, ok, err := e.next(); ok || err != nil {
				return m, err
			}
		}
	}
}

// Close stops the reader and waits for it to exit. The underlying reader
// must be closed first if it can block.
func (e *expecter) Close() {
	e.stopOnce.Do(func() {
		close(e.stop)
	})
	<-e.done
}

// next classifies pending output, skipping the part an earlier call has
// already ruled out.
func (e *expecter) next() (domain.Match, bool, error) {
	from := max(0, e.scanned-maxMatchSpan)
	m, consumed, err := domain.Classify(string(e.pending[from:]))
	if errors.Is(err, domain.ErrNoMatch) {
		e.scanned = len(e.pending)
		return domain.Match{}, false, nil
	}

	m.Before = string(e.pending[:from]) + m.Before
	if consumed > 0 {
		e.pending = e.pending[from+consumed:]
		e.scanned = 0
	}
	if err != nil {
		return domain.Match{}, false, err
	}

	return m, true, nil
}

func (e *expecter) buffer(chunk []byte) {
	e.pending = append(e.pending, chunk...)
	if over := len(e.pending) - maxPending; over > 0 {
		e.pending = append([]byte(nil), e.pending[over:]...)
		e.scanned = max(0, e.scanned-over)
	}
}

func (e *expecter) sentinel(kind domain.MatchKind) domain.Match {
	m := domain.Match{Kind: kind, Before: string(e.pending)}
	e.pending = nil
	e.scanned = 0
	return m
}
