package koda

import (
	"sync"

	"github.com/koda-format/koda/binary"
	"github.com/koda-format/koda/errs"
	"github.com/koda-format/koda/value"
)

// DecodeFuture is the pending result of an off-thread decode.
//
// A running decode cannot be cancelled, since the decoder has no
// suspension points, but a future may be abandoned, in which case the
// result is discarded when the worker finishes.
type DecodeFuture struct {
	done chan struct{}
	v    value.Value
	err  error
}

func newDecodeFuture() *DecodeFuture {
	return &DecodeFuture{done: make(chan struct{})}
}

func (f *DecodeFuture) resolve(v value.Value, err error) {
	f.v = v
	f.err = err
	close(f.done)
}

// Wait blocks until the decode finishes and returns its result.
func (f *DecodeFuture) Wait() (value.Value, error) {
	<-f.done
	return f.v, f.err
}

// Done returns a channel that is closed when the result is ready.
func (f *DecodeFuture) Done() <-chan struct{} {
	return f.done
}

// DecodeAsync decodes data off the caller's goroutine and returns a
// future for the result.
//
// The input buffer is copied before the call returns, so the caller may
// reuse it immediately; the decoded Value crosses back by ownership
// transfer. For sustained workloads prefer a DecoderPool, which bounds
// concurrency.
func DecodeAsync(data []byte, opts ...binary.DecodeOption) *DecodeFuture {
	buf := make([]byte, len(data))
	copy(buf, data)

	f := newDecodeFuture()
	go func() {
		f.resolve(binary.Decode(buf, opts...))
	}()

	return f
}

// decodeJob is one queued pool submission.
type decodeJob struct {
	data   []byte
	opts   []binary.DecodeOption
	future *DecodeFuture
}

// DecoderPool runs decodes on a fixed set of worker goroutines.
//
// Jobs are dispatched in submission order to the first idle worker;
// completion order is unspecified. The pool shares nothing with its
// callers: input buffers are copied on submission.
type DecoderPool struct {
	jobs chan decodeJob
	wg   sync.WaitGroup

	mu        sync.Mutex
	destroyed bool
}

// NewDecoderPool creates a pool with poolSize workers. A non-positive
// poolSize gets one worker.
func NewDecoderPool(poolSize int) *DecoderPool {
	if poolSize < 1 {
		poolSize = 1
	}
	p := &DecoderPool{
		jobs: make(chan decodeJob),
	}
	p.wg.Add(poolSize)
	for i := 0; i < poolSize; i++ {
		go p.worker()
	}

	return p
}

func (p *DecoderPool) worker() {
	defer p.wg.Done()
	for job := range p.jobs {
		job.future.resolve(binary.Decode(job.data, job.opts...))
	}
}

// Decode submits data for off-thread decoding and returns a future. The
// submission blocks until a worker accepts the job; after Destroy the
// future rejects immediately with errs.ErrPoolDestroyed.
func (p *DecoderPool) Decode(data []byte, opts ...binary.DecodeOption) *DecodeFuture {
	f := newDecodeFuture()

	p.mu.Lock()
	if p.destroyed {
		p.mu.Unlock()
		f.resolve(value.Value{}, errs.ErrPoolDestroyed)

		return f
	}

	buf := make([]byte, len(data))
	copy(buf, data)
	// Hand off under the lock so Destroy cannot close the channel between
	// the destroyed check and the send.
	p.jobs <- decodeJob{data: buf, opts: opts, future: f}
	p.mu.Unlock()

	return f
}

// Destroy drains in-flight jobs, then releases the workers. It blocks
// until every accepted job has resolved its future. Submissions after
// Destroy reject immediately.
func (p *DecoderPool) Destroy() {
	p.mu.Lock()
	if p.destroyed {
		p.mu.Unlock()
		return
	}
	p.destroyed = true
	close(p.jobs)
	p.mu.Unlock()

	p.wg.Wait()
}
