/*
 *
 * Copyright 2025 SwiftChannel authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 *
 */

package shm

import (
	"context"
	"sync"
	"time"
	"unsafe"
)

// Receiver is the consuming endpoint of a channel.
type Receiver struct {
	region   *Region
	ring     *ring
	cfg      Config
	counters receiverCounters

	runOnce sync.Once
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewReceiver attaches to name as the receiving endpoint, creating the
// backing region if this is the first attacher.
func NewReceiver(name string, cfg Config) (*Receiver, error) {
	cfg, err := cfg.Validate()
	if err != nil {
		return nil, err
	}
	region, err := openRegion(name, cfg, roleReceiver)
	if err != nil {
		return nil, err
	}
	checksums := region.Flags()&FlagNoChecksum == 0
	return &Receiver{
		region: region,
		ring:   newRing(region, checksums),
		cfg:    cfg,
	}, nil
}

// PollOne attempts to dequeue the next message without blocking. It
// returns (nil, nil) if the channel currently has nothing to read; callers
// that want to block should use Run, or poll in their own loop.
func (r *Receiver) PollOne() ([]byte, error) {
	if r.region == nil {
		return nil, ErrChannelClosed
	}
	payload, err := r.ring.TryRead()
	if err == errRingEmpty {
		return nil, nil
	}
	if err != nil {
		if err == ErrMessageCorrupted {
			r.counters.recordCorrupted()
		} else {
			r.counters.recordError()
		}
		return nil, err
	}
	r.counters.recordReceived(len(payload))
	return payload, nil
}

// PollInto attempts to dequeue the next message into dst without blocking
// or allocating. If dst is too small to hold the payload, it returns
// (0, size, ErrBufferTooSmall) with size set to the payload's actual
// length and the message left in place for a retry with a bigger buffer.
// If the channel currently has nothing to read, it returns (0, 0, nil).
func (r *Receiver) PollInto(dst []byte) (n int, size uint32, err error) {
	if r.region == nil {
		return 0, 0, ErrChannelClosed
	}
	n, size, err = r.ring.TryReadInto(dst)
	if err == errRingEmpty {
		return 0, 0, nil
	}
	if err != nil {
		if err == ErrMessageCorrupted {
			r.counters.recordCorrupted()
		} else if err != ErrBufferTooSmall {
			r.counters.recordError()
		}
		return 0, size, err
	}
	r.counters.recordReceived(n)
	return n, size, nil
}

// Recv dequeues the next message and decodes it in place as a *T, the
// receiving side of Send[T]. It returns (nil, nil) if nothing is available,
// and ErrMessageCorrupted if the message's length doesn't match
// unsafe.Sizeof(T).
func Recv[T any](r *Receiver) (*T, error) {
	payload, err := r.PollOne()
	if err != nil || payload == nil {
		return nil, err
	}
	var zero T
	want := int(unsafe.Sizeof(zero))
	if len(payload) != want {
		r.counters.recordCorrupted()
		return nil, ErrMessageCorrupted
	}
	return (*T)(unsafe.Pointer(&payload[0])), nil
}

// AvailableData reports the number of unread bytes currently in the ring.
// It returns 0 once the Receiver has been closed.
func (r *Receiver) AvailableData() uint64 {
	if r.region == nil {
		return 0
	}
	return r.ring.AvailableData()
}

// Stats returns a snapshot of this Receiver's local counters. It keeps
// working after Close, since the counters live in process memory rather
// than in the region.
func (r *Receiver) Stats() ReceiverStats { return r.counters.snapshot() }

// Handler is called once per message by Run/RunAsync. It has no return
// value, so nothing it does stops the loop; a failure inside it is surfaced
// only through whatever the handler itself chooses to do (log it, count it,
// etc).
type Handler func(payload []byte)

// Run blocks, delivering messages to handler as they arrive, until ctx is
// canceled (returning ctx.Err()) or PollOne reports an error (returning that
// error, e.g. ErrChannelClosed or ErrMessageCorrupted). Stop cancels only
// the context RunAsync passes to Run. Between polls it backs off with an
// exponentially growing sleep capped at Config.PollTimeout, the way a
// yield/sleep spin-wait behaves when there is no futex or semaphore backing
// it. The non-blocking fast path never makes a syscall; this loop lives
// strictly outside it, layered on top of PollOne rather than inside the
// ring.
func (r *Receiver) Run(ctx context.Context, handler Handler) error {
	backoff := time.Microsecond
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		payload, err := r.PollOne()
		if err != nil {
			return err
		}
		if payload == nil {
			time.Sleep(backoff)
			backoff *= 2
			if backoff > r.cfg.PollTimeout {
				backoff = r.cfg.PollTimeout
			}
			continue
		}

		backoff = time.Microsecond
		handler(payload)
	}
}

// RunAsync starts Run in a background goroutine and returns immediately.
// Call Stop to cancel it; Stop blocks until the goroutine has exited.
func (r *Receiver) RunAsync(handler Handler) {
	r.runOnce.Do(func() {
		ctx, cancel := context.WithCancel(context.Background())
		r.cancel = cancel
		r.done = make(chan struct{})
		go func() {
			defer close(r.done)
			_ = r.Run(ctx, handler)
		}()
	})
}

// Stop cancels a RunAsync loop and waits for it to exit. It is a no-op if
// RunAsync was never called.
func (r *Receiver) Stop() {
	if r.cancel == nil {
		return
	}
	r.cancel()
	<-r.done
}

// Close unmaps the receiver's region. If a RunAsync loop is active, Close
// does not stop it; call Stop first. Afterward, methods that return an
// error report ErrChannelClosed instead of touching the unmapped memory,
// AvailableData returns 0, and Stats keeps working.
func (r *Receiver) Close() error {
	if r.region == nil {
		return nil
	}
	err := r.region.Close()
	r.region = nil
	r.ring = nil
	return err
}
