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
	"errors"
	"fmt"
	"time"
)

// errRingEmpty signals "nothing to read" to TryRead's callers inside this
// package. It never escapes the package: Receiver.PollOne translates it
// into its own no-message-yet return.
var errRingEmpty = errors.New("shm: ring empty")

// ring is the non-blocking, single-producer single-consumer ring buffer
// algorithm at the core of a channel. TryWrite and TryRead never call into
// the kernel: every byte of their
// fast path is a plain memory load/store or atomic access against already-
// mapped memory. Any blocking behavior (see receiver.go's Run) is layered
// strictly on top, via backoff between TryRead calls, never inside this
// type.
type ring struct {
	h         *header
	data      []byte
	capacity  uint64 // power of two
	capMask   uint64
	sequence  uint64 // monotonic frame counter, sender-local
	checksums bool
}

func newRing(r *Region, checksums bool) *ring {
	capacity := r.RingSize()
	return &ring{
		h:         r.hdr(),
		data:      r.DataArea(),
		capacity:  capacity,
		capMask:   capacity - 1,
		checksums: checksums,
	}
}

// AvailableSpace returns the number of free bytes in the ring, as observed
// from the producer side: a relaxed read of its own write cursor and an
// acquire read of the consumer's read cursor.
func (r *ring) AvailableSpace() uint64 {
	w := r.h.LoadWriteIndexRelaxed()
	readIdx := r.h.LoadReadIndexAcquire()
	return r.capacity - (w - readIdx)
}

// AvailableData returns the number of unread bytes in the ring, as observed
// from the consumer side: a relaxed read of its own read cursor and an
// acquire read of the producer's write cursor.
func (r *ring) AvailableData() uint64 {
	readIdx := r.h.LoadReadIndexRelaxed()
	w := r.h.LoadWriteIndexAcquire()
	return w - readIdx
}

// TryWrite attempts to enqueue payload as one message frame. It returns
// ErrChannelFull without blocking or retrying if there isn't room, and
// ErrMessageTooLarge if payload can never fit regardless of occupancy: a
// single frame's length must not exceed half the ring.
func (r *ring) TryWrite(payload []byte) error {
	need := framedSize(len(payload))
	if need > r.capacity/2 {
		return fmt.Errorf("%w: %d bytes exceeds half the ring (%d)", ErrMessageTooLarge, len(payload), r.capacity/2)
	}

	w := r.h.LoadWriteIndexRelaxed()
	readIdx := r.h.LoadReadIndexAcquire()
	free := r.capacity - (w - readIdx)
	if need > free {
		return ErrChannelFull
	}

	fh := frameHeader{
		magic:     FrameMagic,
		size:      uint32(len(payload)),
		sequence:  r.sequence,
		timestamp: uint64(time.Now().UnixNano()),
		checksum:  checksumPayload(payload, r.checksums),
	}
	r.sequence++

	var hdrBuf [FrameHeaderSize]byte
	fh.encode(hdrBuf[:])

	pos := w & r.capMask
	r.copyIn(pos, hdrBuf[:])
	r.copyIn((pos+FrameHeaderSize)&r.capMask, payload)

	r.h.StoreWriteIndexRelease(w + need)
	return nil
}

// TryRead attempts to dequeue the next message frame, allocating a fresh
// slice sized exactly to the payload. It returns errRingEmpty if there is
// nothing to read.
func (r *ring) TryRead() ([]byte, error) {
	size, err := r.peekSize()
	if err != nil {
		return nil, err
	}
	dst := make([]byte, size)
	n, _, err := r.TryReadInto(dst)
	if err != nil {
		return nil, err
	}
	return dst[:n], nil
}

// TryReadInto attempts to dequeue the next message frame into dst. If dst
// is too small to hold the payload, it returns (0, size, ErrBufferTooSmall)
// and leaves the read cursor unchanged, so a retry with a larger buffer
// sees the same frame. Otherwise it returns (n, size, nil) with dst[:n]
// holding the payload and size == n.
func (r *ring) TryReadInto(dst []byte) (n int, size uint32, err error) {
	readIdx := r.h.LoadReadIndexRelaxed()
	w := r.h.LoadWriteIndexAcquire()
	if w == readIdx {
		return 0, 0, errRingEmpty
	}

	pos := readIdx & r.capMask
	var hdrBuf [FrameHeaderSize]byte
	r.copyOut(hdrBuf[:], pos)
	fh := decodeFrameHeader(hdrBuf[:])

	if fh.magic != FrameMagic {
		// Do not advance readIdx: a corrupted frame is not skippable. The
		// cursor is a byte offset into a framed stream with no
		// self-delimiting structure beyond the magic, so there is nothing
		// safe to skip to; see DESIGN.md.
		return 0, 0, ErrMessageCorrupted
	}

	need := framedSize(int(fh.size))
	if w-readIdx < need {
		// The producer has only partially published this frame's bytes;
		// this should not happen given the release/acquire ordering on
		// writeIndex, but is checked defensively rather than trusted.
		return 0, 0, ErrMessageCorrupted
	}

	if uint32(len(dst)) < fh.size {
		return 0, fh.size, ErrBufferTooSmall
	}

	payload := dst[:fh.size]
	r.copyOut(payload, (pos+FrameHeaderSize)&r.capMask)

	if r.checksums && fh.checksum != 0 {
		if got := checksumPayload(payload, true); got != fh.checksum {
			return 0, fh.size, ErrChecksumMismatch
		}
	}

	r.h.StoreReadIndexRelease(readIdx + need)
	return len(payload), fh.size, nil
}

// peekSize returns the next frame's payload size without consuming it, so
// TryRead can size its own allocation.
func (r *ring) peekSize() (uint32, error) {
	readIdx := r.h.LoadReadIndexRelaxed()
	w := r.h.LoadWriteIndexAcquire()
	if w == readIdx {
		return 0, errRingEmpty
	}
	pos := readIdx & r.capMask
	var hdrBuf [FrameHeaderSize]byte
	r.copyOut(hdrBuf[:], pos)
	fh := decodeFrameHeader(hdrBuf[:])
	if fh.magic != FrameMagic {
		return 0, ErrMessageCorrupted
	}
	return fh.size, nil
}

// copyIn writes src into the ring's data area starting at byte offset pos,
// wrapping around the end of the buffer as needed.
func (r *ring) copyIn(pos uint64, src []byte) {
	n := uint64(len(src))
	if n == 0 {
		return
	}
	first := r.capacity - pos
	if first >= n {
		copy(r.data[pos:pos+n], src)
		return
	}
	copy(r.data[pos:r.capacity], src[:first])
	copy(r.data[0:n-first], src[first:])
}

// copyOut reads len(dst) bytes from the ring's data area starting at byte
// offset pos into dst, wrapping around as needed.
func (r *ring) copyOut(dst []byte, pos uint64) {
	n := uint64(len(dst))
	if n == 0 {
		return
	}
	first := r.capacity - pos
	if first >= n {
		copy(dst, r.data[pos:pos+n])
		return
	}
	copy(dst[:first], r.data[pos:r.capacity])
	copy(dst[first:], r.data[0:n-first])
}
