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
	"fmt"
	"unsafe"
)

// Sender is the producing endpoint of a channel. A channel has exactly one
// Sender at a time; creating a second Sender against the same name while
// the first is still attached is a caller error this package does not
// detect, since the protocol doesn't track how many senders exist, only
// that there's room in the ring.
type Sender struct {
	region   *Region
	ring     *ring
	cfg      Config
	counters senderCounters
}

// NewSender attaches to name as the sending endpoint, creating the backing
// region if this is the first attacher.
func NewSender(name string, cfg Config) (*Sender, error) {
	cfg, err := cfg.Validate()
	if err != nil {
		return nil, err
	}
	region, err := openRegion(name, cfg, roleSender)
	if err != nil {
		return nil, err
	}
	checksums := region.Flags()&FlagNoChecksum == 0
	return &Sender{
		region: region,
		ring:   newRing(region, checksums),
		cfg:    cfg,
	}, nil
}

// SendBytes enqueues payload as a single message. It returns
// ErrMessageTooLarge if payload can never fit in the ring regardless of
// occupancy, and ErrChannelFull if the ring currently lacks room, unless
// Config.OverwriteOnFull is set, in which case SendBytes discards oldest
// unread messages, one at a time, until payload fits or the ring is empty,
// instead of failing.
func (s *Sender) SendBytes(payload []byte) error {
	if s.region == nil {
		return ErrChannelClosed
	}
	if uint32(len(payload)) > s.cfg.MaxMessageSize {
		s.counters.recordError()
		return fmt.Errorf("%w: %d bytes exceeds configured maximum %d", ErrMessageTooLarge, len(payload), s.cfg.MaxMessageSize)
	}

	err := s.ring.TryWrite(payload)
	for err == ErrChannelFull && s.cfg.OverwriteOnFull {
		s.counters.recordFull()
		if dropErr := s.dropOldest(); dropErr != nil {
			s.counters.recordError()
			return dropErr
		}
		err = s.ring.TryWrite(payload)
	}
	if err != nil {
		if err == ErrChannelFull {
			s.counters.recordFull()
		} else {
			s.counters.recordError()
		}
		return err
	}

	s.counters.recordSent(len(payload))
	return nil
}

// dropOldest advances the read cursor past the oldest unread message,
// through the same ring.TryRead that Receiver.PollOne uses, so the producer
// can reclaim its space under the Overwrite flag. Nothing here or in
// Config checks that the channel has a single consumer; with OverwriteOnFull
// set, a receiver reading concurrently with this call races on the read
// cursor.
func (s *Sender) dropOldest() error {
	_, err := s.ring.TryRead()
	if err == errRingEmpty {
		return ErrChannelFull
	}
	return err
}

// Send encodes v as raw bytes and enqueues it as a single message. T must
// be a fixed-layout type (no pointers, no slices/maps/strings) for the
// encoding to be meaningful to a receiver in another process.
func Send[T any](s *Sender, v *T) error {
	size := int(unsafe.Sizeof(*v))
	b := unsafe.Slice((*byte)(unsafe.Pointer(v)), size)
	return s.SendBytes(b)
}

// AvailableSpace reports the number of free bytes currently in the ring.
// It returns 0 once the Sender has been closed.
func (s *Sender) AvailableSpace() uint64 {
	if s.region == nil {
		return 0
	}
	return s.ring.AvailableSpace()
}

// Stats returns a snapshot of this Sender's local counters. It keeps
// working after Close, since the counters live in process memory rather
// than in the region.
func (s *Sender) Stats() SenderStats { return s.counters.snapshot() }

// Close unmaps the sender's region. Afterward, methods that return an error
// report ErrChannelClosed instead of touching the unmapped memory,
// AvailableSpace returns 0, and Stats keeps working.
func (s *Sender) Close() error {
	if s.region == nil {
		return nil
	}
	err := s.region.Close()
	s.region = nil
	s.ring = nil
	return err
}
