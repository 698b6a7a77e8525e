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
	"time"
)

// Config controls how a channel's region is sized and how its endpoints
// behave. NewChannel/NewSender/NewReceiver run Validate, which fills zero
// sizes and PollTimeout with their defaults, so the zero value is accepted;
// its boolean fields stay false, however, unlike DefaultConfig's
// EnableChecksum, SingleProducer and SingleConsumer. Use DefaultConfig and
// override individual fields to get every documented default.
type Config struct {
	// RingBufferSize is the ring data area's size in bytes. Must be a power
	// of two, at least MinRingSize. Zero means DefaultRingSize.
	RingBufferSize uint64

	// MaxMessageSize bounds a single message's payload length. Must be at
	// least 64 and strictly less than RingBufferSize/2, since a frame can
	// never exceed half the ring. Zero means DefaultMaxMessageSize.
	MaxMessageSize uint32

	// EnableChecksum turns on CRC-32C validation of every frame's payload.
	EnableChecksum bool

	// OverwriteOnFull, when set, lets the sender advance the read cursor
	// itself to make room for a new message when the ring is full,
	// discarding the oldest unread message instead of returning
	// ErrChannelFull. This is the single-producer-single-consumer
	// analogue of the region header's Overwrite flag. It is applied
	// whenever set; nothing checks that the channel has exactly one sender
	// and one receiver.
	OverwriteOnFull bool

	// SingleProducer and SingleConsumer record, in the region header, that
	// the channel is used by exactly one sender and one receiver. This
	// implementation only ever supports SPSC access, so these are
	// informational flags for diagnostics (the inspector CLI) rather than
	// behavior switches, and default to true.
	SingleProducer bool
	SingleConsumer bool

	// PollTimeout bounds how long Receiver.Run's blocking wait waits on any
	// single backoff iteration before checking for cancellation again; it
	// does not bound how long Run itself may block overall. Zero means
	// DefaultPollTimeout.
	PollTimeout time.Duration
}

// DefaultPollTimeout is the backoff ceiling used by Receiver.Run when
// Config.PollTimeout is unset.
const DefaultPollTimeout = 50 * time.Millisecond

// DefaultConfig returns a Config with every field set to its documented
// default.
func DefaultConfig() Config {
	return Config{
		RingBufferSize: DefaultRingSize,
		MaxMessageSize: DefaultMaxMessageSize,
		EnableChecksum: true,
		SingleProducer: true,
		SingleConsumer: true,
		PollTimeout:    DefaultPollTimeout,
	}
}

// Validate checks cfg's fields against the ring-size and message-size
// constraints, filling in documented defaults for zero fields along the
// way. It returns the effective Config to use.
func (cfg Config) Validate() (Config, error) {
	out := cfg
	if out.RingBufferSize == 0 {
		out.RingBufferSize = DefaultRingSize
	}
	if out.RingBufferSize < MinRingSize {
		return cfg, fmt.Errorf("%w: ring buffer size %d is below the minimum %d", ErrInvalidOperation, out.RingBufferSize, MinRingSize)
	}
	if out.RingBufferSize&(out.RingBufferSize-1) != 0 {
		return cfg, fmt.Errorf("%w: ring buffer size %d is not a power of two", ErrInvalidOperation, out.RingBufferSize)
	}

	if out.MaxMessageSize == 0 {
		out.MaxMessageSize = DefaultMaxMessageSize
	}
	if out.MaxMessageSize < 64 {
		return cfg, fmt.Errorf("%w: max message size %d is below the minimum 64", ErrInvalidOperation, out.MaxMessageSize)
	}
	if uint64(out.MaxMessageSize) >= out.RingBufferSize/2 {
		return cfg, fmt.Errorf("%w: max message size %d must be less than half the ring buffer size %d", ErrInvalidOperation, out.MaxMessageSize, out.RingBufferSize)
	}

	if out.PollTimeout <= 0 {
		out.PollTimeout = DefaultPollTimeout
	}
	return out, nil
}

// flags packs the boolean fields of cfg into the region header's Flags bit
// set. Called only by the first attacher, which is why it lives next to
// initializeHeader in region.go's call path.
func (cfg Config) flags() Flags {
	var f Flags
	if !cfg.EnableChecksum {
		f |= FlagNoChecksum
	}
	if cfg.OverwriteOnFull {
		f |= FlagOverwrite
	}
	if cfg.SingleProducer {
		f |= FlagSingleProducer
	}
	if cfg.SingleConsumer {
		f |= FlagSingleConsumer
	}
	return f
}
