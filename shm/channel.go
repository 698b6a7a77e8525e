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

// Channel is a named shared-memory region, attached without claiming
// either endpoint role. It is useful for pre-creating a channel's backing
// memory before either a Sender or a Receiver exists, and for looking at a
// channel's ring size and flags without claiming a PID slot. Unlike
// Inspect, NewChannel creates the region if it does not exist yet.
//
// Most callers don't need Channel at all: NewSender and NewReceiver create
// the backing region themselves on first attach.
type Channel struct {
	region *Region
	name   string
	cfg    Config
}

// NewChannel attaches to name, creating its backing region if this is the
// first attacher, without claiming a sender or receiver role.
func NewChannel(name string, cfg Config) (*Channel, error) {
	cfg, err := cfg.Validate()
	if err != nil {
		return nil, err
	}
	region, err := openRegion(name, cfg, roleObserver)
	if err != nil {
		return nil, err
	}
	return &Channel{region: region, name: name, cfg: cfg}, nil
}

// Name returns the channel's name as passed to NewChannel. It keeps
// working after Close, since the name is known without touching the region.
func (c *Channel) Name() string { return c.name }

// RingSize returns the channel's configured ring data-area size, or 0 once
// the Channel has been closed.
func (c *Channel) RingSize() uint64 {
	if c.region == nil {
		return 0
	}
	return c.region.RingSize()
}

// Flags returns the channel's header flags as observed in shared memory, or
// 0 once the Channel has been closed.
func (c *Channel) Flags() Flags {
	if c.region == nil {
		return 0
	}
	return c.region.Flags()
}

// Close unmaps the channel's region. It does not remove the backing
// shared-memory object; use RemoveChannel for that once every endpoint has
// closed. Every other method returns a zero value afterward instead of
// touching the unmapped memory.
func (c *Channel) Close() error {
	if c.region == nil {
		return nil
	}
	err := c.region.Close()
	c.region = nil
	return err
}
