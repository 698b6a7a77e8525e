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

import "fmt"

// MaxNameLength bounds channel names (POSIX NAME_MAX-derived, with Windows
// object-name headroom for the "Local\SwiftChannel_" prefix).
const MaxNameLength = 240

// validateName enforces the shared 1-240 byte, no-slash constraint before
// either platform mapper turns name into a platform object name.
func validateName(name string) error {
	if len(name) == 0 {
		return fmt.Errorf("%w: channel name is empty", ErrInvalidOperation)
	}
	if len(name) > MaxNameLength {
		return fmt.Errorf("%w: channel name %q is %d bytes, max %d", ErrInvalidOperation, name, len(name), MaxNameLength)
	}
	for _, c := range name {
		if c == '/' || c == '\\' || c == 0 {
			return fmt.Errorf("%w: channel name %q contains a reserved character", ErrInvalidOperation, name)
		}
	}
	return nil
}

// mapping is the per-platform handle behind a Region; its only job is to
// unmap/release when Region.Close is called. mapper_unix.go and
// mapper_windows.go each fill in its close function from their
// platformOpenOrCreate/platformOpenExisting functions (alongside
// platformRemove), chosen at compile time by build tags rather than by an
// interface, since exactly one implementation is ever linked into a given
// binary.
type mapping struct {
	close func() error
}

// openOrCreateRegion maps name's backing shared memory, creating it if this
// is the first attacher. created reports whether this call is the one that
// allocated a fresh, zero-filled mapping (O_CREAT|O_EXCL succeeded, or the
// Windows equivalent) as opposed to opening a region another process
// already created.
func openOrCreateRegion(name string, ringSize uint64) (region *Region, created bool, err error) {
	if err := validateName(name); err != nil {
		return nil, false, err
	}
	return platformOpenOrCreate(name, ringSize)
}

// openExistingRegion maps name's backing shared memory without creating
// it, returning ErrChannelNotFound if no such channel exists. Used by the
// inspector, which should never bring a channel into existence just by
// looking at it.
func openExistingRegion(name string) (*Region, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	return platformOpenExisting(name)
}

// RemoveChannel removes the backing shared-memory object for name, if it
// exists. It is safe to call when no such object exists; it is unsafe to
// call while any Sender or Receiver still has the channel open, since on
// POSIX their existing mappings stay alive while the name is gone, so a
// later attacher creates a fresh, separate region under the same name
// (Windows releases the underlying object automatically once the last
// handle closes, and this is a no-op there).
func RemoveChannel(name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	return platformRemove(name)
}
