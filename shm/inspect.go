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

// RegionInfo is a read-only snapshot of a channel's header fields, for
// diagnostic tools. It intentionally carries no methods that could mutate
// the region: Inspect is meant to be safe to run against a live channel
// without disturbing its sender or receiver.
type RegionInfo struct {
	Name        string
	Version     Version
	RingSize    uint64
	WriteIndex  uint64
	ReadIndex   uint64
	Occupancy   uint64
	SenderPID   uint32
	ReceiverPID uint32
	Flags       Flags
}

// Inspect opens name read-only (in the sense that it never creates the
// channel or claims a sender/receiver PID slot) and returns a snapshot of
// its header. It returns ErrChannelNotFound if no such channel currently
// exists.
func Inspect(name string) (RegionInfo, error) {
	region, err := openExistingRegion(name)
	if err != nil {
		return RegionInfo{}, err
	}
	defer region.Close()

	h := region.hdr()
	if h.Magic() != RegionMagic {
		return RegionInfo{}, ErrInvalidMemoryLayout
	}

	w := h.LoadWriteIndexAcquire()
	r := h.LoadReadIndexAcquire()
	return RegionInfo{
		Name:        name,
		Version:     versionFromUint32(h.Version()),
		RingSize:    h.RingSize(),
		WriteIndex:  w,
		ReadIndex:   r,
		Occupancy:   w - r,
		SenderPID:   h.SenderPID(),
		ReceiverPID: h.ReceiverPID(),
		Flags:       h.Flags(),
	}, nil
}
