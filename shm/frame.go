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
	"encoding/binary"
	"hash/crc32"
)

// FrameHeaderSize is the fixed size of a message frame's header.
const FrameHeaderSize = 32

// FrameMagic marks the start of a message frame. It is the same sentinel
// value as RegionMagic; the wire format uses one magic constant for both
// the region header and every frame header.
const FrameMagic = RegionMagic

// crc32cTable is the Castagnoli polynomial table used for frame checksums.
// No third-party CRC-32C package is pulled in for this; hash/crc32 ships
// the Castagnoli table directly, so this stays on the standard library.
// See DESIGN.md.
var crc32cTable = crc32.MakeTable(crc32.Castagnoli)

// frameHeader is the 32-byte, little-endian frame header preceding every
// message payload in the ring.
//
//	0x00  4  magic
//	0x04  4  size      (payload length, excluding header and padding)
//	0x08  8  sequence
//	0x10  8  timestamp  (UnixNano)
//	0x18  4  checksum   (CRC-32C of the payload, 0 if disabled)
//	0x1C  4  reserved
type frameHeader struct {
	magic     uint32
	size      uint32
	sequence  uint64
	timestamp uint64
	checksum  uint32
	reserved  uint32
}

func (f frameHeader) encode(dst []byte) {
	binary.LittleEndian.PutUint32(dst[0:4], f.magic)
	binary.LittleEndian.PutUint32(dst[4:8], f.size)
	binary.LittleEndian.PutUint64(dst[8:16], f.sequence)
	binary.LittleEndian.PutUint64(dst[16:24], f.timestamp)
	binary.LittleEndian.PutUint32(dst[24:28], f.checksum)
	binary.LittleEndian.PutUint32(dst[28:32], f.reserved)
}

func decodeFrameHeader(src []byte) frameHeader {
	return frameHeader{
		magic:     binary.LittleEndian.Uint32(src[0:4]),
		size:      binary.LittleEndian.Uint32(src[4:8]),
		sequence:  binary.LittleEndian.Uint64(src[8:16]),
		timestamp: binary.LittleEndian.Uint64(src[16:24]),
		checksum:  binary.LittleEndian.Uint32(src[24:28]),
		reserved:  binary.LittleEndian.Uint32(src[28:32]),
	}
}

// alignUp rounds n up to the next multiple of align, which must be a power
// of two. Frames are padded to 8-byte alignment so that the next frame
// header always starts on an 8-byte boundary.
func alignUp(n, align uint64) uint64 {
	return (n + align - 1) &^ (align - 1)
}

// framedSize is the total ring-space a payload of the given length occupies
// once headered and padded.
func framedSize(payloadLen int) uint64 {
	total := uint64(FrameHeaderSize) + uint64(payloadLen)
	return alignUp(total, 8)
}

// checksumPayload computes the CRC-32C of payload, or 0 when checksums are
// disabled for the channel.
func checksumPayload(payload []byte, enabled bool) uint32 {
	if !enabled {
		return 0
	}
	return crc32.Checksum(payload, crc32cTable)
}
