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

import "sync/atomic"

// SenderStats is a point-in-time snapshot of a Sender's counters. Counters
// live in the sender's own process memory, not the shared region, since
// they are a local diagnostic, not part of the wire protocol.
type SenderStats struct {
	MessagesSent uint64
	BytesSent    uint64
	SendErrors   uint64
	FullEvents   uint64
}

// ReceiverStats is the receiving side's equivalent of SenderStats.
type ReceiverStats struct {
	MessagesReceived uint64
	BytesReceived    uint64
	ReceiveErrors    uint64
	CorruptedFrames  uint64
}

// senderCounters holds the live atomics a Sender updates; SenderStats is
// the immutable snapshot taken from it.
type senderCounters struct {
	messagesSent uint64
	bytesSent    uint64
	sendErrors   uint64
	fullEvents   uint64
}

func (c *senderCounters) recordSent(n int) {
	atomic.AddUint64(&c.messagesSent, 1)
	atomic.AddUint64(&c.bytesSent, uint64(n))
}

func (c *senderCounters) recordError() { atomic.AddUint64(&c.sendErrors, 1) }
func (c *senderCounters) recordFull()  { atomic.AddUint64(&c.fullEvents, 1) }

func (c *senderCounters) snapshot() SenderStats {
	return SenderStats{
		MessagesSent: atomic.LoadUint64(&c.messagesSent),
		BytesSent:    atomic.LoadUint64(&c.bytesSent),
		SendErrors:   atomic.LoadUint64(&c.sendErrors),
		FullEvents:   atomic.LoadUint64(&c.fullEvents),
	}
}

// receiverCounters is the receiver-side equivalent of senderCounters.
type receiverCounters struct {
	messagesReceived uint64
	bytesReceived    uint64
	receiveErrors    uint64
	corruptedFrames  uint64
}

func (c *receiverCounters) recordReceived(n int) {
	atomic.AddUint64(&c.messagesReceived, 1)
	atomic.AddUint64(&c.bytesReceived, uint64(n))
}

func (c *receiverCounters) recordError()     { atomic.AddUint64(&c.receiveErrors, 1) }
func (c *receiverCounters) recordCorrupted() { atomic.AddUint64(&c.corruptedFrames, 1) }

func (c *receiverCounters) snapshot() ReceiverStats {
	return ReceiverStats{
		MessagesReceived: atomic.LoadUint64(&c.messagesReceived),
		BytesReceived:    atomic.LoadUint64(&c.bytesReceived),
		ReceiveErrors:    atomic.LoadUint64(&c.receiveErrors),
		CorruptedFrames:  atomic.LoadUint64(&c.corruptedFrames),
	}
}
