/*
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
 */

// Package shm provides a bounded, lock-free, single-producer/single-consumer
// message channel over a shared-memory ring buffer.
//
// One process creates a named channel; any other process on the same host
// opens it by name and attaches as the other endpoint. A Sender and a
// Receiver exchange discrete, length-prefixed messages through a region of
// memory mapped by both processes, with no syscalls on the write/read fast
// path and no kernel-mediated locking between them. Coordination relies
// entirely on the acquire/release ordering of two atomic cursors stored in
// the region header.
//
// The wire format (header layout, frame layout, and handshake) is fixed
// and platform-independent, so a sender and receiver built from different
// processes, or different versions of this package within the same major
// version, can talk to each other as long as they agree on the channel
// name.
//
// Sender, Receiver, and Channel each move through the same lifecycle:
// unopened, open once NewSender/NewReceiver/NewChannel succeeds, then
// closed after Close. Every method called on a closed endpoint reports
// that instead of touching the now-unmapped region; ErrChannelClosed for
// operations that return an error, a zero value for the handful that
// don't. Name and Stats, which never touch the region, keep working.
package shm
