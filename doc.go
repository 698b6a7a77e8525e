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

// Package swiftchannel is the module root for a bounded, lock-free
// single-producer/single-consumer shared-memory message channel. The
// channel implementation lives in package shm; cmd/swiftchannel-sender,
// cmd/swiftchannel-receiver, and cmd/swiftchannel-inspect are runnable
// examples built on top of it.
package swiftchannel
