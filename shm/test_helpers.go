/*
 * Copyright 2024 SwiftChannel authors.
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

package shm

import (
	"fmt"
	"testing"
	"time"
)

// uniqueTestChannelName builds a channel name that won't collide with a
// previous or concurrent run of the same test.
func uniqueTestChannelName(t *testing.T, baseName string) string {
	t.Helper()
	return fmt.Sprintf("%s-%s-%d", baseName, t.Name(), time.Now().UnixNano())
}

// createTestChannel creates a brand-new channel with a unique name and
// registers cleanup so the backing region is removed even if the test fails
// or panics.
func createTestChannel(t *testing.T, baseName string, cfg Config) (name string, ch *Channel) {
	t.Helper()

	name = uniqueTestChannelName(t, baseName)
	_ = RemoveChannel(name)

	ch, err := NewChannel(name, cfg)
	if err != nil {
		t.Fatalf("NewChannel(%s) error: %v", name, err)
	}
	t.Cleanup(func() {
		if ch != nil {
			ch.Close()
		}
		_ = RemoveChannel(name)
	})
	return name, ch
}

// createTestSenderReceiver spins up a fresh channel and attaches both
// endpoints to it, the way two cooperating processes would attach to the
// same named region.
func createTestSenderReceiver(t *testing.T, baseName string, cfg Config) (*Sender, *Receiver) {
	t.Helper()

	name := uniqueTestChannelName(t, baseName)
	_ = RemoveChannel(name)

	sender, err := NewSender(name, cfg)
	if err != nil {
		t.Fatalf("NewSender(%s) error: %v", name, err)
	}
	t.Cleanup(func() {
		sender.Close()
		_ = RemoveChannel(name)
	})

	receiver, err := NewReceiver(name, cfg)
	if err != nil {
		t.Fatalf("NewReceiver(%s) error: %v", name, err)
	}
	t.Cleanup(func() {
		receiver.Close()
	})

	return sender, receiver
}
