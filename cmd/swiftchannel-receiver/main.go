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

// Command swiftchannel-receiver prints fixed-layout price updates arriving
// on a named channel until interrupted.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"unsafe"

	"github.com/iceplosion/SwiftChannel/shm"
)

type priceUpdate struct {
	InstrumentID int32
	Bid          float64
	Ask          float64
	TimestampNS  int64
}

func main() {
	name := flag.String("channel", "price_feed", "channel name")
	ringSize := flag.Uint64("ring-size", 1024*1024, "ring buffer size in bytes")
	flag.Parse()

	cfg := shm.DefaultConfig()
	cfg.RingBufferSize = *ringSize
	cfg.MaxMessageSize = 4096

	receiver, err := shm.NewReceiver(*name, cfg)
	if err != nil {
		log.Fatalf("NewReceiver(%s): %v", *name, err)
	}
	defer receiver.Close()

	fmt.Printf("receiver ready on %q, waiting for updates (ctrl-c to stop)\n", *name)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	want := int(unsafe.Sizeof(priceUpdate{}))
	err = receiver.Run(ctx, func(payload []byte) {
		if len(payload) != want {
			fmt.Printf("received message of unexpected size: %d bytes\n", len(payload))
			return
		}
		update := (*priceUpdate)(unsafe.Pointer(&payload[0]))
		fmt.Printf("received: instrument=%d bid=%.2f ask=%.2f timestamp=%d\n",
			update.InstrumentID, update.Bid, update.Ask, update.TimestampNS)
	})
	if err != nil && err != context.Canceled {
		log.Printf("receive loop stopped: %v", err)
	}

	stats := receiver.Stats()
	fmt.Printf("\nstatistics:\n  messages received: %d\n  bytes received: %d\n  errors: %d\n  corrupted: %d\n",
		stats.MessagesReceived, stats.BytesReceived, stats.ReceiveErrors, stats.CorruptedFrames)
}
