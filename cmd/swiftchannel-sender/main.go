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

// Command swiftchannel-sender sends a stream of fixed-layout price updates
// onto a named channel, for exercising a receiver against.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

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
	count := flag.Int("count", 20, "number of updates to send")
	interval := flag.Duration("interval", 100*time.Millisecond, "delay between sends")
	ringSize := flag.Uint64("ring-size", 1024*1024, "ring buffer size in bytes")
	flag.Parse()

	cfg := shm.DefaultConfig()
	cfg.RingBufferSize = *ringSize
	cfg.MaxMessageSize = 4096

	sender, err := shm.NewSender(*name, cfg)
	if err != nil {
		log.Fatalf("NewSender(%s): %v", *name, err)
	}
	defer sender.Close()

	fmt.Printf("sender ready on %q, sending %d updates\n", *name, *count)

	for i := 0; i < *count; i++ {
		update := priceUpdate{
			InstrumentID: int32(1000 + i%5),
			Bid:          100.0 + float64(i)*0.5,
			TimestampNS:  time.Now().UnixNano(),
		}
		update.Ask = update.Bid + 0.1

		if err := shm.Send(sender, &update); err != nil {
			log.Printf("send #%d failed: %v", i, err)
		} else {
			fmt.Printf("sent #%d: instrument=%d bid=%.2f ask=%.2f\n", i, update.InstrumentID, update.Bid, update.Ask)
		}

		time.Sleep(*interval)
	}

	stats := sender.Stats()
	fmt.Printf("\ndone. sent=%d bytes=%d errors=%d full_events=%d\n",
		stats.MessagesSent, stats.BytesSent, stats.SendErrors, stats.FullEvents)
}
