package shm

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
)

func newTestRing(t *testing.T, name string, ringSize uint64) *ring {
	t.Helper()
	cfg, err := Config{RingBufferSize: ringSize, MaxMessageSize: uint32(ringSize/2 - 64)}.Validate()
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	region, err := openRegion(name, cfg, roleSender)
	if err != nil {
		t.Fatalf("openRegion: %v", err)
	}
	t.Cleanup(func() {
		region.Close()
		RemoveChannel(name)
	})
	return newRing(region, cfg.EnableChecksum)
}

func TestRingWriteReadRoundTrip(t *testing.T) {
	name := uniqueTestChannelName(t, "ring-roundtrip")
	r := newTestRing(t, name, 4096)

	payload := []byte("hello, swiftchannel")
	if err := r.TryWrite(payload); err != nil {
		t.Fatalf("TryWrite: %v", err)
	}

	got, err := r.TryRead()
	if err != nil {
		t.Fatalf("TryRead: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("TryRead = %q, want %q", got, payload)
	}
}

func TestRingEmptyReadsReturnEmptyWithNoStateChange(t *testing.T) {
	name := uniqueTestChannelName(t, "ring-empty")
	r := newTestRing(t, name, 4096)

	before := r.h.LoadReadIndexRelaxed()
	if _, err := r.TryRead(); !errors.Is(err, errRingEmpty) {
		t.Fatalf("first TryRead on empty ring: got %v, want errRingEmpty", err)
	}
	if _, err := r.TryRead(); !errors.Is(err, errRingEmpty) {
		t.Fatalf("second TryRead on empty ring: got %v, want errRingEmpty", err)
	}
	if after := r.h.LoadReadIndexRelaxed(); after != before {
		t.Fatalf("read index changed on empty reads: %d -> %d", before, after)
	}
}

func TestRingMonotonicCursors(t *testing.T) {
	name := uniqueTestChannelName(t, "ring-monotonic")
	r := newTestRing(t, name, 4096)

	var lastW, lastR uint64
	for i := 0; i < 20; i++ {
		payload := []byte(fmt.Sprintf("message-%d", i))
		if err := r.TryWrite(payload); err != nil {
			t.Fatalf("TryWrite #%d: %v", i, err)
		}
		w := r.h.LoadWriteIndexRelaxed()
		if w < lastW {
			t.Fatalf("write index decreased: %d -> %d", lastW, w)
		}
		lastW = w

		if _, err := r.TryRead(); err != nil {
			t.Fatalf("TryRead #%d: %v", i, err)
		}
		rd := r.h.LoadReadIndexRelaxed()
		if rd < lastR {
			t.Fatalf("read index decreased: %d -> %d", lastR, rd)
		}
		lastR = rd
	}
}

func TestRingBoundedOccupancy(t *testing.T) {
	name := uniqueTestChannelName(t, "ring-bounded")
	r := newTestRing(t, name, 4096)

	for i := 0; i < 5; i++ {
		r.TryWrite([]byte(fmt.Sprintf("payload-%d", i)))
		w := r.h.LoadWriteIndexRelaxed()
		rd := r.h.LoadReadIndexRelaxed()
		if w < rd || w-rd > r.capacity {
			t.Fatalf("occupancy invariant violated: w=%d r=%d capacity=%d", w, rd, r.capacity)
		}
	}
}

func TestRingFIFODelivery(t *testing.T) {
	name := uniqueTestChannelName(t, "ring-fifo")
	r := newTestRing(t, name, 8192)

	var sent [][]byte
	for i := 0; i < 30; i++ {
		payload := []byte(fmt.Sprintf("msg-%03d", i))
		sent = append(sent, payload)
		if err := r.TryWrite(payload); err != nil {
			t.Fatalf("TryWrite #%d: %v", i, err)
		}
	}

	for i, want := range sent {
		got, err := r.TryRead()
		if err != nil {
			t.Fatalf("TryRead #%d: %v", i, err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("message #%d: got %q, want %q", i, got, want)
		}
	}
}

func TestRingFrameAlignment(t *testing.T) {
	name := uniqueTestChannelName(t, "ring-alignment")
	r := newTestRing(t, name, 8192)

	for size := 0; size < 50; size++ {
		before := r.h.LoadReadIndexRelaxed()
		payload := make([]byte, size)
		if err := r.TryWrite(payload); err != nil {
			t.Fatalf("TryWrite size=%d: %v", size, err)
		}
		if _, err := r.TryRead(); err != nil {
			t.Fatalf("TryRead size=%d: %v", size, err)
		}
		after := r.h.LoadReadIndexRelaxed()
		if (after-before)%8 != 0 {
			t.Fatalf("frame of payload size %d advanced read index by %d, not a multiple of 8", size, after-before)
		}
	}
}

func TestRingRejectTooLargeDoesNotMutate(t *testing.T) {
	name := uniqueTestChannelName(t, "ring-toolarge")
	r := newTestRing(t, name, 4096)

	beforeW := r.h.LoadWriteIndexRelaxed()
	beforeR := r.h.LoadReadIndexRelaxed()

	huge := make([]byte, r.capacity) // far more than half the ring
	err := r.TryWrite(huge)
	if !errors.Is(err, ErrMessageTooLarge) {
		t.Fatalf("TryWrite(huge): got %v, want ErrMessageTooLarge", err)
	}
	if r.h.LoadWriteIndexRelaxed() != beforeW || r.h.LoadReadIndexRelaxed() != beforeR {
		t.Fatal("TryWrite mutated the region despite rejecting the message")
	}
}

func TestRingChannelFullThenDrainSucceeds(t *testing.T) {
	name := uniqueTestChannelName(t, "ring-full")
	r := newTestRing(t, name, 512)

	payload := make([]byte, 64)
	writes := 0
	for {
		if err := r.TryWrite(payload); err != nil {
			if errors.Is(err, ErrChannelFull) {
				break
			}
			t.Fatalf("TryWrite #%d: %v", writes, err)
		}
		writes++
	}
	if writes < 4 {
		t.Fatalf("only %d 64-byte writes fit in a 512-byte ring, want at least 4", writes)
	}

	if _, err := r.TryRead(); err != nil {
		t.Fatalf("TryRead to drain one frame: %v", err)
	}
	if err := r.TryWrite(payload); err != nil {
		t.Fatalf("TryWrite after drain: %v", err)
	}
}

func TestRingExactlyFitsIsAccepted(t *testing.T) {
	name := uniqueTestChannelName(t, "ring-exact")
	r := newTestRing(t, name, 512)

	// A 224-byte payload frames to exactly 256 bytes (32-byte header plus
	// 224, already 8-byte aligned), which is exactly half of a 512-byte
	// ring, the largest a single frame is ever allowed to be. Writing two
	// of them back to back exercises both the half-ring ceiling and the
	// "frame exactly equal to remaining free space" boundary.
	payload := make([]byte, 224)
	if framedSize(len(payload)) != r.capacity/2 {
		t.Fatalf("test payload frames to %d bytes, want exactly half the ring (%d)", framedSize(len(payload)), r.capacity/2)
	}

	if err := r.TryWrite(payload); err != nil {
		t.Fatalf("first half-ring write: %v", err)
	}
	if free := r.AvailableSpace(); free != r.capacity/2 {
		t.Fatalf("available space after first write = %d, want %d", free, r.capacity/2)
	}
	if err := r.TryWrite(payload); err != nil {
		t.Fatalf("second write exactly filling remaining free space: %v", err)
	}
	if free := r.AvailableSpace(); free != 0 {
		t.Fatalf("available space after filling ring = %d, want 0", free)
	}
}

func TestRingSizeNegotiation(t *testing.T) {
	name := uniqueTestChannelName(t, "ring-negotiate")
	r := newTestRing(t, name, 4096)

	payload := make([]byte, 200)
	for i := range payload {
		payload[i] = byte(i)
	}
	if err := r.TryWrite(payload); err != nil {
		t.Fatalf("TryWrite: %v", err)
	}

	readBefore := r.h.LoadReadIndexRelaxed()
	small := make([]byte, 100)
	_, size, err := r.TryReadInto(small)
	if !errors.Is(err, ErrBufferTooSmall) {
		t.Fatalf("TryReadInto(100-byte buf): got %v, want ErrBufferTooSmall", err)
	}
	if size != 200 {
		t.Fatalf("reported size = %d, want 200", size)
	}
	if r.h.LoadReadIndexRelaxed() != readBefore {
		t.Fatal("read index advanced despite undersized buffer")
	}

	big := make([]byte, 256)
	n, size, err := r.TryReadInto(big)
	if err != nil {
		t.Fatalf("TryReadInto(256-byte buf): %v", err)
	}
	if n != 200 || size != 200 {
		t.Fatalf("n=%d size=%d, want both 200", n, size)
	}
	if !bytes.Equal(big[:n], payload) {
		t.Fatal("payload mismatch after successful size-negotiated read")
	}
}

func TestRingWrapAround(t *testing.T) {
	name := uniqueTestChannelName(t, "ring-wrap")
	r := newTestRing(t, name, 4096)

	payload := make([]byte, 500)
	for i := range payload {
		payload[i] = byte(i % 256)
	}

	for i := 0; i < 100; i++ {
		if err := r.TryWrite(payload); err != nil {
			t.Fatalf("TryWrite #%d: %v", i, err)
		}
		got, err := r.TryRead()
		if err != nil {
			t.Fatalf("TryRead #%d: %v", i, err)
		}
		if !bytes.Equal(got, payload) {
			t.Fatalf("payload mismatch on iteration %d", i)
		}
	}

	w := r.h.LoadWriteIndexRelaxed()
	rd := r.h.LoadReadIndexRelaxed()
	if w != rd {
		t.Fatalf("after draining every write, write_index=%d != read_index=%d", w, rd)
	}
}

func TestRingCorruptedFrameDoesNotAdvanceReadCursor(t *testing.T) {
	name := uniqueTestChannelName(t, "ring-corrupt")
	r := newTestRing(t, name, 4096)

	if err := r.TryWrite([]byte("valid frame")); err != nil {
		t.Fatalf("TryWrite: %v", err)
	}

	// Stomp the frame's magic in place, simulating memory corruption.
	r.data[0] = 0
	r.data[1] = 0

	before := r.h.LoadReadIndexRelaxed()
	if _, err := r.TryRead(); !errors.Is(err, ErrMessageCorrupted) {
		t.Fatalf("TryRead on corrupted frame: got %v, want ErrMessageCorrupted", err)
	}
	if after := r.h.LoadReadIndexRelaxed(); after != before {
		t.Fatal("read index advanced past a corrupted frame")
	}
	// A second read sees the same corruption, confirming no silent resync.
	if _, err := r.TryRead(); !errors.Is(err, ErrMessageCorrupted) {
		t.Fatalf("second TryRead on corrupted frame: got %v, want ErrMessageCorrupted", err)
	}
}
