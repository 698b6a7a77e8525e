package shm

import "testing"

func TestChannelCreateAndInspect(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RingBufferSize = 8192
	cfg.MaxMessageSize = 1024

	name, ch := createTestChannel(t, "channel-create", cfg)

	if ch.Name() != name {
		t.Fatalf("Name() = %q, want %q", ch.Name(), name)
	}
	if ch.RingSize() != cfg.RingBufferSize {
		t.Fatalf("RingSize() = %d, want %d", ch.RingSize(), cfg.RingBufferSize)
	}

	info, err := Inspect(name)
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if info.RingSize != cfg.RingBufferSize {
		t.Fatalf("Inspect RingSize = %d, want %d", info.RingSize, cfg.RingBufferSize)
	}
	if info.Occupancy != 0 {
		t.Fatalf("Inspect Occupancy = %d, want 0 on a fresh channel", info.Occupancy)
	}
}

func TestChannelOperationsAfterCloseReturnZeroValues(t *testing.T) {
	cfg := DefaultConfig()
	name, ch := createTestChannel(t, "channel-closed", cfg)

	if err := ch.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if ch.Name() != name {
		t.Fatalf("Name() after Close = %q, want %q", ch.Name(), name)
	}
	if size := ch.RingSize(); size != 0 {
		t.Fatalf("RingSize() after Close = %d, want 0", size)
	}
	if flags := ch.Flags(); flags != 0 {
		t.Fatalf("Flags() after Close = %d, want 0", flags)
	}
	if err := ch.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestChannelThenSenderAndReceiverAttach(t *testing.T) {
	cfg := DefaultConfig()
	name, ch := createTestChannel(t, "channel-then-endpoints", cfg)
	defer ch.Close()

	sender, err := NewSender(name, cfg)
	if err != nil {
		t.Fatalf("NewSender: %v", err)
	}
	defer sender.Close()

	receiver, err := NewReceiver(name, cfg)
	if err != nil {
		t.Fatalf("NewReceiver: %v", err)
	}
	defer receiver.Close()

	if err := sender.SendBytes([]byte("ping")); err != nil {
		t.Fatalf("SendBytes: %v", err)
	}
	payload, err := receiver.PollOne()
	if err != nil {
		t.Fatalf("PollOne: %v", err)
	}
	if string(payload) != "ping" {
		t.Fatalf("PollOne = %q, want %q", payload, "ping")
	}
}
