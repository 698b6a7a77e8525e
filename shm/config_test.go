package shm

import (
	"errors"
	"testing"
)

func TestConfigDefaults(t *testing.T) {
	cfg, err := Config{}.Validate()
	if err != nil {
		t.Fatalf("Validate on zero Config: %v", err)
	}
	if cfg.RingBufferSize != DefaultRingSize {
		t.Errorf("ring size = %d, want default %d", cfg.RingBufferSize, DefaultRingSize)
	}
	if cfg.MaxMessageSize != DefaultMaxMessageSize {
		t.Errorf("max message size = %d, want default %d", cfg.MaxMessageSize, DefaultMaxMessageSize)
	}
	if cfg.PollTimeout != DefaultPollTimeout {
		t.Errorf("poll timeout = %v, want default %v", cfg.PollTimeout, DefaultPollTimeout)
	}
}

func TestConfigRejectsNonPowerOfTwoRingSize(t *testing.T) {
	_, err := Config{RingBufferSize: 5000}.Validate()
	if !errors.Is(err, ErrInvalidOperation) {
		t.Fatalf("got %v, want ErrInvalidOperation", err)
	}
}

func TestConfigRejectsBelowMinimumRingSize(t *testing.T) {
	_, err := Config{RingBufferSize: 256}.Validate()
	if !errors.Is(err, ErrInvalidOperation) {
		t.Fatalf("got %v, want ErrInvalidOperation", err)
	}
}

func TestConfigRejectsMaxMessageSizeAtHalfRing(t *testing.T) {
	// max_message_size must be strictly less than ring_buffer_size/2; 2048
	// is exactly half of 4096, so this must be rejected.
	_, err := Config{RingBufferSize: 4096, MaxMessageSize: 2048}.Validate()
	if !errors.Is(err, ErrInvalidOperation) {
		t.Fatalf("got %v, want ErrInvalidOperation", err)
	}
}

func TestConfigRejectsTinyMaxMessageSize(t *testing.T) {
	_, err := Config{RingBufferSize: 4096, MaxMessageSize: 10}.Validate()
	if !errors.Is(err, ErrInvalidOperation) {
		t.Fatalf("got %v, want ErrInvalidOperation", err)
	}
}

func TestConfigFlagsRoundTrip(t *testing.T) {
	cfg := Config{
		EnableChecksum:  false,
		OverwriteOnFull: true,
		SingleProducer:  true,
		SingleConsumer:  true,
	}
	f := cfg.flags()
	if f&FlagNoChecksum == 0 {
		t.Error("expected FlagNoChecksum set when EnableChecksum is false")
	}
	if f&FlagOverwrite == 0 {
		t.Error("expected FlagOverwrite set")
	}
	if f&FlagSingleProducer == 0 || f&FlagSingleConsumer == 0 {
		t.Error("expected both SingleProducer and SingleConsumer flags set")
	}
}
