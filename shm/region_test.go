package shm

import (
	"errors"
	"testing"
)

func TestRegionFirstAttacherInitializes(t *testing.T) {
	name := uniqueTestChannelName(t, "region-init")
	defer RemoveChannel(name)

	cfg, err := DefaultConfig().Validate()
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}

	region, err := openRegion(name, cfg, roleSender)
	if err != nil {
		t.Fatalf("openRegion (first attacher): %v", err)
	}
	defer region.Close()

	h := region.hdr()
	if h.Magic() != RegionMagic {
		t.Fatalf("magic = %#x, want %#x", h.Magic(), RegionMagic)
	}
	if h.RingSize() != cfg.RingBufferSize {
		t.Fatalf("ring size = %d, want %d", h.RingSize(), cfg.RingBufferSize)
	}
	if h.SenderPID() == 0 {
		t.Fatal("sender PID was not recorded")
	}
}

func TestRegionSecondAttacherValidates(t *testing.T) {
	name := uniqueTestChannelName(t, "region-validate")
	defer RemoveChannel(name)

	cfg, err := DefaultConfig().Validate()
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}

	first, err := openRegion(name, cfg, roleSender)
	if err != nil {
		t.Fatalf("first openRegion: %v", err)
	}
	defer first.Close()

	second, err := openRegion(name, cfg, roleReceiver)
	if err != nil {
		t.Fatalf("second openRegion: %v", err)
	}
	defer second.Close()

	if second.hdr().ReceiverPID() == 0 {
		t.Fatal("receiver PID was not recorded")
	}
	if second.RingSize() != first.RingSize() {
		t.Fatalf("ring size mismatch between attachers: %d vs %d", second.RingSize(), first.RingSize())
	}
}

func TestRegionVersionMismatch(t *testing.T) {
	name := uniqueTestChannelName(t, "region-version")
	defer RemoveChannel(name)

	cfg, err := DefaultConfig().Validate()
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}

	region, err := openRegion(name, cfg, roleSender)
	if err != nil {
		t.Fatalf("openRegion: %v", err)
	}

	// Simulate a region written by a future incompatible major version.
	region.hdr().SetVersion(Version{Major: 2}.AsUint32())
	region.Close()

	_, err = openRegion(name, cfg, roleReceiver)
	if !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("openRegion after version bump: got %v, want ErrVersionMismatch", err)
	}
}

func TestRegionNotFoundWhenMissing(t *testing.T) {
	name := uniqueTestChannelName(t, "region-missing")
	if err := RemoveChannel(name); err != nil {
		t.Fatalf("RemoveChannel on nonexistent name: %v", err)
	}

	_, err := openExistingRegion(name)
	if !errors.Is(err, ErrChannelNotFound) {
		t.Fatalf("openExistingRegion on missing channel: got %v, want ErrChannelNotFound", err)
	}
}

func TestTotalRegionSizeIncludesHeader(t *testing.T) {
	const ringSize = 65536
	if got := totalRegionSize(ringSize); got != ringSize+dataAreaOffset {
		t.Fatalf("totalRegionSize(%d) = %d, want %d", ringSize, got, ringSize+dataAreaOffset)
	}
}
