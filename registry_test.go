package muxlink

import (
	"testing"
)

func TestAllocateReturnsSlotsInOrder(t *testing.T) {
	m := newTestMux(t, Options{Channels: 3}, &CountingAdapterFactory{})

	for want := 0; want < 3; want++ {
		ch, err := m.Allocate()
		if err != nil {
			t.Fatalf("Allocate %d: %v", want, err)
		}
		if ch.ID() != want {
			t.Errorf("Allocate returned slot %d, want %d", ch.ID(), want)
		}
	}
}

func TestFindByAddress(t *testing.T) {
	factory := &CountingAdapterFactory{AutoConnect: true}
	m := newTestMux(t, Options{Channels: 4}, factory)
	port := NewFakeHardwarePort()

	ch2, _ := m.Allocate()
	if err := ch2.Attach(port, 2, nil); err != nil {
		t.Fatalf("Attach addr 2: %v", err)
	}
	ch7, _ := m.Allocate()
	if err := ch7.Attach(port, 7, nil); err != nil {
		t.Fatalf("Attach addr 7: %v", err)
	}

	if got := m.FindByAddress(2); got != ch2 {
		t.Errorf("FindByAddress(2) = %v, want channel %d", got, ch2.ID())
	}
	if got := m.FindByAddress(7); got != ch7 {
		t.Errorf("FindByAddress(7) = %v, want channel %d", got, ch7.ID())
	}
	if got := m.FindByAddress(99); got != nil {
		t.Errorf("FindByAddress(99) = %v, want nil", got)
	}
}

func TestFindByAddressSkipsUnattachedSlots(t *testing.T) {
	m := newTestMux(t, Options{Channels: 2}, &CountingAdapterFactory{})

	// Allocated but never attached: no adapter handle, so no address.
	if _, err := m.Allocate(); err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if got := m.FindByAddress(0); got != nil {
		t.Errorf("FindByAddress(0) = %v, want nil", got)
	}
}
