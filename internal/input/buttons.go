package input

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Device reads the state of one physical button.
type Device interface {
	Pressed() bool
}

// Button is a Device whose state is set by the frontend.
type Button struct {
	pressed atomic.Bool
}

// Pressed reports the current state.
func (b *Button) Pressed() bool {
	return b.pressed.Load()
}

// Set updates the current state.
func (b *Button) Set(pressed bool) {
	b.pressed.Store(pressed)
}

// Name identifies a system button.
type Name string

const (
	Home  Name = "home"
	Power Name = "power"
)

// ParseName validates a button name.
func ParseName(s string) (Name, error) {
	switch Name(s) {
	case Home, Power:
		return Name(s), nil
	default:
		return "", fmt.Errorf("unknown button %q", s)
	}
}

// Devices hands out the home and power buttons. Each load creates fresh
// devices, so state set before a reload is dropped.
type Devices struct {
	mu    sync.Mutex
	home  *Button
	power *Button
	loads int
}

// NewDevices creates an unloaded device set.
func NewDevices() *Devices {
	return &Devices{}
}

// LoadButtons creates the device pair.
func (d *Devices) LoadButtons() (home, power Device) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.home = &Button{}
	d.power = &Button{}
	d.loads++
	return d.home, d.power
}

// Set changes the state of a loaded button. It fails before the first load.
func (d *Devices) Set(name Name, pressed bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var b *Button
	switch name {
	case Home:
		b = d.home
	case Power:
		b = d.power
	default:
		return fmt.Errorf("unknown button %q", name)
	}
	if b == nil {
		return fmt.Errorf("button %q not loaded", name)
	}
	b.Set(pressed)
	return nil
}

// Loads returns how many times the devices were loaded.
func (d *Devices) Loads() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.loads
}
