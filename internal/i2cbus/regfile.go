// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package i2cbus

import (
	"sync"

	"github.com/pkg/errors"
)

// ErrNoDevice is returned when selecting an address nothing answers on.
var ErrNoDevice = errors.New("no such device or address")

// RegisterFile is an in-memory Conn holding one 128-register page per device
// address. It follows the ST register pointer convention: the first byte of
// a write sets the pointer, and the pointer only advances between bytes when
// the AutoIncrement bit was set in that first byte.
type RegisterFile struct {
	mu      sync.Mutex
	devices map[byte]*[128]byte

	addr     byte
	selected bool
	ptr      byte
	burst    bool

	// BeforeRead, when set, runs under the lock before a read is served and
	// may update the selected device's registers in place.
	BeforeRead func(addr byte, regs *[128]byte)

	opens  int
	closes int
}

// NewRegisterFile creates a register file with the given devices present.
func NewRegisterFile(addrs ...byte) *RegisterFile {
	f := &RegisterFile{devices: map[byte]*[128]byte{}}
	for _, a := range addrs {
		f.devices[a] = &[128]byte{}
	}
	return f
}

// Opener returns an Opener whose buses all share this register file.
func (f *RegisterFile) Opener() Opener {
	return func(path string) (Bus, error) {
		f.mu.Lock()
		f.opens++
		f.selected = false
		f.mu.Unlock()
		return New(path, f), nil
	}
}

// Set stores value at reg of the device at addr, adding the device if needed.
func (f *RegisterFile) Set(addr, reg, value byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.page(addr)[reg&0x7f] = value
}

// SetBlock stores values starting at reg.
func (f *RegisterFile) SetBlock(addr, reg byte, values []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.page(addr)
	for i, v := range values {
		p[(int(reg)+i)&0x7f] = v
	}
}

// Get returns the value at reg of the device at addr.
func (f *RegisterFile) Get(addr, reg byte) byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.devices[addr]
	if !ok {
		return 0
	}
	return p[reg&0x7f]
}

// Opens reports how many buses were opened on this file.
func (f *RegisterFile) Opens() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opens
}

// Closes reports how many times the underlying connection was closed.
func (f *RegisterFile) Closes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closes
}

func (f *RegisterFile) page(addr byte) *[128]byte {
	p, ok := f.devices[addr]
	if !ok {
		p = &[128]byte{}
		f.devices[addr] = p
	}
	return p
}

// SetAddress implements Conn.
func (f *RegisterFile) SetAddress(addr byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.devices[addr]; !ok {
		return ErrNoDevice
	}
	f.addr = addr
	f.selected = true
	return nil
}

// Write implements Conn.
func (f *RegisterFile) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.selected {
		return 0, ErrNoDevice
	}
	if len(p) == 0 {
		return 0, nil
	}
	f.ptr = p[0] &^ AutoIncrement
	f.burst = p[0]&AutoIncrement != 0
	regs := f.devices[f.addr]
	for _, v := range p[1:] {
		regs[f.ptr] = v
		f.advance()
	}
	return len(p), nil
}

// Read implements Conn.
func (f *RegisterFile) Read(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.selected {
		return 0, ErrNoDevice
	}
	regs := f.devices[f.addr]
	if f.BeforeRead != nil {
		f.BeforeRead(f.addr, regs)
	}
	for i := range p {
		p[i] = regs[f.ptr]
		f.advance()
	}
	return len(p), nil
}

// Close implements Conn.
func (f *RegisterFile) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
	f.selected = false
	return nil
}

func (f *RegisterFile) advance() {
	if f.burst {
		f.ptr = (f.ptr + 1) & 0x7f
	}
}
