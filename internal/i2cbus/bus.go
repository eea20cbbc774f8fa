// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package i2cbus provides register-level access to devices on a Linux I2C bus.
//
// A Bus owns one open handle on a bus node. Every register operation first
// selects the target device address and then performs plain write/read
// transfers on the handle, so any backend that can address a device and move
// bytes (the /dev/i2c-N character device, periph.io, an in-memory register
// file) can sit underneath.
package i2cbus

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"
)

// AutoIncrement is OR-ed into the register index of a block read. ST sensors
// only advance the register pointer between bytes of a burst when it is set.
const AutoIncrement byte = 0x80

// ErrShortTransfer is wrapped by a TransportError when fewer bytes than
// requested moved across the bus.
var ErrShortTransfer = errors.New("short transfer")

// ErrClosed is returned by operations on a bus that has been closed.
var ErrClosed = errors.New("bus closed")

// Bus is an open handle on an I2C bus.
type Bus interface {
	// Select makes addr the target of subsequent transfers.
	Select(addr byte) error
	// WriteRegister writes the frame [reg, value] to the device at addr.
	WriteRegister(addr, reg, value byte) error
	// ReadRegister writes the index reg and reads one byte back.
	ReadRegister(addr, reg byte) (byte, error)
	// ReadBlock writes reg with AutoIncrement set and reads exactly count bytes.
	ReadBlock(addr, reg byte, count int) ([]byte, error)
	// Close releases the handle. Closing twice is a no-op.
	Close() error
}

// Conn is the byte-level connection a Bus is built on.
type Conn interface {
	SetAddress(addr byte) error
	Write(p []byte) (int, error)
	Read(p []byte) (int, error)
	Close() error
}

// Opener opens a Bus on the bus node at path.
type Opener func(path string) (Bus, error)

// TransportError reports a failed bus operation together with the
// underlying OS error.
type TransportError struct {
	Op   string
	Path string
	Addr byte
	Reg  byte
	Err  error
}

func (e *TransportError) Error() string {
	switch e.Op {
	case "open", "close":
		return fmt.Sprintf("i2c %s %s: %v", e.Op, e.Path, e.Err)
	case "select":
		return fmt.Sprintf("i2c select 0x%02x: %v", e.Addr, e.Err)
	default:
		return fmt.Sprintf("i2c %s 0x%02x reg 0x%02x: %v", e.Op, e.Addr, e.Reg, e.Err)
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

// New wraps conn as a Bus. path is only used in error messages.
func New(path string, conn Conn) Bus {
	return &regBus{path: path, conn: conn}
}

type regBus struct {
	path string
	conn Conn

	closeOnce sync.Once
	closeErr  error
	closed    bool
}

func (b *regBus) Select(addr byte) error {
	if b.closed {
		return &TransportError{Op: "select", Addr: addr, Err: ErrClosed}
	}
	if err := b.conn.SetAddress(addr); err != nil {
		return &TransportError{Op: "select", Addr: addr, Err: err}
	}
	return nil
}

func (b *regBus) WriteRegister(addr, reg, value byte) error {
	if err := b.Select(addr); err != nil {
		return err
	}
	return b.write(addr, reg, "write_reg", []byte{reg, value})
}

func (b *regBus) ReadRegister(addr, reg byte) (byte, error) {
	if err := b.Select(addr); err != nil {
		return 0, err
	}
	if err := b.write(addr, reg, "read_reg(write)", []byte{reg}); err != nil {
		return 0, err
	}
	v := make([]byte, 1)
	if err := b.read(addr, reg, "read_reg(read)", v); err != nil {
		return 0, err
	}
	return v[0], nil
}

func (b *regBus) ReadBlock(addr, reg byte, count int) ([]byte, error) {
	if count <= 0 {
		return nil, &TransportError{Op: "read_block", Addr: addr, Reg: reg,
			Err: errors.Errorf("invalid block length %d", count)}
	}
	if err := b.Select(addr); err != nil {
		return nil, err
	}
	idx := reg | AutoIncrement
	if err := b.write(addr, idx, "read_block(write)", []byte{idx}); err != nil {
		return nil, err
	}
	out := make([]byte, count)
	if err := b.read(addr, idx, "read_block(read)", out); err != nil {
		return nil, err
	}
	return out, nil
}

func (b *regBus) Close() error {
	b.closeOnce.Do(func() {
		b.closed = true
		if err := b.conn.Close(); err != nil {
			b.closeErr = &TransportError{Op: "close", Path: b.path, Err: err}
		}
	})
	return b.closeErr
}

func (b *regBus) write(addr, reg byte, op string, frame []byte) error {
	n, err := b.conn.Write(frame)
	if err != nil {
		return &TransportError{Op: op, Addr: addr, Reg: reg, Err: err}
	}
	if n != len(frame) {
		return &TransportError{Op: op, Addr: addr, Reg: reg,
			Err: errors.Wrapf(ErrShortTransfer, "wrote %d of %d bytes", n, len(frame))}
	}
	return nil
}

func (b *regBus) read(addr, reg byte, op string, buf []byte) error {
	n, err := b.conn.Read(buf)
	if err != nil {
		return &TransportError{Op: op, Addr: addr, Reg: reg, Err: err}
	}
	if n != len(buf) {
		return &TransportError{Op: op, Addr: addr, Reg: reg,
			Err: errors.Wrapf(ErrShortTransfer, "read %d of %d bytes", n, len(buf))}
	}
	return nil
}
