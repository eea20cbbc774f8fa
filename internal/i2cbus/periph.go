// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package i2cbus

import (
	"sync"

	"github.com/pkg/errors"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

var (
	hostOnce    sync.Once
	hostInitErr error
)

// periphConn adapts a periph.io bus to Conn. periph addresses every
// transaction individually, so the selected address is remembered here and
// each Write/Read becomes a one-sided Tx.
type periphConn struct {
	bus      i2c.BusCloser
	addr     uint16
	selected bool
}

// OpenPeriph opens an I2C bus through the periph.io registry. path may be a
// device node ("/dev/i2c-1"), an alias ("I2C1") or a bus number ("1").
func OpenPeriph(path string) (Bus, error) {
	hostOnce.Do(func() {
		if _, err := host.Init(); err != nil {
			hostInitErr = errors.Wrap(err, "periph host init")
		}
	})
	if hostInitErr != nil {
		return nil, &TransportError{Op: "open", Path: path, Err: hostInitErr}
	}

	bus, err := i2creg.Open(path)
	if err != nil {
		return nil, &TransportError{Op: "open", Path: path, Err: err}
	}
	return New(path, &periphConn{bus: bus}), nil
}

func (c *periphConn) SetAddress(addr byte) error {
	if addr > 0x7f {
		return errors.Errorf("invalid 7-bit address 0x%02x", addr)
	}
	c.addr = uint16(addr)
	c.selected = true
	return nil
}

func (c *periphConn) Write(p []byte) (int, error) {
	if !c.selected {
		return 0, errors.New("no device selected")
	}
	if err := c.bus.Tx(c.addr, p, nil); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (c *periphConn) Read(p []byte) (int, error) {
	if !c.selected {
		return 0, errors.New("no device selected")
	}
	if err := c.bus.Tx(c.addr, nil, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (c *periphConn) Close() error {
	return c.bus.Close()
}
