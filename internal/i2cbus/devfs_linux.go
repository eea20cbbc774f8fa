// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

//go:build linux

package i2cbus

import (
	"os"

	"golang.org/x/sys/unix"
)

// i2cSlave is I2C_SLAVE from linux/i2c-dev.h.
const i2cSlave = 0x0703

// devfsConn talks to /dev/i2c-N directly: the target address is latched with
// ioctl(I2C_SLAVE) and register traffic uses plain write(2)/read(2).
type devfsConn struct {
	f *os.File
}

// OpenDevfs opens the I2C character device at path.
func OpenDevfs(path string) (Bus, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, &TransportError{Op: "open", Path: path, Err: err}
	}
	return New(path, &devfsConn{f: f}), nil
}

func (c *devfsConn) SetAddress(addr byte) error {
	return unix.IoctlSetInt(int(c.f.Fd()), i2cSlave, int(addr))
}

func (c *devfsConn) Write(p []byte) (int, error) {
	return c.f.Write(p)
}

func (c *devfsConn) Read(p []byte) (int, error) {
	return c.f.Read(p)
}

func (c *devfsConn) Close() error {
	return c.f.Close()
}
