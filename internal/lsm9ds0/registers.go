// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package lsm9ds0

import "strings"

// Default I2C addresses (SA0 pulled high on both units).
const (
	AddrXM byte = 0x1d // accelerometer + magnetometer
	AddrG  byte = 0x6b // gyroscope
)

// Registers shared by both units.
const (
	RegWhoAmI   byte = 0x0f
	RegCtrl1    byte = 0x20
	RegCtrl4    byte = 0x23
	RegOutXLow  byte = 0x28
	sampleBytes      = 6
)

// WHO_AM_I answers.
const (
	IDXM byte = 0x49
	IDG  byte = 0xd4
)

// Power-on values.
const (
	// AODR=0101, BDU=0, AZEN|AYEN|AXEN.
	XMCtrl1Value byte = 0x57
	XMCtrl4Value byte = 0x00
	// DR=00, BW=00, PD=1, Zen|Yen|Xen.
	GCtrl1Value byte = 0x0f
	// 245 dps full scale.
	GCtrl4Value byte = 0x00
)

// DefaultBusPath is the bus node used when nothing else is configured.
const DefaultBusPath = "/dev/i2c-2"

// Unit describes one addressable sub-device of the package and how it is
// brought up.
type Unit struct {
	Name       string
	Addr       byte
	WhoAmIReg  byte
	ExpectedID byte
	Ctrl1Reg   byte
	Ctrl1Value byte
	Ctrl2Reg   byte
	Ctrl2Value byte
	OutReg     byte
}

// Config is everything the driver needs to know about the bus and the chip.
type Config struct {
	BusPath string
	XM      Unit
	G       Unit

	// ValidateIdentity makes Init fail with ErrDeviceMismatch when a unit's
	// WHO_AM_I does not match ExpectedID. When false the ids are read and
	// only logged.
	ValidateIdentity bool
}

// DefaultConfig returns the register map of an LSM9DS0 breakout on
// /dev/i2c-2.
func DefaultConfig() Config {
	return Config{
		BusPath: DefaultBusPath,
		XM: Unit{
			Name:       "xm",
			Addr:       AddrXM,
			WhoAmIReg:  RegWhoAmI,
			ExpectedID: IDXM,
			Ctrl1Reg:   RegCtrl1,
			Ctrl1Value: XMCtrl1Value,
			Ctrl2Reg:   RegCtrl4,
			Ctrl2Value: XMCtrl4Value,
			OutReg:     RegOutXLow,
		},
		G: Unit{
			Name:       "g",
			Addr:       AddrG,
			WhoAmIReg:  RegWhoAmI,
			ExpectedID: IDG,
			Ctrl1Reg:   RegCtrl1,
			Ctrl1Value: GCtrl1Value,
			Ctrl2Reg:   RegCtrl4,
			Ctrl2Value: GCtrl4Value,
			OutReg:     RegOutXLow,
		},
		ValidateIdentity: true,
	}
}

// Unit returns the unit called name ("xm" or "g", case-insensitive).
func (c Config) Unit(name string) (Unit, bool) {
	switch strings.ToLower(name) {
	case c.XM.Name:
		return c.XM, true
	case c.G.Name:
		return c.G, true
	}
	return Unit{}, false
}
