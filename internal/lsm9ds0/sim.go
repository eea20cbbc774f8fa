// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package lsm9ds0

import (
	"math"
	"time"

	"github.com/relabs-tech/lsm9ds0_imu/internal/i2cbus"
)

// Counts for 1 g at ±2 g full scale (0.061 mg/LSB).
const oneG = 16393

// NewSimulator returns a register file that answers like an LSM9DS0 wired as
// cfg describes. Output registers of a powered unit follow smooth synthetic
// motion; a unit whose CTRL1 is still zero reads all zeros.
func NewSimulator(cfg Config) *i2cbus.RegisterFile {
	rf := i2cbus.NewRegisterFile(cfg.XM.Addr, cfg.G.Addr)
	rf.Set(cfg.XM.Addr, cfg.XM.WhoAmIReg, cfg.XM.ExpectedID)
	rf.Set(cfg.G.Addr, cfg.G.WhoAmIReg, cfg.G.ExpectedID)

	start := time.Now()
	rf.BeforeRead = func(addr byte, regs *[128]byte) {
		elapsed := time.Since(start).Seconds()

		switch addr {
		case cfg.XM.Addr:
			if regs[cfg.XM.Ctrl1Reg&0x7f] == 0 {
				return
			}
			putAxes(regs, cfg.XM.OutReg,
				int16(2000*math.Sin(elapsed)),
				int16(1500*math.Cos(elapsed*0.7)),
				int16(oneG+200*math.Sin(elapsed*3)))
		case cfg.G.Addr:
			if regs[cfg.G.Ctrl1Reg&0x7f] == 0 {
				return
			}
			putAxes(regs, cfg.G.OutReg,
				int16(1150*math.Cos(elapsed)),
				int16(-900*math.Sin(elapsed*0.7)),
				int16(math.Mod(elapsed*250, 500)-250))
		}
	}
	return rf
}

// SimOpener is an Opener backed by a fresh simulator.
func SimOpener(cfg Config) i2cbus.Opener {
	return NewSimulator(cfg).Opener()
}

func putAxes(regs *[128]byte, reg byte, x, y, z int16) {
	for i, v := range []int16{x, y, z} {
		u := uint16(v)
		regs[(int(reg)+2*i)&0x7f] = byte(u)
		regs[(int(reg)+2*i+1)&0x7f] = byte(u >> 8)
	}
}
