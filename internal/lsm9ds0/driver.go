// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package lsm9ds0 drives the accelerometer and gyroscope of an ST LSM9DS0
// over an I2C bus.
package lsm9ds0

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/relabs-tech/lsm9ds0_imu/internal/i2cbus"
	"github.com/relabs-tech/lsm9ds0_imu/internal/imu"
)

// Driver owns one bus handle and the Uninitialized/Ready state machine around
// it. A Driver is safe for concurrent use.
type Driver struct {
	cfg    Config
	open   i2cbus.Opener
	logger *zap.SugaredLogger
	now    func() time.Time

	mu  sync.Mutex
	bus i2cbus.Bus // nil while Uninitialized
}

// NewDriver returns an uninitialized driver. Nothing touches the bus until
// Init.
func NewDriver(cfg Config, open i2cbus.Opener, logger *zap.SugaredLogger) *Driver {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Driver{
		cfg:    cfg,
		open:   open,
		logger: logger,
		now:    time.Now,
	}
}

// Config returns the configuration the driver was built with.
func (d *Driver) Config() Config {
	return d.cfg
}

// Ready reports whether Init has succeeded and Deinit has not been called
// since.
func (d *Driver) Ready() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.bus != nil
}

// Init opens the bus, checks both units answer and programs their control
// registers. It is a no-op on a Ready driver. On failure the bus is closed
// and the driver stays Uninitialized.
func (d *Driver) Init() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.bus != nil {
		return nil
	}

	bus, err := d.open(d.cfg.BusPath)
	if err != nil {
		return errors.Wrap(err, "lsm9ds0 init")
	}

	if err := d.bringUp(bus); err != nil {
		if cerr := bus.Close(); cerr != nil {
			d.logger.Warnw("closing bus after failed init", "bus", d.cfg.BusPath, "error", cerr)
		}
		return errors.Wrap(err, "lsm9ds0 init")
	}

	d.bus = bus
	d.logger.Infow("LSM9DS0 ready",
		"bus", d.cfg.BusPath,
		"xm_addr", hex(d.cfg.XM.Addr),
		"g_addr", hex(d.cfg.G.Addr))
	return nil
}

func (d *Driver) bringUp(bus i2cbus.Bus) error {
	units := []Unit{d.cfg.XM, d.cfg.G}

	for _, u := range units {
		id, err := bus.ReadRegister(u.Addr, u.WhoAmIReg)
		if err != nil {
			return errors.Wrapf(err, "%s WHO_AM_I", u.Name)
		}
		d.logger.Debugw("WHO_AM_I", "unit", u.Name, "id", hex(id))
		if id != u.ExpectedID {
			if d.cfg.ValidateIdentity {
				return errors.Wrapf(ErrDeviceMismatch, "%s at %s answered %s, want %s",
					u.Name, hex(u.Addr), hex(id), hex(u.ExpectedID))
			}
			d.logger.Warnw("unexpected WHO_AM_I, continuing", "unit", u.Name, "id", hex(id), "want", hex(u.ExpectedID))
		}
	}

	for _, u := range units {
		if err := bus.WriteRegister(u.Addr, u.Ctrl1Reg, u.Ctrl1Value); err != nil {
			return errors.Wrapf(err, "%s control 1", u.Name)
		}
		if err := bus.WriteRegister(u.Addr, u.Ctrl2Reg, u.Ctrl2Value); err != nil {
			return errors.Wrapf(err, "%s control 2", u.Name)
		}
		d.logger.Debugw("unit configured", "unit", u.Name,
			"ctrl1", hex(u.Ctrl1Value), "ctrl2", hex(u.Ctrl2Value))
	}
	return nil
}

// Read burst-reads both output blocks. On a Ready driver a transport failure
// yields a sample with StatusReadError holding whatever was decoded before
// the failure; on an Uninitialized driver the sample is zero with
// StatusNotInitialized and the bus is not touched. The timestamp is only set
// on success.
func (d *Driver) Read() (imu.Sample, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.bus == nil {
		return imu.Sample{Status: imu.StatusNotInitialized}, ErrNotInitialized
	}

	var s imu.Sample

	accel, err := d.bus.ReadBlock(d.cfg.XM.Addr, d.cfg.XM.OutReg|i2cbus.AutoIncrement, sampleBytes)
	if err != nil {
		s.Status = imu.StatusReadError
		return s, errors.Wrap(err, "accel block")
	}
	s.Ax, s.Ay, s.Az = decodeAxes(accel)

	gyro, err := d.bus.ReadBlock(d.cfg.G.Addr, d.cfg.G.OutReg|i2cbus.AutoIncrement, sampleBytes)
	if err != nil {
		s.Status = imu.StatusReadError
		return s, errors.Wrap(err, "gyro block")
	}
	s.Gx, s.Gy, s.Gz = decodeAxes(gyro)

	s.Timestamp = seconds(d.now())
	s.Status = imu.StatusOK
	return s, nil
}

// Deinit closes the bus. It is safe on an Uninitialized driver.
func (d *Driver) Deinit() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.bus == nil {
		return nil
	}
	bus := d.bus
	d.bus = nil
	if err := bus.Close(); err != nil {
		return errors.Wrap(err, "lsm9ds0 deinit")
	}
	d.logger.Infow("LSM9DS0 released", "bus", d.cfg.BusPath)
	return nil
}

// ReadRegister reads one register of the named unit.
func (d *Driver) ReadRegister(unit string, reg byte) (byte, error) {
	u, ok := d.cfg.Unit(unit)
	if !ok {
		return 0, errors.Wrap(ErrUnknownUnit, unit)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.bus == nil {
		return 0, ErrNotInitialized
	}
	return d.bus.ReadRegister(u.Addr, reg)
}

// ReadRegisters reads each of regs from the named unit, stopping at the first
// failure.
func (d *Driver) ReadRegisters(unit string, regs []byte) (map[byte]byte, error) {
	u, ok := d.cfg.Unit(unit)
	if !ok {
		return nil, errors.Wrap(ErrUnknownUnit, unit)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.bus == nil {
		return nil, ErrNotInitialized
	}

	out := make(map[byte]byte, len(regs))
	for _, r := range regs {
		v, err := d.bus.ReadRegister(u.Addr, r)
		if err != nil {
			return out, errors.Wrapf(err, "%s reg %s", u.Name, hex(r))
		}
		out[r] = v
	}
	return out, nil
}

// WriteRegister writes one register of the named unit.
func (d *Driver) WriteRegister(unit string, reg, value byte) error {
	u, ok := d.cfg.Unit(unit)
	if !ok {
		return errors.Wrap(ErrUnknownUnit, unit)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.bus == nil {
		return ErrNotInitialized
	}
	d.logger.Infow("register write", "unit", u.Name, "reg", hex(reg), "value", hex(value))
	return d.bus.WriteRegister(u.Addr, reg, value)
}

func seconds(t time.Time) float64 {
	return float64(t.Unix()) + float64(t.Nanosecond())/1e9
}
