// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package boundary turns driver results into the integer and status
// conventions of the C entry points. Nothing returned from here is an error
// value and no panic escapes.
package boundary

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/relabs-tech/lsm9ds0_imu/internal/imu"
	"github.com/relabs-tech/lsm9ds0_imu/internal/lsm9ds0"
)

// Return codes of Init.
const (
	InitOK             = 0
	InitFailed         = -1
	InitDeviceMismatch = -3
)

// Driver is the part of *lsm9ds0.Driver the boundary needs.
type Driver interface {
	Init() error
	Read() (imu.Sample, error)
	Deinit() error
}

// Shim wraps a Driver for a caller that only understands numbers.
type Shim struct {
	driver Driver
	logger *zap.SugaredLogger
}

// New returns a Shim over d.
func New(d Driver, logger *zap.SugaredLogger) *Shim {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Shim{driver: d, logger: logger}
}

// Init returns InitOK when the driver is ready, InitDeviceMismatch when a
// unit answered with the wrong identity and InitFailed otherwise. Failures
// are logged.
func (s *Shim) Init() (code int) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Errorw("imu init panicked", "panic", r)
			code = InitFailed
		}
	}()

	if s.driver == nil {
		s.logger.Error("imu init: no driver")
		return InitFailed
	}
	err := s.driver.Init()
	if err == nil {
		return InitOK
	}
	s.logger.Errorw("imu init failed", "error", err)
	if errors.Is(err, lsm9ds0.ErrDeviceMismatch) {
		return InitDeviceMismatch
	}
	return InitFailed
}

// Read always returns a sample; failures only show in its Status.
// Per-sample failures are not logged.
func (s *Shim) Read() (sample imu.Sample) {
	defer func() {
		if r := recover(); r != nil {
			sample = imu.Sample{Status: imu.StatusReadError}
		}
	}()

	if s.driver == nil {
		return imu.Sample{Status: imu.StatusNotInitialized}
	}
	sample, err := s.driver.Read()
	switch {
	case errors.Is(err, lsm9ds0.ErrNotInitialized):
		return imu.Sample{Status: imu.StatusNotInitialized}
	case err != nil && sample.Status == imu.StatusOK:
		sample.Status = imu.StatusReadError
	}
	return sample
}

// Deinit releases the driver. Close failures are logged and swallowed.
func (s *Shim) Deinit() {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Errorw("imu deinit panicked", "panic", r)
		}
	}()

	if s.driver == nil {
		return
	}
	if err := s.driver.Deinit(); err != nil {
		s.logger.Warnw("imu deinit", "error", err)
	}
}
