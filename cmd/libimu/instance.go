// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"os"
	"sync"

	"github.com/relabs-tech/lsm9ds0_imu/internal/boundary"
	"github.com/relabs-tech/lsm9ds0_imu/internal/config"
	"github.com/relabs-tech/lsm9ds0_imu/internal/logging"
	"github.com/relabs-tech/lsm9ds0_imu/internal/lsm9ds0"
)

var (
	instanceOnce sync.Once
	instance     *boundary.Shim
)

// shim returns the process-wide instance behind the C entry points.
func shim() *boundary.Shim {
	instanceOnce.Do(func() {
		instance = newShim(os.LookupEnv)
	})
	return instance
}

// newShim builds a shim from LSM9DS0_CONFIG and the LSM9DS0_* environment.
// A bad configuration yields a shim without a driver, so imu_init reports
// -1 and imu_read reports "not initialized".
func newShim(lookup func(string) (string, bool)) *boundary.Shim {
	logger := logging.NewLogger("libimu")

	path, _ := lookup(config.EnvPrefix + "CONFIG")
	cfg, err := config.Resolve(path, lookup)
	if err != nil {
		logger.Errorw("imu configuration", "error", err)
		return boundary.New(nil, logger)
	}
	if err := logging.SetLevel(cfg.LogLevel); err != nil {
		logger.Warnw("imu log level", "error", err)
	}

	open, err := cfg.Opener()
	if err != nil {
		logger.Errorw("imu bus driver", "error", err)
		return boundary.New(nil, logger)
	}
	return boundary.New(lsm9ds0.NewDriver(cfg.Driver(), open, logger.Named("lsm9ds0")), logger)
}
