// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package lsm9ds0

import "github.com/pkg/errors"

var (
	// ErrNotInitialized is returned by operations that need a Ready driver.
	ErrNotInitialized = errors.New("lsm9ds0: driver not initialized")
	// ErrDeviceMismatch is returned by Init when a unit answers with an
	// unexpected WHO_AM_I.
	ErrDeviceMismatch = errors.New("lsm9ds0: unexpected WHO_AM_I")
	// ErrUnknownUnit is returned for a unit name that is neither "xm" nor "g".
	ErrUnknownUnit = errors.New("lsm9ds0: unknown unit")
)
