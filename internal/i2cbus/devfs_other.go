// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

//go:build !linux

package i2cbus

import "github.com/pkg/errors"

// OpenDevfs is only available on Linux.
func OpenDevfs(path string) (Bus, error) {
	return nil, &TransportError{Op: "open", Path: path, Err: errors.New("i2c-dev is only supported on linux")}
}
