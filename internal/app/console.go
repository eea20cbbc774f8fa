// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/relabs-tech/lsm9ds0_imu/internal/imu"
)

// RunConsole polls src directly, without MQTT, and prints each sample. It
// stops after count samples when count > 0, or when ctx is cancelled.
func RunConsole(ctx context.Context, src imu.SampleSource, interval time.Duration, count int, out io.Writer) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for n := 0; count <= 0 || n < count; n++ {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		// status is printed even on failure
		s, _ := src.Read()
		fmt.Fprintln(out, FormatSample(s))
	}
	return nil
}
