// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package imu

// Status is the numeric outcome carried by every Sample.
type Status int

const (
	StatusOK             Status = 0
	StatusNotInitialized Status = -1
	StatusReadError      Status = -2
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNotInitialized:
		return "not initialized"
	case StatusReadError:
		return "read error"
	default:
		return "unknown"
	}
}

// Sample is a single raw accelerometer + gyroscope reading in sensor counts.
type Sample struct {
	Timestamp float64 `json:"timestamp_s"` // wall clock, seconds

	Ax int16 `json:"ax"` // accel
	Ay int16 `json:"ay"`
	Az int16 `json:"az"`

	Gx int16 `json:"gx"` // gyro
	Gy int16 `json:"gy"`
	Gz int16 `json:"gz"`

	Status Status `json:"status"`
}

// OK reports whether the sample holds a complete reading.
func (s Sample) OK() bool {
	return s.Status == StatusOK
}

// SampleSource is anything that hands out samples over time.
type SampleSource interface {
	Read() (Sample, error)
}
