// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Command libimu is built as a C shared library exposing imu_init, imu_read
// and imu_deinit. See imu.h.
package main

/*
#include "imu.h"
*/
import "C"

//export imu_init
func imu_init() C.int {
	return C.int(shim().Init())
}

//export imu_read
func imu_read() C.ImuData {
	s := shim().Read()
	return C.ImuData{
		timestamp_s: C.double(s.Timestamp),
		ax:          C.int16_t(s.Ax),
		ay:          C.int16_t(s.Ay),
		az:          C.int16_t(s.Az),
		gx:          C.int16_t(s.Gx),
		gy:          C.int16_t(s.Gy),
		gz:          C.int16_t(s.Gz),
		status:      C.int(s.Status),
	}
}

//export imu_deinit
func imu_deinit() {
	shim().Deinit()
}

func main() {}
