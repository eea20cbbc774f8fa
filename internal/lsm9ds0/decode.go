// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package lsm9ds0

import "fmt"

// Int16LE sign-extends the little-endian register pair (lo, hi).
func Int16LE(lo, hi byte) int16 {
	v := int32(hi)<<8 | int32(lo)
	if v&0x8000 != 0 {
		v -= 65536
	}
	return int16(v)
}

// decodeAxes splits a 6-byte output block into X, Y, Z.
func decodeAxes(b []byte) (x, y, z int16) {
	return Int16LE(b[0], b[1]), Int16LE(b[2], b[3]), Int16LE(b[4], b[5])
}

func hex(b byte) string {
	return fmt.Sprintf("0x%02x", b)
}
