// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package lsm9ds0

// BitField describes a bit range inside a register.
type BitField struct {
	Bits        string `json:"bits"` // "7:4" or "3"
	Name        string `json:"name"`
	Description string `json:"description"`
	Values      string `json:"values,omitempty"`
}

// RegisterInfo is the metadata shown by the register debugger.
type RegisterInfo struct {
	Address     string     `json:"address"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Access      string     `json:"access"` // "R", "W", "RW"
	Default     string     `json:"default,omitempty"`
	BitFields   []BitField `json:"bit_fields,omitempty"`
}

// RegisterMap returns the register metadata of the named unit, or nil for an
// unknown unit.
func RegisterMap(unit string) []RegisterInfo {
	switch unit {
	case "xm":
		return xmRegisterMap()
	case "g":
		return gRegisterMap()
	}
	return nil
}

// xmRegisterMap returns metadata for the accelerometer/magnetometer registers
// this tool cares about.
func xmRegisterMap() []RegisterInfo {
	return []RegisterInfo{
		{Address: "0x05", Name: "OUT_TEMP_L_XM", Description: "Temperature Low Byte", Access: "R"},
		{Address: "0x06", Name: "OUT_TEMP_H_XM", Description: "Temperature High Byte (12-bit, right justified)", Access: "R"},
		{Address: "0x07", Name: "STATUS_REG_M", Description: "Magnetometer Status", Access: "R",
			BitFields: []BitField{
				{Bits: "7", Name: "ZYXMOR", Description: "X, Y, Z overrun"},
				{Bits: "3", Name: "ZYXMDA", Description: "X, Y, Z new data available"},
			}},
		{Address: "0x08", Name: "OUT_X_L_M", Description: "Magnetometer X-Axis Low Byte", Access: "R"},
		{Address: "0x09", Name: "OUT_X_H_M", Description: "Magnetometer X-Axis High Byte", Access: "R"},
		{Address: "0x0A", Name: "OUT_Y_L_M", Description: "Magnetometer Y-Axis Low Byte", Access: "R"},
		{Address: "0x0B", Name: "OUT_Y_H_M", Description: "Magnetometer Y-Axis High Byte", Access: "R"},
		{Address: "0x0C", Name: "OUT_Z_L_M", Description: "Magnetometer Z-Axis Low Byte", Access: "R"},
		{Address: "0x0D", Name: "OUT_Z_H_M", Description: "Magnetometer Z-Axis High Byte", Access: "R"},
		{Address: "0x0F", Name: "WHO_AM_I_XM", Description: "Device ID (should read 0x49)", Access: "R", Default: "0x49"},
		{Address: "0x12", Name: "INT_CTRL_REG_M", Description: "Interrupt Control", Access: "RW", Default: "0xE8"},
		{Address: "0x1F", Name: "CTRL_REG0_XM", Description: "Control Register 0", Access: "RW", Default: "0x00",
			BitFields: []BitField{
				{Bits: "7", Name: "BOOT", Description: "Reboot memory content", Values: "0=Normal, 1=Reboot"},
				{Bits: "6", Name: "FIFO_EN", Description: "FIFO enable", Values: "0=Disabled, 1=Enabled"},
				{Bits: "5", Name: "WTM_EN", Description: "FIFO watermark enable", Values: "0=Disabled, 1=Enabled"},
			}},
		{Address: "0x20", Name: "CTRL_REG1_XM", Description: "Accelerometer Control 1", Access: "RW", Default: "0x07",
			BitFields: []BitField{
				{Bits: "7:4", Name: "AODR", Description: "Acceleration data rate", Values: "0=Power down, 1=3.125Hz, 2=6.25Hz, 3=12.5Hz, 4=25Hz, 5=50Hz, 6=100Hz, 7=200Hz, 8=400Hz, 9=800Hz, 10=1600Hz"},
				{Bits: "3", Name: "BDU", Description: "Block data update", Values: "0=Continuous, 1=Hold until MSB and LSB read"},
				{Bits: "2", Name: "AZEN", Description: "Z axis enable", Values: "0=Disabled, 1=Enabled"},
				{Bits: "1", Name: "AYEN", Description: "Y axis enable", Values: "0=Disabled, 1=Enabled"},
				{Bits: "0", Name: "AXEN", Description: "X axis enable", Values: "0=Disabled, 1=Enabled"},
			}},
		{Address: "0x21", Name: "CTRL_REG2_XM", Description: "Accelerometer Control 2", Access: "RW", Default: "0x00",
			BitFields: []BitField{
				{Bits: "7:6", Name: "ABW", Description: "Anti-alias filter bandwidth", Values: "0=773Hz, 1=194Hz, 2=362Hz, 3=50Hz"},
				{Bits: "5:3", Name: "AFS", Description: "Acceleration full scale", Values: "0=±2g, 1=±4g, 2=±6g, 3=±8g, 4=±16g"},
				{Bits: "2:1", Name: "AST", Description: "Self-test", Values: "0=Normal, 1=Positive, 2=Negative"},
				{Bits: "0", Name: "SIM", Description: "SPI mode", Values: "0=4-wire, 1=3-wire"},
			}},
		{Address: "0x22", Name: "CTRL_REG3_XM", Description: "INT1_XM Routing", Access: "RW", Default: "0x00"},
		{Address: "0x23", Name: "CTRL_REG4_XM", Description: "INT2_XM Routing", Access: "RW", Default: "0x00",
			BitFields: []BitField{
				{Bits: "7", Name: "P2_TAP", Description: "Tap on INT2", Values: "0=Disabled, 1=Enabled"},
				{Bits: "6", Name: "P2_INT1", Description: "Inertial interrupt 1 on INT2", Values: "0=Disabled, 1=Enabled"},
				{Bits: "5", Name: "P2_INT2", Description: "Inertial interrupt 2 on INT2", Values: "0=Disabled, 1=Enabled"},
				{Bits: "4", Name: "P2_INTM", Description: "Magnetic interrupt on INT2", Values: "0=Disabled, 1=Enabled"},
				{Bits: "3", Name: "P2_DRDYA", Description: "Accel data ready on INT2", Values: "0=Disabled, 1=Enabled"},
				{Bits: "2", Name: "P2_DRDYM", Description: "Mag data ready on INT2", Values: "0=Disabled, 1=Enabled"},
				{Bits: "1", Name: "P2_Overrun", Description: "FIFO overrun on INT2", Values: "0=Disabled, 1=Enabled"},
				{Bits: "0", Name: "P2_WTM", Description: "FIFO watermark on INT2", Values: "0=Disabled, 1=Enabled"},
			}},
		{Address: "0x24", Name: "CTRL_REG5_XM", Description: "Temperature / Magnetometer Control", Access: "RW", Default: "0x18",
			BitFields: []BitField{
				{Bits: "7", Name: "TEMP_EN", Description: "Temperature sensor enable", Values: "0=Disabled, 1=Enabled"},
				{Bits: "6:5", Name: "M_RES", Description: "Magnetic resolution", Values: "0=Low, 3=High"},
				{Bits: "4:2", Name: "M_ODR", Description: "Magnetic data rate", Values: "0=3.125Hz, 1=6.25Hz, 2=12.5Hz, 3=25Hz, 4=50Hz, 5=100Hz"},
			}},
		{Address: "0x25", Name: "CTRL_REG6_XM", Description: "Magnetometer Full Scale", Access: "RW", Default: "0x20",
			BitFields: []BitField{
				{Bits: "6:5", Name: "MFS", Description: "Magnetic full scale", Values: "0=±2gauss, 1=±4gauss, 2=±8gauss, 3=±12gauss"},
			}},
		{Address: "0x26", Name: "CTRL_REG7_XM", Description: "Magnetometer Mode", Access: "RW", Default: "0x02",
			BitFields: []BitField{
				{Bits: "7:6", Name: "AHPM", Description: "Accel high-pass filter mode", Values: "0=Normal (reset reading), 1=Reference, 2=Normal, 3=Auto-reset"},
				{Bits: "5", Name: "AFDS", Description: "Filtered accel data", Values: "0=Bypassed, 1=Filtered"},
				{Bits: "2", Name: "MLP", Description: "Magnetic low power", Values: "0=Normal, 1=Low power"},
				{Bits: "1:0", Name: "MD", Description: "Magnetic sensor mode", Values: "0=Continuous, 1=Single, 2=Power down, 3=Power down"},
			}},
		{Address: "0x27", Name: "STATUS_REG_A", Description: "Accelerometer Status", Access: "R",
			BitFields: []BitField{
				{Bits: "7", Name: "ZYXAOR", Description: "X, Y, Z overrun"},
				{Bits: "3", Name: "ZYXADA", Description: "X, Y, Z new data available"},
			}},
		{Address: "0x28", Name: "OUT_X_L_A", Description: "Accelerometer X-Axis Low Byte", Access: "R"},
		{Address: "0x29", Name: "OUT_X_H_A", Description: "Accelerometer X-Axis High Byte", Access: "R"},
		{Address: "0x2A", Name: "OUT_Y_L_A", Description: "Accelerometer Y-Axis Low Byte", Access: "R"},
		{Address: "0x2B", Name: "OUT_Y_H_A", Description: "Accelerometer Y-Axis High Byte", Access: "R"},
		{Address: "0x2C", Name: "OUT_Z_L_A", Description: "Accelerometer Z-Axis Low Byte", Access: "R"},
		{Address: "0x2D", Name: "OUT_Z_H_A", Description: "Accelerometer Z-Axis High Byte", Access: "R"},
	}
}

// gRegisterMap returns metadata for the gyroscope registers.
func gRegisterMap() []RegisterInfo {
	return []RegisterInfo{
		{Address: "0x0F", Name: "WHO_AM_I_G", Description: "Device ID (should read 0xD4)", Access: "R", Default: "0xD4"},
		{Address: "0x20", Name: "CTRL_REG1_G", Description: "Gyroscope Control 1", Access: "RW", Default: "0x07",
			BitFields: []BitField{
				{Bits: "7:6", Name: "DR", Description: "Output data rate", Values: "0=95Hz, 1=190Hz, 2=380Hz, 3=760Hz"},
				{Bits: "5:4", Name: "BW", Description: "Bandwidth selection", Values: "depends on DR"},
				{Bits: "3", Name: "PD", Description: "Power mode", Values: "0=Power down, 1=Normal"},
				{Bits: "2", Name: "Zen", Description: "Z axis enable", Values: "0=Disabled, 1=Enabled"},
				{Bits: "1", Name: "Yen", Description: "Y axis enable", Values: "0=Disabled, 1=Enabled"},
				{Bits: "0", Name: "Xen", Description: "X axis enable", Values: "0=Disabled, 1=Enabled"},
			}},
		{Address: "0x21", Name: "CTRL_REG2_G", Description: "High-pass Filter", Access: "RW", Default: "0x00",
			BitFields: []BitField{
				{Bits: "5:4", Name: "HPM", Description: "High-pass filter mode", Values: "0=Normal (reset reading), 1=Reference, 2=Normal, 3=Auto-reset"},
				{Bits: "3:0", Name: "HPCF", Description: "High-pass cut-off", Values: "depends on DR"},
			}},
		{Address: "0x22", Name: "CTRL_REG3_G", Description: "Interrupt Routing", Access: "RW", Default: "0x00"},
		{Address: "0x23", Name: "CTRL_REG4_G", Description: "Gyroscope Control 4", Access: "RW", Default: "0x00",
			BitFields: []BitField{
				{Bits: "7", Name: "BDU", Description: "Block data update", Values: "0=Continuous, 1=Hold until MSB and LSB read"},
				{Bits: "6", Name: "BLE", Description: "Endianness", Values: "0=Little endian, 1=Big endian"},
				{Bits: "5:4", Name: "FS", Description: "Full scale", Values: "0=245dps, 1=500dps, 2=2000dps, 3=2000dps"},
				{Bits: "2:1", Name: "ST", Description: "Self-test", Values: "0=Normal, 1=Self-test 0, 3=Self-test 1"},
				{Bits: "0", Name: "SIM", Description: "SPI mode", Values: "0=4-wire, 1=3-wire"},
			}},
		{Address: "0x24", Name: "CTRL_REG5_G", Description: "Gyroscope Control 5", Access: "RW", Default: "0x00",
			BitFields: []BitField{
				{Bits: "7", Name: "BOOT", Description: "Reboot memory content", Values: "0=Normal, 1=Reboot"},
				{Bits: "6", Name: "FIFO_EN", Description: "FIFO enable", Values: "0=Disabled, 1=Enabled"},
				{Bits: "4", Name: "HPen", Description: "High-pass filter enable", Values: "0=Disabled, 1=Enabled"},
			}},
		{Address: "0x25", Name: "REFERENCE_G", Description: "High-pass Reference", Access: "RW", Default: "0x00"},
		{Address: "0x27", Name: "STATUS_REG_G", Description: "Gyroscope Status", Access: "R",
			BitFields: []BitField{
				{Bits: "7", Name: "ZYXOR", Description: "X, Y, Z overrun"},
				{Bits: "3", Name: "ZYXDA", Description: "X, Y, Z new data available"},
			}},
		{Address: "0x28", Name: "OUT_X_L_G", Description: "Gyroscope X-Axis Low Byte", Access: "R"},
		{Address: "0x29", Name: "OUT_X_H_G", Description: "Gyroscope X-Axis High Byte", Access: "R"},
		{Address: "0x2A", Name: "OUT_Y_L_G", Description: "Gyroscope Y-Axis Low Byte", Access: "R"},
		{Address: "0x2B", Name: "OUT_Y_H_G", Description: "Gyroscope Y-Axis High Byte", Access: "R"},
		{Address: "0x2C", Name: "OUT_Z_L_G", Description: "Gyroscope Z-Axis Low Byte", Access: "R"},
		{Address: "0x2D", Name: "OUT_Z_H_G", Description: "Gyroscope Z-Axis High Byte", Access: "R"},
		{Address: "0x2E", Name: "FIFO_CTRL_REG_G", Description: "FIFO Control", Access: "RW", Default: "0x00",
			BitFields: []BitField{
				{Bits: "7:5", Name: "FM", Description: "FIFO mode", Values: "0=Bypass, 1=FIFO, 2=Stream, 3=Stream-to-FIFO, 4=Bypass-to-stream"},
				{Bits: "4:0", Name: "WTM", Description: "FIFO watermark level", Values: "0-31"},
			}},
		{Address: "0x2F", Name: "FIFO_SRC_REG_G", Description: "FIFO Status", Access: "R"},
	}
}
