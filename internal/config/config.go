// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"bufio"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/relabs-tech/lsm9ds0_imu/internal/i2cbus"
	"github.com/relabs-tech/lsm9ds0_imu/internal/lsm9ds0"
)

// EnvPrefix is prepended to a config key to form its environment override,
// e.g. LSM9DS0_I2C_DEVICE.
const EnvPrefix = "LSM9DS0_"

// Bus drivers accepted by BUS_DRIVER.
const (
	BusDevfs  = "devfs"
	BusPeriph = "periph"
	BusSim    = "sim"
)

// Config holds all application configuration values.
type Config struct {
	// Bus and chip
	I2CDevice      string
	BusDriver      string
	XMAddr         byte
	GAddr          byte
	ValidateWhoAmI bool

	// Logging
	LogLevel string

	// MQTT
	MQTTBroker           string
	MQTTClientIDProducer string
	MQTTClientIDConsole  string
	MQTTClientIDWeb      string
	MQTTClientIDDisplay  string

	// Topics
	TopicIMU    string
	TopicStatus string

	// Timing
	IMUSampleInterval int // milliseconds

	// Web Server
	WebServerPort int

	// Register debugger
	RegisterDebugPort     int
	RegisterDebugWritable []RegisterRange

	// Display
	DisplayI2CBus         string // the SSD1306 answers at 0x3c
	DisplayUpdateInterval int    // milliseconds
}

// RegisterRange is an inclusive range of register addresses.
type RegisterRange struct {
	Lo, Hi byte
}

// Contains reports whether reg lies inside r.
func (r RegisterRange) Contains(reg byte) bool {
	return reg >= r.Lo && reg <= r.Hi
}

// Writable reports whether the register debugger may write reg.
func (c *Config) Writable(reg byte) bool {
	for _, r := range c.RegisterDebugWritable {
		if r.Contains(reg) {
			return true
		}
	}
	return false
}

// Keys lists every key setValue understands, in file order.
var Keys = []string{
	"I2C_DEVICE", "BUS_DRIVER", "XM_ADDR", "G_ADDR", "VALIDATE_WHO_AM_I",
	"LOG_LEVEL",
	"MQTT_BROKER", "MQTT_CLIENT_ID_PRODUCER", "MQTT_CLIENT_ID_CONSOLE",
	"MQTT_CLIENT_ID_WEB", "MQTT_CLIENT_ID_DISPLAY",
	"TOPIC_IMU", "TOPIC_STATUS",
	"IMU_SAMPLE_INTERVAL",
	"WEB_SERVER_PORT",
	"REGISTER_DEBUG_PORT", "REGISTER_DEBUG_WRITABLE",
	"DISPLAY_I2C_BUS", "DISPLAY_UPDATE_INTERVAL",
}

// globalConfig is only reachable through InitGlobal and Get.
var (
	globalConfig *Config
	globalErr    error
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Default returns the configuration used when no file or environment
// override says otherwise.
func Default() *Config {
	return &Config{
		I2CDevice:      lsm9ds0.DefaultBusPath,
		BusDriver:      BusDevfs,
		XMAddr:         lsm9ds0.AddrXM,
		GAddr:          lsm9ds0.AddrG,
		ValidateWhoAmI: true,

		LogLevel: "info",

		MQTTBroker:           "tcp://localhost:1883",
		MQTTClientIDProducer: "lsm9ds0-producer",
		MQTTClientIDConsole:  "lsm9ds0-console",
		MQTTClientIDWeb:      "lsm9ds0-web",
		MQTTClientIDDisplay:  "lsm9ds0-display",

		TopicIMU:    "lsm9ds0/imu",
		TopicStatus: "lsm9ds0/status",

		IMUSampleInterval: 100,

		WebServerPort: 8080,

		RegisterDebugPort:     8081,
		RegisterDebugWritable: []RegisterRange{{Lo: 0x20, Hi: 0x25}},

		DisplayI2CBus:         "1",
		DisplayUpdateInterval: 200,
	}
}

// Load reads the configuration file on top of the defaults.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open config file")
	}
	defer file.Close()

	cfg := Default()
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, errors.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, errors.Wrapf(err, "config line %d", lineNum)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "error reading config file")
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Resolve builds the effective configuration: defaults, then the file at
// configPath when it exists, then LSM9DS0_* environment overrides.
// An empty configPath skips the file.
func Resolve(configPath string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()
	if configPath != "" {
		loaded, err := Load(configPath)
		switch {
		case err == nil:
			cfg = loaded
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(lookup); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides every key that has an EnvPrefix variable set.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	for _, key := range Keys {
		value, ok := lookup(EnvPrefix + key)
		if !ok {
			continue
		}
		if err := c.setValue(key, strings.TrimSpace(value)); err != nil {
			return errors.Wrapf(err, "environment %s%s", EnvPrefix, key)
		}
	}
	return nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// Bus and chip
	case "I2C_DEVICE":
		c.I2CDevice = value
	case "BUS_DRIVER":
		c.BusDriver = strings.ToLower(value)
	case "XM_ADDR":
		addr, err := parseAddr(value)
		if err != nil {
			return errors.Wrapf(err, "invalid XM_ADDR %q", value)
		}
		c.XMAddr = addr
	case "G_ADDR":
		addr, err := parseAddr(value)
		if err != nil {
			return errors.Wrapf(err, "invalid G_ADDR %q", value)
		}
		c.GAddr = addr
	case "VALIDATE_WHO_AM_I":
		v, err := strconv.ParseBool(value)
		if err != nil {
			return errors.Wrapf(err, "invalid VALIDATE_WHO_AM_I %q", value)
		}
		c.ValidateWhoAmI = v

	case "LOG_LEVEL":
		c.LogLevel = strings.ToLower(value)

	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_PRODUCER":
		c.MQTTClientIDProducer = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value
	case "MQTT_CLIENT_ID_DISPLAY":
		c.MQTTClientIDDisplay = value

	// Topics
	case "TOPIC_IMU":
		c.TopicIMU = value
	case "TOPIC_STATUS":
		c.TopicStatus = value

	// Timing
	case "IMU_SAMPLE_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return errors.Wrapf(err, "invalid IMU_SAMPLE_INTERVAL %q", value)
		}
		c.IMUSampleInterval = interval

	// Web Server
	case "WEB_SERVER_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return errors.Wrapf(err, "invalid WEB_SERVER_PORT %q", value)
		}
		c.WebServerPort = port

	// Register debugger
	case "REGISTER_DEBUG_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return errors.Wrapf(err, "invalid REGISTER_DEBUG_PORT %q", value)
		}
		c.RegisterDebugPort = port
	case "REGISTER_DEBUG_WRITABLE":
		ranges, err := ParseRanges(value)
		if err != nil {
			return errors.Wrapf(err, "invalid REGISTER_DEBUG_WRITABLE %q", value)
		}
		c.RegisterDebugWritable = ranges

	// Display
	case "DISPLAY_I2C_BUS":
		c.DisplayI2CBus = value
	case "DISPLAY_UPDATE_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return errors.Wrapf(err, "invalid DISPLAY_UPDATE_INTERVAL %q", value)
		}
		c.DisplayUpdateInterval = interval

	default:
		return errors.Errorf("unknown config key: %q", key)
	}

	return nil
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.I2CDevice == "" && c.BusDriver != BusSim {
		return errors.New("I2C_DEVICE is required")
	}
	switch c.BusDriver {
	case BusDevfs, BusPeriph, BusSim:
	default:
		return errors.Errorf("BUS_DRIVER must be %s, %s or %s, got %q", BusDevfs, BusPeriph, BusSim, c.BusDriver)
	}
	if c.XMAddr == c.GAddr {
		return errors.Errorf("XM_ADDR and G_ADDR must differ, both are 0x%02x", c.XMAddr)
	}
	if c.MQTTBroker == "" {
		return errors.New("MQTT_BROKER is required")
	}
	if c.IMUSampleInterval <= 0 {
		return errors.New("IMU_SAMPLE_INTERVAL must be positive")
	}
	if c.DisplayUpdateInterval <= 0 {
		return errors.New("DISPLAY_UPDATE_INTERVAL must be positive")
	}
	return nil
}

// Driver returns the chip configuration described by c.
func (c *Config) Driver() lsm9ds0.Config {
	d := lsm9ds0.DefaultConfig()
	d.BusPath = c.I2CDevice
	d.XM.Addr = c.XMAddr
	d.G.Addr = c.GAddr
	d.ValidateIdentity = c.ValidateWhoAmI
	return d
}

// Opener returns the bus opener selected by BUS_DRIVER.
func (c *Config) Opener() (i2cbus.Opener, error) {
	switch c.BusDriver {
	case BusDevfs:
		return i2cbus.OpenDevfs, nil
	case BusPeriph:
		return i2cbus.OpenPeriph, nil
	case BusSim:
		return lsm9ds0.SimOpener(c.Driver()), nil
	}
	return nil, errors.Errorf("unknown BUS_DRIVER %q", c.BusDriver)
}

// ParseRanges parses a comma separated list of registers and inclusive
// ranges such as "0x20-0x25,0x2e".
func ParseRanges(s string) ([]RegisterRange, error) {
	var out []RegisterRange
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lo, hi, isRange := strings.Cut(part, "-")
		l, err := parseReg(lo)
		if err != nil {
			return nil, err
		}
		h := l
		if isRange {
			if h, err = parseReg(hi); err != nil {
				return nil, err
			}
		}
		if h < l {
			return nil, errors.Errorf("range %q is reversed", part)
		}
		out = append(out, RegisterRange{Lo: l, Hi: h})
	}
	return out, nil
}

func parseReg(s string) (byte, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 0, 8)
	if err != nil {
		return 0, err
	}
	if v > 0x7f {
		return 0, errors.Errorf("register 0x%02x out of range", v)
	}
	return byte(v), nil
}

func parseAddr(s string) (byte, error) {
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, err
	}
	if v < 0x03 || v > 0x77 {
		return 0, errors.Errorf("0x%02x is not a 7-bit device address", v)
	}
	return byte(v), nil
}

// InitGlobal resolves the global configuration once. Later calls return
// the first call's error.
func InitGlobal(configPath string) error {
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, globalErr = Resolve(configPath, os.LookupEnv)
	})
	configMu.RLock()
	defer configMu.RUnlock()
	return globalErr
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
