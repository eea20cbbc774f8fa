package inject

import (
	"github.com/relabs-tech/lsm9ds0_imu/internal/imu"
)

// Driver is an injected sensor driver. Unset functions behave like an
// always-successful driver returning zero samples.
type Driver struct {
	InitFunc   func() error
	ReadFunc   func() (imu.Sample, error)
	DeinitFunc func() error
}

// Init calls the injected Init or returns nil.
func (d *Driver) Init() error {
	if d.InitFunc == nil {
		return nil
	}
	return d.InitFunc()
}

// Read calls the injected Read or returns an OK zero sample.
func (d *Driver) Read() (imu.Sample, error) {
	if d.ReadFunc == nil {
		return imu.Sample{}, nil
	}
	return d.ReadFunc()
}

// Deinit calls the injected Deinit or returns nil.
func (d *Driver) Deinit() error {
	if d.DeinitFunc == nil {
		return nil
	}
	return d.DeinitFunc()
}
