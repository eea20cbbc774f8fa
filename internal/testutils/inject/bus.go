// Package inject provides test doubles whose behavior is supplied per test.
package inject

import (
	"sync"

	"github.com/relabs-tech/lsm9ds0_imu/internal/i2cbus"
)

// Bus is an injected i2cbus.Bus. Methods without an injected function fall
// through to the embedded Bus. Every call is counted by method name.
type Bus struct {
	i2cbus.Bus
	SelectFunc        func(addr byte) error
	WriteRegisterFunc func(addr, reg, value byte) error
	ReadRegisterFunc  func(addr, reg byte) (byte, error)
	ReadBlockFunc     func(addr, reg byte, count int) ([]byte, error)
	CloseFunc         func() error

	mu    sync.Mutex
	calls map[string]int
}

// Calls returns how many times the named method was invoked.
func (b *Bus) Calls(method string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[method]
}

// TotalCalls returns the number of calls across all methods.
func (b *Bus) TotalCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, c := range b.calls {
		n += c
	}
	return n
}

func (b *Bus) record(method string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.calls == nil {
		b.calls = map[string]int{}
	}
	b.calls[method]++
}

// Select calls the injected Select or the real version.
func (b *Bus) Select(addr byte) error {
	b.record("Select")
	if b.SelectFunc == nil {
		return b.Bus.Select(addr)
	}
	return b.SelectFunc(addr)
}

// WriteRegister calls the injected WriteRegister or the real version.
func (b *Bus) WriteRegister(addr, reg, value byte) error {
	b.record("WriteRegister")
	if b.WriteRegisterFunc == nil {
		return b.Bus.WriteRegister(addr, reg, value)
	}
	return b.WriteRegisterFunc(addr, reg, value)
}

// ReadRegister calls the injected ReadRegister or the real version.
func (b *Bus) ReadRegister(addr, reg byte) (byte, error) {
	b.record("ReadRegister")
	if b.ReadRegisterFunc == nil {
		return b.Bus.ReadRegister(addr, reg)
	}
	return b.ReadRegisterFunc(addr, reg)
}

// ReadBlock calls the injected ReadBlock or the real version.
func (b *Bus) ReadBlock(addr, reg byte, count int) ([]byte, error) {
	b.record("ReadBlock")
	if b.ReadBlockFunc == nil {
		return b.Bus.ReadBlock(addr, reg, count)
	}
	return b.ReadBlockFunc(addr, reg, count)
}

// Close calls the injected Close or the real version.
func (b *Bus) Close() error {
	b.record("Close")
	if b.CloseFunc == nil {
		return b.Bus.Close()
	}
	return b.CloseFunc()
}

// Opener returns an Opener handing out b and counting invocations in opens.
func (b *Bus) Opener(opens *int) i2cbus.Opener {
	return func(string) (i2cbus.Bus, error) {
		if opens != nil {
			*opens++
		}
		return b, nil
	}
}
