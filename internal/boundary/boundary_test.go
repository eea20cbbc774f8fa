package boundary

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
	"go.viam.com/test"

	"github.com/relabs-tech/lsm9ds0_imu/internal/i2cbus"
	"github.com/relabs-tech/lsm9ds0_imu/internal/imu"
	"github.com/relabs-tech/lsm9ds0_imu/internal/lsm9ds0"
	"github.com/relabs-tech/lsm9ds0_imu/internal/testutils/inject"
)

func newChip(cfg lsm9ds0.Config) *i2cbus.RegisterFile {
	rf := i2cbus.NewRegisterFile(cfg.XM.Addr, cfg.G.Addr)
	rf.Set(cfg.XM.Addr, cfg.XM.WhoAmIReg, cfg.XM.ExpectedID)
	rf.Set(cfg.G.Addr, cfg.G.WhoAmIReg, cfg.G.ExpectedID)
	return rf
}

func TestLifecycle(t *testing.T) {
	cfg := lsm9ds0.DefaultConfig()
	rf := newChip(cfg)
	rf.SetBlock(cfg.XM.Addr, cfg.XM.OutReg, []byte{0xff, 0xff, 0x00, 0x80, 0xff, 0x7f})
	shim := New(lsm9ds0.NewDriver(cfg, rf.Opener(), nil), zaptest.NewLogger(t).Sugar())

	test.That(t, shim.Read().Status, test.ShouldEqual, imu.StatusNotInitialized)
	test.That(t, rf.Opens(), test.ShouldEqual, 0)

	test.That(t, shim.Init(), test.ShouldEqual, InitOK)
	test.That(t, shim.Init(), test.ShouldEqual, InitOK)
	test.That(t, rf.Opens(), test.ShouldEqual, 1)

	s := shim.Read()
	test.That(t, s.Status, test.ShouldEqual, imu.StatusOK)
	test.That(t, []int16{s.Ax, s.Ay, s.Az}, test.ShouldResemble, []int16{-1, -32768, 32767})
	test.That(t, s.Timestamp, test.ShouldBeGreaterThan, 0.0)

	shim.Deinit()
	shim.Deinit()
	test.That(t, rf.Closes(), test.ShouldEqual, 1)
	test.That(t, shim.Read().Status, test.ShouldEqual, imu.StatusNotInitialized)
}

func TestInitCodes(t *testing.T) {
	t.Run("transport failure", func(t *testing.T) {
		cfg := lsm9ds0.DefaultConfig()
		rf := i2cbus.NewRegisterFile() // empty bus
		shim := New(lsm9ds0.NewDriver(cfg, rf.Opener(), nil), zaptest.NewLogger(t).Sugar())

		test.That(t, shim.Init(), test.ShouldEqual, InitFailed)
		test.That(t, shim.Read().Status, test.ShouldEqual, imu.StatusNotInitialized)
	})

	t.Run("wrong chip", func(t *testing.T) {
		cfg := lsm9ds0.DefaultConfig()
		rf := newChip(cfg)
		rf.Set(cfg.G.Addr, cfg.G.WhoAmIReg, 0xd7)
		shim := New(lsm9ds0.NewDriver(cfg, rf.Opener(), nil), zaptest.NewLogger(t).Sugar())

		test.That(t, shim.Init(), test.ShouldEqual, InitDeviceMismatch)
		test.That(t, rf.Closes(), test.ShouldEqual, 1)
	})

	t.Run("panic", func(t *testing.T) {
		d := &inject.Driver{InitFunc: func() error { panic("bus driver bug") }}
		test.That(t, New(d, zaptest.NewLogger(t).Sugar()).Init(), test.ShouldEqual, InitFailed)
	})

	t.Run("no driver", func(t *testing.T) {
		shim := New(nil, nil)
		test.That(t, shim.Init(), test.ShouldEqual, InitFailed)
		test.That(t, shim.Read().Status, test.ShouldEqual, imu.StatusNotInitialized)
		shim.Deinit()
	})
}

func TestReadConversion(t *testing.T) {
	errBus := errors.New("remote I/O error")

	t.Run("accel block failure", func(t *testing.T) {
		cfg := lsm9ds0.DefaultConfig()
		rf := newChip(cfg)
		bus, err := rf.Opener()(cfg.BusPath)
		test.That(t, err, test.ShouldBeNil)
		b := &inject.Bus{Bus: bus}
		shim := New(lsm9ds0.NewDriver(cfg, b.Opener(nil), nil), zaptest.NewLogger(t).Sugar())
		test.That(t, shim.Init(), test.ShouldEqual, InitOK)

		b.ReadBlockFunc = func(addr, reg byte, count int) ([]byte, error) {
			return nil, errBus
		}
		test.That(t, shim.Read().Status, test.ShouldEqual, imu.StatusReadError)
	})

	t.Run("error with OK status is still a read error", func(t *testing.T) {
		d := &inject.Driver{ReadFunc: func() (imu.Sample, error) {
			return imu.Sample{Ax: 5}, errBus
		}}
		s := New(d, nil).Read()
		test.That(t, s.Status, test.ShouldEqual, imu.StatusReadError)
		test.That(t, s.Ax, test.ShouldEqual, int16(5))
	})

	t.Run("panic", func(t *testing.T) {
		d := &inject.Driver{ReadFunc: func() (imu.Sample, error) {
			var b []byte
			_ = b[3]
			return imu.Sample{}, nil
		}}
		test.That(t, New(d, nil).Read(), test.ShouldResemble, imu.Sample{Status: imu.StatusReadError})
	})
}

func TestDeinitSwallowsErrors(t *testing.T) {
	calls := 0
	d := &inject.Driver{DeinitFunc: func() error {
		calls++
		if calls == 1 {
			return errors.New("close: bad file descriptor")
		}
		panic("closed twice")
	}}
	shim := New(d, zaptest.NewLogger(t).Sugar())
	shim.Deinit()
	shim.Deinit()
	test.That(t, calls, test.ShouldEqual, 2)
}

func TestInitFailureLoggedAtError(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	cfg := lsm9ds0.DefaultConfig()
	shim := New(lsm9ds0.NewDriver(cfg, i2cbus.NewRegisterFile().Opener(), nil), zap.New(core).Sugar())

	test.That(t, shim.Init(), test.ShouldEqual, InitFailed)
	failed := logs.FilterMessage("imu init failed").All()
	test.That(t, failed, test.ShouldHaveLength, 1)
	test.That(t, failed[0].Level, test.ShouldEqual, zapcore.ErrorLevel)

	// read failures stay silent
	shim.Read()
	test.That(t, logs.Len(), test.ShouldEqual, 1)
}
