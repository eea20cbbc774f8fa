package app

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/lsm9ds0_imu/internal/config"
	"github.com/relabs-tech/lsm9ds0_imu/internal/imu"
)

// Screen is the drawing surface of an ssd1306.Dev.
type Screen interface {
	Bounds() image.Rectangle
	Draw(r image.Rectangle, src image.Image, sp image.Point) error
}

const lineHeight = 13

// renderLines draws up to four lines of 7x13 text on a blank 128x64 frame.
func renderLines(x int, lines ...string) *image1bit.VerticalLSB {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, 128, 64))

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
	for i, line := range lines {
		drawer.Dot = fixed.P(x, lineHeight*(i+1))
		drawer.DrawString(line)
	}
	return img
}

// renderSample lays out one sample: accel on the first two lines, gyro on
// the next two.
func renderSample(s imu.Sample, have bool, status ProducerStatus) *image1bit.VerticalLSB {
	switch {
	case status.State == StateOffline:
		return renderLines(0, "", "LSM9DS0", "producer offline")
	case !have:
		return renderLines(0, "", "LSM9DS0", "Waiting...")
	case !s.OK():
		return renderLines(0, "", "LSM9DS0", s.Status.String())
	}
	return renderLines(0,
		fmt.Sprintf("A:%6d %6d", s.Ax, s.Ay),
		fmt.Sprintf("  %6d", s.Az),
		fmt.Sprintf("G:%6d %6d", s.Gx, s.Gy),
		fmt.Sprintf("  %6d", s.Gz),
	)
}

func showSplash(dev Screen) error {
	img := renderLines(10, "", "LSM9DS0 IMU", "accel + gyro")
	return dev.Draw(dev.Bounds(), img, image.Point{})
}

// updateDisplay draws the cache's current state on dev.
func updateDisplay(dev Screen, cache *SampleCache) error {
	s, have := cache.Latest()
	img := renderSample(s, have, cache.Status())
	return dev.Draw(dev.Bounds(), img, image.Point{})
}

// RunDisplay shows the producer's samples on an SSD1306 OLED until ctx is
// cancelled.
func RunDisplay(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) error {
	if _, err := host.Init(); err != nil {
		return errors.Wrap(err, "failed to initialize periph")
	}

	bus, err := i2creg.Open(cfg.DisplayI2CBus)
	if err != nil {
		return errors.Wrapf(err, "failed to open I2C bus %q", cfg.DisplayI2CBus)
	}
	defer bus.Close()

	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		return errors.Wrap(err, "failed to initialize display")
	}
	defer dev.Halt()
	logger.Infow("display initialized", "bus", cfg.DisplayI2CBus)

	if err := showSplash(dev); err != nil {
		logger.Warnw("display: error showing splash", "error", err)
	}

	cache := NewSampleCache()

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDDisplay, logger, nil)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	if err := subscribeSamples(client, cfg.TopicIMU, logger, cache.Store); err != nil {
		return err
	}
	if err := subscribeJSON(client, cfg.TopicStatus, logger, cache.SetStatus); err != nil {
		return err
	}

	ticker := time.NewTicker(time.Duration(cfg.DisplayUpdateInterval) * time.Millisecond)
	defer ticker.Stop()

	logger.Info("display: starting update loop")
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := updateDisplay(dev, cache); err != nil {
				logger.Warnw("display: error updating", "error", err)
			}
		}
	}
}
