package app

import (
	"context"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/relabs-tech/lsm9ds0_imu/internal/config"
	"github.com/relabs-tech/lsm9ds0_imu/internal/imu"
	"github.com/relabs-tech/lsm9ds0_imu/internal/lsm9ds0"
)

// Producer states announced on the status topic.
const (
	StateOnline  = "online"
	StateOffline = "offline"
)

// ProducerStatus is the retained message on the status topic.
type ProducerStatus struct {
	State string `json:"state"`
	Bus   string `json:"bus,omitempty"`
	Time  string `json:"time,omitempty"`
}

// Producer polls a sample source and publishes every good sample.
type Producer struct {
	Source imu.SampleSource
	Pub    Publisher
	Topic  string
	Logger *zap.SugaredLogger

	failing bool
	sent    int
	failed  int
}

// Tick reads one sample and publishes it when it is good. Read failures are
// logged once when they start and once when they clear.
func (p *Producer) Tick() error {
	s, err := p.Source.Read()
	if err != nil || !s.OK() {
		p.failed++
		if !p.failing {
			p.Logger.Warnw("IMU read failing", "status", s.Status, "error", err)
			p.failing = true
		}
		return nil
	}
	if p.failing {
		p.Logger.Infow("IMU read recovered", "failed_reads", p.failed)
		p.failing = false
	}

	if err := publishJSON(p.Pub, p.Topic, false, s); err != nil {
		return err
	}
	p.sent++
	if p.sent%100 == 0 {
		p.Logger.Debugw("tick",
			"ax", s.Ax, "ay", s.Ay, "az", s.Az,
			"gx", s.Gx, "gy", s.Gy, "gz", s.Gz)
	}
	return nil
}

// Run ticks every interval until ctx is done. Publish errors are logged and
// the loop continues.
func (p *Producer) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.Logger.Infow("producer stopping", "published", p.sent, "failed_reads", p.failed)
			return nil
		case <-ticker.C:
			if err := p.Tick(); err != nil {
				p.Logger.Warnw("publish error", "error", err)
			}
		}
	}
}

// RunIMUProducer initializes the LSM9DS0 and publishes samples to MQTT until
// ctx is cancelled. The status topic carries "online" while running and the
// broker publishes "offline" through the last will if the process dies.
func RunIMUProducer(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) error {
	logger.Info("starting LSM9DS0 producer (IMU -> MQTT)")

	open, err := cfg.Opener()
	if err != nil {
		return err
	}
	driver := lsm9ds0.NewDriver(cfg.Driver(), open, logger.Named("lsm9ds0"))
	if err := driver.Init(); err != nil {
		return err
	}
	defer func() {
		if err := driver.Deinit(); err != nil {
			logger.Warnw("deinit", "error", err)
		}
	}()

	offline := mustJSON(ProducerStatus{State: StateOffline, Bus: cfg.I2CDevice})
	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDProducer, logger, func(o *mqtt.ClientOptions) {
		o.SetWill(cfg.TopicStatus, string(offline), 0, true)
	})
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	if err := publishStatus(client, cfg, StateOnline); err != nil {
		return err
	}
	defer func() {
		if err := publishStatus(client, cfg, StateOffline); err != nil {
			logger.Warnw("status", "error", err)
		}
	}()

	logger.Infow("publishing samples", "topic", cfg.TopicIMU, "interval_ms", cfg.IMUSampleInterval)
	p := &Producer{Source: driver, Pub: client, Topic: cfg.TopicIMU, Logger: logger}
	return p.Run(ctx, time.Duration(cfg.IMUSampleInterval)*time.Millisecond)
}

func publishStatus(pub Publisher, cfg *config.Config, state string) error {
	return publishJSON(pub, cfg.TopicStatus, true, ProducerStatus{
		State: state,
		Bus:   cfg.I2CDevice,
		Time:  time.Now().Format(time.RFC3339),
	})
}
