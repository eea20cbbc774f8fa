package app

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/relabs-tech/lsm9ds0_imu/internal/config"
	"github.com/relabs-tech/lsm9ds0_imu/internal/imu"
)

// FormatSample renders one console line for s.
func FormatSample(s imu.Sample) string {
	if !s.OK() {
		return fmt.Sprintf("[IMU] status=%s", s.Status)
	}
	return fmt.Sprintf(
		"[IMU] t=%.3f  ax=%6d ay=%6d az=%6d  gx=%6d gy=%6d gz=%6d",
		s.Timestamp, s.Ax, s.Ay, s.Az, s.Gx, s.Gy, s.Gz,
	)
}

// RunConsoleMQTT prints every sample and status change the producer
// publishes until ctx is cancelled.
func RunConsoleMQTT(ctx context.Context, cfg *config.Config, out io.Writer, logger *zap.SugaredLogger) error {
	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDConsole, logger, nil)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	if err := subscribeSamples(client, cfg.TopicIMU, logger, func(s imu.Sample) {
		fmt.Fprintln(out, FormatSample(s))
	}); err != nil {
		return err
	}

	if err := subscribeJSON(client, cfg.TopicStatus, logger, func(st ProducerStatus) {
		fmt.Fprintf(out, "[STAT] producer %s (bus %s) at %s\n", st.State, st.Bus, st.Time)
	}); err != nil {
		return err
	}

	<-ctx.Done()
	logger.Info("console: shutting down")
	return nil
}
