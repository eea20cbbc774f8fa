// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"os"

	"github.com/urfave/cli/v2"

	"github.com/relabs-tech/lsm9ds0_imu/internal/app"
	"github.com/relabs-tech/lsm9ds0_imu/internal/cmdutil"
)

func main() {
	cliApp := &cli.App{
		Name:  "imu_producer",
		Usage: "publish LSM9DS0 accel/gyro samples over MQTT",
		Flags: []cli.Flag{cmdutil.ConfigFlag},
		Action: func(c *cli.Context) error {
			cfg, logger, err := cmdutil.Setup(c, "imu_producer")
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, stop := cmdutil.SignalContext(c.Context)
			defer stop()

			logger.Infow("starting LSM9DS0 producer", "bus", cfg.I2CDevice, "driver", cfg.BusDriver)
			return app.RunIMUProducer(ctx, cfg, logger)
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		cmdutil.Fatal(cliApp.Name, err)
	}
}
