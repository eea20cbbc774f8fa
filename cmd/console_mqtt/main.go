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
		Name:  "console_mqtt",
		Usage: "print LSM9DS0 samples received over MQTT",
		Flags: []cli.Flag{cmdutil.ConfigFlag},
		Action: func(c *cli.Context) error {
			cfg, logger, err := cmdutil.Setup(c, "console_mqtt")
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, stop := cmdutil.SignalContext(c.Context)
			defer stop()

			return app.RunConsoleMQTT(ctx, cfg, os.Stdout, logger)
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		cmdutil.Fatal(cliApp.Name, err)
	}
}
