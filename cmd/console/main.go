// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/relabs-tech/lsm9ds0_imu/internal/app"
	"github.com/relabs-tech/lsm9ds0_imu/internal/cmdutil"
	"github.com/relabs-tech/lsm9ds0_imu/internal/lsm9ds0"
)

func main() {
	cliApp := &cli.App{
		Name:  "console",
		Usage: "poll the LSM9DS0 directly and print samples",
		Flags: []cli.Flag{
			cmdutil.ConfigFlag,
			&cli.IntFlag{
				Name:    "count",
				Aliases: []string{"n"},
				Usage:   "stop after this many samples, 0 runs until interrupted",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, logger, err := cmdutil.Setup(c, "console")
			if err != nil {
				return err
			}
			defer logger.Sync()

			open, err := cfg.Opener()
			if err != nil {
				return err
			}
			driver := lsm9ds0.NewDriver(cfg.Driver(), open, logger.Named("lsm9ds0"))
			if err := driver.Init(); err != nil {
				return err
			}
			defer driver.Deinit()

			ctx, stop := cmdutil.SignalContext(c.Context)
			defer stop()

			interval := time.Duration(cfg.IMUSampleInterval) * time.Millisecond
			return app.RunConsole(ctx, driver, interval, c.Int("count"), os.Stdout)
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		cmdutil.Fatal(cliApp.Name, err)
	}
}
