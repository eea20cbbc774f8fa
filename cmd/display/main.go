package main

import (
	"os"

	"github.com/urfave/cli/v2"

	"github.com/relabs-tech/lsm9ds0_imu/internal/app"
	"github.com/relabs-tech/lsm9ds0_imu/internal/cmdutil"
)

func main() {
	cliApp := &cli.App{
		Name:  "display",
		Usage: "show LSM9DS0 samples on an SSD1306 OLED",
		Flags: []cli.Flag{cmdutil.ConfigFlag},
		Action: func(c *cli.Context) error {
			cfg, logger, err := cmdutil.Setup(c, "display")
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, stop := cmdutil.SignalContext(c.Context)
			defer stop()

			return app.RunDisplay(ctx, cfg, logger)
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		cmdutil.Fatal(cliApp.Name, err)
	}
}
