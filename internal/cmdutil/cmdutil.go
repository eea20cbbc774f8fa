// Package cmdutil holds the start-up steps shared by the binaries under cmd/.
package cmdutil

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/relabs-tech/lsm9ds0_imu/internal/config"
	"github.com/relabs-tech/lsm9ds0_imu/internal/logging"
)

// DefaultConfigPath is read when --config is not given. A missing file is
// not an error.
const DefaultConfigPath = "lsm9ds0.conf"

// ConfigFlag is the --config flag every binary accepts.
var ConfigFlag = &cli.StringFlag{
	Name:    "config",
	Aliases: []string{"c"},
	Value:   DefaultConfigPath,
	Usage:   "path to KEY=VALUE configuration file",
	EnvVars: []string{config.EnvPrefix + "CONFIG"},
}

// Setup loads the global configuration named by --config and returns it with
// a logger at the configured level.
func Setup(c *cli.Context, name string) (*config.Config, *zap.SugaredLogger, error) {
	if err := config.InitGlobal(c.String(ConfigFlag.Name)); err != nil {
		return nil, nil, err
	}
	cfg := config.Get()
	if err := logging.SetLevel(cfg.LogLevel); err != nil {
		return nil, nil, err
	}
	return cfg, logging.NewLogger(name), nil
}

// SignalContext is cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// Fatal logs err through a logger called name and exits with status 1.
func Fatal(name string, err error) {
	logging.NewLogger(name).Fatalw("exiting", "error", err)
}
