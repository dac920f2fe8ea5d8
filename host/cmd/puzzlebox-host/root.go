package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"puzzlebox/host/box"
	"puzzlebox/host/config"
	"puzzlebox/host/printer"
)

var (
	configPath string
	device     string
	verbose    bool

	cfg    *config.Config
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "puzzlebox-host",
	Short: "Talk to a card-sequence puzzle box",
	Long: `puzzlebox-host connects to a puzzle box over USB serial to read its
state and watch what it does, or runs the lock logic in a simulator.

Settings are read from puzzlebox.yaml in the working directory when it
exists, or from the file given with --config.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		l, err := zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger = l

		cfg, err = config.Load(configPath)
		if err != nil {
			return printer.Error("Configuration error", err.Error(), []string{
				"Fix the file, or remove it to use the defaults",
			})
		}
		if device != "" {
			cfg.Serial.Device = device
		}
		logger.Debug("configuration loaded",
			zap.String("device", cfg.Serial.Device),
			zap.String("store", cfg.Sim.Store))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default ./puzzlebox.yaml)")
	rootCmd.PersistentFlags().StringVarP(&device, "device", "d", "", "serial device, overrides the config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func execute() error {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	return rootCmd.Execute()
}

func setVersionInfo(v, c string) {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s)", v, c)
}

// connect opens the configured box, printing a friendly error on failure
func connect() (*box.Box, error) {
	b, err := box.Connect(cfg.SerialPort(), box.Options{
		AckTimeout:      cfg.AckTimeout(),
		ResponseTimeout: cfg.ResponseTimeout(),
		Logger:          logger,
	})
	if err != nil {
		return nil, printer.Error("Cannot open the puzzle box",
			err.Error(),
			[]string{
				"Check that the box is plugged in",
				"Pass the right port with --device",
			})
	}
	return b, nil
}
