package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"puzzlebox/host/box"
	"puzzlebox/host/printer"
)

var monitorDebug bool

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Stream events from the box until interrupted",
	Long: `Stream every event the box reports: cards read and written, mode
changes, puzzle results and saved combinations.

Examples:
  # Watch the box on the configured port
  puzzlebox-host monitor

  # Include firmware debug output
  puzzlebox-host monitor --debug`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		return withBox(func(b *box.Box) error {
			id, err := b.Identify()
			if err != nil {
				return linkError(err)
			}
			printer.Identity(id)

			if monitorDebug {
				if err := b.SetDebug(true); err != nil {
					return linkError(err)
				}
				defer func() {
					if err := b.SetDebug(false); err != nil {
						logger.Warn("failed to turn debug off", zap.Error(err))
					}
				}()
			}

			if s, err := b.State(); err == nil {
				printer.State(s)
			}
			stream(ctx, b)
			return nil
		})
	},
}

func init() {
	monitorCmd.Flags().BoolVar(&monitorDebug, "debug", false, "enable firmware debug output while monitoring")
	rootCmd.AddCommand(monitorCmd)
}

// stream prints events and debug lines until ctx is done
func stream(ctx context.Context, b *box.Box) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-b.Events():
			printer.Event(ev)
		case text := <-b.Debug():
			printer.Debug(text)
		}
	}
}
