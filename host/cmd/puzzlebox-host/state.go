package main

import (
	"github.com/spf13/cobra"

	"puzzlebox/host/box"
	"puzzlebox/host/printer"
)

var identifyCmd = &cobra.Command{
	Use:   "identify",
	Short: "Show the firmware version",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBox(func(b *box.Box) error {
			id, err := b.Identify()
			if err != nil {
				return linkError(err)
			}
			printer.Identity(id)
			return nil
		})
	},
}

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Show the current mode and progress",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBox(func(b *box.Box) error {
			s, err := b.State()
			if err != nil {
				return linkError(err)
			}
			printer.State(s)
			return nil
		})
	},
}

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Print the box's recent event history",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBox(func(b *box.Box) error {
			events, err := b.DumpEvents()
			if err != nil {
				return linkError(err)
			}
			if len(events) == 0 {
				printer.Warning("no events recorded\n")
			}
			for _, ev := range events {
				printer.Event(ev)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(identifyCmd, stateCmd, eventsCmd)
}

func withBox(fn func(b *box.Box) error) error {
	b, err := connect()
	if err != nil {
		return err
	}
	defer b.Close()
	return fn(b)
}

func linkError(err error) error {
	return printer.Error("The puzzle box did not answer", err.Error(), []string{
		"Check that the port belongs to a puzzle box and not another device",
	})
}
