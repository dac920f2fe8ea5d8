package main

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"os"
	"os/signal"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"puzzlebox/host/box"
	"puzzlebox/host/printer"
	"puzzlebox/host/sim"
)

var simStore string

var simCmd = &cobra.Command{
	Use:   "sim",
	Short: "Run the lock logic against simulated hardware",
	Long: `Run the puzzle box firmware logic on this machine. Cards, the button
and time are driven by commands read from standard input, one per line:

` + sim.Help() + `
The combination record is kept in the file given by --store (or sim.store
in the config file). Events travel over the same link protocol a real box
uses and are printed as they happen.

Example:
  printf 'tap 01 1\ntap 02 2\ntap 03 3\ntap 04 4\n' | puzzlebox-host sim`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("store") {
			cfg.Sim.Store = simStore
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		return runSim(ctx, cmd.InOrStdin())
	},
}

func init() {
	simCmd.Flags().StringVar(&simStore, "store", "", "combination record file (empty keeps it in memory)")
	rootCmd.AddCommand(simCmd)
}

// runSim runs a simulator session reading commands from in until EOF,
// "quit", or ctx is cancelled
func runSim(ctx context.Context, in io.Reader) error {
	s, err := sim.New(cfg.CoreConfig(), sim.Options{
		Store:  cfg.Sim.Store,
		Notify: printer.Device,
		Logger: logger,
	})
	if err != nil {
		return printer.Error("Cannot start the simulator", err.Error(), nil)
	}
	defer s.Close()

	hostEnd, deviceEnd := net.Pipe()
	s.Connect(deviceEnd)
	b := box.New(hostEnd, box.Options{
		AckTimeout:      cfg.AckTimeout(),
		ResponseTimeout: cfg.ResponseTimeout(),
		Logger:          logger,
	})
	defer b.Close()

	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_ = s.Run(ctx, cfg.TickInterval())
	}()
	go func() {
		defer wg.Done()
		stream(ctx, b)
	}()
	defer func() {
		cancel()
		wg.Wait()
	}()

	if id, err := b.Identify(); err == nil {
		printer.Identity(id)
	} else {
		logger.Warn("simulated link did not answer", zap.Error(err))
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			line = strings.TrimSpace(line)
			if line == "quit" || line == "exit" {
				return nil
			}
			out, err := s.Exec(line)
			switch {
			case errors.Is(err, sim.ErrUnknownCommand), errors.Is(err, sim.ErrUsage):
				printer.Warning("%v (type 'help')\n", err)
			case err != nil:
				return err
			case out != "":
				printer.Info("%s\n", strings.TrimRight(out, "\n"))
			}
		}
	}
}
