package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/hashchaind/hashchaind/app/console"
	"github.com/hashchaind/hashchaind/infrastructure/config"
	"github.com/hashchaind/hashchaind/infrastructure/logger"
	"github.com/hashchaind/hashchaind/infrastructure/os/signal"
	"github.com/hashchaind/hashchaind/util/panics"
	"github.com/hashchaind/hashchaind/util/profiling"
	"github.com/hashchaind/hashchaind/version"
)

// StartApp starts the node and blocks until it is interrupted or the console
// exits.
func StartApp() error {
	// Load configuration and parse command line.
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}

	// The components are created before the logger runs so that a terminal
	// console can take over stdout.
	componentManager, err := NewComponentManager(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating the node: %+v\n", err)
		return err
	}

	var stdout io.Writer = os.Stdout
	var nodeConsole *console.Console
	if !cfg.NoConsole {
		var restore func() error
		nodeConsole, restore, err = newConsole(componentManager)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating the console: %+v\n", err)
			return err
		}
		defer func() {
			_ = restore()
		}()
		stdout = nodeConsole.Output()
	}

	logger.InitLogWithStdout(cfg.LogFile(), cfg.ErrLogFile(), stdout, logger.LevelInfo)
	defer logger.BackendLog.Close()
	defer panics.HandlePanic(log, "MAIN", nil)

	// Show version at startup.
	log.Infof("Version %s", version.Version())

	// Enable http profiling server if requested.
	if cfg.Profile != "" {
		profiling.Start(cfg.Profile, log)
	}

	interrupt := signal.InterruptListener()

	componentManager.Start()
	defer componentManager.Stop()

	for _, address := range componentManager.NetAdapter().ListeningAddresses() {
		log.Infof("Listening on %s", address)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	consoleDone := make(chan struct{})
	if nodeConsole != nil {
		spawn("console.Run", func() {
			defer close(consoleDone)
			err := nodeConsole.Run(ctx)
			if err != nil {
				log.Errorf("Console stopped: %+v", err)
			}
		})
	}

	select {
	case <-interrupt:
	case <-consoleDone:
		log.Info("Console closed. Shutting down...")
	}
	return nil
}

// newConsole returns a console over the terminal when stdin is one, and a
// line based console otherwise.
func newConsole(componentManager *ComponentManager) (*console.Console, func() error, error) {
	l := componentManager.Ledger()
	netAdapter := componentManager.NetAdapter()
	protocolManager := componentManager.ProtocolManager()

	if console.IsTerminal(os.Stdin) && console.IsTerminal(os.Stdout) {
		return console.NewTerminal(l, netAdapter, protocolManager, os.Stdin, os.Stdout)
	}
	noRestore := func() error { return nil }
	return console.New(l, netAdapter, protocolManager, os.Stdin, os.Stdout), noRestore, nil
}
