// Command monitor runs the chain monitor as a standalone process: it
// owns the signal handling and CLI surface SPEC_FULL.md places outside
// the core pipeline's scope.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/log"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/sourcify-eth/chain-monitor/monitor"
	"github.com/sourcify-eth/chain-monitor/repository"
)

var app = &cli.App{
	Name:  "monitor",
	Usage: "tail configured blockchains and harvest contract verification material",
	Flags: []cli.Flag{
		configFileFlag,
		infuraPIDFlag,
		swarmGatewayFlag,
		ipfsCatRequestFlag,
		repositoryFlag,
		blockTimeFlag,
		logFileFlag,
	},
	Action: run,
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	setupLogging(cfg.LogFile)

	repo := repository.New(cfg.Repository)
	m := monitor.New(cfg, repo)

	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := m.Start(runCtx); err != nil {
		return fmt.Errorf("start monitor: %w", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received, stopping monitor")
	m.Stop()
	return nil
}

// setupLogging arms go-ethereum's structured logger for terminal output,
// colorized when attached to a TTY, and optionally tees to a
// size-rotated file, in the teacher pack's own combination of
// mattn/go-colorable, mattn/go-isatty and gopkg.in/natefinch/lumberjack.v2.
func setupLogging(logFile string) {
	var writer io.Writer = colorable.NewColorableStderr()
	useColor := isatty.IsTerminal(os.Stderr.Fd())

	if logFile != "" {
		rotator := &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    100, // megabytes
			MaxBackups: 5,
			MaxAge:     28, // days
			Compress:   true,
		}
		writer = io.MultiWriter(writer, rotator)
		useColor = false
	}

	handler := log.NewTerminalHandler(writer, useColor)
	log.SetDefault(log.NewLogger(handler))
}
