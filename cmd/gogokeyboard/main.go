package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tkw1536/gogokeyboard/logging"
	"github.com/tkw1536/gogokeyboard/service"
)

func init() {
	runtime.LockOSThread() // windows and the system hook need the main thread
}

func main() {
	src, err := config.OpenSource()
	if err != nil {
		logger.Fatal().Err(err).Str("source", config.Source).Msg("Unable to open source")
	}

	errChan := make(chan error, 1)
	go func() {
		err := config.Main(globalContext, src)
		if err != nil {
			src.Close() // let Run return
		}
		errChan <- err
	}()

	// closing the source stops the hub, so Main returns
	srcErr := src.Run()
	if srcErr != nil {
		logger.Error().Err(srcErr).Msg("Source failed")
		src.Close()
	}

	if err := <-errChan; err != nil {
		logger.Fatal().Err(err).Msg("Service failed")
	}
	if srcErr != nil {
		os.Exit(1)
	}
}

//
// ctrl+c
//

var globalContext context.Context

func init() {
	var cancel context.CancelFunc
	globalContext, cancel = context.WithCancel(context.Background())

	cancelChan := make(chan os.Signal, 1)
	signal.Notify(cancelChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-cancelChan
		cancel()
	}()
}

//
// command line flags
//

var logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
var config = service.DefaultConfig()

func init() {
	var configPath string
	flag.StringVar(&configPath, "config", configPath, "Path to a yaml configuration file. Flags given on the command line take precedence")

	config.AddFlagsTo(nil)
	flag.Parse()

	if configPath != "" {
		if err := config.LoadFile(configPath, flag.CommandLine); err != nil {
			logger.Fatal().Err(err).Msg("Unable to load configuration")
		}
	}

	logger = logging.Console(os.Stderr, config.Quiet, config.Debug)
	logging.Init(&logger)

	if err := config.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("Invalid configuration")
	}
}
