// Package logging provides component loggers for gogokeyboard.
//
// Packages register a logger for each of their components in an init function.
// Until the binary calls Init, registered loggers discard everything.
package logging

import (
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var globalMutex sync.Mutex
var globalLogger *zerolog.Logger
var localLoggers = make(map[string]*zerolog.Logger)

// Init configures the global logger.
// It should be called once, from the main package.
func Init(global *zerolog.Logger) {
	globalMutex.Lock()
	defer globalMutex.Unlock()

	if globalLogger != nil {
		panic("logging.Init: Already called")
	}

	globalLogger = global
	for name, logger := range localLoggers {
		writeLogger(name, logger)
	}

	// components registered from now on are configured directly
	localLoggers = nil
}

func writeLogger(name string, logger *zerolog.Logger) {
	*logger = globalLogger.With().Str("component", name).Logger()
}

// ComponentLogger registers logger to be a logger for the given component
func ComponentLogger(component string, logger *zerolog.Logger) {
	globalMutex.Lock()
	defer globalMutex.Unlock()

	if globalLogger == nil {
		*logger = zerolog.Nop()
		localLoggers[component] = logger
		return
	}

	writeLogger(component, logger)
}

// Console returns a human-readable logger writing to out.
// quiet disables all output and takes precedence over debug, which enables debug messages.
func Console(out io.Writer, quiet, debug bool) zerolog.Logger {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}).With().Timestamp().Logger()
	switch {
	case quiet:
		return logger.Level(zerolog.Disabled)
	case debug:
		return logger.Level(zerolog.DebugLevel)
	default:
		return logger.Level(zerolog.InfoLevel)
	}
}
