// Package blitz defines the logger shared by the packages of the module.
//
// The verbosity is read from the LLVL environment variable and can be one of
// "debug", "info", "warn", "error" or "none". It defaults to "info".
package blitz

import (
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// EnvLogLevel is the name of the environment variable to change the logging
// level.
const EnvLogLevel = "LLVL"

const defaultLevel = zerolog.InfoLevel

var logout = zerolog.ConsoleWriter{
	Out:        os.Stdout,
	TimeFormat: time.RFC3339,
}

// Logger is a globally available logger instance.
var Logger = zerolog.New(logout).
	With().Timestamp().Logger().
	With().Caller().Logger().
	Level(ParseLevel(os.Getenv(EnvLogLevel)))

// PromCollectors exposes the Prometheus collectors created in the packages of
// the module. They are registered when the metrics endpoint is enabled.
var PromCollectors []prometheus.Collector

// ParseLevel returns the zerolog level matching the name, or the default level
// if the name is unknown.
func ParseLevel(name string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "none":
		return zerolog.Disabled
	default:
		return defaultLevel
	}
}
