package main

import (
	"fmt"
	stdlog "log"
	"os"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog"
)

// displayAppname prints the banner to stderr; stdout is the stdio transport.
func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	fmt.Fprintln(os.Stderr, myFigure.String())
}

// newStdLogger adapts the zerolog logger for libraries that take a *log.Logger.
func newStdLogger(logger zerolog.Logger) *stdlog.Logger {
	return stdlog.New(logger.With().Str("component", "mcp").Logger(), "", 0)
}
