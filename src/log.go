package samealert

import (
	"os"

	"github.com/charmbracelet/log"
)

var logger = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
	Prefix:          "same",
})

// SetLogLevel adjusts the package log level ("debug", "info", "warn",
// "error").  Unknown strings leave the level at info.
func SetLogLevel(level string) {
	if lvl, err := log.ParseLevel(level); err == nil {
		logger.SetLevel(lvl)
	} else {
		logger.SetLevel(log.InfoLevel)
	}
}
