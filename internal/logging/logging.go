// Package logging configures the process-wide logrus logger used by
// every other package in this module. It is deliberately thin: the
// packages that log (internal/aggcore, internal/coordinatorrpc, ...)
// call logrus directly, following the teacher's habit of calling its
// logger from wherever it's needed rather than threading a logger
// value through every constructor.
package logging

import (
	"os"

	log "github.com/sirupsen/logrus"
)

// Configure sets up the default logrus logger's formatter and level
// from the AGGREGATOR_LOG_FORMAT and AGGREGATOR_LOG_LEVEL environment
// variables. Call it once, early in main.
func Configure() {
	if os.Getenv("AGGREGATOR_LOG_FORMAT") == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}

	level, err := log.ParseLevel(os.Getenv("AGGREGATOR_LOG_LEVEL"))
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
}
