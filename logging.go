/*
 * Copyright (c) 2024 Johan Stenstam, johani@johani.org
 */
package dnssec

import (
	"log"

	"gopkg.in/natefinch/lumberjack.v2"
)

// SetupLogging redirects this package's log output to a rotated file, or
// leaves it on the default logger when logfile is empty. Unlike a daemon's
// setup routine, a library never calls log.Fatal on misconfiguration.
func SetupLogging(logfile string) error {
	log.SetFlags(log.Lshortfile | log.Ltime)
	if logfile == "" {
		return nil
	}
	log.SetOutput(&lumberjack.Logger{
		Filename:   logfile,
		MaxSize:    20,
		MaxBackups: 3,
		MaxAge:     14,
	})
	return nil
}
