// Package logging sets up the structured logger shared by every
// component. Verbosity follows §6's CLI surface: -q for errors only, no
// flag for warnings, each -v drops one level toward trace.
package logging

import "github.com/sirupsen/logrus"

// New builds a logrus.Logger at the level implied by quiet/verbosity.
func New(quiet bool, verbosity int) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	log.SetLevel(levelFor(quiet, verbosity))
	return log
}

func levelFor(quiet bool, verbosity int) logrus.Level {
	if quiet {
		return logrus.ErrorLevel
	}
	switch {
	case verbosity <= 0:
		return logrus.WarnLevel
	case verbosity == 1:
		return logrus.InfoLevel
	case verbosity == 2:
		return logrus.DebugLevel
	default:
		return logrus.TraceLevel
	}
}

// Component returns a logger entry tagged with the owning component name,
// for the p2p handler, api handler, stabilization loop, and servers to
// build their own further-tagged entries from.
func Component(log *logrus.Logger, name string) *logrus.Entry {
	return log.WithField("component", name)
}
