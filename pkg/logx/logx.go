// Package logx configures the process-wide logger used across the toolkit.
package logx

import (
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	base *logrus.Logger
	once sync.Once
)

// Logger returns the shared logger, initializing it on first use.
func Logger() *logrus.Logger {
	once.Do(func() {
		base = logrus.New()
		base.SetOutput(os.Stderr)
		base.SetLevel(logrus.InfoLevel)
		base.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	})
	return base
}

// WithComponent returns an entry tagged with the originating component.
func WithComponent(name string) *logrus.Entry {
	return Logger().WithField("component", name)
}

// SetVerbose switches the shared logger to debug level.
func SetVerbose(verbose bool) {
	if verbose {
		Logger().SetLevel(logrus.DebugLevel)
	} else {
		Logger().SetLevel(logrus.InfoLevel)
	}
}

// SetOutput redirects log output. Primarily for tests that assert on
// logged warnings.
func SetOutput(w io.Writer) {
	Logger().SetOutput(w)
}
