package logger

import (
	"io"
	"os"
	"strings"

	"github.com/ds124wfegd/eventhive/config"
	"github.com/sirupsen/logrus"
)

// New builds a logger from the log section. Unknown levels fall back to info,
// any format other than "text" is JSON.
func New(cfg config.LogConfig, out io.Writer) *logrus.Logger {
	if out == nil {
		out = os.Stdout
	}
	log := logrus.New()
	log.SetOutput(out)

	if strings.EqualFold(cfg.Format, "text") {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		log.SetFormatter(&logrus.JSONFormatter{})
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}
