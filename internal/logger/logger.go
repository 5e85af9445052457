package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// CreateLogger returns a JSON logger tagged with the service name. The level
// is read from LOG_LEVEL and falls back to info when unset or unparsable.
func CreateLogger(service string) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetFormatter(&logrus.JSONFormatter{})

	level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)
	l.AddHook(serviceHook{service: service})
	return l
}

type serviceHook struct {
	service string
}

func (h serviceHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h serviceHook) Fire(e *logrus.Entry) error {
	e.Data["service"] = h.service
	return nil
}
