package service

import (
	"github.com/ds124wfegd/eventhive/internal/entity"
	"github.com/sirupsen/logrus"
)

// NoticeSink receives the inline messages a screen would show.
type NoticeSink interface {
	Notify(n entity.Notice)
}

type NoticeFunc func(n entity.Notice)

func (f NoticeFunc) Notify(n entity.Notice) { f(n) }

// LogSink writes notices to the log, failures at warn level.
type LogSink struct {
	Log logrus.FieldLogger
}

func (s LogSink) Notify(n entity.Notice) {
	log := s.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	entry := log.WithField("kind", n.Kind)
	if n.Err != nil {
		entry = entry.WithError(n.Err)
	}
	if n.Kind == entity.NoticeError {
		entry.Warn(n.Message)
		return
	}
	entry.Info(n.Message)
}
