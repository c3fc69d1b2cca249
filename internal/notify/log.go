package notify

import (
	"context"

	"go.uber.org/zap"
)

// LogSink mirrors notifications to the structured log.
type LogSink struct {
	log *zap.SugaredLogger
}

// NewLogSink creates a LogSink writing to log.
func NewLogSink(log *zap.SugaredLogger) *LogSink {
	return &LogSink{log: log}
}

// Notify implements Notifier.
func (s *LogSink) Notify(_ context.Context, n Notification) {
	kv := []interface{}{"kind", n.Kind, "message", n.Message}
	if n.Topic != "" {
		kv = append(kv, "topic", n.Topic)
	}
	if n.Owner != "" {
		kv = append(kv, "owner", n.Owner)
	}

	switch n.Kind {
	case KindError:
		s.log.Errorw("notification", kv...)
	case KindWarning:
		s.log.Warnw("notification", kv...)
	default:
		s.log.Infow("notification", kv...)
	}
}
