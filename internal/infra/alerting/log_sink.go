package alerting

import (
	"context"

	"office_cheer_bot/internal/domain/delivery"

	"github.com/sirupsen/logrus"
)

// LogSink records alerts in the application log. Used when no ops Telegram
// chat is configured.
type LogSink struct {
	log *logrus.Entry
}

func NewLogSink(log *logrus.Entry) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Notify(_ context.Context, key delivery.Key, reason string) error {
	s.log.WithFields(logrus.Fields{
		"key":    key.String(),
		"reason": reason,
	}).Error("Delivery terminally failed; manual attention required")
	return nil
}
