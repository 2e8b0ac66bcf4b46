package notification

import (
	"context"

	"github.com/rs/zerolog"
)

// LogSender writes messages to the log instead of delivering them. It is the
// development default.
type LogSender struct {
	logger zerolog.Logger
}

// NewLogSender creates a LogSender
func NewLogSender(logger zerolog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Name implements Sender
func (s *LogSender) Name() string { return "log" }

// Send implements Sender
func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.logger.Info().
		Str("messageId", msg.ID).
		Str("kind", string(msg.Kind)).
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Msg("Notification (not sent, log driver)")
	s.logger.Debug().Str("messageId", msg.ID).Str("body", msg.TextBody).Msg("Notification body")
	return nil
}
