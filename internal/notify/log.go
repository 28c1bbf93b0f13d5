package notify

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/pawalert/internal/models"
)

// LogSender writes notifications to the logger instead of delivering them.
type LogSender struct {
	logger *log.Logger
}

// NewLogSender creates a [LogSender].
func NewLogSender(logger *log.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, to models.Contact, kind TemplateKind, data TemplateData) error {
	msg, err := Render(kind, to, data)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.logger.Info("notification", "to", to.Email, "user_id", to.UserID, "template", kind, "subject", msg.Subject)
	return nil
}
