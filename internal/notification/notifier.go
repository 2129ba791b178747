package notification

import (
	"context"
	"log/slog"

	"passport-status/pkg/platform/privacy"
)

// FileNumberNotice is what an applicant is sent.
type FileNumberNotice struct {
	RecordID   string
	Email      string
	FileNumber string
}

// Notifier delivers a notice over some channel.
type Notifier interface {
	SendFileNumber(ctx context.Context, notice FileNumberNotice) error
}

// LogNotifier records notices in the log instead of sending them. It is used
// when no notification API key is configured.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) SendFileNumber(ctx context.Context, notice FileNumberNotice) error {
	n.logger.InfoContext(ctx, "file number notification (log only)",
		"record_id", notice.RecordID,
		"email_fingerprint", privacy.Fingerprint(notice.Email),
	)
	return nil
}
