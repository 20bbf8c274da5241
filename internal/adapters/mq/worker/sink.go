package worker

import (
	"context"

	"github.com/okian/auscript/pkg/logger"
)

// LogSink writes one structured line per submission. Field values are only
// logged at debug level.
type LogSink struct {
	logger logger.Logger
}

// NewLogSink returns a Sink that logs through l.
func NewLogSink(l logger.Logger) *LogSink {
	return &LogSink{logger: l}
}

// Observe logs s.
func (ls *LogSink) Observe(ctx context.Context, s Submission) error { //nolint:gocritic // hugeParam
	ls.logger.Info(ctx, "contact submission received",
		logger.String("id", s.ID),
		logger.String("kind", s.Kind.String()),
		logger.Any("fields", s.FieldNames()),
		logger.String("received_at", s.ReceivedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00")),
	)
	ls.logger.Debug(ctx, "contact submission data",
		logger.String("id", s.ID),
		logger.Any("data", s.Fields),
	)
	return nil
}
