package sinks

import (
	"context"

	"go.uber.org/zap"

	"github.com/redresslabs/redress/internal/progress"
)

// LogSink writes every event to a Zap logger. It gives operators a readable
// trail of a run when no scrape target or UI is watching the stream.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink returns a sink backed by logger, or by a nop logger when nil.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

// Consume logs one line per event with the fields relevant to its stage.
func (s *LogSink) Consume(_ context.Context, batch []progress.Event) error {
	for _, evt := range batch {
		s.logger.Info("progress", eventFields(evt)...)
	}
	return nil
}

// Close implements progress.Sink and has nothing to release.
func (s *LogSink) Close(context.Context) error {
	return nil
}

// eventFields keeps log lines short by including counters only for the stages
// that populate them.
func eventFields(evt progress.Event) []zap.Field {
	fields := make([]zap.Field, 0, 10)
	fields = append(fields,
		zap.String("run_id", evt.RunID),
		zap.String("stage", string(evt.Stage)),
	)
	if evt.Category != "" {
		fields = append(fields, zap.String("category", string(evt.Category)))
	}
	if evt.Keyword != "" {
		fields = append(fields, zap.String("keyword", evt.Keyword))
	}
	switch evt.Stage {
	case progress.StageKeywordDone, progress.StageRunDone:
		fields = append(fields,
			zap.Int64("found", evt.Found),
			zap.Int64("fresh", evt.Fresh),
			zap.Int64("skipped", evt.Skipped),
		)
	case progress.StageMediaSaved:
		fields = append(fields, zap.Int64("bytes", evt.Bytes))
	}
	if evt.Dur > 0 {
		fields = append(fields, zap.Duration("took", evt.Dur))
	}
	if evt.Note != "" {
		fields = append(fields, zap.String("note", evt.Note))
	}
	return fields
}
