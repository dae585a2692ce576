package sinks

import (
	"context"
	"fmt"
)

// logSink writes progress events to the application logger. Useful as the
// always-available sink when no external infrastructure is configured.
type logSink struct {
	id  string
	typ string
	log Logger
}

func newLogSink(cfg SinkConfig, log Logger) (Sink, error) {
	if cfg.ID == "" {
		return nil, fmt.Errorf("log sink requires an id")
	}
	return &logSink{id: cfg.ID, typ: TypeLog, log: ensureLogger(log)}, nil
}

func (l *logSink) ID() string   { return l.id }
func (l *logSink) Type() string { return l.typ }

func (l *logSink) Deliver(_ context.Context, evt Event) error {
	l.log.InfoObj("harvest progress", "progress_event", map[string]any{
		"run_id":  evt.RunID,
		"source":  evt.Source,
		"state":   string(evt.Snapshot.State),
		"percent": evt.Snapshot.PercentComplete,
		"status":  evt.Snapshot.StatusMessage,
		"new":     evt.Snapshot.NewlyHarvestedCount,
		"skipped": evt.Snapshot.SkippedCount,
	})
	return nil
}
