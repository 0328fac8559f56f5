package simplesource

import (
	"context"
	"log/slog"
)

// NoopEventSink is a no-operation implementation of EventSink
// Useful for production when you don't need event handling or for testing
type NoopEventSink struct{}

// NewNoopEventSink creates a new no-operation event sink
func NewNoopEventSink() EventSink {
	return &NoopEventSink{}
}

// SourceAdded does nothing and returns nil
func (n *NoopEventSink) SourceAdded(ctx context.Context, source *Source) error {
	return nil
}

// SourceUpdated does nothing and returns nil
func (n *NoopEventSink) SourceUpdated(ctx context.Context, source *Source) error {
	return nil
}

// SourceDeleted does nothing and returns nil
func (n *NoopEventSink) SourceDeleted(ctx context.Context, source *Source) error {
	return nil
}

// BatchSent does nothing and returns nil
func (n *NoopEventSink) BatchSent(ctx context.Context, receipt *BatchReceipt) error {
	return nil
}

// LoggingEventSink is an event sink that logs events but takes no other action
// Useful for development and debugging
type LoggingEventSink struct {
	logger *slog.Logger
}

// NewLoggingEventSink creates a new logging event sink. A nil logger falls
// back to slog.Default.
func NewLoggingEventSink(logger *slog.Logger) EventSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingEventSink{logger: logger}
}

// SourceAdded logs the source creation event
func (l *LoggingEventSink) SourceAdded(ctx context.Context, source *Source) error {
	l.logger.InfoContext(ctx, "source added",
		"source_id", source.ID, "kind", source.Kind, "category", source.Category, "name", source.Name)
	return nil
}

// SourceUpdated logs the source update event
func (l *LoggingEventSink) SourceUpdated(ctx context.Context, source *Source) error {
	l.logger.InfoContext(ctx, "source updated", "source_id", source.ID, "name", source.Name)
	return nil
}

// SourceDeleted logs the source deletion event
func (l *LoggingEventSink) SourceDeleted(ctx context.Context, source *Source) error {
	l.logger.InfoContext(ctx, "source deleted", "source_id", source.ID, "kind", source.Kind)
	return nil
}

// BatchSent logs the completed webhook delivery
func (l *LoggingEventSink) BatchSent(ctx context.Context, receipt *BatchReceipt) error {
	l.logger.InfoContext(ctx, "batch sent",
		"endpoint", receipt.Endpoint, "source_count", receipt.SourceCount, "skipped", receipt.Skipped)
	return nil
}
