package diagnostic

import "go.uber.org/zap"

// Sink is the "debug sink for optional diagnostic streams" consumed from
// collaborators (spec §6). The core never requires one: every constructor
// that accepts a Sink defaults to NoopSink.
type Sink interface {
	Emit(d Diagnostic)
}

type noopSink struct{}

func (noopSink) Emit(Diagnostic) {}

// NoopSink returns a Sink that discards every record.
func NoopSink() Sink { return noopSink{} }

// zapSink forwards diagnostics to a structured zap.Logger, one log line per
// record with level/category/code/span/fields preserved as structured
// fields. Enrichment from the pack (mycweb-mycelium's go.mod); the teacher
// has no structured logger of its own (see DESIGN.md).
type zapSink struct {
	logger *zap.Logger
}

// NewZapSink wraps logger as a diagnostic Sink.
func NewZapSink(logger *zap.Logger) Sink {
	return &zapSink{logger: logger}
}

func (s *zapSink) Emit(d Diagnostic) {
	fields := make([]zap.Field, 0, len(d.Fields)+3)
	fields = append(fields,
		zap.String("category", d.Category.String()),
		zap.String("code", d.Code),
	)
	if d.Span.IsValid() {
		fields = append(fields, zap.String("span", d.Span.String()))
	}
	for k, v := range d.Fields {
		fields = append(fields, zap.Any(k, v))
	}

	msg := d.Title
	if d.Message != "" {
		msg = d.Title + ": " + d.Message
	}

	switch d.Level {
	case LevelError:
		s.logger.Error(msg, fields...)
	case LevelWarning:
		s.logger.Warn(msg, fields...)
	case LevelInfo:
		s.logger.Info(msg, fields...)
	default:
		s.logger.Debug(msg, fields...)
	}
}
