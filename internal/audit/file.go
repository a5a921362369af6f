package audit

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// FileSink writes events as JSON lines to an append-only file. Each event is a
// single locked write.
type FileSink struct {
	core  zapcore.Core
	close func()
}

// OpenFile opens (or creates) the audit log at path for appending.
func OpenFile(path string) (*FileSink, error) {
	ws, closeFn, err := zap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open audit log %s: %w", path, err)
	}

	encoder := zapcore.NewJSONEncoder(zapcore.EncoderConfig{
		MessageKey:     "type",
		TimeKey:        "timestamp",
		EncodeTime:     utcTimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		LineEnding:     zapcore.DefaultLineEnding,
	})

	return &FileSink{
		core:  zapcore.NewCore(encoder, ws, zapcore.DebugLevel),
		close: closeFn,
	}, nil
}

func utcTimeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.UTC().Format(time.RFC3339Nano))
}

// Append writes ev and syncs the file.
func (f *FileSink) Append(ctx context.Context, ev Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entry := zapcore.Entry{
		Level:   zapcore.InfoLevel,
		Time:    ev.Timestamp,
		Message: ev.Type,
	}
	if err := f.core.Write(entry, fields(ev)); err != nil {
		return fmt.Errorf("write audit event: %w", err)
	}
	if err := f.core.Sync(); err != nil {
		return fmt.Errorf("sync audit log: %w", err)
	}
	return nil
}

// Close releases the underlying file.
func (f *FileSink) Close() error {
	if f.close != nil {
		f.close()
	}
	return nil
}

func fields(ev Event) []zapcore.Field {
	out := make([]zapcore.Field, 0, 7)
	if ev.CandidateID != "" {
		out = append(out, zap.String("candidate_id", ev.CandidateID))
	}
	if ev.PromptVersion != "" {
		out = append(out, zap.String("prompt_version", ev.PromptVersion))
	}
	if ev.Input != nil {
		out = append(out, zap.Reflect("input", ev.Input))
	}
	if ev.Output != nil {
		out = append(out, zap.Reflect("output", ev.Output))
	}
	if ev.RequiresReview != nil {
		out = append(out, zap.Bool("requires_review", *ev.RequiresReview))
	}
	if ev.Reason != "" {
		out = append(out, zap.String("reason", ev.Reason))
	}
	if len(ev.Details) > 0 {
		out = append(out, zap.Reflect("details", ev.Details))
	}
	return out
}
