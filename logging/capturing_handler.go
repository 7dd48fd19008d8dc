package logging

import (
	"context"
	"log/slog"
)

// CapturingHandler wraps an slog.Handler, copying every record into a Console before passing it
// through. Records are tagged with the page id.
type CapturingHandler struct {
	underlying slog.Handler
	console    *Console
	pageID     string
	attrs      []slog.Attr
	groups     []string
}

// NewCapturingHandler creates a handler that records into console and forwards to underlying.
func NewCapturingHandler(underlying slog.Handler, console *Console, pageID string) *CapturingHandler {
	return &CapturingHandler{
		underlying: underlying,
		console:    console,
		pageID:     pageID,
	}
}

// NewConsoleLogger returns a logger writing to base's handler and capturing into console.
func NewConsoleLogger(base *slog.Logger, console *Console, pageID string) *slog.Logger {
	return slog.New(NewCapturingHandler(base.Handler(), console, pageID)).With("page", pageID)
}

// Enabled always reports true: the console keeps debug records even when the process log
// level filters them. The underlying handler still filters in Handle.
func (h *CapturingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return true
}

// Handle records r in the console, then passes it to the underlying handler if that handler
// accepts the level.
func (h *CapturingHandler) Handle(ctx context.Context, r slog.Record) error {
	entry := Entry{
		Time:       r.Time,
		Level:      r.Level.String(),
		Message:    r.Message,
		Attributes: make(map[string]any, r.NumAttrs()+len(h.attrs)),
	}
	for _, a := range h.attrs {
		entry.Attributes[a.Key] = resolveValue(a.Value)
	}
	r.Attrs(func(a slog.Attr) bool {
		entry.Attributes[a.Key] = resolveValue(a.Value)
		return true
	})
	h.console.Add(entry)

	if !h.underlying.Enabled(ctx, r.Level) {
		return nil
	}
	return h.underlying.Handle(ctx, r)
}

// WithAttrs returns a new CapturingHandler so capturing survives logger.With chains.
func (h *CapturingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)

	return &CapturingHandler{
		underlying: h.underlying.WithAttrs(attrs),
		console:    h.console,
		pageID:     h.pageID,
		attrs:      merged,
		groups:     h.groups,
	}
}

// WithGroup returns a new CapturingHandler so capturing survives logger.WithGroup chains.
func (h *CapturingHandler) WithGroup(name string) slog.Handler {
	groups := make([]string, 0, len(h.groups)+1)
	groups = append(groups, h.groups...)
	groups = append(groups, name)

	return &CapturingHandler{
		underlying: h.underlying.WithGroup(name),
		console:    h.console,
		pageID:     h.pageID,
		attrs:      h.attrs,
		groups:     groups,
	}
}

// resolveValue converts a slog.Value into something encoding/json can serialize.
// Errors become their message.
func resolveValue(v slog.Value) any {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindInt64:
		return v.Int64()
	case slog.KindUint64:
		return v.Uint64()
	case slog.KindFloat64:
		return v.Float64()
	case slog.KindBool:
		return v.Bool()
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return v.Time()
	case slog.KindGroup:
		group := make(map[string]any, len(v.Group()))
		for _, a := range v.Group() {
			group[a.Key] = resolveValue(a.Value)
		}
		return group
	default:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
		return v.Any()
	}
}
