package logging

import (
	"context"
	"log/slog"
	"strings"
)

// componentLevelHandler applies per-component minimum levels. The wrapped
// handler must be configured with the most verbose level any component needs.
type componentLevelHandler struct {
	next      slog.Handler
	base      slog.Level
	overrides map[string]slog.Level
	level     slog.Level
}

func newComponentLevelHandler(next slog.Handler, base slog.Level, overrides map[string]slog.Level) slog.Handler {
	if next == nil {
		return NoopHandler{}
	}
	return &componentLevelHandler{next: next, base: base, overrides: overrides, level: base}
}

func (h *componentLevelHandler) Enabled(ctx context.Context, level slog.Level) bool {
	if level < h.level {
		return false
	}
	return h.next.Enabled(ctx, level)
}

func (h *componentLevelHandler) Handle(ctx context.Context, record slog.Record) error {
	if record.Level < h.level {
		return nil
	}
	return h.next.Handle(ctx, record)
}

func (h *componentLevelHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	level := h.level
	for _, attr := range attrs {
		if attr.Key != FieldComponent {
			continue
		}
		if override, ok := h.overrides[strings.ToLower(attr.Value.String())]; ok {
			level = override
		}
	}
	return &componentLevelHandler{
		next:      h.next.WithAttrs(attrs),
		base:      h.base,
		overrides: h.overrides,
		level:     level,
	}
}

func (h *componentLevelHandler) WithGroup(name string) slog.Handler {
	return &componentLevelHandler{
		next:      h.next.WithGroup(name),
		base:      h.base,
		overrides: h.overrides,
		level:     h.level,
	}
}

func parseOverrides(values map[string]string) map[string]slog.Level {
	out := make(map[string]slog.Level, len(values))
	for component, level := range values {
		component = strings.ToLower(strings.TrimSpace(component))
		if component == "" {
			continue
		}
		out[component] = parseLevel(level)
	}
	return out
}

func minLevel(base slog.Level, overrides map[string]string) slog.Level {
	lowest := base
	for _, level := range overrides {
		if parsed := parseLevel(level); parsed < lowest {
			lowest = parsed
		}
	}
	return lowest
}

// WithLevelOverride returns a logger that enforces the provided minimum level
// while preserving existing attributes and handler wiring.
func WithLevelOverride(logger *slog.Logger, level slog.Level) *slog.Logger {
	if logger == nil {
		return NewNop()
	}
	return slog.New(&componentLevelHandler{next: logger.Handler(), base: level, level: level})
}
