package logger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// handler is the slog.Handler that feeds records into the run log.
// Attributes are appended to the message as key=value pairs, groups as dotted prefixes.
type handler struct {
	core   *logger
	attrs  []string
	prefix string
}

var _ slog.Handler = &handler{}

func (h *handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.core.level
}

func (h *handler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	b.WriteString(r.Message)
	for _, a := range h.attrs {
		b.WriteByte(' ')
		b.WriteString(a)
	}
	r.Attrs(func(a slog.Attr) bool {
		for _, s := range formatAttr(h.prefix, a) {
			b.WriteByte(' ')
			b.WriteString(s)
		}
		return true
	})

	t := r.Time
	if t.IsZero() {
		t = h.core.clock()
	}

	h.core.write(Record{Time: t, Level: r.Level, Message: b.String()})
	return nil
}

func (h *handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := &handler{core: h.core, prefix: h.prefix}
	next.attrs = append([]string(nil), h.attrs...)
	for _, a := range attrs {
		next.attrs = append(next.attrs, formatAttr(h.prefix, a)...)
	}
	return next
}

func (h *handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &handler{core: h.core, attrs: h.attrs, prefix: h.prefix + name + "."}
}

// formatAttr renders one attribute as key=value pairs, flattening groups into dotted keys.
func formatAttr(prefix string, a slog.Attr) []string {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return nil
	}

	if a.Value.Kind() == slog.KindGroup {
		groupPrefix := prefix
		if a.Key != "" {
			groupPrefix += a.Key + "."
		}
		var out []string
		for _, ga := range a.Value.Group() {
			out = append(out, formatAttr(groupPrefix, ga)...)
		}
		return out
	}

	value := a.Value.String()
	if err, ok := a.Value.Any().(error); ok {
		value = err.Error()
	}
	if strings.ContainsAny(value, " \t") {
		value = fmt.Sprintf("%q", value)
	}

	return []string{prefix + a.Key + "=" + value}
}
