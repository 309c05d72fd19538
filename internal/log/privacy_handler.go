package log

import (
	"context"
	"io"
	"log/slog"
	"regexp"
)

// MaskValue replaces onion hostnames in log output.
const MaskValue = "***.onion"

// onionPattern matches v3 (56 base32 characters) and retired v2
// (16 base32 characters) onion hostnames inside attribute values.
var onionPattern = regexp.MustCompile(`\b(?:[a-z2-7]{56}|[a-z2-7]{16})\.onion\b`)

// PrivacyHandler wraps an slog.Handler and masks onion addresses in
// string attribute values before passing records on.
//
// It is a handler wrapper rather than a custom logger so it composes
// with any underlying handler (text, JSON) and with the standard slog
// APIs unchanged.
type PrivacyHandler struct {
	handler slog.Handler
}

// NewPrivacyHandler creates a PrivacyHandler wrapping the given handler.
// If handler is nil, slog.Default's handler is used.
func NewPrivacyHandler(handler slog.Handler) *PrivacyHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &PrivacyHandler{handler: handler}
}

// Enabled delegates to the underlying handler.
func (h *PrivacyHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle masks the record's message and attributes, then delegates.
func (h *PrivacyHandler) Handle(ctx context.Context, r slog.Record) error {
	masked := slog.NewRecord(r.Time, r.Level, maskString(r.Message), r.PC)
	r.Attrs(func(a slog.Attr) bool {
		masked.AddAttrs(maskAttr(a))
		return true
	})
	return h.handler.Handle(ctx, masked)
}

// WithAttrs returns a new handler with the given attributes added,
// masked first so pre-attached attributes get the same treatment.
func (h *PrivacyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	maskedAttrs := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		maskedAttrs[i] = maskAttr(a)
	}
	return &PrivacyHandler{handler: h.handler.WithAttrs(maskedAttrs)}
}

// WithGroup returns a new handler with the given group name.
func (h *PrivacyHandler) WithGroup(name string) slog.Handler {
	return &PrivacyHandler{handler: h.handler.WithGroup(name)}
}

// maskAttr masks a single attribute, recursing into groups.
func maskAttr(a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindGroup:
		attrs := a.Value.Group()
		maskedAttrs := make([]slog.Attr, len(attrs))
		for i, groupAttr := range attrs {
			maskedAttrs[i] = maskAttr(groupAttr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(maskedAttrs...)}
	case slog.KindString:
		return slog.String(a.Key, maskString(a.Value.String()))
	default:
		return a
	}
}

// maskString replaces every onion hostname in s with MaskValue.
func maskString(s string) string {
	return onionPattern.ReplaceAllString(s, MaskValue)
}

// NewLogger creates an slog.Logger writing text output to w with onion
// masking applied. Verbose switches the level from Warn to Debug, the
// same split the rest of the CLI uses for -v.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	textHandler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(NewPrivacyHandler(textHandler))
}
