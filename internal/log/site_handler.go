package log

import (
	"context"
	"io"
	"log/slog"
)

// MaxURLAttrLen is the length at which URL-like attribute values are
// truncated. Long enough to identify the page, short enough to keep
// one record on one terminal line.
const MaxURLAttrLen = 200

// SiteKey is the attribute key carrying the site name.
const SiteKey = "site"

// urlKeys contains attribute keys whose values are treated as URLs
// and truncated when oversized.
var urlKeys = map[string]bool{
	"url":  true,
	"seed": true,
	"link": true,
}

// SiteHandler wraps an slog.Handler to tame crawl log output. It
// truncates oversized URL attributes before passing records to the
// underlying handler.
//
// Design decision: We use a handler wrapper rather than a custom
// logger because:
//  1. It integrates seamlessly with standard slog APIs
//  2. It works with any underlying handler (text, JSON, etc.)
//  3. Loggers derived with With() keep the behavior for free
type SiteHandler struct {
	// handler is the underlying slog handler that receives records.
	handler slog.Handler
}

// NewSiteHandler creates a SiteHandler wrapping the given handler.
// If handler is nil, the returned SiteHandler uses slog.Default().Handler().
func NewSiteHandler(handler slog.Handler) *SiteHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &SiteHandler{handler: handler}
}

// Enabled reports whether the handler handles records at the given
// level. It delegates to the underlying handler.
func (h *SiteHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle truncates the record's URL attributes and passes it on.
func (h *SiteHandler) Handle(ctx context.Context, r slog.Record) error {
	trimmed := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)

	r.Attrs(func(a slog.Attr) bool {
		trimmed.AddAttrs(h.trimAttr(a))
		return true
	})

	return h.handler.Handle(ctx, trimmed)
}

// WithAttrs returns a new handler with the given attributes added.
// URL attributes are truncated before being added.
func (h *SiteHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	trimmedAttrs := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		trimmedAttrs[i] = h.trimAttr(a)
	}
	return &SiteHandler{handler: h.handler.WithAttrs(trimmedAttrs)}
}

// WithGroup returns a new handler with the given group name.
func (h *SiteHandler) WithGroup(name string) slog.Handler {
	return &SiteHandler{handler: h.handler.WithGroup(name)}
}

// trimAttr truncates a single attribute, recursively handling groups.
func (h *SiteHandler) trimAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		trimmedAttrs := make([]slog.Attr, len(attrs))
		for i, groupAttr := range attrs {
			trimmedAttrs[i] = h.trimAttr(groupAttr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(trimmedAttrs...)}
	}

	if urlKeys[a.Key] && a.Value.Kind() == slog.KindString {
		if v := a.Value.String(); len(v) > MaxURLAttrLen {
			return slog.String(a.Key, v[:MaxURLAttrLen]+"...")
		}
	}

	return a
}

// WithSite returns a logger that tags every record with the site name.
// Use one per site crawl so concurrent crawls stay distinguishable in
// shared output.
func WithSite(logger *slog.Logger, site string) *slog.Logger {
	return logger.With(SiteKey, site)
}

// NewLogger creates a new slog.Logger for crawl output.
//
// Parameters:
//   - w: The io.Writer to write log output to (typically os.Stderr)
//   - verbose: If true, sets log level to Debug; otherwise Info
//
// Returns a *slog.Logger that can be used with slog.SetDefault() or
// passed to components that accept *slog.Logger.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	textHandler := slog.NewTextHandler(w, opts)
	return slog.New(NewSiteHandler(textHandler))
}

// NewJSONLogger creates a new slog.Logger that outputs JSON format.
// Useful for structured log aggregation.
func NewJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	jsonHandler := slog.NewJSONHandler(w, opts)
	return slog.New(NewSiteHandler(jsonHandler))
}
