package stdio

import (
	"io"
	"log/slog"
)

// Option customizes a Handler.
type Option func(*Handler)

// WithIO replaces the input and output streams. A nil argument keeps the
// corresponding default.
func WithIO(r io.Reader, w io.Writer) Option {
	return func(h *Handler) {
		if r != nil {
			h.r = r
		}
		if w != nil {
			h.w = w
		}
	}
}

// WithLogger sets the diagnostic logger. It is also handed to the engine.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.l = l
		}
	}
}

// WithUserProvider overrides how the peer's user ID is resolved.
func WithUserProvider(up UserProvider) Option {
	return func(h *Handler) {
		if up != nil {
			h.userProvider = up
		}
	}
}

// WithUserID pins the peer's user ID. An empty id keeps the current provider.
func WithUserID(id string) Option {
	return func(h *Handler) {
		if id != "" {
			h.userProvider = StaticUserProvider(id)
		}
	}
}
