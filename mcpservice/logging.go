package mcpservice

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ggoodman/mcp-hello-world/mcp"
	"github.com/ggoodman/mcp-hello-world/sessions"
)

// ErrInvalidLoggingLevel indicates the provided level is not one of the
// protocol-defined LoggingLevel values.
var ErrInvalidLoggingLevel = errors.New("invalid logging level")

// NewSlogLevelVarLogging returns a LoggingCapability that maps MCP LoggingLevel
// to a provided slog.LevelVar. Handlers built from the same LevelVar change
// verbosity process-wide.
func NewSlogLevelVarLogging(lv *slog.LevelVar) LoggingCapability {
	return &slogLevelVarLogging{lv: lv}
}

type slogLevelVarLogging struct{ lv *slog.LevelVar }

func (l *slogLevelVarLogging) SetLevel(ctx context.Context, _ sessions.Session, level mcp.LoggingLevel) error {
	slogLevel, ok := SlogLevel(level)
	if !ok {
		return ErrInvalidLoggingLevel
	}
	if l.lv != nil {
		l.lv.Set(slogLevel)
	}
	return nil
}

// SlogLevel maps an MCP logging level onto the closest slog level. Notice
// collapses to info and everything above error collapses to error.
func SlogLevel(level mcp.LoggingLevel) (slog.Level, bool) {
	switch level {
	case mcp.LoggingLevelDebug:
		return slog.LevelDebug, true
	case mcp.LoggingLevelInfo, mcp.LoggingLevelNotice:
		return slog.LevelInfo, true
	case mcp.LoggingLevelWarning:
		return slog.LevelWarn, true
	case mcp.LoggingLevelError, mcp.LoggingLevelCritical, mcp.LoggingLevelAlert, mcp.LoggingLevelEmergency:
		return slog.LevelError, true
	default:
		return 0, false
	}
}
