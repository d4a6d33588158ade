package mcpservice

import (
	"context"

	"github.com/ggoodman/mcp-hello-world/mcp"
	"github.com/ggoodman/mcp-hello-world/sessions"
)

// ServerOption configures a concrete ServerCapabilities implementation.
type ServerOption func(*server)

type server struct {
	info            *mcp.ImplementationInfo
	protocolVersion string
	instructions    *string

	toolsCap   ToolsCapability
	loggingCap LoggingCapability
}

// NewServer builds a ServerCapabilities using functional options. Every value
// is static and shared by all sessions.
func NewServer(opts ...ServerOption) ServerCapabilities {
	s := &server{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WithServerInfo sets the server info returned during initialize.
func WithServerInfo(info mcp.ImplementationInfo) ServerOption {
	return func(s *server) { s.info = &info }
}

// WithPreferredProtocolVersion pins the protocol version the server answers
// with regardless of what the client requests.
func WithPreferredProtocolVersion(version string) ServerOption {
	return func(s *server) { s.protocolVersion = version }
}

// WithInstructions sets human-readable instructions returned during initialize.
// An empty string leaves instructions unset.
func WithInstructions(instr string) ServerOption {
	return func(s *server) {
		if instr == "" {
			s.instructions = nil
			return
		}
		s.instructions = &instr
	}
}

// WithToolsCapability wires a ToolsCapability used for all sessions.
func WithToolsCapability(cap ToolsCapability) ServerOption {
	return func(s *server) { s.toolsCap = cap }
}

// WithLoggingCapability wires a LoggingCapability used for all sessions.
func WithLoggingCapability(cap LoggingCapability) ServerOption {
	return func(s *server) { s.loggingCap = cap }
}

// GetServerInfo implements ServerCapabilities.
func (s *server) GetServerInfo(ctx context.Context, session sessions.Session) (mcp.ImplementationInfo, error) {
	if s.info != nil {
		return *s.info, nil
	}
	// Zero value if not configured; the engine may still proceed.
	return mcp.ImplementationInfo{}, nil
}

// GetPreferredProtocolVersion implements ServerCapabilities.
func (s *server) GetPreferredProtocolVersion(ctx context.Context) (string, bool, error) {
	if s.protocolVersion != "" {
		return s.protocolVersion, true, nil
	}
	return "", false, nil
}

// GetInstructions implements ServerCapabilities.
func (s *server) GetInstructions(ctx context.Context, session sessions.Session) (string, bool, error) {
	if s.instructions != nil {
		return *s.instructions, true, nil
	}
	return "", false, nil
}

// GetToolsCapability implements ServerCapabilities.
func (s *server) GetToolsCapability(ctx context.Context, session sessions.Session) (ToolsCapability, bool, error) {
	if s.toolsCap != nil {
		return s.toolsCap, true, nil
	}
	return nil, false, nil
}

// GetLoggingCapability implements ServerCapabilities.
func (s *server) GetLoggingCapability(ctx context.Context, session sessions.Session) (LoggingCapability, bool, error) {
	if s.loggingCap != nil {
		return s.loggingCap, true, nil
	}
	return nil, false, nil
}
