package echo

import "log/slog"

// Option configures the echo server.
type Option func(*config)

type config struct {
	logger       *slog.Logger
	levelVar     *slog.LevelVar
	name         string
	version      string
	instructions string
}

func newConfig(opts []Option) *config {
	cfg := &config{
		logger:  slog.Default(),
		name:    DefaultServerName,
		version: DefaultServerVersion,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WithLogger sets the logger that receives the tool's diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithServerInfo overrides the name and version reported during initialize.
// Empty values keep the defaults.
func WithServerInfo(name, version string) Option {
	return func(c *config) {
		if name != "" {
			c.name = name
		}
		if version != "" {
			c.version = version
		}
	}
}

// WithInstructions sets the instructions returned during initialize.
func WithInstructions(instr string) Option {
	return func(c *config) { c.instructions = instr }
}

// WithLevelVar enables logging/setLevel, adjusting lv.
func WithLevelVar(lv *slog.LevelVar) Option {
	return func(c *config) { c.levelVar = lv }
}
