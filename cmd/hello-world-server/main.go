// Command hello-world-server is an MCP server exposing a single "echo" tool
// over stdio. Protocol messages use stdin/stdout; diagnostics go to stderr.
package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/ggoodman/mcp-hello-world/echo"
	"github.com/ggoodman/mcp-hello-world/internal/config"
	"github.com/ggoodman/mcp-hello-world/internal/logctx"
	"github.com/ggoodman/mcp-hello-world/stdio"
)

type cli struct {
	LogLevel  string           `help:"Diagnostic log level (${enum})." default:"${log_level}" enum:"debug,info,warn,error"`
	LogFormat string           `help:"Diagnostic log format (${enum})." default:"${log_format}" enum:"text,json"`
	Version   kong.VersionFlag `help:"Print version and exit."`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// exitCode carries a kong-requested exit (--help, --version) out of Parse.
type exitCode int

// run starts the server and blocks until the input closes or ctx is done.
// It returns the process exit status.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) (code int) {
	fatal := func(msg string, err error) int {
		slog.New(slog.NewTextHandler(stderr, nil)).ErrorContext(ctx, msg, slog.String("err", err.Error()))
		return 1
	}

	cfg, err := config.Load()
	if err != nil {
		return fatal("failed to start server", err)
	}

	var flags cli
	parser, err := kong.New(&flags,
		kong.Name(cfg.ServerName),
		kong.Description("MCP server exposing an echo tool over stdio."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(c int) { panic(exitCode(c)) }),
		kong.Vars{
			"log_level":  cfg.LogLevel,
			"log_format": cfg.LogFormat,
			"version":    cfg.ServerVersion,
		},
	)
	if err != nil {
		return fatal("failed to start server", err)
	}

	defer func() {
		if r := recover(); r != nil {
			c, ok := r.(exitCode)
			if !ok {
				panic(r)
			}
			code = int(c)
		}
	}()
	if _, err := parser.Parse(args); err != nil {
		return fatal("failed to start server", err)
	}

	level, err := config.ParseLogLevel(flags.LogLevel)
	if err != nil {
		return fatal("failed to start server", err)
	}
	var lv slog.LevelVar
	lv.Set(level)
	logger := newLogger(stderr, flags.LogFormat, &lv)

	srv := echo.New(
		echo.WithLogger(logger),
		echo.WithServerInfo(cfg.ServerName, cfg.ServerVersion),
		echo.WithInstructions(cfg.Instructions),
		echo.WithLevelVar(&lv),
	)
	h := stdio.NewHandler(srv,
		stdio.WithIO(stdin, stdout),
		stdio.WithLogger(logger),
		stdio.WithUserID(cfg.UserID),
	)

	logger.InfoContext(ctx, "server started and waiting for requests",
		slog.String("name", cfg.ServerName),
		slog.String("version", cfg.ServerVersion),
	)

	if err := h.Serve(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.InfoContext(ctx, "server stopped", slog.String("reason", "signal"))
			return 0
		}
		logger.ErrorContext(ctx, "server failed", slog.String("err", err.Error()))
		return 1
	}
	logger.InfoContext(ctx, "server stopped", slog.String("reason", "eof"))
	return 0
}

func newLogger(w io.Writer, format string, lv *slog.LevelVar) *slog.Logger {
	opts := &slog.HandlerOptions{Level: lv}
	var h slog.Handler
	switch format {
	case config.LogFormatJSON:
		h = slog.NewJSONHandler(w, opts)
	default:
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(logctx.NewHandler(h)).With(slog.String("component", "hello-world-server"))
}
