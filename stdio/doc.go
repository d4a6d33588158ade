// Package stdio implements a single-connection MCP transport over
// stdin/stdout. It is intended for servers launched as subprocesses by a host
// application that pipes newline-delimited JSON-RPC to them.
//
// Characteristics
//
//	Connection model : 1 process <-> 1 client
//	Auth             : OS user (lightweight implicit principal)
//	Sessions         : Ephemeral; exactly one, created by initialize
//	Transport        : Line oriented JSON-RPC, one message per line
//	Scheduling       : One request at a time, in arrival order
//
// Protocol output goes only to the writer; diagnostics go to the configured
// logger, which must not share the writer.
//
// Options allow supplying alternate io.Reader / io.Writer or a custom logger.
//
// Example:
//
//	srv := echo.New()
//	h := stdio.NewHandler(srv, stdio.WithLogger(logger))
//	if err := h.Serve(ctx); err != nil {
//	    logger.Error("serve failed", slog.String("err", err.Error()))
//	    os.Exit(1)
//	}
package stdio
