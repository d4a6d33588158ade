package stdio

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/ggoodman/mcp-hello-world/internal/engine"
	"github.com/ggoodman/mcp-hello-world/internal/jsonrpc"
	"github.com/ggoodman/mcp-hello-world/internal/logctx"
	"github.com/ggoodman/mcp-hello-world/mcp"
	"github.com/ggoodman/mcp-hello-world/mcpservice"
)

var (
	// ErrSessionNotInitialized is reported for requests that arrive before a
	// successful initialize.
	ErrSessionNotInitialized = errors.New("session not initialized")
	// ErrSessionAlreadyInitialized is reported for a repeated initialize.
	ErrSessionAlreadyInitialized = errors.New("session already initialized")
)

// Handler is a single-connection stdio transport that reads JSON-RPC messages
// from an io.Reader and writes responses to an io.Writer. By default, it uses
// os.Stdin and os.Stdout. It identifies the peer using a UserProvider, which
// defaults to the current OS user.
//
// The handler is transport-only; it delegates all MCP semantics to the
// provided mcpservice.ServerCapabilities.
type Handler struct {
	srv          mcpservice.ServerCapabilities
	r            io.Reader
	w            io.Writer
	l            *slog.Logger
	userProvider UserProvider

	wmu sync.Mutex

	// Owned by the Serve loop.
	eng  *engine.Engine
	sess *engine.SessionHandle
}

// NewHandler constructs a stdio Handler with defaults and applies options.
func NewHandler(srv mcpservice.ServerCapabilities, opts ...Option) *Handler {
	h := &Handler{
		srv:          srv,
		r:            os.Stdin,
		w:            os.Stdout,
		l:            slog.Default(),
		userProvider: OSUserProvider{},
	}
	for _, opt := range opts {
		opt(h)
	}
	h.eng = engine.NewEngine(srv, engine.WithLogger(h.l))
	return h
}

// Serve runs the stdio event loop until EOF on the reader or the context is
// canceled. It returns nil on EOF and ctx.Err() on cancellation. Messages are
// handled one at a time in arrival order and each request receives exactly
// one response line. Serve must be called at most once per Handler.
//
// The reader is drained by a separate goroutine that is not interrupted by
// cancellation: a Read blocked on input keeps that goroutine alive until the
// reader returns. Callers embedding a Handler should close the reader after
// Serve returns.
func (h *Handler) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan []byte)
	readErr := make(chan error, 1)
	go h.readLoop(ctx, lines, readErr)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-readErr:
			if err != nil {
				h.l.ErrorContext(ctx, "stdio.read.fail", slog.String("err", err.Error()))
				return fmt.Errorf("read input: %w", err)
			}
			h.l.InfoContext(ctx, "stdio.eof")
			return nil
		case line := <-lines:
			if err := h.handleLine(ctx, line); err != nil {
				return err
			}
		}
	}
}

// readLoop splits the input into lines of any length. A nil error on readErr
// means the input reached EOF.
func (h *Handler) readLoop(ctx context.Context, lines chan<- []byte, readErr chan<- error) {
	br := bufio.NewReader(h.r)
	for {
		line, err := br.ReadBytes('\n')
		if len(line) > 0 {
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = nil
			}
			readErr <- err
			return
		}
	}
}

func (h *Handler) handleLine(ctx context.Context, line []byte) error {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return nil
	}

	if !json.Valid(line) {
		h.l.InfoContext(ctx, "stdio.parse.fail", slog.Int("bytes", len(line)))
		return h.write(ctx, jsonrpc.NewErrorResponse(nil, jsonrpc.ErrorCodeParseError, "parse error", nil))
	}

	var msg jsonrpc.AnyMessage
	if err := json.Unmarshal(line, &msg); err != nil {
		h.l.InfoContext(ctx, "stdio.message.invalid", slog.String("err", err.Error()))
		return h.write(ctx, jsonrpc.NewErrorResponse(salvageID(line), jsonrpc.ErrorCodeInvalidRequest, "invalid request", nil))
	}

	switch msg.Type() {
	case "request":
		return h.handleRequest(ctx, msg.AsRequest())
	case "notification":
		note := msg.AsRequest()
		ctx = logctx.WithRPCMessage(ctx, &logctx.RPCMessage{Method: note.Method, Type: "notification"})
		if err := h.eng.HandleNotification(ctx, h.sess, note); err != nil {
			h.l.InfoContext(ctx, "stdio.notification.fail", slog.String("err", err.Error()))
		}
		return nil
	default:
		// The server never issues requests, so any response is unsolicited.
		res := msg.AsResponse()
		h.l.InfoContext(ctx, "stdio.response.dropped", slog.String("id", res.ID.String()))
		return nil
	}
}

func (h *Handler) handleRequest(ctx context.Context, req *jsonrpc.Request) error {
	ctx = logctx.WithRPCMessage(ctx, &logctx.RPCMessage{Method: req.Method, ID: req.ID.String(), Type: "request"})

	var res *jsonrpc.Response
	switch {
	case req.Method == string(mcp.InitializeMethod):
		res = h.initialize(ctx, req)

	case h.sess == nil && req.Method != string(mcp.PingMethod):
		h.l.InfoContext(ctx, "stdio.request.rejected", slog.String("err", ErrSessionNotInitialized.Error()))
		res = jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidRequest, ErrSessionNotInitialized.Error(), nil)

	default:
		var err error
		res, err = h.eng.HandleRequest(ctx, h.sess, req)
		if err != nil {
			h.l.ErrorContext(ctx, "stdio.request.fail", slog.String("err", err.Error()))
			res = jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInternalError, "internal error", nil)
		}
	}

	return h.write(ctx, res)
}

func (h *Handler) initialize(ctx context.Context, req *jsonrpc.Request) *jsonrpc.Response {
	if h.sess != nil {
		h.l.InfoContext(ctx, "stdio.initialize.rejected", slog.String("err", ErrSessionAlreadyInitialized.Error()))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidRequest, ErrSessionAlreadyInitialized.Error(), nil)
	}

	var params mcp.InitializeRequest
	if err := json.Unmarshal(req.Params, &params); err != nil {
		h.l.InfoContext(ctx, "stdio.initialize.invalid", slog.String("err", err.Error()))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidParams, "invalid params", nil)
	}

	userID, err := h.userProvider.CurrentUserID()
	if err != nil {
		h.l.ErrorContext(ctx, "stdio.initialize.user.fail", slog.String("err", err.Error()))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInternalError, "internal error", nil)
	}

	sess, initRes, err := h.eng.InitializeSession(ctx, userID, &params)
	if err != nil {
		h.l.ErrorContext(ctx, "stdio.initialize.fail", slog.String("err", err.Error()))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInternalError, "internal error", nil)
	}

	res, err := jsonrpc.NewResultResponse(req.ID, initRes)
	if err != nil {
		h.l.ErrorContext(ctx, "stdio.initialize.encode.fail", slog.String("err", err.Error()))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInternalError, "internal error", nil)
	}
	h.sess = sess
	return res
}

// write emits res as a single line. Encoding keeps HTML characters intact so
// tool output is delivered byte-for-byte.
func (h *Handler) write(ctx context.Context, res *jsonrpc.Response) error {
	b, err := jsonrpc.Marshal(res)
	if err != nil {
		h.l.ErrorContext(ctx, "stdio.write.encode.fail", slog.String("err", err.Error()))
		return fmt.Errorf("encode response: %w", err)
	}

	h.wmu.Lock()
	defer h.wmu.Unlock()
	if _, err := h.w.Write(append(b, '\n')); err != nil {
		h.l.ErrorContext(ctx, "stdio.write.fail", slog.String("err", err.Error()))
		return fmt.Errorf("write response: %w", err)
	}
	return nil
}

// salvageID recovers the id of a structurally invalid message so the error
// response can still be correlated. It returns nil when no usable id exists.
func salvageID(line []byte) *jsonrpc.RequestID {
	var probe struct {
		ID *jsonrpc.RequestID `json:"id"`
	}
	if err := json.Unmarshal(line, &probe); err != nil {
		return nil
	}
	return probe.ID
}
