// Package lsp serves the workspace session over the Language Server
// Protocol on a Content-Length framed JSON-RPC stream.
package lsp

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"log/slog"
	"sync"

	"reqls/internal/config"
	"reqls/internal/diagnostics"
	"reqls/internal/errors"
	"reqls/internal/paths"
	"reqls/internal/slogutil"
	"reqls/internal/version"
	"reqls/internal/workspace"
)

// ErrExitWithoutShutdown is returned by Run when the client sent exit
// before shutdown.
var ErrExitWithoutShutdown = stderrors.New("exit received before shutdown")

// Options configures a Server.
type Options struct {
	Logger *slog.Logger
	// LoadConfig loads the workspace configuration. Defaults to
	// config.LoadConfig.
	LoadConfig func(root string) (*config.Config, error)
}

type state int

const (
	stateNew state = iota
	stateRunning
	stateShutdown
)

// Server handles one client connection.
type Server struct {
	conn   *Conn
	logger *slog.Logger
	opts   Options

	mu      sync.Mutex
	state   state
	session *workspace.Session
	loads   sync.WaitGroup
	cancel  context.CancelFunc
}

// NewServer creates a server reading requests from r and writing to w.
func NewServer(r io.Reader, w io.Writer, opts Options) *Server {
	if opts.LoadConfig == nil {
		opts.LoadConfig = config.LoadConfig
	}
	return &Server{
		conn:   NewConn(r, w),
		logger: slogutil.OrDiscard(opts.Logger),
		opts:   opts,
	}
}

// Session returns the workspace session created by initialize, or nil.
func (s *Server) Session() *workspace.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// Run processes messages until exit, end of input or ctx is done. It
// returns nil after a clean shutdown and exit.
func (s *Server) Run(ctx context.Context) error {
	ctx, s.cancel = context.WithCancel(ctx)
	// cancel runs first so a pending workspace load stops early
	defer s.loads.Wait()
	defer s.cancel()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		msg, err := s.conn.Read()
		if err != nil {
			var rpcErr *RpcError
			if stderrors.As(err, &rpcErr) {
				s.logger.Warn("Malformed message", "error", rpcErr.Message)
				_ = s.conn.ReplyError(nil, rpcErr)
				continue
			}
			if stderrors.Is(err, io.EOF) {
				s.logger.Info("Client closed the connection")
				return nil
			}
			return errors.New(errors.ProtocolError, "cannot read message", err)
		}

		if msg.Method == "exit" {
			if s.currentState() != stateShutdown {
				return ErrExitWithoutShutdown
			}
			return nil
		}
		if msg.Method == "" {
			// responses to server requests are not expected
			continue
		}
		s.dispatch(ctx, msg)
	}
}

func (s *Server) currentState() state {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Server) dispatch(ctx context.Context, msg *Message) {
	notification := msg.IsNotification()
	st := s.currentState()

	switch {
	case st == stateNew && msg.Method != "initialize":
		if !notification {
			s.replyError(msg, ServerNotInitialized, "server not initialized")
		}
		return
	case st == stateShutdown:
		if !notification {
			s.replyError(msg, InvalidRequest, "server is shutting down")
		}
		return
	}

	if notification {
		h, ok := notificationHandlers[msg.Method]
		if !ok {
			s.logger.Debug("Ignoring notification", "method", msg.Method)
			return
		}
		if err := h(s, ctx, msg.Params); err != nil {
			s.logger.Warn("Notification failed", "method", msg.Method, "error", err.Error())
		}
		return
	}

	h, ok := requestHandlers[msg.Method]
	if !ok {
		s.replyError(msg, MethodNotFound, "method not found: "+msg.Method)
		return
	}
	result, rpcErr := h(s, ctx, msg.Params)
	if rpcErr != nil {
		if err := s.conn.ReplyError(msg.ID, rpcErr); err != nil {
			s.logger.Warn("Reply failed", "method", msg.Method, "error", err.Error())
		}
		return
	}
	if err := s.conn.Reply(msg.ID, result); err != nil {
		s.logger.Warn("Reply failed", "method", msg.Method, "error", err.Error())
	}
}

func (s *Server) replyError(msg *Message, code int, message string) {
	if err := s.conn.ReplyError(msg.ID, &RpcError{Code: code, Message: message}); err != nil {
		s.logger.Warn("Reply failed", "method", msg.Method, "error", err.Error())
	}
}

// Publish sends textDocument/publishDiagnostics for one file.
func (s *Server) Publish(_ context.Context, pub diagnostics.Publication) error {
	return s.conn.Notify("textDocument/publishDiagnostics", toProtocol(pub))
}

func decode(params json.RawMessage, v any) *RpcError {
	if len(params) == 0 {
		return &RpcError{Code: InvalidParams, Message: "missing params"}
	}
	if err := json.Unmarshal(params, v); err != nil {
		return &RpcError{Code: InvalidParams, Message: err.Error()}
	}
	return nil
}

// rootFrom picks the workspace root from initialize params: the first
// workspace folder, then rootUri, then rootPath.
func rootFrom(p initializeParams) (string, error) {
	if len(p.WorkspaceFolders) > 0 {
		return paths.PathFromURI(p.WorkspaceFolders[0].URI)
	}
	if p.RootURI != "" {
		return paths.PathFromURI(p.RootURI)
	}
	if p.RootPath != "" {
		return p.RootPath, nil
	}
	return "", stderrors.New("no workspace root")
}

func (s *Server) capabilities() initializeResult {
	return initializeResult{
		Capabilities: serverCapabilities{
			TextDocumentSync: textDocumentSyncOptions{
				OpenClose: true,
				Change:    syncFull,
				Save:      saveOptions{IncludeText: true},
			},
			DefinitionProvider:      true,
			WorkspaceSymbolProvider: true,
			HoverProvider:           true,
		},
		ServerInfo: serverInfo{Name: version.Name, Version: version.Version},
	}
}
