// Package rpcjson serves a line-delimited JSON-RPC 2.0 API over a unix socket.
package rpcjson

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/atvirokodosprendimai/catalog/internal/application"
	"github.com/atvirokodosprendimai/catalog/internal/domain"
)

const (
	codeParse          = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeBadRequest     = 40000
	codeUnauthorized   = 40100
	codeForbidden      = 40300
	codeNotFound       = 40400
	codeInternal       = 50000
)

type Server struct {
	service  *application.CatalogService
	logger   *zap.Logger
	listener net.Listener
	path     string

	mu     sync.Mutex
	conns  map[net.Conn]struct{}
	closed bool
	wg     sync.WaitGroup
}

type request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	ID      any             `json:"id"`
}

type response struct {
	JSONRPC string    `json:"jsonrpc"`
	Result  any       `json:"result,omitempty"`
	Error   *rpcError `json:"error,omitempty"`
	ID      any       `json:"id"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type handlerFunc func(ctx context.Context, params json.RawMessage) (any, error)

type method struct {
	admin  bool
	handle handlerFunc
}

func Start(path string, service *application.CatalogService, logger *zap.Logger) (*Server, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("rpc socket path is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	_ = os.Remove(path)
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, err
	}
	if err := os.Chmod(path, 0o600); err != nil {
		_ = ln.Close()
		_ = os.Remove(path)
		return nil, err
	}

	s := &Server{service: service, logger: logger, listener: ln, path: path, conns: map[net.Conn]struct{}{}}
	s.wg.Add(1)
	go s.serve()
	return s, nil
}

func (s *Server) serve() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			_ = conn.Close()
			return
		}
		s.conns[conn] = struct{}{}
		s.wg.Add(1)
		s.mu.Unlock()
		go s.handleConn(conn)
	}
}

// Close stops accepting, drops open connections and waits for their
// handlers to return.
func (s *Server) Close() error {
	err := s.listener.Close()
	s.mu.Lock()
	s.closed = true
	for conn := range s.conns {
		_ = conn.Close()
	}
	s.mu.Unlock()
	s.wg.Wait()
	_ = os.Remove(s.path)
	return err
}

func (s *Server) handleConn(conn net.Conn) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		_ = conn.Close()
	}()
	dec := json.NewDecoder(conn)
	enc := json.NewEncoder(conn)

	for {
		var req request
		if err := dec.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				return
			}
			_ = enc.Encode(response{JSONRPC: "2.0", Error: &rpcError{Code: codeParse, Message: "parse error"}, ID: nil})
			return
		}

		resp := s.dispatch(context.Background(), req)
		if err := enc.Encode(resp); err != nil {
			return
		}
	}
}

func (s *Server) methods() map[string]method {
	return map[string]method{
		"items.list":       {handle: s.listItems},
		"items.get":        {handle: s.getItem},
		"items.like":       {handle: s.likeItem},
		"items.download":   {handle: s.downloadItem},
		"items.view":       {handle: s.viewItem},
		"items.create":     {admin: true, handle: s.createItem},
		"items.delete":     {admin: true, handle: s.deleteItem},
		"categories.list":  {handle: s.listCategories},
		"reviews.list":     {handle: s.listReviews},
		"reviews.add":      {handle: s.addReview},
		"reviews.pending":  {admin: true, handle: s.pendingReviews},
		"reviews.approve":  {admin: true, handle: s.approveReview},
		"reviews.reject":   {admin: true, handle: s.rejectReview},
		"reviews.delete":   {admin: true, handle: s.deleteReview},
		"selection.get":    {handle: s.getSelection},
		"stats.get":        {handle: s.getStats},
		"admin.click":      {handle: s.adminClick},
		"admin.login":      {handle: s.adminLogin},
		"admin.logout":     {handle: s.adminLogout},
		"audit.list":       {admin: true, handle: s.listAudit},
		"snapshot.current": {admin: true, handle: s.currentSnapshot},
	}
}

func (s *Server) dispatch(ctx context.Context, req request) response {
	if req.JSONRPC != "2.0" || strings.TrimSpace(req.Method) == "" {
		return response{JSONRPC: "2.0", Error: &rpcError{Code: codeInvalidRequest, Message: "invalid request"}, ID: req.ID}
	}
	m, ok := s.methods()[req.Method]
	if !ok {
		return response{JSONRPC: "2.0", Error: &rpcError{Code: codeMethodNotFound, Message: "method not found"}, ID: req.ID}
	}
	if m.admin && !s.service.AdminEnabled() {
		return response{JSONRPC: "2.0", Error: &rpcError{Code: codeForbidden, Message: "forbidden"}, ID: req.ID}
	}
	out, err := m.handle(ctx, req.Params)
	if err != nil {
		return errorResponse(req.ID, err)
	}
	s.logger.Debug("rpc call", zap.String("method", req.Method))
	return response{JSONRPC: "2.0", Result: out, ID: req.ID}
}

// errInvalidParams marks a params payload that could not be decoded.
var errInvalidParams = errors.New("invalid params")

func (s *Server) listItems(_ context.Context, raw json.RawMessage) (any, error) {
	var p struct {
		Q        string `json:"q"`
		Category string `json:"category"`
		Limit    int    `json:"limit"`
	}
	if !decodeOptionalParams(raw, &p) {
		return nil, errInvalidParams
	}
	return s.service.ListItems(p.Q, p.Category, p.Limit), nil
}

type itemParams struct {
	ItemID         string `json:"item_id"`
	IdempotencyKey string `json:"idempotency_key"`
}

func (s *Server) getItem(_ context.Context, raw json.RawMessage) (any, error) {
	var p itemParams
	if !decodeParams(raw, &p) {
		return nil, errInvalidParams
	}
	return s.service.GetItem(p.ItemID)
}

func (s *Server) likeItem(ctx context.Context, raw json.RawMessage) (any, error) {
	var p itemParams
	if !decodeParams(raw, &p) {
		return nil, errInvalidParams
	}
	return s.service.Like(ctx, p.ItemID, p.IdempotencyKey)
}

func (s *Server) downloadItem(ctx context.Context, raw json.RawMessage) (any, error) {
	var p itemParams
	if !decodeParams(raw, &p) {
		return nil, errInvalidParams
	}
	return s.service.Download(ctx, p.ItemID, p.IdempotencyKey)
}

func (s *Server) viewItem(ctx context.Context, raw json.RawMessage) (any, error) {
	var p itemParams
	if !decodeParams(raw, &p) {
		return nil, errInvalidParams
	}
	return s.service.View(ctx, p.ItemID)
}

func (s *Server) createItem(ctx context.Context, raw json.RawMessage) (any, error) {
	var p application.ItemInput
	if !decodeParams(raw, &p) {
		return nil, errInvalidParams
	}
	return s.service.CreateItem(ctx, p)
}

func (s *Server) deleteItem(ctx context.Context, raw json.RawMessage) (any, error) {
	var p itemParams
	if !decodeParams(raw, &p) {
		return nil, errInvalidParams
	}
	if err := s.service.DeleteItem(ctx, p.ItemID); err != nil {
		return nil, err
	}
	return map[string]any{"ok": true}, nil
}

func (s *Server) listCategories(context.Context, json.RawMessage) (any, error) {
	return s.service.Categories(), nil
}

// Public review listings only carry approved reviews.
func (s *Server) listReviews(_ context.Context, raw json.RawMessage) (any, error) {
	var p itemParams
	if !decodeParams(raw, &p) {
		return nil, errInvalidParams
	}
	if _, err := s.service.GetItem(p.ItemID); err != nil {
		return nil, err
	}
	return s.service.Reviews(p.ItemID, domain.ReviewApproved), nil
}

func (s *Server) addReview(ctx context.Context, raw json.RawMessage) (any, error) {
	var p application.ReviewInput
	if !decodeParams(raw, &p) {
		return nil, errInvalidParams
	}
	review, accepted, err := s.service.SubmitReview(ctx, p)
	if err != nil {
		return nil, err
	}
	if !accepted {
		return map[string]any{"accepted": false}, nil
	}
	return map[string]any{"accepted": true, "review": review}, nil
}

func (s *Server) pendingReviews(_ context.Context, raw json.RawMessage) (any, error) {
	var p itemParams
	if !decodeOptionalParams(raw, &p) {
		return nil, errInvalidParams
	}
	return s.service.Reviews(p.ItemID, domain.ReviewPending), nil
}

type reviewParams struct {
	ReviewID string `json:"review_id"`
}

func (s *Server) approveReview(ctx context.Context, raw json.RawMessage) (any, error) {
	var p reviewParams
	if !decodeParams(raw, &p) {
		return nil, errInvalidParams
	}
	return s.service.ApproveReview(ctx, p.ReviewID)
}

func (s *Server) rejectReview(ctx context.Context, raw json.RawMessage) (any, error) {
	var p reviewParams
	if !decodeParams(raw, &p) {
		return nil, errInvalidParams
	}
	return s.service.RejectReview(ctx, p.ReviewID)
}

func (s *Server) deleteReview(ctx context.Context, raw json.RawMessage) (any, error) {
	var p reviewParams
	if !decodeParams(raw, &p) {
		return nil, errInvalidParams
	}
	if err := s.service.DeleteReview(ctx, p.ReviewID); err != nil {
		return nil, err
	}
	return map[string]any{"ok": true}, nil
}

func (s *Server) getSelection(context.Context, json.RawMessage) (any, error) {
	return s.service.GetState().Selection, nil
}

func (s *Server) getStats(context.Context, json.RawMessage) (any, error) {
	return s.service.GetAdminStats(), nil
}

func (s *Server) adminClick(ctx context.Context, _ json.RawMessage) (any, error) {
	prompt, err := s.service.RegisterAdminClick(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]any{"prompt": prompt, "clicks": s.service.GetState().Selection.AdminClicks}, nil
}

func (s *Server) adminLogin(ctx context.Context, raw json.RawMessage) (any, error) {
	var p struct {
		Password string `json:"password"`
	}
	if !decodeParams(raw, &p) {
		return nil, errInvalidParams
	}
	if err := s.service.SubmitAdminPassword(ctx, p.Password); err != nil {
		return nil, err
	}
	return map[string]any{"admin": true}, nil
}

func (s *Server) adminLogout(ctx context.Context, _ json.RawMessage) (any, error) {
	if err := s.service.ExitAdmin(ctx); err != nil {
		return nil, err
	}
	return map[string]any{"admin": false}, nil
}

func (s *Server) listAudit(ctx context.Context, raw json.RawMessage) (any, error) {
	var p struct {
		Limit int `json:"limit"`
	}
	if !decodeOptionalParams(raw, &p) {
		return nil, errInvalidParams
	}
	return s.service.ListAuditLogs(ctx, p.Limit)
}

func (s *Server) currentSnapshot(context.Context, json.RawMessage) (any, error) {
	return map[string]any{"kind": s.service.Kind(), "snapshot": s.service.GetState()}, nil
}

func decodeParams(raw json.RawMessage, out any) bool {
	if len(raw) == 0 {
		return false
	}
	return json.Unmarshal(raw, out) == nil
}

func decodeOptionalParams(raw json.RawMessage, out any) bool {
	if len(raw) == 0 || string(raw) == "null" {
		return true
	}
	return json.Unmarshal(raw, out) == nil
}

func errorResponse(id any, err error) response {
	code := codeBadRequest
	message := err.Error()
	switch {
	case errors.Is(err, errInvalidParams):
		code = codeInvalidParams
	case errors.Is(err, application.ErrNotFound):
		code = codeNotFound
	case errors.Is(err, application.ErrInvalidCredentials):
		code = codeUnauthorized
	case errors.Is(err, application.ErrAdminRequired):
		code = codeForbidden
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		code = codeInternal
		message = fmt.Sprintf("internal error: %v", err)
	}
	return response{JSONRPC: "2.0", Error: &rpcError{Code: code, Message: message}, ID: id}
}
