package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/atvirokodosprendimai/catalog/internal/application"
)

// remoteError is a failure reported by the catalog server. It unwraps to the
// matching application error so callers can use errors.Is regardless of the
// transport that carried it.
type remoteError struct {
	transport string
	code      int
	message   string
}

func (e *remoteError) Error() string {
	return fmt.Sprintf("%s error (%d): %s", e.transport, e.code, e.message)
}

func (e *remoteError) Unwrap() error {
	switch e.code {
	case 40400, http.StatusNotFound:
		return application.ErrNotFound
	case 40100, http.StatusUnauthorized:
		return application.ErrInvalidCredentials
	case 40300, http.StatusForbidden:
		return application.ErrAdminRequired
	}
	return nil
}

var rpcSeq atomic.Int64

// catalogRPC calls the server's JSON-RPC socket. Each call dials once and
// exchanges a single request.
type catalogRPC struct {
	socket string
	dialer net.Dialer
}

func newRPCClient(socket string) *catalogRPC {
	return &catalogRPC{socket: socket, dialer: net.Dialer{Timeout: 5 * time.Second}}
}

type rpcEnvelope struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method,omitempty"`
	Params  any             `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
	ID int64 `json:"id"`
}

func (c *catalogRPC) call(ctx context.Context, method string, params any, out any) error {
	conn, err := c.dialer.DialContext(ctx, "unix", c.socket)
	if err != nil {
		return fmt.Errorf("catalog server not reachable on %s: %w", c.socket, err)
	}
	defer func() { _ = conn.Close() }()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	id := rpcSeq.Add(1)
	if err := json.NewEncoder(conn).Encode(rpcEnvelope{JSONRPC: "2.0", Method: method, Params: params, ID: id}); err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}

	var resp rpcEnvelope
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return fmt.Errorf("%s: read response: %w", method, err)
	}
	if resp.Error != nil {
		return &remoteError{transport: "rpc", code: resp.Error.Code, message: resp.Error.Message}
	}
	if resp.ID != id {
		return fmt.Errorf("%s: response id %d does not match request %d", method, resp.ID, id)
	}
	if out == nil || len(resp.Result) == 0 {
		return nil
	}
	return json.Unmarshal(resp.Result, out)
}

// exitCodeFor maps a command failure to a process exit status.
func exitCodeFor(err error) int {
	switch {
	case errors.Is(err, application.ErrNotFound):
		return 3
	case errors.Is(err, application.ErrAdminRequired), errors.Is(err, application.ErrInvalidCredentials):
		return 4
	}
	return 1
}
