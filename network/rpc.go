package network

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"
)

// RPCClient is a JSON-RPC 1.0 client for bitcoin-family nodes. It handles
// request serialization, authentication, and response parsing; the
// blockchain methods in rpc_blockchain.go are built on top of Call.
type RPCClient struct {
	url    string
	user   string
	pass   string
	client *http.Client
	nextID atomic.Int64
}

// rpcRequest represents a JSON-RPC 1.0 request payload.
type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int64         `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

// rpcResponse represents a JSON-RPC 1.0 response payload.
type rpcResponse struct {
	ID     int64           `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// rpcError represents an error returned by the JSON-RPC server. It
// satisfies error so callers can recover the node's numeric code with
// errors.As and key behavior on it rather than on message text.
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// NewRPCClient creates a new JSON-RPC client. HTTP Basic Auth is used
// when cfg.User is non-empty; the transport keeps a small idle pool.
func NewRPCClient(cfg RPCConfig) *RPCClient {
	return &RPCClient{
		url:  cfg.URL,
		user: cfg.User,
		pass: cfg.Password,
		client: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				IdleConnTimeout:     90 * time.Second,
				MaxIdleConnsPerHost: 10,
			},
		},
	}
}

// Call invokes a JSON-RPC method on the node.
//
// If params is nil, an empty params array is sent. If result is nil, the
// response result is discarded. Call returns ErrConnectionFailed if the
// HTTP request fails and ErrInvalidResponse if the response cannot be
// decoded; RPC-level errors are returned with the server's message.
func (c *RPCClient) Call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	if params == nil {
		params = []interface{}{}
	}
	reqBody := rpcRequest{
		JSONRPC: "1.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("network: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("network: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.user != "" {
		req.SetBasicAuth(c.user, c.pass)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%w: HTTP %d: %s", ErrConnectionFailed, resp.StatusCode, string(respBody))
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return fmt.Errorf("%w: decode response: %w", ErrInvalidResponse, err)
	}

	if rpcResp.ID != reqBody.ID {
		return fmt.Errorf("%w: response ID mismatch: expected %d, got %d",
			ErrInvalidResponse, reqBody.ID, rpcResp.ID)
	}

	if rpcResp.Error != nil {
		return fmt.Errorf("network: %w", rpcResp.Error)
	}

	if result != nil && rpcResp.Result != nil {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return fmt.Errorf("%w: unmarshal result: %w", ErrInvalidResponse, err)
		}
	}

	return nil
}
