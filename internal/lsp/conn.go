package lsp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/streamhaus/flink-sql-lsp/pkg/protocol"
	"go.uber.org/zap"
)

// JSON-RPC 2.0 error codes.
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternalError  = -32603
)

// message is a JSON-RPC 2.0 envelope. A request carries ID and Method, a
// notification only Method, and a response ID plus Result or Error.
type message struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *responseError  `json:"error,omitempty"`
}

func (m *message) isResponse() bool {
	return m.Method == "" && len(m.ID) > 0
}

// responseError is the error member of a JSON-RPC response.
type responseError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *responseError) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// Conn is a single JSON-RPC connection with LSP Content-Length framing.
// Reads happen on one goroutine (the session loop); writes are serialized
// internally so handlers running on other goroutines can reply directly.
type Conn struct {
	in     *bufio.Reader
	out    *bufio.Writer
	logger *zap.Logger

	writeMu sync.Mutex

	// Server-to-client requests awaiting a response from the client.
	nextID  atomic.Int64
	mu      sync.Mutex
	pending map[int64]chan *message
}

// NewConn wraps a transport in a framed JSON-RPC connection.
func NewConn(r io.Reader, w io.Writer, logger *zap.Logger) *Conn {
	return &Conn{
		in:      bufio.NewReader(r),
		out:     bufio.NewWriter(w),
		logger:  logger.With(zap.String("component", "lsp-conn")),
		pending: make(map[int64]chan *message),
	}
}

// Read returns the next inbound request or notification. Responses to
// server-to-client calls are routed to their waiting callers and malformed
// payloads are answered or dropped, so callers only ever see dispatchable
// messages. Read is not safe for concurrent use.
func (c *Conn) Read() (*message, error) {
	for {
		payload, err := c.readPayload()
		if err != nil {
			return nil, err
		}

		var msg message
		if err := json.Unmarshal(payload, &msg); err != nil {
			c.logger.Warn("Discarding malformed message", zap.Error(err))
			if id := recoverID(payload); len(id) > 0 {
				if err := c.ReplyError(id, codeParseError, "parse error"); err != nil {
					return nil, err
				}
			}
			continue
		}

		if msg.isResponse() {
			c.deliver(&msg)
			continue
		}

		return &msg, nil
	}
}

// readPayload reads one Content-Length framed body.
func (c *Conn) readPayload() ([]byte, error) {
	contentLength := 0
	for {
		line, err := c.in.ReadString('\n')
		if err != nil {
			return nil, err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			break
		}
		if value, ok := strings.CutPrefix(strings.ToLower(line), "content-length:"); ok {
			length, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil {
				return nil, fmt.Errorf("invalid Content-Length header %q: %w", line, err)
			}
			contentLength = length
		}
	}

	if contentLength <= 0 {
		return nil, fmt.Errorf("missing Content-Length header")
	}

	payload := make([]byte, contentLength)
	if _, err := io.ReadFull(c.in, payload); err != nil {
		return nil, fmt.Errorf("failed to read message body: %w", err)
	}
	return payload, nil
}

// recoverID pulls the request id out of a payload that failed to decode as
// a full message, so a parse error can still be answered.
func recoverID(payload []byte) json.RawMessage {
	var probe struct {
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(payload, &probe); err != nil {
		return nil
	}
	return probe.ID
}

// Reply sends a successful response. A nil result encodes as JSON null,
// which is how requests with no meaningful payload are acknowledged.
func (c *Conn) Reply(id json.RawMessage, result any) error {
	return c.write(map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result":  result,
	})
}

// ReplyError sends an error response.
func (c *Conn) ReplyError(id json.RawMessage, code int, msg string) error {
	return c.write(map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"error": &responseError{
			Code:    code,
			Message: msg,
		},
	})
}

// Notify sends a notification to the client.
func (c *Conn) Notify(method string, params any) error {
	return c.write(map[string]any{
		"jsonrpc": "2.0",
		"method":  method,
		"params":  params,
	})
}

// Call sends a server-to-client request and blocks until the client
// responds or ctx expires. The response is delivered by the session read
// loop, so Call must not be invoked from the goroutine running Read.
func (c *Conn) Call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	id := c.nextID.Add(1)
	ch := make(chan *message, 1)

	c.mu.Lock()
	c.pending[id] = ch
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	if err := c.write(map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  method,
		"params":  params,
	}); err != nil {
		return nil, err
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case resp := <-ch:
		if resp.Error != nil {
			return nil, resp.Error
		}
		return resp.Result, nil
	}
}

// deliver hands a client response to the Call waiting on its id.
func (c *Conn) deliver(msg *message) {
	id, err := strconv.ParseInt(string(msg.ID), 10, 64)
	if err != nil {
		c.logger.Warn("Response with unrecognized id", zap.ByteString("id", msg.ID))
		return
	}

	c.mu.Lock()
	ch, ok := c.pending[id]
	if ok {
		delete(c.pending, id)
	}
	c.mu.Unlock()

	if !ok {
		c.logger.Debug("Dropping response with no pending call", zap.Int64("id", id))
		return
	}
	ch <- msg
}

// Console forwards a message to the client's output channel via
// window/logMessage. Send failures are logged and swallowed so logging
// never disturbs request handling.
func (c *Conn) Console(level protocol.MessageType, msg string) {
	if err := c.Notify("window/logMessage", protocol.LogMessageParams{
		Type:    level,
		Message: msg,
	}); err != nil {
		c.logger.Warn("Failed to send console message", zap.Error(err))
	}
}

func (c *Conn) write(msg any) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if _, err := fmt.Fprintf(c.out, "Content-Length: %d\r\n\r\n", len(payload)); err != nil {
		return err
	}
	if _, err := c.out.Write(payload); err != nil {
		return err
	}
	return c.out.Flush()
}
