package lsp

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
)

// Message is a JSON-RPC 2.0 request, response or notification. ID is kept
// raw because clients may send numbers or strings.
type Message struct {
	Jsonrpc string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  any             `json:"result,omitempty"`
	Error   *RpcError       `json:"error,omitempty"`
}

// IsNotification reports whether the message expects no response.
func (m *Message) IsNotification() bool {
	return len(m.ID) == 0 || string(m.ID) == "null"
}

// RpcError represents a JSON-RPC error
type RpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *RpcError) Error() string {
	return fmt.Sprintf("jsonrpc error [%d]: %s", e.Code, e.Message)
}

// JSON-RPC error codes
const (
	ParseError           = -32700
	InvalidRequest       = -32600
	MethodNotFound       = -32601
	InvalidParams        = -32602
	InternalError        = -32603
	ServerNotInitialized = -32002
)

// response is written for requests. Result is always present on success,
// null included.
type response struct {
	Jsonrpc string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result"`
}

type errorResponse struct {
	Jsonrpc string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Error   *RpcError       `json:"error"`
}

type notification struct {
	Jsonrpc string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

// MaxFrameSize is the largest message body Read accepts.
const MaxFrameSize = 64 << 20

// Conn reads and writes Content-Length framed messages. Writes are
// serialised; reads must come from a single goroutine.
type Conn struct {
	r  *bufio.Reader
	w  io.Writer
	mu sync.Mutex
}

// NewConn wraps a reader and writer, typically stdin and stdout.
func NewConn(r io.Reader, w io.Writer) *Conn {
	return &Conn{r: bufio.NewReader(r), w: w}
}

// Read reads a single message (header + content). A frame whose content
// is not valid JSON returns a *RpcError with code ParseError; framing
// problems return other errors, io.EOF included.
func (c *Conn) Read() (*Message, error) {
	headers := make(map[string]string)
	for {
		line, err := c.r.ReadString('\n')
		if err != nil {
			if err == io.EOF && line == "" && len(headers) == 0 {
				return nil, io.EOF
			}
			return nil, err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			if len(headers) == 0 {
				continue
			}
			break
		}

		parts := strings.SplitN(line, ":", 2)
		if len(parts) == 2 {
			headers[strings.ToLower(strings.TrimSpace(parts[0]))] = strings.TrimSpace(parts[1])
		}
	}

	contentLengthStr, ok := headers["content-length"]
	if !ok {
		return nil, fmt.Errorf("missing Content-Length header")
	}
	contentLength, err := strconv.Atoi(contentLengthStr)
	if err != nil || contentLength < 0 {
		return nil, fmt.Errorf("invalid Content-Length %q", contentLengthStr)
	}
	if contentLength > MaxFrameSize {
		return nil, fmt.Errorf("Content-Length %d exceeds the %d byte limit", contentLength, MaxFrameSize)
	}

	content := make([]byte, contentLength)
	if _, err := io.ReadFull(c.r, content); err != nil {
		return nil, fmt.Errorf("failed to read content: %w", err)
	}

	var msg Message
	if err := json.Unmarshal(content, &msg); err != nil {
		return nil, &RpcError{Code: ParseError, Message: err.Error()}
	}
	return &msg, nil
}

// Reply writes a successful response.
func (c *Conn) Reply(id json.RawMessage, result any) error {
	return c.write(response{Jsonrpc: "2.0", ID: id, Result: result})
}

// ReplyError writes an error response. A nil id is sent as null.
func (c *Conn) ReplyError(id json.RawMessage, rpcErr *RpcError) error {
	if len(id) == 0 {
		id = json.RawMessage("null")
	}
	return c.write(errorResponse{Jsonrpc: "2.0", ID: id, Error: rpcErr})
}

// Notify writes a notification.
func (c *Conn) Notify(method string, params any) error {
	return c.write(notification{Jsonrpc: "2.0", Method: method, Params: params})
}

func (c *Conn) write(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	header := fmt.Sprintf("Content-Length: %d\r\n\r\n", len(data))

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := io.WriteString(c.w, header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if _, err := c.w.Write(data); err != nil {
		return fmt.Errorf("failed to write content: %w", err)
	}
	return nil
}
