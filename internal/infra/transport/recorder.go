package transport

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/buger/jsonparser"
	"github.com/modelcontextprotocol/go-sdk/jsonrpc"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	methodInitialize = "initialize"
	methodToolsList  = "tools/list"
)

// resultRecorder keeps the raw result bytes of selected responses before
// the SDK decodes them. Decoding into maps loses JSON key order.
type resultRecorder struct {
	mu              sync.Mutex
	pending         map[any]string
	toolsList       json.RawMessage
	protocolVersion string
}

func newResultRecorder() *resultRecorder {
	return &resultRecorder{pending: make(map[any]string)}
}

func (r *resultRecorder) observeWrite(msg jsonrpc.Message) {
	req, ok := msg.(*jsonrpc.Request)
	if !ok || !req.IsCall() {
		return
	}
	switch req.Method {
	case methodInitialize, methodToolsList:
		r.mu.Lock()
		r.pending[req.ID.Raw()] = req.Method
		r.mu.Unlock()
	}
}

func (r *resultRecorder) observeRead(msg jsonrpc.Message) {
	resp, ok := msg.(*jsonrpc.Response)
	if !ok || !resp.ID.IsValid() {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	method, tracked := r.pending[resp.ID.Raw()]
	if !tracked {
		return
	}
	delete(r.pending, resp.ID.Raw())
	if resp.Error != nil {
		return
	}
	switch method {
	case methodInitialize:
		if version, err := jsonparser.GetString(resp.Result, "protocolVersion"); err == nil {
			r.protocolVersion = version
		}
	case methodToolsList:
		r.toolsList = append(json.RawMessage(nil), resp.Result...)
	}
}

// takeToolsList returns the last tools/list result and forgets it.
func (r *resultRecorder) takeToolsList() json.RawMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	raw := r.toolsList
	r.toolsList = nil
	return raw
}

func (r *resultRecorder) negotiatedVersion() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.protocolVersion
}

type recordingTransport struct {
	inner    mcp.Transport
	recorder *resultRecorder
}

func (t *recordingTransport) Connect(ctx context.Context) (mcp.Connection, error) {
	conn, err := t.inner.Connect(ctx)
	if err != nil {
		return nil, err
	}
	return &recordingConn{Connection: conn, recorder: t.recorder}, nil
}

type recordingConn struct {
	mcp.Connection
	recorder *resultRecorder
}

func (c *recordingConn) Read(ctx context.Context) (jsonrpc.Message, error) {
	msg, err := c.Connection.Read(ctx)
	if err == nil {
		c.recorder.observeRead(msg)
	}
	return msg, err
}

func (c *recordingConn) Write(ctx context.Context, msg jsonrpc.Message) error {
	c.recorder.observeWrite(msg)
	return c.Connection.Write(ctx, msg)
}
