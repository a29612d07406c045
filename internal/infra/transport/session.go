package transport

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"mcpdiscover/internal/domain"
	"mcpdiscover/internal/infra/mcpcodec"
)

// Session is a live MCP client session owned by a single discovery call.
type Session struct {
	session   *mcp.ClientSession
	transport domain.TransportKind
	recorder  *resultRecorder
}

// Transport reports which transport the session was opened on.
func (s *Session) Transport() domain.TransportKind {
	return s.transport
}

// ListTools issues one tools/list request. Input schemas keep the property
// order the server sent. Calls on one session must not overlap.
func (s *Session) ListTools(ctx context.Context, params *mcp.ListToolsParams) (*mcp.ListToolsResult, error) {
	result, err := s.session.ListTools(ctx, params)
	if err != nil || s.recorder == nil {
		return result, err
	}
	mcpcodec.RestoreInputSchemas(result, s.recorder.takeToolsList())
	return result, nil
}

// Ping issues one ping request.
func (s *Session) Ping(ctx context.Context, params *mcp.PingParams) error {
	return s.session.Ping(ctx, params)
}

func (s *Session) Close() error {
	if s == nil || s.session == nil {
		return nil
	}
	return s.session.Close()
}
