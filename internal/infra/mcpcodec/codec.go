package mcpcodec

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/buger/jsonparser"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"mcpdiscover/internal/domain"
)

// ToolFromMCP converts an MCP tool to a domain tool. The input schema is
// kept as raw JSON.
func ToolFromMCP(tool *mcp.Tool) (domain.Tool, error) {
	if tool == nil {
		return domain.Tool{}, nil
	}
	schema, err := rawSchema(tool.InputSchema)
	if err != nil {
		return domain.Tool{}, fmt.Errorf("tool %q: %w", tool.Name, err)
	}
	return domain.Tool{
		Name:        tool.Name,
		Description: tool.Description,
		InputSchema: schema,
	}, nil
}

// ToolToMCP converts a domain tool to its MCP wire shape.
func ToolToMCP(tool domain.Tool) *mcp.Tool {
	wire := &mcp.Tool{
		Name:        tool.Name,
		Description: tool.Description,
	}
	if len(tool.InputSchema) > 0 {
		wire.InputSchema = json.RawMessage(append([]byte(nil), tool.InputSchema...))
	}
	return wire
}

// RestoreInputSchemas replaces each decoded input schema with its bytes from
// the raw tools/list result, keeping the server's property order. Entries
// whose position or name does not line up are left as decoded.
func RestoreInputSchemas(result *mcp.ListToolsResult, raw json.RawMessage) {
	if result == nil || len(raw) == 0 {
		return
	}
	index := 0
	_, _ = jsonparser.ArrayEach(raw, func(entry []byte, dataType jsonparser.ValueType, _ int, err error) {
		defer func() { index++ }()
		if err != nil || dataType != jsonparser.Object || index >= len(result.Tools) {
			return
		}
		tool := result.Tools[index]
		if tool == nil {
			return
		}
		name, nameErr := jsonparser.GetString(entry, "name")
		if nameErr != nil || name != tool.Name {
			return
		}
		schema, schemaType, _, schemaErr := jsonparser.Get(entry, "inputSchema")
		if schemaErr != nil || schemaType != jsonparser.Object {
			return
		}
		tool.InputSchema = append(json.RawMessage(nil), schema...)
	}, "tools")
}

// HashTools returns a deterministic hash for an ordered tool catalog.
func HashTools(tools []domain.Tool) (string, error) {
	raw, err := json.Marshal(tools)
	if err != nil {
		return "", fmt.Errorf("marshal tools: %w", err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

func rawSchema(schema any) (json.RawMessage, error) {
	switch v := schema.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		return append(json.RawMessage(nil), v...), nil
	case []byte:
		return append(json.RawMessage(nil), v...), nil
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("marshal input schema: %w", err)
		}
		if string(raw) == "null" {
			return nil, nil
		}
		return raw, nil
	}
}
