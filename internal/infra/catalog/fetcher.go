package catalog

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"mcpdiscover/internal/domain"
	"mcpdiscover/internal/infra/mcpcodec"
)

// ToolLister issues a single tools/list request.
type ToolLister interface {
	ListTools(ctx context.Context, params *mcp.ListToolsParams) (*mcp.ListToolsResult, error)
}

// Fetcher retrieves the complete tool catalog of a session.
type Fetcher struct {
	logger  *zap.Logger
	metrics domain.Metrics
}

// NewFetcher creates a catalog fetcher.
func NewFetcher(logger *zap.Logger, metrics domain.Metrics) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = domain.NoopMetrics{}
	}
	return &Fetcher{logger: logger.Named("catalog"), metrics: metrics}
}

// ListTools follows pagination cursors until the listing is exhausted and
// returns the tools in server order.
func (f *Fetcher) ListTools(ctx context.Context, lister ToolLister) ([]domain.Tool, error) {
	if lister == nil {
		return nil, fmt.Errorf("%w: session is nil", domain.ErrFetchFailure)
	}

	var tools []domain.Tool
	seen := make(map[string]struct{})
	cursor := ""
	for page := 1; ; page++ {
		var params *mcp.ListToolsParams
		if cursor != "" {
			params = &mcp.ListToolsParams{Cursor: cursor}
		}
		result, err := lister.ListTools(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("%w: page %d: %w", domain.ErrFetchFailure, page, err)
		}
		if result == nil {
			break
		}
		for _, tool := range result.Tools {
			converted, err := mcpcodec.ToolFromMCP(tool)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", domain.ErrFetchFailure, err)
			}
			if converted.Name == "" {
				continue
			}
			tools = append(tools, converted)
		}

		next := result.NextCursor
		if next == "" {
			break
		}
		if _, dup := seen[next]; dup {
			return nil, fmt.Errorf("%w: repeated cursor %q", domain.ErrFetchFailure, next)
		}
		seen[next] = struct{}{}
		cursor = next
		f.logger.Debug("following tools cursor", zap.Int("page", page), zap.String("cursor", cursor))
	}

	f.metrics.ObserveCatalogSize(len(tools))
	return tools, nil
}
