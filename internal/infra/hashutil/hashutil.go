package hashutil

import (
	"go.uber.org/zap"

	"mcpdiscover/internal/domain"
	"mcpdiscover/internal/infra/mcpcodec"
)

// CatalogETag returns an ETag for a tool catalog and logs on failure.
func CatalogETag(logger *zap.Logger, tools []domain.Tool) string {
	etag, err := mcpcodec.HashTools(tools)
	if err != nil {
		if logger != nil {
			logger.Warn("tool catalog hash failed", zap.Error(err))
		}
		return ""
	}
	return etag
}
