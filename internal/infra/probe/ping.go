package probe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Pinger sends an MCP ping on a live session.
type Pinger interface {
	Ping(ctx context.Context, params *mcp.PingParams) error
}

type PingProbe struct {
	Timeout time.Duration
}

// Ping measures the round trip of a single ping request.
func (p *PingProbe) Ping(ctx context.Context, target Pinger) (time.Duration, error) {
	if target == nil {
		return 0, errors.New("session is nil")
	}

	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	if err := target.Ping(pingCtx, &mcp.PingParams{}); err != nil {
		return 0, fmt.Errorf("ping: %w", err)
	}
	return time.Since(start), nil
}
