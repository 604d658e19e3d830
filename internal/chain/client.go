package chain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"lecca.io/olas-staker/internal/logger"
)

// Client wraps a single JSON-RPC endpoint. The tool takes exactly one RPC
// argument, so there is no pool or failover here; the connectivity probe
// catches dead endpoints before any state is read.
type Client struct {
	Eth     *ethclient.Client
	URL     string
	timeout time.Duration
}

func Dial(ctx context.Context, rawURL string, timeout time.Duration) (*Client, error) {
	eth, err := ethclient.DialContext(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC: %w", err)
	}

	c := &Client{Eth: eth, URL: rawURL, timeout: timeout}
	if err := c.probe(ctx); err != nil {
		eth.Close()
		return nil, err
	}
	return c, nil
}

func (c *Client) probe(ctx context.Context) error {
	probeCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	height, err := c.Eth.BlockNumber(probeCtx)
	if err != nil {
		return fmt.Errorf("RPC endpoint check failed: %s", SanitizeRPCError(err))
	}
	logger.Info("CHAIN", "Connected to %s (height %d)", c.URL, height)
	return nil
}

func (c *Client) Close() {
	if c.Eth != nil {
		c.Eth.Close()
	}
}

// SanitizeRPCError strips HTML payloads that reverse-proxied RPC endpoints
// return on errors, keeping only the status line.
func SanitizeRPCError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if strings.Contains(msg, "<html") || strings.Contains(msg, "<HTML") {
		if idx := strings.Index(strings.ToLower(msg), "<html"); idx > 0 {
			return strings.TrimSpace(msg[:idx])
		}
		return "HTTP error response"
	}
	return msg
}
