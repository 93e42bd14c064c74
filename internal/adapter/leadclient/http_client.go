package leadclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/rl1809/storefront-cart/internal/core/domain"
)

var ErrLeadRejected = errors.New("lead rejected by endpoint")

// HTTPClient posts leads to the ingestion endpoint as JSON.
type HTTPClient struct {
	endpoint string
	client   *http.Client
	logger   *zap.Logger
}

func NewHTTPClient(endpoint string, timeout time.Duration, logger *zap.Logger) *HTTPClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPClient{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

func (c *HTTPClient) Submit(ctx context.Context, lead domain.Lead) error {
	body, err := json.Marshal(NewPayload(lead))
	if err != nil {
		return fmt.Errorf("encode lead: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", lead.ID)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("post lead: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn("lead endpoint rejected submission",
			zap.String("lead_id", lead.ID),
			zap.Int("status", resp.StatusCode),
		)
		return fmt.Errorf("%w: status %d: %s", ErrLeadRejected, resp.StatusCode, bytes.TrimSpace(msg))
	}

	io.Copy(io.Discard, resp.Body)
	return nil
}
