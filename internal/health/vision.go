package health

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// VisionChecker implements health checking for the vision model provider.
type VisionChecker struct {
	endpoint   string
	httpClient *http.Client
}

// NewVisionChecker creates a health checker for an Ollama-compatible
// endpoint.
func NewVisionChecker(endpoint string) *VisionChecker {
	return &VisionChecker{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

// HealthCheck verifies the provider responds at its base endpoint.
func (c *VisionChecker) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return fmt.Errorf("build health request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("vision provider unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("vision provider unhealthy: status %d", resp.StatusCode)
	}
	return nil
}
