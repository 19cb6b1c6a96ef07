// Package alertsink forwards detected anomalies to an external HTTP alert
// endpoint. It attaches to the engine as a plain anomaly subscriber, so a
// slow or failing sink never affects ingestion.
package alertsink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/invisible-tech/streamwatch/internal/types"
)

// Config for the alert sink client.
type Config struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration

	// MinSeverity filters what gets forwarded; zero value forwards all.
	MinSeverity types.Severity
}

// Client posts anomalies to the configured endpoint.
type Client struct {
	cfg        Config
	httpClient *http.Client
	log        *logrus.Logger
}

// NewClient creates an alert sink client.
func NewClient(cfg Config, log *logrus.Logger) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        log,
	}
}

// subscriber is the minimal engine surface the sink needs.
type subscriber interface {
	SubscribeAnomalies(func(types.Anomaly)) func()
}

// Attach subscribes the sink to eng's anomaly stream and returns the
// unsubscribe func. Each forwarded anomaly gets its own request context
// derived from ctx.
func (c *Client) Attach(ctx context.Context, eng subscriber) (unsubscribe func()) {
	return eng.SubscribeAnomalies(func(a types.Anomaly) {
		if a.Severity.Rank() < c.cfg.MinSeverity.Rank() {
			return
		}
		if err := c.Send(ctx, a); err != nil {
			c.log.WithError(err).WithFields(logrus.Fields{
				"anomaly_id": a.ID,
				"severity":   a.Severity,
			}).Error("Failed to forward anomaly to alert sink")
		}
	})
}

// Send posts one anomaly to the sink endpoint.
func (c *Client) Send(ctx context.Context, a types.Anomaly) error {
	if c.cfg.Endpoint == "" || c.cfg.APIKey == "" {
		return fmt.Errorf("alert sink not configured")
	}

	body, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("failed to marshal anomaly: %w", err)
	}

	url := fmt.Sprintf("%s/api/v1/alerts", c.cfg.Endpoint)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return nil
}
