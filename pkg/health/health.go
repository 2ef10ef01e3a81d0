package health

import (
	"context"
	"fmt"
	"time"

	"github.com/stratastor/burrow/config"
	"github.com/stratastor/burrow/internal/constants"
	"github.com/stratastor/burrow/pkg/alerts"
	"github.com/stratastor/burrow/pkg/httpclient"
	"github.com/stratastor/logger"
)

type HealthChecker struct {
	Client   *httpclient.Client
	Logger   logger.Logger
	endpoint string
}

// Report is what `burrow health` prints.
type Report struct {
	Status string         `json:"status"`
	Alerts []alerts.Alert `json:"alerts"`
	Error  string         `json:"error,omitempty"`
	Since  time.Time      `json:"checked_at"`
}

func NewHealthChecker(cfg *config.Config) (*HealthChecker, error) {
	l, err := logger.NewTag(config.NewLoggerConfig(cfg), "health")
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	clientConfig := httpclient.NewClientConfig()
	clientConfig.Timeout = 5 * time.Second
	clientConfig.BaseURL = fmt.Sprintf("http://localhost:%d", cfg.Server.Port)

	return &HealthChecker{
		Client:   httpclient.NewClient(clientConfig),
		Logger:   l,
		endpoint: cfg.Health.Endpoint,
	}, nil
}

// CheckHealth queries the liveness endpoint and, when the agent is up, the
// latest pool health evaluation.
func (hc *HealthChecker) CheckHealth(ctx context.Context) (Report, error) {
	var live struct {
		Status string `json:"status"`
	}
	if _, err := hc.Client.GetJSON(ctx, hc.endpoint, &live); err != nil {
		return Report{}, err
	}

	var eval alerts.Evaluation
	if _, err := hc.Client.GetJSON(ctx, constants.APIAlerts, &eval); err != nil {
		hc.Logger.Warn("Failed to fetch alerts", "error", err)
		return Report{Status: live.Status}, nil
	}

	return Report{
		Status: live.Status,
		Alerts: eval.Alerts,
		Error:  eval.Error,
		Since:  eval.CheckedAt,
	}, nil
}
