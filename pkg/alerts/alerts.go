// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package alerts

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/stratastor/burrow/pkg/errors"
	"github.com/stratastor/burrow/pkg/zfs/pool"
	"github.com/stratastor/logger"
)

type Level string

const (
	LevelWarn Level = "WARN"
	LevelCrit Level = "CRIT"
)

const jobName = "pool-health"

// Alert is a single pool health finding.
type Alert struct {
	Pool    string `json:"pool"`
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// Evaluation is the result of one pass over all pools.
type Evaluation struct {
	Alerts    []Alert   `json:"alerts"`
	CheckedAt time.Time `json:"checked_at"`
	Error     string    `json:"error,omitempty"`
}

// HealthSource reports the state of every imported pool.
type HealthSource interface {
	Health(ctx context.Context) ([]pool.Health, error)
}

// Checker periodically evaluates pool health and keeps the latest result.
type Checker struct {
	source    HealthSource
	logger    logger.Logger
	scheduler gocron.Scheduler
	timeout   time.Duration

	mu   sync.RWMutex
	last Evaluation
	now  func() time.Time
}

func NewChecker(source HealthSource, l logger.Logger) *Checker {
	return &Checker{
		source:  source,
		logger:  l,
		timeout: 30 * time.Second,
		now:     time.Now,
	}
}

// Evaluate maps pool states to alerts. Healthy pools produce nothing.
func Evaluate(health []pool.Health) []Alert {
	alerts := make([]Alert, 0)
	for _, h := range health {
		switch h.State {
		case "ONLINE", "HEALTHY":
		case "DEGRADED":
			alerts = append(alerts, Alert{
				Pool:    h.Name,
				Level:   LevelCrit,
				Message: fmt.Sprintf("The volume %s status is DEGRADED", h.Name),
			})
		default:
			msg := fmt.Sprintf("The volume %s status is %s", h.Name, h.State)
			if h.Message != "" {
				msg = fmt.Sprintf("%s: %s", msg, h.Message)
			}
			alerts = append(alerts, Alert{Pool: h.Name, Level: LevelWarn, Message: msg})
		}
	}
	return alerts
}

// Run performs one evaluation and stores it.
func (c *Checker) Run(ctx context.Context) Evaluation {
	eval := Evaluation{CheckedAt: c.now().UTC(), Alerts: make([]Alert, 0)}

	health, err := c.source.Health(ctx)
	if err != nil {
		c.logger.Warn("Pool health check failed", "error", err)
		eval.Error = err.Error()
	} else {
		eval.Alerts = Evaluate(health)
		for _, a := range eval.Alerts {
			c.logger.Warn("Pool alert", "pool", a.Pool, "level", a.Level, "message", a.Message)
		}
	}

	c.mu.Lock()
	c.last = eval
	c.mu.Unlock()
	return eval
}

// Last returns the most recent evaluation. CheckedAt is zero when no check
// has run yet.
func (c *Checker) Last() Evaluation {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := c.last
	out.Alerts = append(make([]Alert, 0, len(c.last.Alerts)), c.last.Alerts...)
	return out
}

// Start schedules Run every interval. The first evaluation happens
// immediately.
func (c *Checker) Start(interval time.Duration) error {
	if interval <= 0 {
		return errors.New(errors.AlertSchedulerFailed, "interval must be positive")
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return errors.Wrap(err, errors.AlertSchedulerFailed)
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
			defer cancel()
			c.Run(ctx)
		}),
		gocron.WithName(jobName),
		gocron.WithTags("alerts"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithEventListeners(
			gocron.AfterJobRunsWithError(func(jobID uuid.UUID, name string, err error) {
				c.logger.Error("Alert job failed", "job_id", jobID.String(), "job_name", name, "error", err)
			}),
		),
	)
	if err != nil {
		_ = scheduler.Shutdown()
		return errors.Wrap(err, errors.AlertSchedulerFailed)
	}

	c.mu.Lock()
	c.scheduler = scheduler
	c.mu.Unlock()

	scheduler.Start()
	c.logger.Info("Pool health alerts started", "interval", interval.String())
	return nil
}

// Stop shuts the scheduler down. It is safe to call when Start was never
// called.
func (c *Checker) Stop() error {
	c.mu.Lock()
	scheduler := c.scheduler
	c.scheduler = nil
	c.mu.Unlock()

	if scheduler == nil {
		return nil
	}
	if err := scheduler.Shutdown(); err != nil {
		return errors.Wrap(err, errors.AlertSchedulerFailed)
	}
	return nil
}
