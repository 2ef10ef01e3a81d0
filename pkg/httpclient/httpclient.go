/*
 * Copyright 2024 Raamsri Kumar <raam@tinkershack.in> and The StrataSTOR Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package httpclient is the resty client the CLI uses to talk to a running
// agent.
package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stratastor/burrow/internal/constants"
	"github.com/stratastor/burrow/pkg/errors"
)

const (
	defaultTimeout         = 10 * time.Second
	defaultRetryCount      = 3
	defaultRetryWaitTime   = 2 * time.Second
	defaultRetryMaxWait    = 10 * time.Second
	defaultMaxIdleConns    = 10
	defaultIdleConnTimeout = 90 * time.Second
	defaultUserAgent       = "Burrow-CLI"
)

// Client wraps resty.Client
type Client struct {
	*resty.Client
	config ClientConfig
}

// ClientConfig holds configuration values for the HTTP client
type ClientConfig struct {
	BaseURL          string
	Timeout          time.Duration
	RetryCount       int
	RetryWaitTime    time.Duration
	RetryMaxWaitTime time.Duration
	UserAgent        string
	Headers          map[string]string

	MaxIdleConns    int
	IdleConnTimeout time.Duration

	Debug bool
}

// NewClientConfig returns a ClientConfig with sensible defaults
func NewClientConfig() ClientConfig {
	return ClientConfig{
		Timeout:          defaultTimeout,
		RetryCount:       defaultRetryCount,
		RetryWaitTime:    defaultRetryWaitTime,
		RetryMaxWaitTime: defaultRetryMaxWait,
		UserAgent:        defaultUserAgent + "/" + constants.Version,
		Headers:          make(map[string]string),
		MaxIdleConns:     defaultMaxIdleConns,
		IdleConnTimeout:  defaultIdleConnTimeout,
	}
}

// NewClient creates a new Resty client with provided configuration
func NewClient(config ClientConfig) *Client {
	client := &Client{
		Client: resty.New(),
		config: config,
	}
	client.applyConfig()
	return client
}

func (c *Client) applyConfig() {
	if c.config.Timeout > 0 {
		c.Client.SetTimeout(c.config.Timeout)
	}
	if c.config.RetryCount > 0 {
		c.Client.SetRetryCount(c.config.RetryCount)
		// Retry transport failures and 5xx, never 4xx.
		c.Client.AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		})
	}
	if c.config.RetryWaitTime > 0 {
		c.Client.SetRetryWaitTime(c.config.RetryWaitTime)
	}
	if c.config.RetryMaxWaitTime > 0 {
		c.Client.SetRetryMaxWaitTime(c.config.RetryMaxWaitTime)
	}
	if c.config.UserAgent != "" {
		c.Client.SetHeader("User-Agent", c.config.UserAgent)
	}
	if c.config.BaseURL != "" {
		c.Client.SetBaseURL(c.config.BaseURL)
	}
	if len(c.config.Headers) > 0 {
		c.Client.SetHeaders(c.config.Headers)
	}
	c.Client.SetDebug(c.config.Debug)
	if !c.config.Debug {
		c.Client.SetLogger(NoOpLogger{})
	}

	c.Client.SetTransport(&http.Transport{
		MaxIdleConns:    c.config.MaxIdleConns,
		IdleConnTimeout: c.config.IdleConnTimeout,
	})
}

// NoOpLogger suppresses resty's own logging
type NoOpLogger struct{}

func (NoOpLogger) Errorf(format string, v ...interface{}) {}
func (NoOpLogger) Warnf(format string, v ...interface{})  {}
func (NoOpLogger) Debugf(format string, v ...interface{}) {}

// APIErrorBody mirrors the error envelope written by the agent.
type APIErrorBody struct {
	Error struct {
		Code     int               `json:"code"`
		Domain   string            `json:"domain"`
		Message  string            `json:"message"`
		Details  string            `json:"details"`
		Metadata map[string]string `json:"metadata"`
	} `json:"error"`
}

// GetJSON fetches path into result. Non-2xx responses become errors that
// carry the agent's error message.
func (c *Client) GetJSON(ctx context.Context, path string, result any) (*resty.Response, error) {
	var apiErr APIErrorBody
	resp, err := c.R().
		SetContext(ctx).
		SetResult(result).
		SetError(&apiErr).
		Get(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ServerUnreachable).WithMetadata("path", path)
	}
	if resp.IsError() {
		msg := apiErr.Error.Message
		if apiErr.Error.Details != "" {
			msg = fmt.Sprintf("%s: %s", msg, apiErr.Error.Details)
		}
		if msg == "" {
			msg = resp.String()
		}
		return resp, fmt.Errorf("%s %s: %s", resp.Status(), path, msg)
	}
	return resp, nil
}
