/*
 * Copyright 2024-2025 Raamsri Kumar <raam@tinkershack.in>
 * Copyright 2024-2025 The StrataSTOR Authors and Contributors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package server

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stratastor/burrow/pkg/errors"
	"github.com/stratastor/logger"
)

const (
	requestIDHeader = "X-Request-Id"
	requestIDKey    = "request_id"
)

// quietPaths are polled often enough that logging them drowns real traffic.
var quietPaths = map[string]struct{}{
	"/health": {},
}

// LoggerMiddleware tags each request with an ID and logs one line when it
// completes. Errors recorded on the context decide the level.
func LoggerMiddleware(l logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if _, ok := quietPaths[path]; ok {
			c.Next()
			return
		}

		start := time.Now()
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Header(requestIDHeader, requestID)
		c.Set(requestIDKey, requestID)

		c.Next()

		attrs := []slog.Attr{
			slog.String(requestIDKey, requestID),
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.String("route", c.FullPath()),
			slog.String("query", c.Request.URL.RawQuery),
			slog.Int("status", c.Writer.Status()),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
			slog.Int("bytes_out", c.Writer.Size()),
			slog.String("ip", c.ClientIP()),
		}
		if rng := c.GetHeader("Range"); rng != "" {
			attrs = append(attrs, slog.String("range", rng))
		}
		attrs = append(attrs, errorAttrs(c.Errors)...)

		switch status := c.Writer.Status(); {
		case status >= 500:
			l.Error("Server Error", logAttrs(attrs)...)
		case status >= 400:
			l.Warn("Client Error", logAttrs(attrs)...)
		default:
			l.Info("Request", logAttrs(attrs)...)
		}
	}
}

// errorAttrs flattens BurrowErrors so command output in Metadata lands in
// its own log fields.
func errorAttrs(errs []*gin.Error) []slog.Attr {
	var attrs []slog.Attr
	for _, ge := range errs {
		var be *errors.BurrowError
		if !errors.As(ge.Err, &be) {
			attrs = append(attrs, slog.String("error", ge.Error()))
			continue
		}
		attrs = append(attrs,
			slog.Int("error_code", int(be.Code)),
			slog.String("error_domain", string(be.Domain)),
			slog.String("error_message", be.Message),
			slog.String("error_details", be.Details),
		)
		for k, v := range be.Metadata {
			attrs = append(attrs, slog.String("error_metadata_"+k, v))
		}
	}
	return attrs
}

// Helper to convert slog.Attr slice to interface slice
func logAttrs(attrs []slog.Attr) []interface{} {
	args := make([]interface{}, len(attrs)*2)
	for i, attr := range attrs {
		args[i*2] = attr.Key
		args[i*2+1] = attr.Value.Any()
	}
	return args
}
