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

package api

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/stratastor/burrow/internal/common"
	"github.com/stratastor/burrow/internal/store"
	"github.com/stratastor/burrow/pkg/errors"
	zfscommon "github.com/stratastor/burrow/pkg/zfs/common"
)

const volumeKey = "volume"

// ResolvePool loads the registered pool named by the :id parameter, which
// may be a numeric ID or a pool name.
func (h *Handler) ResolvePool() gin.HandlerFunc {
	return func(c *gin.Context) {
		v, err := h.Store.ResolveVolume(c.Request.Context(), c.Param("id"))
		if err != nil {
			common.APIError(c, err)
			return
		}
		c.Set(volumeKey, v)
		c.Next()
	}
}

func volumeOf(c *gin.Context) store.Volume {
	return c.MustGet(volumeKey).(store.Volume)
}

// ValidateDeviceLabel rejects empty or option-like :label parameters.
func ValidateDeviceLabel() gin.HandlerFunc {
	return func(c *gin.Context) {
		label := c.Param("label")
		if label == "" || strings.HasPrefix(label, "-") {
			common.APIError(c, errors.New(errors.ServerRequestValidation, "invalid device label").
				WithMetadata("label", label))
			return
		}
		c.Next()
	}
}

// ValidateBootEnvName checks the :name parameter of boot environment routes.
func ValidateBootEnvName() gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("name")
		if err := zfscommon.ComponentNameCheck(name); err != nil {
			common.APIError(c, errors.Wrap(err, errors.BootEnvInvalidName).WithMetadata("name", name))
			return
		}
		c.Next()
	}
}

// wildcardParam returns a *param without gin's leading slash.
func wildcardParam(c *gin.Context, key string) string {
	return strings.TrimPrefix(c.Param(key), "/")
}

func idParam(c *gin.Context, key string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(key), 10, 64)
	if err != nil || id <= 0 {
		common.APIError(c, errors.New(errors.ServerRequestValidation, "invalid id "+c.Param(key)))
		return 0, false
	}
	return id, true
}

func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		common.APIError(c, errors.New(errors.ServerRequestValidation, err.Error()))
		return false
	}
	return true
}

func sortParams(c *gin.Context) []string {
	return append(c.QueryArray("sort"), c.QueryArray("order_by")...)
}
