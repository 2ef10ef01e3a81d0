package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stratastor/burrow/internal/common"
	"github.com/stratastor/burrow/internal/store"
)

// listDisks hides multipath members and disabled entries.
func (h *Handler) listDisks(c *gin.Context) {
	disks, err := h.Disks.List(c.Request.Context())
	if err != nil {
		common.APIError(c, err)
		return
	}
	common.RespondList(c, disks, http.StatusOK)
}

func (h *Handler) getDisk(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	d, err := h.Disks.Get(c.Request.Context(), id)
	if err != nil {
		common.APIError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *Handler) updateDisk(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req store.DiskUpdate
	if !bindJSON(c, &req) {
		return
	}
	d, err := h.Disks.Update(c.Request.Context(), id, req)
	if err != nil {
		common.APIError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *Handler) syncDisks(c *gin.Context) {
	res, err := h.Disks.Sync(c.Request.Context())
	if err != nil {
		common.APIError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
