package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stratastor/burrow/internal/common"
	"github.com/stratastor/burrow/pkg/zfs/snapshot"
)

// listSnapshots accepts ?path=<dataset or snapshot> and repeated
// ?sort=<field> parameters; "-field" sorts descending.
func (h *Handler) listSnapshots(c *gin.Context) {
	records, err := h.Snapshots.List(c.Request.Context(), snapshot.ListOptions{
		Path: c.Query("path"),
		Sort: sortParams(c),
	})
	if err != nil {
		common.APIError(c, err)
		return
	}
	common.RespondList(c, records, http.StatusOK)
}

func (h *Handler) getSnapshot(c *gin.Context) {
	rec, err := h.Snapshots.Get(c.Request.Context(), wildcardParam(c, "fullname"))
	if err != nil {
		common.APIError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *Handler) createSnapshot(c *gin.Context) {
	var req snapshot.CreateRequest
	if !bindJSON(c, &req) {
		return
	}

	rec, err := h.Snapshots.Create(c.Request.Context(), req)
	if err != nil {
		common.APIError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (h *Handler) deleteSnapshot(c *gin.Context) {
	rec, err := h.Snapshots.Delete(c.Request.Context(), wildcardParam(c, "fullname"))
	if err != nil {
		common.APIError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, rec)
}
