package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stratastor/burrow/internal/common"
	"github.com/stratastor/burrow/internal/store"
)

func (h *Handler) listReplications(c *gin.Context) {
	tasks, err := h.Store.ListReplicationTasks(c.Request.Context())
	if err != nil {
		common.APIError(c, err)
		return
	}
	common.RespondList(c, tasks, http.StatusOK)
}

func (h *Handler) getReplication(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	t, err := h.Store.GetReplicationTask(c.Request.Context(), id)
	if err != nil {
		common.APIError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *Handler) createReplication(c *gin.Context) {
	var req createReplicationRequest
	if !bindJSON(c, &req) {
		return
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	t, err := h.Store.CreateReplicationTask(c.Request.Context(), store.ReplicationTask{
		Dataset:       req.Dataset,
		RemoteHost:    req.RemoteHost,
		RemotePort:    req.RemotePort,
		RemoteDataset: req.RemoteDataset,
		Enabled:       enabled,
	})
	if err != nil {
		common.APIError(c, err)
		return
	}
	h.Logger.Info("Replication task created", "id", t.ID, "dataset", t.Dataset, "remote_host", t.RemoteHost)
	c.JSON(http.StatusCreated, t)
}

func (h *Handler) deleteReplication(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.Store.DeleteReplicationTask(c.Request.Context(), id); err != nil {
		common.APIError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// alerts returns the latest pool health evaluation. Disabled alerting
// reports an empty evaluation.
func (h *Handler) alerts(c *gin.Context) {
	if h.Alerts == nil {
		c.JSON(http.StatusOK, gin.H{"alerts": []any{}})
		return
	}
	c.JSON(http.StatusOK, h.Alerts.Last())
}
