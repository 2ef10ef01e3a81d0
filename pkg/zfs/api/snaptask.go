package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stratastor/burrow/internal/common"
	"github.com/stratastor/burrow/internal/store"
)

// listSnapshotTasks lists every task, or with ?dataset= the tasks that
// snapshot that dataset.
func (h *Handler) listSnapshotTasks(c *gin.Context) {
	ctx := c.Request.Context()
	var (
		tasks []store.SnapshotTask
		err   error
	)
	if ds := c.Query("dataset"); ds != "" {
		tasks, err = h.SnapTasks.Covering(ctx, ds)
	} else {
		tasks, err = h.SnapTasks.List(ctx)
	}
	if err != nil {
		common.APIError(c, err)
		return
	}
	common.RespondList(c, tasks, http.StatusOK)
}

func (h *Handler) getSnapshotTask(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	t, err := h.SnapTasks.Get(c.Request.Context(), id)
	if err != nil {
		common.APIError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *Handler) createSnapshotTask(c *gin.Context) {
	var req snapshotTaskRequest
	if !bindJSON(c, &req) {
		return
	}
	t, err := h.SnapTasks.Create(c.Request.Context(), req.task(0))
	if err != nil {
		common.APIError(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (h *Handler) updateSnapshotTask(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req snapshotTaskRequest
	if !bindJSON(c, &req) {
		return
	}
	t, err := h.SnapTasks.Update(c.Request.Context(), req.task(id))
	if err != nil {
		common.APIError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *Handler) deleteSnapshotTask(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.SnapTasks.Delete(c.Request.Context(), id); err != nil {
		common.APIError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) runSnapshotTask(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	res, err := h.SnapTasks.Run(c.Request.Context(), id)
	if err != nil {
		common.APIError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
