package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stratastor/burrow/internal/common"
	"github.com/stratastor/burrow/pkg/bootenv"
	"github.com/stratastor/burrow/pkg/zfs/topology"
)

func bootEnvField(b bootenv.BootEnv, field string) any {
	switch field {
	case "id", "name":
		return b.Name
	case "active":
		return b.Active
	case "space":
		return b.Space
	case "created":
		return b.Created.Unix()
	case "dataset":
		return b.Dataset
	}
	return nil
}

func (h *Handler) listBootEnvs(c *gin.Context) {
	envs, err := h.BootEnvs.List(c.Request.Context())
	if err != nil {
		common.APIError(c, err)
		return
	}
	common.SortRecords(envs, common.ParseSort(sortParams(c), nil), bootEnvField)
	common.RespondList(c, envs, http.StatusOK)
}

func (h *Handler) getBootEnv(c *gin.Context) {
	be, err := h.BootEnvs.Get(c.Request.Context(), c.Param("name"))
	if err != nil {
		common.APIError(c, err)
		return
	}
	c.JSON(http.StatusOK, be)
}

// createBootEnv clones source, or the environment running now when source
// is empty.
func (h *Handler) createBootEnv(c *gin.Context) {
	var req createBootEnvRequest
	if !bindJSON(c, &req) {
		return
	}

	be, err := h.BootEnvs.Create(c.Request.Context(), req.Name, req.Source)
	if err != nil {
		common.APIError(c, err)
		return
	}
	c.JSON(http.StatusCreated, be)
}

func (h *Handler) renameBootEnv(c *gin.Context) {
	var req renameBootEnvRequest
	if !bindJSON(c, &req) {
		return
	}

	be, err := h.BootEnvs.Rename(c.Request.Context(), c.Param("name"), req.Name)
	if err != nil {
		common.APIError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, be)
}

func (h *Handler) activateBootEnv(c *gin.Context) {
	be, err := h.BootEnvs.Activate(c.Request.Context(), c.Param("name"))
	if err != nil {
		common.APIError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, be)
}

func (h *Handler) deleteBootEnv(c *gin.Context) {
	be, err := h.BootEnvs.Delete(c.Request.Context(), c.Param("name"))
	if err != nil {
		common.APIError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, be)
}

func (h *Handler) bootPoolStatus(c *gin.Context) {
	respondStatus(c, h.BootReporter, topology.PoolRef{ID: topology.BootPoolID, Name: h.BootPool})
}

func (h *Handler) attachBootDisk(c *gin.Context) {
	label := c.Query("label")
	var req attachDiskRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.Pools.Attach(c.Request.Context(), h.BootPool, label, req.Disk); err != nil {
		common.APIError(c, err)
		return
	}
	h.Logger.Info("Boot pool device attached", "pool", h.BootPool, "label", label, "disk", req.Disk)
	c.JSON(http.StatusAccepted, gin.H{"pool": h.BootPool, "label": label, "disk": req.Disk})
}

func (h *Handler) replaceBootDisk(c *gin.Context) {
	label := c.Param("label")
	var req replaceDiskRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.Pools.Replace(c.Request.Context(), h.BootPool, label, req.ReplaceDisk); err != nil {
		common.APIError(c, err)
		return
	}
	h.Logger.Info("Boot pool device replaced", "pool", h.BootPool, "label", label, "disk", req.ReplaceDisk)
	c.JSON(http.StatusAccepted, gin.H{"pool": h.BootPool, "label": label, "disk": req.ReplaceDisk})
}
