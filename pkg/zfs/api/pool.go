package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stratastor/burrow/internal/common"
	"github.com/stratastor/burrow/pkg/errors"
	"github.com/stratastor/burrow/pkg/zfs/dataset"
	"github.com/stratastor/burrow/pkg/zfs/topology"
)

// listPools returns the registered pools decorated with their state, the
// usage of their root dataset and the dataset tree below it. Pools that are
// registered but not imported report UNKNOWN.
func (h *Handler) listPools(c *gin.Context) {
	ctx := c.Request.Context()
	volumes, err := h.Store.ListVolumes(ctx)
	if err != nil {
		common.APIError(c, err)
		return
	}

	health, err := h.Pools.Health(ctx)
	if err != nil {
		common.APIError(c, err)
		return
	}
	states := make(map[string]string, len(health))
	for _, p := range health {
		states[p.Name] = p.State
	}

	out := make([]poolSummary, 0, len(volumes))
	for _, v := range volumes {
		summary := poolSummary{Volume: v, Status: "UNKNOWN", IsUpgraded: true}
		state, imported := states[v.Name]
		if !imported {
			out = append(out, summary)
			continue
		}
		summary.Status = state

		root, err := h.Datasets.Root(ctx, v.Name)
		if err != nil {
			common.APIError(c, err)
			return
		}
		summary.Mountpoint = root.Mountpoint
		summary.Avail = root.Avail
		summary.Used = root.Used
		summary.UsedPct = root.UsedPct()
		summary.Children = dataset.BuildTree(root.Children, topology.NewIDSource(v.ID*100), h.HiddenPrefix)

		if summary.IsUpgraded, err = h.Pools.IsUpgraded(ctx, v.Name); err != nil {
			common.APIError(c, err)
			return
		}
		out = append(out, summary)
	}
	common.RespondList(c, out, http.StatusOK)
}

// registerPool records an imported pool so that it gets a stable ID.
func (h *Handler) registerPool(c *gin.Context) {
	var req registerPoolRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	if _, err := h.Pools.Describe(ctx, req.Name); err != nil {
		common.APIError(c, err)
		return
	}

	v, err := h.Store.CreateVolume(ctx, req.Name)
	if err != nil {
		common.APIError(c, err)
		return
	}
	h.Logger.Info("Pool registered", "pool", v.Name, "id", v.ID)
	c.JSON(http.StatusCreated, v)
}

// upgradePool enables every supported feature on the pool.
func (h *Handler) upgradePool(c *gin.Context) {
	v := volumeOf(c)
	if err := h.Pools.Upgrade(c.Request.Context(), v.Name); err != nil {
		common.APIError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"pool": v.Name, "upgraded": true})
}

func (h *Handler) unregisterPool(c *gin.Context) {
	v := volumeOf(c)
	if err := h.Store.DeleteVolume(c.Request.Context(), v.ID); err != nil {
		common.APIError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// respondStatus writes a single status document with the single-item
// Content-Range convention.
func respondStatus(c *gin.Context, r StatusReporter, ref topology.PoolRef) {
	doc, err := r.Generate(c.Request.Context(), ref)
	if err != nil {
		common.APIError(c, err)
		return
	}
	common.SetContentRange(c, 0, 1, 1)
	c.JSON(http.StatusOK, []*topology.StatusNode{doc})
}

func (h *Handler) poolStatus(c *gin.Context) {
	v := volumeOf(c)
	respondStatus(c, h.Reporter, topology.PoolRef{ID: v.ID, Name: v.Name})
}

func (h *Handler) scrubState(c *gin.Context) {
	v := volumeOf(c)
	scrubbing, err := h.Pools.IsPoolScrubbing(c.Request.Context(), v.Name)
	if err != nil {
		common.APIError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pool": v.Name, "scrubbing": scrubbing})
}

func (h *Handler) startScrub(c *gin.Context) {
	h.scrub(c, false)
}

func (h *Handler) stopScrub(c *gin.Context) {
	h.scrub(c, true)
}

func (h *Handler) scrub(c *gin.Context, stop bool) {
	v := volumeOf(c)
	if err := h.Pools.Scrub(c.Request.Context(), v.Name, stop); err != nil {
		common.APIError(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}

// deviceAction adapts a pool device operation to a handler. poolOf names
// the pool the route addresses.
func (h *Handler) deviceAction(poolOf func(c *gin.Context) string,
	op func(c *gin.Context, pool, label string) error, msg string) gin.HandlerFunc {
	return func(c *gin.Context) {
		pool := poolOf(c)
		label := c.Param("label")
		if err := op(c, pool, label); err != nil {
			common.APIError(c, err)
			return
		}
		h.Logger.Info(msg, "pool", pool, "label", label)
		c.JSON(http.StatusAccepted, gin.H{"pool": pool, "label": label})
	}
}

func registeredPool(c *gin.Context) string {
	return volumeOf(c).Name
}

func (h *Handler) bootPool(*gin.Context) string {
	return h.BootPool
}

func (h *Handler) offlineDisk(c *gin.Context, pool, label string) error {
	return h.Pools.Offline(c.Request.Context(), pool, label)
}

func (h *Handler) onlineDisk(c *gin.Context, pool, label string) error {
	return h.Pools.Online(c.Request.Context(), pool, label)
}

func (h *Handler) detachDisk(c *gin.Context, pool, label string) error {
	return h.Pools.Detach(c.Request.Context(), pool, label)
}

func (h *Handler) removeDisk(c *gin.Context, pool, label string) error {
	return h.Pools.Remove(c.Request.Context(), pool, label)
}

func (h *Handler) replaceDisk(c *gin.Context, pool, label string) error {
	var req replaceDiskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return errors.New(errors.ServerRequestValidation, err.Error())
	}
	return h.Pools.Replace(c.Request.Context(), pool, label, req.ReplaceDisk)
}

// listDatasets returns the dataset tree of the pool. IDs start at
// pool ID * 100 and share one counter across the whole tree.
func (h *Handler) listDatasets(c *gin.Context) {
	v := volumeOf(c)
	entries, err := h.Datasets.Tree(c.Request.Context(), v.Name)
	if err != nil {
		common.APIError(c, err)
		return
	}
	nodes := dataset.BuildTree(entries, topology.NewIDSource(v.ID*100), h.HiddenPrefix)
	common.RespondList(c, nodes, http.StatusOK)
}

func (h *Handler) createDataset(c *gin.Context) {
	v := volumeOf(c)
	var req createDatasetRequest
	if !bindJSON(c, &req) {
		return
	}

	name := v.Name + "/" + req.Name
	if err := h.Datasets.Create(c.Request.Context(), dataset.CreateConfig{
		Name:       name,
		Properties: req.Properties,
		Parents:    true,
	}); err != nil {
		common.APIError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"name": name})
}

func (h *Handler) destroyDataset(c *gin.Context) {
	v := volumeOf(c)
	name := v.Name + "/" + wildcardParam(c, "name")
	recursive := c.Query("recursive") == "true"

	if err := h.Datasets.Destroy(c.Request.Context(), name, recursive); err != nil {
		common.APIError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
