package api

import (
	"github.com/gin-gonic/gin"
)

// Pool Operations:
//
//	GET    /pools                           List registered pools with state,
//	                                        usage and dataset tree
//	POST   /pools                           Register an imported pool
//	  Request:  {"name": "tank"}
//	  Response: 201 Created
//	DELETE /pools/:id                       Forget a pool
//	POST   /pools/:id/upgrade               Enable all supported features
//
//	GET    /pools/:id/status                Pool status document
//	  Response: [{"id": 1, "name": "tank", "children": [...]}]
//	  Header:   Content-Range: items 0-0/1
//
//	GET    /pools/:id/scrub                 Scrub state
//	POST   /pools/:id/scrub                 Start scrub
//	DELETE /pools/:id/scrub                 Stop scrub
//
// Device Operations (targets of the _*_url links in the status document):
//
//	POST   /pools/:id/disks/:label/offline
//	POST   /pools/:id/disks/:label/online
//	POST   /pools/:id/disks/:label/detach
//	POST   /pools/:id/disks/:label/remove
//	POST   /pools/:id/disks/:label/replace
//	  Request:  {"replace_disk": "sdf"}
//	  Response: 202 Accepted
//
// Dataset Operations:
//
//	GET    /pools/:id/datasets              Dataset tree
//	POST   /pools/:id/datasets              Create <pool>/<name>
//	  Request:  {"name": "photos/2024", "properties": {"compression": "lz4"}}
//	DELETE /pools/:id/datasets/*name        Destroy <pool>/<name>
//
// :id is either the registered numeric ID or the pool name.
func (h *Handler) RegisterPoolRoutes(router *gin.RouterGroup) {
	pools := router.Group("/pools")
	{
		pools.GET("", h.listPools)
		pools.POST("", h.registerPool)

		pool := pools.Group("/:id", h.ResolvePool())
		pool.DELETE("", h.unregisterPool)
		pool.GET("/status", h.poolStatus)
		pool.POST("/upgrade", h.upgradePool)

		pool.GET("/scrub", h.scrubState)
		pool.POST("/scrub", h.startScrub)
		pool.DELETE("/scrub", h.stopScrub)

		disks := pool.Group("/disks/:label", ValidateDeviceLabel())
		disks.POST("/offline", h.deviceAction(registeredPool, h.offlineDisk, "Device taken offline"))
		disks.POST("/online", h.deviceAction(registeredPool, h.onlineDisk, "Device brought online"))
		disks.POST("/detach", h.deviceAction(registeredPool, h.detachDisk, "Device detached"))
		disks.POST("/remove", h.deviceAction(registeredPool, h.removeDisk, "Device removed"))
		disks.POST("/replace", h.deviceAction(registeredPool, h.replaceDisk, "Device replacement started"))

		pool.GET("/datasets", h.listDatasets)
		pool.POST("/datasets", h.createDataset)
		pool.DELETE("/datasets/*name", h.destroyDataset)
	}
}

// Snapshot Operations:
//
//	GET    /snapshots                       List snapshots
//	  Query:    path=tank/data, sort=-used, sort=extra
//	  Header:   Range: items=0-24
//	GET    /snapshots/*fullname             Get one snapshot
//	POST   /snapshots                       Create snapshot
//	  Request:  {"dataset": "tank/data", "name": "test"}
//	  Response: 201 Created
//	DELETE /snapshots/*fullname             Destroy snapshot
//	  Response: 202 Accepted, body is the deleted record
func (h *Handler) RegisterSnapshotRoutes(router *gin.RouterGroup) {
	snapshots := router.Group("/snapshots")
	{
		snapshots.GET("", h.listSnapshots)
		snapshots.POST("", h.createSnapshot)
		snapshots.GET("/*fullname", h.getSnapshot)
		snapshots.DELETE("/*fullname", h.deleteSnapshot)
	}
}

// Boot Environment Operations:
//
//	GET    /bootenv                         List boot environments
//	POST   /bootenv                         Create
//	  Request:  {"name": "upgrade-1", "source": "default"}
//	GET    /bootenv/status                  Boot pool status document
//	POST   /bootenv/pool/attach?label=sda2  Attach a mirror to the boot pool
//	  Request:  {"disk": "sdb2"}
//	POST   /bootenv/pool/replace/:label     Replace a boot pool device
//	  Request:  {"replace_disk": "sdb2"}
//	POST   /bootenv/pool/offline/:label     Boot pool device actions, the
//	POST   /bootenv/pool/online/:label      targets of the _*_url links in
//	POST   /bootenv/pool/detach/:label      the boot pool status document
//	POST   /bootenv/pool/remove/:label
//	GET    /bootenv/:name
//	POST   /bootenv/:name/rename
//	  Request:  {"name": "new-name"}
//	POST   /bootenv/:name/activate          Boot from it next time
//	DELETE /bootenv/:name
func (h *Handler) RegisterBootEnvRoutes(router *gin.RouterGroup) {
	be := router.Group("/bootenv")
	{
		be.GET("", h.listBootEnvs)
		be.POST("", h.createBootEnv)
		be.GET("/status", h.bootPoolStatus)
		be.POST("/pool/attach", h.attachBootDisk)
		be.POST("/pool/replace/:label", ValidateDeviceLabel(), h.replaceBootDisk)
		be.POST("/pool/offline/:label", ValidateDeviceLabel(),
			h.deviceAction(h.bootPool, h.offlineDisk, "Boot pool device taken offline"))
		be.POST("/pool/online/:label", ValidateDeviceLabel(),
			h.deviceAction(h.bootPool, h.onlineDisk, "Boot pool device brought online"))
		be.POST("/pool/detach/:label", ValidateDeviceLabel(),
			h.deviceAction(h.bootPool, h.detachDisk, "Boot pool device detached"))
		be.POST("/pool/remove/:label", ValidateDeviceLabel(),
			h.deviceAction(h.bootPool, h.removeDisk, "Boot pool device removed"))

		named := be.Group("/:name", ValidateBootEnvName())
		named.GET("", h.getBootEnv)
		named.POST("/rename", h.renameBootEnv)
		named.POST("/activate", h.activateBootEnv)
		named.DELETE("", h.deleteBootEnv)
	}
}

// Disk Inventory:
//
//	GET    /disks                           List enabled, non-multipath disks
//	POST   /disks/sync                      Rescan attached disks
//	GET    /disks/:id
//	PUT    /disks/:id
//	  Request:  {"description": "bay 4", "enabled": true}
//
// Replication Tasks, Periodic Snapshot Tasks and Alerts:
//
//	GET    /replications
//	POST   /replications
//	  Request:  {"dataset": "tank/data", "remote_host": "backup1", "remote_port": 22, "remote_dataset": "backup/data"}
//	GET    /replications/:id
//	DELETE /replications/:id
//
//	GET    /snapshot-tasks                  List periodic snapshot tasks
//	  Query:    dataset=tank/data selects the tasks covering tank/data
//	POST   /snapshot-tasks
//	  Request:  {"dataset": "tank/data", "recursive": true, "interval": 60,
//	             "begin": "08:00", "end": "18:00", "weekdays": [1, 2, 3, 4, 5],
//	             "ret_count": 2, "ret_unit": "week"}
//	GET    /snapshot-tasks/:id
//	PUT    /snapshot-tasks/:id
//	DELETE /snapshot-tasks/:id
//	POST   /snapshot-tasks/:id/run          Snapshot and prune now
//
//	GET    /alerts                          Latest pool health evaluation
func (h *Handler) RegisterInventoryRoutes(router *gin.RouterGroup) {
	disks := router.Group("/disks")
	{
		disks.GET("", h.listDisks)
		disks.POST("/sync", h.syncDisks)
		disks.GET("/:id", h.getDisk)
		disks.PUT("/:id", h.updateDisk)
	}

	repl := router.Group("/replications")
	{
		repl.GET("", h.listReplications)
		repl.POST("", h.createReplication)
		repl.GET("/:id", h.getReplication)
		repl.DELETE("/:id", h.deleteReplication)
	}

	tasks := router.Group("/snapshot-tasks")
	{
		tasks.GET("", h.listSnapshotTasks)
		tasks.POST("", h.createSnapshotTask)
		tasks.GET("/:id", h.getSnapshotTask)
		tasks.PUT("/:id", h.updateSnapshotTask)
		tasks.DELETE("/:id", h.deleteSnapshotTask)
		tasks.POST("/:id/run", h.runSnapshotTask)
	}

	router.GET("/alerts", h.alerts)
}

// RegisterRoutes registers every route group under router.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	h.RegisterPoolRoutes(router)
	h.RegisterSnapshotRoutes(router)
	h.RegisterBootEnvRoutes(router)
	h.RegisterInventoryRoutes(router)
}
