package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SyncTrigger starts a background history sync
type SyncTrigger interface {
	TriggerSync() bool
	Running() bool
}

// SyncController exposes manual sync control to admins
type SyncController struct {
	trigger SyncTrigger
}

// NewSyncController creates a new sync controller
func NewSyncController(trigger SyncTrigger) *SyncController {
	return &SyncController{trigger: trigger}
}

// TriggerSync starts a sync unless one is already running
// POST /api/v1/admin/sync
func (sc *SyncController) TriggerSync(c *gin.Context) {
	if !sc.trigger.TriggerSync() {
		c.JSON(http.StatusConflict, gin.H{
			"error":   "sync_running",
			"message": "A sync is already in progress",
		})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "started"})
}

// Status reports whether a sync is running
// GET /api/v1/admin/sync
func (sc *SyncController) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"running": sc.trigger.Running()})
}
