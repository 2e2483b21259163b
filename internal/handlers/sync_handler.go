package handlers

import (
	"net/http"
	"strconv"

	"sync-backend/internal/dto"
	"sync-backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// SyncHandler exposes the sync engine over HTTP
type SyncHandler struct {
	syncService *services.SyncService
	logger      *logrus.Logger
}

// NewSyncHandler creates a new SyncHandler instance
func NewSyncHandler(syncService *services.SyncService, logger *logrus.Logger) *SyncHandler {
	return &SyncHandler{
		syncService: syncService,
		logger:      logger,
	}
}

// TriggerSync runs a sync for one account
// POST /api/sync
func (h *SyncHandler) TriggerSync(c *gin.Context) {
	var req dto.TriggerSyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	waitForAll := true
	if req.WaitForAll != nil {
		waitForAll = *req.WaitForAll
	}

	h.logger.WithFields(logrus.Fields{
		"account_id":   req.AccountID,
		"networks":     req.Networks,
		"wait_for_all": waitForAll,
	}).Info("Sync triggered via API")

	summary, err := h.syncService.SyncAccount(c.Request.Context(), services.SyncRequest{
		AccountID:  req.AccountID,
		Networks:   req.Networks,
		WaitForAll: waitForAll,
		Trigger:    "manual",
	})
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"account_id": req.AccountID,
			"error":      err.Error(),
		}).Error("Sync failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"summary": summary,
	})
}

// GetSyncStatus returns the last run summary for an account
// GET /api/sync/status/:accountId
func (h *SyncHandler) GetSyncStatus(c *gin.Context) {
	accountID, err := strconv.ParseUint(c.Param("accountId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "invalid account id",
		})
		return
	}

	summary := h.syncService.GetLastRun(uint(accountID))
	if summary == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "no sync run recorded for this account",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"summary": summary,
	})
}
