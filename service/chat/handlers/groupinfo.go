package handlers

import (
	"context"
	"net/http"
	"strings"

	"SupportChat/logger"
	"SupportChat/module/chat/model"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type SnapshotResolver interface {
	Resolve(ctx context.Context, groupID string) (*model.Snapshot, error)
}

type GroupInfoHandler struct {
	groups SnapshotResolver
}

func NewGroupInfoHandler(groups SnapshotResolver) *GroupInfoHandler {
	return &GroupInfoHandler{groups: groups}
}

func (h *GroupInfoHandler) Handle(c *gin.Context) {
	groupID := strings.TrimSpace(c.Query("groupId"))
	if groupID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "groupId is required"})
		return
	}
	snap, err := h.groups.Resolve(c.Request.Context(), groupID)
	if err != nil {
		logger.Error("[HTTP] group info failed", zap.String("groupId", groupID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, snap)
}

// Health 存活探针
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
