package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"SupportChat/logger"
	"SupportChat/module/chat/message"
	"SupportChat/module/chat/model"
	"SupportChat/tools/errs"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	defaultLimit = message.DefaultQueryLimit
	maxLimit     = 100
)

// HistoryQuerier message.Log 的读接口
type HistoryQuerier interface {
	Query(ctx context.Context, groupID string, limit int, before time.Time) ([]model.Message, error)
}

type HistoryHandler struct {
	log HistoryQuerier
}

func NewHistoryHandler(log HistoryQuerier) *HistoryHandler {
	return &HistoryHandler{log: log}
}

// Handle GET ?groupId=&limit=&before=，返回时间正序的数组
func (h *HistoryHandler) Handle(c *gin.Context) {
	groupID := strings.TrimSpace(c.Query("groupId"))
	if groupID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "groupId is required"})
		return
	}
	limit := parseLimit(c.Query("limit"))
	before, err := parseBefore(c.Query("before"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid before"})
		return
	}

	msgs, err := h.log.Query(c.Request.Context(), groupID, limit, before)
	if err != nil {
		if msgs == nil {
			logger.Error("[HTTP] history query failed", zap.String("groupId", groupID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
			return
		}
		logger.Warn("[HTTP] history degraded", zap.String("groupId", groupID), zap.Error(err))
	}
	if msgs == nil {
		msgs = []model.Message{}
	}
	c.JSON(http.StatusOK, msgs)
}

// parseLimit 非法或越界回落到默认值，超过上限截断
func parseLimit(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return defaultLimit
	}
	if n > maxLimit {
		return maxLimit
	}
	return n
}

// parseBefore 支持 RFC3339 与毫秒时间戳；空串表示不限
func parseBefore(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, errs.ErrBadRequest.WrapMsg("invalid before", "value", s)
	}
	return t, nil
}
