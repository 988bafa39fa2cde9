package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"learnstack/dto"
	"learnstack/logger"
	"learnstack/model"
	"learnstack/usecase"
	"learnstack/utils"
)

type LeaderboardHandler struct {
	engine *usecase.ProgressEngine
	boards *usecase.LeaderboardService
	log    *logger.Logger
}

func NewLeaderboardHandler(engine *usecase.ProgressEngine, boards *usecase.LeaderboardService, log *logger.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{engine: engine, boards: boards, log: log}
}

// GetLeaderboard returns the top entries of ?type= (default all-time),
// optionally cut to ?limit=.
func (h *LeaderboardHandler) GetLeaderboard(c *gin.Context) {
	typ := model.LeaderboardType(c.DefaultQuery("type", string(model.LeaderboardAllTime)))
	if !typ.Valid() {
		utils.BadRequest(c, "Invalid leaderboard type")
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			utils.BadRequest(c, "Invalid limit")
			return
		}
		limit = n
	}

	lb, err := h.boards.Get(c.Request.Context(), typ)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	rankings := lb.Rankings
	if limit > 0 && limit < len(rankings) {
		rankings = rankings[:limit]
	}
	if rankings == nil {
		rankings = []model.LeaderboardEntry{}
	}
	utils.Success(c, gin.H{
		"type":      lb.Type,
		"period":    lb.Period,
		"rankings":  rankings,
		"updatedAt": lb.UpdatedAt,
	})
}

func (h *LeaderboardHandler) MyRank(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	entry, err := h.boards.UserPosition(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	utils.Success(c, gin.H{"position": dto.PositionValue(entry), "entry": entry})
}

// UpdatePosition refreshes the caller's all-time entry from their stats.
func (h *LeaderboardHandler) UpdatePosition(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	u, err := h.engine.Snapshot(ctx, userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	lb, err := h.boards.UpdateUserPosition(ctx, u)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	var entry *model.LeaderboardEntry
	for i := range lb.Rankings {
		if lb.Rankings[i].UserID == userID {
			entry = &lb.Rankings[i]
			break
		}
	}
	utils.Success(c, gin.H{"position": dto.PositionValue(entry), "entry": entry})
}
