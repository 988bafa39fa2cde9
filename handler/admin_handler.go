package handler

import (
	"github.com/gin-gonic/gin"

	"learnstack/dto"
	"learnstack/logger"
	"learnstack/model"
	"learnstack/usecase"
	"learnstack/utils"
)

type AdminHandler struct {
	engine *usecase.ProgressEngine
	admin  *usecase.AdminService
	boards *usecase.LeaderboardService
	log    *logger.Logger
}

func NewAdminHandler(engine *usecase.ProgressEngine, admin *usecase.AdminService, boards *usecase.LeaderboardService, log *logger.Logger) *AdminHandler {
	return &AdminHandler{engine: engine, admin: admin, boards: boards, log: log}
}

func (h *AdminHandler) SetLock(c *gin.Context) {
	var req usecase.LockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request format")
		return
	}
	res, err := h.admin.SetLock(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	h.log.Info("lock request applied",
		"admin", c.GetString("user_id"),
		"scope", req.Scope,
		"global", req.Global,
		"locked", req.Locked,
		"updated", len(res.Updated),
		"failed", len(res.Failed))
	utils.Success(c, res)
}

func (h *AdminHandler) TopicStatuses(c *gin.Context) {
	userID := c.Param("userId")
	u, report, err := h.engine.TopicStatuses(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	utils.Success(c, gin.H{
		"user":     gin.H{"id": u.ID, "username": u.Username},
		"subjects": report,
	})
}

// RegenerateLeaderboards rebuilds one type, or all when none is given.
func (h *AdminHandler) RegenerateLeaderboards(c *gin.Context) {
	var req dto.RegenerateRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequest(c, "Invalid request format")
			return
		}
	}
	ctx := c.Request.Context()

	if req.Type != "" {
		lb, err := h.boards.Regenerate(ctx, req.Type)
		if err != nil {
			respondError(c, h.log, err)
			return
		}
		utils.Success(c, []*model.Leaderboard{lb})
		return
	}
	boards, err := h.boards.RegenerateAll(ctx)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	utils.Success(c, boards)
}
