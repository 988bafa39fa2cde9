package handler

import (
	"github.com/gin-gonic/gin"

	"learnstack/dto"
	"learnstack/logger"
	"learnstack/model"
	"learnstack/usecase"
	"learnstack/utils"
)

type ProgressHandler struct {
	engine      *usecase.ProgressEngine
	leaderboard *usecase.LeaderboardService
	log         *logger.Logger
}

func NewProgressHandler(engine *usecase.ProgressEngine, leaderboard *usecase.LeaderboardService, log *logger.Logger) *ProgressHandler {
	return &ProgressHandler{engine: engine, leaderboard: leaderboard, log: log}
}

// Dashboard counts as a login: it records a session for streak bookkeeping
// and evaluates login achievements before returning the overview.
func (h *ProgressHandler) Dashboard(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	res, err := h.engine.ApplyActivity(ctx, userID, model.ActivityDelta{Session: true}, usecase.EventLogin)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	utils.TrackLogin(utils.DeviceClass(c.Request.UserAgent()))
	warnings := res.Warnings

	var current *dto.TopicView
	if topicID := res.User.LearningPath.CurrentTopic; topicID != "" {
		catalog, err := h.engine.CurrentCatalog(ctx)
		if err != nil {
			warnings = append(warnings, "catalog unavailable")
		} else if t, ok := catalog.Topic(topicID); ok {
			v := dto.ToTopicView(res.User, t)
			current = &v
		}
	}

	var position *model.LeaderboardEntry
	if h.leaderboard != nil {
		if position, err = h.leaderboard.UserPosition(ctx, userID); err != nil {
			h.log.Warn("leaderboard position unavailable", "user", userID, "error", err)
			warnings = append(warnings, "leaderboard position unavailable")
		}
	}

	utils.WithWarnings(c, dto.ToDashboardResponse(res, current, position), warnings)
}

func (h *ProgressHandler) Me(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	u, err := h.engine.Snapshot(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	utils.Success(c, dto.ToUserProfileResponse(u, nil))
}

func (h *ProgressHandler) RecordActivity(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var delta model.ActivityDelta
	if err := c.ShouldBindJSON(&delta); err != nil {
		utils.BadRequest(c, "Invalid request format")
		return
	}
	if delta.Topic != "" && !utils.ValidCatalogID(delta.Topic) {
		utils.BadRequest(c, "Invalid topic id")
		return
	}

	res, err := h.engine.ApplyActivity(c.Request.Context(), userID, delta, usecase.EventProgress)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	utils.WithWarnings(c, dto.ToActivityResponse(res), res.Warnings)
}

func (h *ProgressHandler) UpdateProgress(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.ProgressUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request format")
		return
	}

	res, err := h.engine.ApplyProgressUpdate(c.Request.Context(), userID, req.TopicID, req.AlgorithmID, req.ProgressDelta)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	utils.WithWarnings(c, dto.ToProgressUpdateResponse(res), res.Warnings)
}

// CheckAccess resolves a topic, or an algorithm when the id is present.
func (h *ProgressHandler) CheckAccess(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	topicID := c.Param("topicId")
	algorithmID := c.Param("algorithmId")
	if !utils.ValidCatalogID(topicID) || (algorithmID != "" && !utils.ValidCatalogID(algorithmID)) {
		utils.BadRequest(c, "Invalid topic or algorithm id")
		return
	}

	access, err := h.engine.CheckAccess(c.Request.Context(), userID, topicID, algorithmID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	utils.Success(c, access)
}

func (h *ProgressHandler) CheckSubjectAccess(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	subject := c.Param("subject")
	allowed, err := h.engine.CheckSubjectAccess(c.Request.Context(), userID, subject)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	utils.Success(c, gin.H{"subject": subject, "hasAccess": allowed})
}
