package handler

import (
	"github.com/gin-gonic/gin"

	"learnstack/dto"
	"learnstack/logger"
	"learnstack/model"
	"learnstack/services"
	"learnstack/usecase"
	"learnstack/utils"
)

type AchievementsHandler struct {
	engine   *usecase.ProgressEngine
	throttle *services.EvalThrottle
	log      *logger.Logger
}

func NewAchievementsHandler(engine *usecase.ProgressEngine, throttle *services.EvalThrottle, log *logger.Logger) *AchievementsHandler {
	return &AchievementsHandler{engine: engine, throttle: throttle, log: log}
}

// ListAchievements returns every active template with the caller's earned
// state.
func (h *AchievementsHandler) ListAchievements(c *gin.Context) {
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
	templates, err := h.engine.ActiveTemplates(ctx)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	utils.Success(c, dto.ToAchievementViews(u, templates))
}

// UserAchievements returns only what the caller has earned.
func (h *AchievementsHandler) UserAchievements(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	u, err := h.engine.Snapshot(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	earned := u.Achievements
	if earned == nil {
		earned = []model.EarnedAchievement{}
	}
	utils.Success(c, gin.H{"achievements": earned, "total": len(earned)})
}

// CheckAchievements runs an explicit pass, at most once per interval.
func (h *AchievementsHandler) CheckAchievements(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	if h.throttle != nil {
		allowed, err := h.throttle.Allow(ctx, userID)
		if err != nil {
			// Fail open; the pass is idempotent.
			h.log.Warn("achievement throttle unavailable", "user", userID, "error", err)
		} else if !allowed {
			utils.TooManyRequests(c, "Achievements were checked recently, try again shortly")
			return
		}
	}

	res, err := h.engine.EvaluateAchievements(ctx, userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	awarded := res.Awarded
	if awarded == nil {
		awarded = []model.EarnedAchievement{}
	}
	utils.Success(c, gin.H{
		"newlyAwarded": awarded,
		"points":       res.User.Stats.Rank.Points,
		"rank":         res.User.Stats.Rank.Level,
	})
}
