package handler

import (
	"github.com/gin-gonic/gin"

	"learnstack/logger"
	"learnstack/usecase"
	"learnstack/utils"
)

// respondError maps engine error kinds onto the response envelope.
func respondError(c *gin.Context, log *logger.Logger, err error) {
	msg := usecase.Message(err)
	switch usecase.KindOf(err) {
	case usecase.KindValidation:
		utils.BadRequest(c, orDefault(msg, "Invalid request"))
	case usecase.KindNotFound:
		utils.NotFound(c, orDefault(msg, "Not found"))
	case usecase.KindAccessDenied:
		utils.Forbidden(c, orDefault(msg, "Access denied"))
	case usecase.KindConflict:
		utils.Conflict(c, orDefault(msg, "Conflicting update, try again"))
	case usecase.KindUnavailable:
		log.Warn("dependency unavailable", "path", c.FullPath(), "request_id", c.GetString("request_id"), "error", err)
		utils.ServiceUnavailable(c, "Service temporarily unavailable")
	default:
		utils.TrackError("internal")
		log.Error("request failed", "path", c.FullPath(), "request_id", c.GetString("request_id"), "error", err)
		utils.InternalError(c, "Internal server error")
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// currentUser reads the id set by the auth middleware.
func currentUser(c *gin.Context) (string, bool) {
	userID := c.GetString("user_id")
	if userID == "" {
		utils.Unauthorized(c, "Missing or invalid token")
		return "", false
	}
	return userID, true
}
