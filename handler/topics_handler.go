package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"learnstack/dto"
	"learnstack/logger"
	"learnstack/model"
	"learnstack/usecase"
	"learnstack/utils"
)

// SubjectSource lists the subjects topics are grouped under.
type SubjectSource interface {
	Subjects(ctx context.Context) ([]model.Subject, error)
}

// TopicsHandler serves the catalog resolved against the caller's progress.
type TopicsHandler struct {
	engine   *usecase.ProgressEngine
	subjects SubjectSource
	log      *logger.Logger
}

func NewTopicsHandler(engine *usecase.ProgressEngine, subjects SubjectSource, log *logger.Logger) *TopicsHandler {
	return &TopicsHandler{engine: engine, subjects: subjects, log: log}
}

func (h *TopicsHandler) ListSubjects(c *gin.Context) {
	subjects, err := h.subjects.Subjects(c.Request.Context())
	if err != nil {
		h.log.Error("failed to list subjects", "error", err)
		utils.ServiceUnavailable(c, "Catalog is temporarily unavailable")
		return
	}
	if subjects == nil {
		subjects = []model.Subject{}
	}
	utils.Success(c, subjects)
}

func (h *TopicsHandler) ListTopics(c *gin.Context) {
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
	catalog, err := h.engine.CurrentCatalog(ctx)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	topics := catalog.Topics()
	if subject := c.Query("subject"); subject != "" {
		topics = catalog.SubjectTopics(subject)
	}
	utils.Success(c, dto.ToTopicViews(u, topics))
}

func (h *TopicsHandler) GetTopic(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	topicID := c.Param("id")
	if !utils.ValidCatalogID(topicID) {
		utils.BadRequest(c, "Invalid topic id")
		return
	}
	ctx := c.Request.Context()
	u, err := h.engine.Snapshot(ctx, userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	catalog, err := h.engine.CurrentCatalog(ctx)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	t, found := catalog.Topic(topicID)
	if !found {
		utils.NotFound(c, "Topic not found")
		return
	}
	utils.Success(c, dto.ToTopicView(u, t))
}
