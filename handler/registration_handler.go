package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"learnstack/dto"
	"learnstack/logger"
	"learnstack/model"
	"learnstack/usecase"
	"learnstack/utils"
)

type RegistrationHandler struct {
	engine *usecase.ProgressEngine
	log    *logger.Logger
}

func NewRegistrationHandler(engine *usecase.ProgressEngine, log *logger.Logger) *RegistrationHandler {
	return &RegistrationHandler{engine: engine, log: log}
}

// RegisterProfile creates the caller's learning profile on first sign-in.
// Calling it again returns the existing profile.
func (h *RegistrationHandler) RegisterProfile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.RegisterProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request format")
		return
	}

	u, created, err := h.engine.RegisterUser(c.Request.Context(), usecase.NewUser{
		ID:       userID,
		Username: req.Username,
		Email:    req.Email,
		Role:     model.Role(c.GetString("role")),
		Profile:  req.Profile,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	links := map[string]dto.Link{
		"self":      {Href: utils.GetBaseURL(c) + "/progress/me", Method: http.MethodGet},
		"dashboard": {Href: utils.GetBaseURL(c) + "/progress/dashboard", Method: http.MethodGet},
	}
	resp := dto.ToUserProfileResponse(u, links)
	if created {
		utils.Created(c, resp)
		return
	}
	utils.Success(c, resp)
}
