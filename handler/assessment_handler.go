package handler

import (
	"github.com/gin-gonic/gin"

	"learnstack/dto"
	"learnstack/logger"
	"learnstack/model"
	"learnstack/usecase"
	"learnstack/utils"
)

type AssessmentHandler struct {
	tests    *usecase.TestAttemptService
	problems *usecase.DailyProblemService
	log      *logger.Logger
}

func NewAssessmentHandler(tests *usecase.TestAttemptService, problems *usecase.DailyProblemService, log *logger.Logger) *AssessmentHandler {
	return &AssessmentHandler{tests: tests, problems: problems, log: log}
}

func (h *AssessmentHandler) StartTest(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.StartTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request format")
		return
	}
	attempt, err := h.tests.Start(c.Request.Context(), userID, c.Param("testId"), req.Password)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	utils.Success(c, attempt)
}

func (h *AssessmentHandler) RecordViolation(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.TestActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request format")
		return
	}
	attempt, err := h.tests.RecordViolation(c.Request.Context(), userID, req.TestID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	utils.Success(c, gin.H{
		"strikes": attempt.Strikes,
		"status":  attempt.Status,
		"locked":  attempt.Status == model.AttemptLocked,
	})
}

func (h *AssessmentHandler) CompleteTest(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.CompleteTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request format")
		return
	}
	res, err := h.tests.Complete(c.Request.Context(), userID, req.TestID, req.Score)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	awarded := res.Awarded
	if awarded == nil {
		awarded = []model.EarnedAchievement{}
	}
	utils.WithWarnings(c, gin.H{
		"attempt":      res.User.TestAttempts[req.TestID],
		"newlyAwarded": awarded,
	}, res.Warnings)
}

// UnlockAttempt is the mentor override for a locked attempt.
func (h *AssessmentHandler) UnlockAttempt(c *gin.Context) {
	mentorID, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.UnlockAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request format")
		return
	}
	attempt, err := h.tests.Unlock(c.Request.Context(), mentorID, req.UserID, req.TestID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	utils.Success(c, attempt)
}

func (h *AssessmentHandler) ActiveProblem(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	p, err := h.problems.Active(c.Request.Context(), userID, c.Param("subject"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if p == nil {
		utils.Success(c, gin.H{"problem": nil})
		return
	}
	utils.Success(c, gin.H{"problem": gin.H{"id": p.ID, "title": p.Title, "subject": p.Subject}})
}

func (h *AssessmentHandler) ProblemDetails(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	d, err := h.problems.Details(c.Request.Context(), userID, c.Param("problemId"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	utils.Success(c, d)
}

func (h *AssessmentHandler) SubmitCode(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.SubmitCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request format")
		return
	}
	res, err := h.problems.Submit(c.Request.Context(), userID, req.ProblemID, req.SubmittedCode)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	resp := dto.SubmitCodeResponse{
		Passed:       res.Passed,
		IsLocked:     res.Attempt.IsLocked,
		RunCount:     res.Attempt.RunCount,
		LastResults:  res.Attempt.LastResults,
		NewlyAwarded: res.Awarded,
	}
	if resp.NewlyAwarded == nil {
		resp.NewlyAwarded = []model.EarnedAchievement{}
	}
	if res.Solution != "" {
		solution := res.Solution
		resp.SolutionCode = &solution
	}
	utils.WithWarnings(c, resp, res.Warnings)
}
