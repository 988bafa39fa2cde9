package dto

import "learnstack/model"

type StartTestRequest struct {
	Password string `json:"password"`
}

type TestActionRequest struct {
	TestID string `json:"testId" binding:"required"`
}

type CompleteTestRequest struct {
	TestID string `json:"testId" binding:"required"`
	Score  int    `json:"score" binding:"gte=0,lte=100"`
}

type UnlockAttemptRequest struct {
	UserID string `json:"userId" binding:"required"`
	TestID string `json:"testId" binding:"required"`
}

type SubmitCodeRequest struct {
	ProblemID     string `json:"problemId" binding:"required"`
	SubmittedCode string `json:"submittedCode" binding:"required"`
}

type SubmitCodeResponse struct {
	Passed       bool                      `json:"passed"`
	IsLocked     bool                      `json:"isLocked"`
	RunCount     int                       `json:"runCount"`
	LastResults  string                    `json:"lastResults"`
	SolutionCode *string                   `json:"solutionCode"`
	NewlyAwarded []model.EarnedAchievement `json:"newlyAwarded"`
}

type RegenerateRequest struct {
	Type model.LeaderboardType `json:"type" binding:"omitempty,leaderboardtype"`
}
