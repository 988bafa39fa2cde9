package dto

import (
	"time"

	"learnstack/model"
)

type Link struct {
	Href   string `json:"href"`
	Method string `json:"method,omitempty"`
}

type RegisterProfileRequest struct {
	Username string        `json:"username" binding:"required,min=3,max=40"`
	Email    string        `json:"email" binding:"required,email"`
	Profile  model.Profile `json:"profile"`
}

type UserProfileResponse struct {
	ID           string                    `json:"id"`
	Username     string                    `json:"username"`
	Email        string                    `json:"email"`
	Role         model.Role                `json:"role"`
	Profile      model.Profile             `json:"profile"`
	Preferences  model.Preferences         `json:"preferences"`
	Stats        model.Stats               `json:"stats"`
	LearningPath model.LearningPath        `json:"learningPath"`
	Achievements []model.EarnedAchievement `json:"achievements"`
	CreatedAt    time.Time                 `json:"createdAt"`
	LastLogin    *time.Time                `json:"lastLogin,omitempty"`
	Links        map[string]Link           `json:"_links,omitempty"`
}

func ToUserProfileResponse(u *model.User, links map[string]Link) UserProfileResponse {
	achievements := u.Achievements
	if achievements == nil {
		achievements = []model.EarnedAchievement{}
	}
	return UserProfileResponse{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		Role:         u.Role,
		Profile:      u.Profile,
		Preferences:  u.Preferences,
		Stats:        u.Stats,
		LearningPath: u.LearningPath,
		Achievements: achievements,
		CreatedAt:    u.CreatedAt,
		LastLogin:    u.LastLogin,
		Links:        links,
	}
}
