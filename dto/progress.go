package dto

import (
	"sort"

	"learnstack/model"
	"learnstack/usecase"
)

type ProgressUpdateRequest struct {
	TopicID     string `json:"topicId" binding:"required,catalogid"`
	AlgorithmID string `json:"algorithmId" binding:"required,catalogid"`
	model.ProgressDelta
}

type ProgressUpdateResponse struct {
	Stats           model.Stats               `json:"stats"`
	LearningPath    model.LearningPath        `json:"learningPath"`
	TopicStatus     model.TopicStatus         `json:"topicStatus"`
	TopicCompletion int                       `json:"topicCompletion"`
	Algorithm       *model.AlgorithmProgress  `json:"algorithm"`
	NewlyAwarded    []model.EarnedAchievement `json:"newlyAwarded"`
}

func ToProgressUpdateResponse(r *usecase.ProgressResult) ProgressUpdateResponse {
	return ProgressUpdateResponse{
		Stats:           r.User.Stats,
		LearningPath:    r.User.LearningPath,
		TopicStatus:     r.TopicStatus,
		TopicCompletion: r.TopicCompletion,
		Algorithm:       r.Algorithm,
		NewlyAwarded:    nonNilAwards(r.Awarded),
	}
}

type ActivityResponse struct {
	Stats        model.Stats               `json:"stats"`
	Today        *model.DailyActivity      `json:"today,omitempty"`
	NewlyAwarded []model.EarnedAchievement `json:"newlyAwarded"`
}

func ToActivityResponse(r *usecase.UpdateResult) ActivityResponse {
	resp := ActivityResponse{Stats: r.User.Stats, NewlyAwarded: nonNilAwards(r.Awarded)}
	if n := len(r.User.DailyActivity); n > 0 {
		resp.Today = &r.User.DailyActivity[n-1]
	}
	return resp
}

// recentDays caps the activity history returned on the dashboard.
const recentDays = 7

type DashboardResponse struct {
	User           UserProfileResponse       `json:"user"`
	CurrentTopic   *TopicView                `json:"currentTopic,omitempty"`
	RecentActivity []model.DailyActivity     `json:"recentActivity"`
	NewlyAwarded   []model.EarnedAchievement `json:"newlyAwarded"`
	Position       interface{}               `json:"leaderboardPosition"`
}

func ToDashboardResponse(r *usecase.UpdateResult, current *TopicView, position *model.LeaderboardEntry) DashboardResponse {
	u := r.User
	recent := append([]model.DailyActivity(nil), u.DailyActivity...)
	sort.SliceStable(recent, func(i, j int) bool { return recent[i].Date.After(recent[j].Date) })
	if len(recent) > recentDays {
		recent = recent[:recentDays]
	}
	return DashboardResponse{
		User:           ToUserProfileResponse(u, nil),
		CurrentTopic:   current,
		RecentActivity: recent,
		NewlyAwarded:   nonNilAwards(r.Awarded),
		Position:       PositionValue(position),
	}
}

// PositionValue renders a leaderboard position, or "Unranked".
func PositionValue(e *model.LeaderboardEntry) interface{} {
	if e == nil {
		return "Unranked"
	}
	return e.Position
}

func nonNilAwards(a []model.EarnedAchievement) []model.EarnedAchievement {
	if a == nil {
		return []model.EarnedAchievement{}
	}
	return a
}
