package usecase

import (
	"time"

	"learnstack/model"
)

type NewUser struct {
	ID       string
	Username string
	Email    string
	Role     model.Role
	Profile  model.Profile
}

// InitializeProgress builds a complete user document with a progress tree
// snapshotted from the active catalog. Nothing is persisted here; the caller
// inserts the result in a single write.
func InitializeProgress(in NewUser, catalog *model.Catalog, now time.Time) *model.User {
	role := in.Role
	if role == "" {
		role = model.RoleStudent
	}

	u := &model.User{
		ID:       in.ID,
		Username: in.Username,
		Email:    in.Email,
		Role:     role,
		Profile:  in.Profile,
		Preferences: model.Preferences{
			Theme:         "system",
			Notifications: true,
			Privacy:       model.Privacy{ShowOnLeaderboard: true, ShowProgress: true},
		},
		Progress: make(map[string]*model.TopicProgress, catalog.Len()),
		Stats: model.Stats{
			Rank: model.Rank{Level: model.RankBronze},
		},
		Achievements:  []model.EarnedAchievement{},
		DailyActivity: []model.DailyActivity{},
		LearningPath: model.LearningPath{
			CompletedTopics: []string{},
			TopicOrder:      make([]string, 0, catalog.Len()),
		},
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}

	for i := range catalog.Topics() {
		t := &catalog.Topics()[i]
		u.LearningPath.TopicOrder = append(u.LearningPath.TopicOrder, t.ID)
		u.Progress[t.ID] = newTopicProgress(t)
	}
	if len(u.LearningPath.TopicOrder) > 0 {
		u.LearningPath.CurrentTopic = u.LearningPath.TopicOrder[0]
	}
	if catalog.TotalAlgorithms() == 0 {
		u.Stats.OverallProgress = 100
	}
	return u
}

func newTopicProgress(t *model.Topic) *model.TopicProgress {
	status := model.TopicAvailable
	if t.IsGloballyLocked {
		status = model.TopicLocked
	}
	tp := &model.TopicProgress{
		Status:     status,
		Algorithms: make(map[string]*model.AlgorithmProgress, len(t.Algorithms)),
	}
	for _, a := range t.Algorithms {
		tp.Algorithms[a.ID] = newAlgorithmProgress()
	}
	return tp
}

func newAlgorithmProgress() *model.AlgorithmProgress {
	return &model.AlgorithmProgress{Status: model.AlgorithmAvailable}
}
