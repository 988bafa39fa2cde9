package usecase

import (
	"context"

	"learnstack/model"
)

// CatalogReader yields the active topics. Implementations may cache.
type CatalogReader interface {
	ActiveTopics(ctx context.Context) ([]model.Topic, error)
}

// CatalogInvalidator is implemented by cached catalog readers.
type CatalogInvalidator interface {
	Invalidate(ctx context.Context) error
}

// CatalogAdmin changes global lock flags in the catalog store.
type CatalogAdmin interface {
	FindTopic(ctx context.Context, topicID string) (*model.Topic, error)
	TopicsBySubject(ctx context.Context, subject string) ([]model.Topic, error)
	SetTopicLock(ctx context.Context, topicID string, locked bool) error
	SetAlgorithmLock(ctx context.Context, topicID, algorithmID string, locked bool) error
	SetSubjectLock(ctx context.Context, subject string, locked bool) (int, error)
}

// UserStore persists user documents. FindUser returns nil, nil for unknown
// ids; ReplaceUser fails with repository.ErrVersionConflict when the stored
// version differs from expectedVersion.
type UserStore interface {
	FindUser(ctx context.Context, userID string) (*model.User, error)
	InsertUser(ctx context.Context, user *model.User) error
	ReplaceUser(ctx context.Context, user *model.User, expectedVersion int64) error
}

type UserLister interface {
	ListUserIDs(ctx context.Context) ([]string, error)
}

type UserRanker interface {
	TopUsersByPoints(ctx context.Context, limit int) ([]model.User, error)
}

type TemplateReader interface {
	ActiveTemplates(ctx context.Context) ([]model.AchievementTemplate, error)
}

// LeaderboardStore holds one document per leaderboard type.
type LeaderboardStore interface {
	GetLeaderboard(ctx context.Context, typ model.LeaderboardType) (*model.Leaderboard, error)
	ReplaceLeaderboard(ctx context.Context, lb *model.Leaderboard) error
	SaveLeaderboard(ctx context.Context, lb *model.Leaderboard, expectedVersion int64) error
}

type TestStore interface {
	FindTest(ctx context.Context, testID string) (*model.Test, error)
}

type DailyProblemStore interface {
	FindProblem(ctx context.Context, problemID string) (*model.DailyProblem, error)
	ActiveProblem(ctx context.Context, subject string) (*model.DailyProblem, error)
}

// PasswordChecker verifies a plain password against a stored hash.
type PasswordChecker interface {
	CheckPassword(hash, password string) bool
}

type RunRequest struct {
	Language string
	FileName string
	Code     string
	Stdin    string
}

type RunResult struct {
	Stdout    string
	Stderr    string
	Exception string
}

// CodeRunner executes submitted code in an external sandbox.
type CodeRunner interface {
	Run(ctx context.Context, req RunRequest) (*RunResult, error)
}
