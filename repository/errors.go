package repository

import "errors"

var (
	// ErrVersionConflict means the document changed since it was read.
	ErrVersionConflict = errors.New("document version conflict")
	// ErrDuplicate means a document with the same key already exists.
	ErrDuplicate = errors.New("duplicate document")
	// ErrNotFound is returned by updates whose filter matched nothing.
	ErrNotFound = errors.New("document not found")
)

const (
	UsersCollection        = "users"
	TopicsCollection       = "topics"
	SubjectsCollection     = "subjects"
	AchievementsCollection = "achievement_templates"
	LeaderboardsCollection = "leaderboards"
	TestsCollection        = "tests"
	DailyProblemCollection = "daily_problems"
)
