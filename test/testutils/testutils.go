// Package testutils provides in-memory stores and catalog fixtures for
// package tests. Stored documents are copied on every read and write so a
// test sees the same isolation a database gives.
package testutils

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"learnstack/model"
	"learnstack/repository"
	"learnstack/usecase"
)

// FixedClock returns a clock that always reports t.
func FixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// Clock is a settable clock for multi-day scenarios.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(t time.Time) *Clock {
	return &Clock{now: t}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func clone[T any](v *T) *T {
	if v == nil {
		return nil
	}
	data, err := bson.Marshal(v)
	if err != nil {
		panic(err)
	}
	out := new(T)
	if err := bson.Unmarshal(data, out); err != nil {
		panic(err)
	}
	return out
}

// MemoryUsers is a versioned user store.
type MemoryUsers struct {
	mu    sync.Mutex
	users map[string]*model.User

	// BeforeReplace runs before each versioned write, outside the lock, so a
	// test can interleave a competing writer.
	BeforeReplace func(u *model.User)
	FindErr       error
	Replaces      int
	Conflicts     int
}

func NewMemoryUsers(users ...*model.User) *MemoryUsers {
	m := &MemoryUsers{users: make(map[string]*model.User)}
	for _, u := range users {
		m.users[u.ID] = clone(u)
	}
	return m
}

func (m *MemoryUsers) FindUser(_ context.Context, userID string) (*model.User, error) {
	if m.FindErr != nil {
		return nil, m.FindErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return clone(m.users[userID]), nil
}

func (m *MemoryUsers) InsertUser(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.ID == u.ID || existing.Username == u.Username || existing.Email == u.Email {
			return repository.ErrDuplicate
		}
	}
	m.users[u.ID] = clone(u)
	return nil
}

func (m *MemoryUsers) ReplaceUser(_ context.Context, u *model.User, expectedVersion int64) error {
	if m.BeforeReplace != nil {
		m.BeforeReplace(u)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.users[u.ID]
	if !ok || current.Version != expectedVersion {
		m.Conflicts++
		return repository.ErrVersionConflict
	}
	m.users[u.ID] = clone(u)
	m.Replaces++
	return nil
}

func (m *MemoryUsers) ListUserIDs(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.users))
	for id := range m.users {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *MemoryUsers) TopUsersByPoints(_ context.Context, limit int) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.User
	for _, u := range m.users {
		if u.Preferences.Privacy.ShowOnLeaderboard {
			out = append(out, *clone(u))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Stats.Rank.Points != out[j].Stats.Rank.Points {
			return out[i].Stats.Rank.Points > out[j].Stats.Rank.Points
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Put overwrites a stored user without a version check.
func (m *MemoryUsers) Put(u *model.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = clone(u)
}

// MemoryCatalog serves topics and records global lock changes.
type MemoryCatalog struct {
	mu     sync.Mutex
	topics []model.Topic

	SubjectList   []model.Subject
	Err           error
	Invalidations int
}

func NewMemoryCatalog(topics ...model.Topic) *MemoryCatalog {
	return &MemoryCatalog{topics: topics}
}

func (c *MemoryCatalog) ActiveTopics(_ context.Context) ([]model.Topic, error) {
	if c.Err != nil {
		return nil, c.Err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []model.Topic
	for i := range c.topics {
		if c.topics[i].IsActive {
			out = append(out, *clone(&c.topics[i]))
		}
	}
	return out, nil
}

func (c *MemoryCatalog) Subjects(_ context.Context) ([]model.Subject, error) {
	if c.Err != nil {
		return nil, c.Err
	}
	return c.SubjectList, nil
}

func (c *MemoryCatalog) Invalidate(_ context.Context) error {
	c.mu.Lock()
	c.Invalidations++
	c.mu.Unlock()
	return nil
}

func (c *MemoryCatalog) FindTopic(_ context.Context, topicID string) (*model.Topic, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.topics {
		if c.topics[i].ID == topicID {
			return clone(&c.topics[i]), nil
		}
	}
	return nil, nil
}

func (c *MemoryCatalog) TopicsBySubject(_ context.Context, subject string) ([]model.Topic, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []model.Topic
	for i := range c.topics {
		if c.topics[i].Subject == subject && c.topics[i].IsActive {
			out = append(out, *clone(&c.topics[i]))
		}
	}
	return out, nil
}

func (c *MemoryCatalog) SetTopicLock(_ context.Context, topicID string, locked bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.topics {
		if c.topics[i].ID == topicID {
			c.topics[i].IsGloballyLocked = locked
			return nil
		}
	}
	return repository.ErrNotFound
}

func (c *MemoryCatalog) SetAlgorithmLock(_ context.Context, topicID, algorithmID string, locked bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.topics {
		if c.topics[i].ID != topicID {
			continue
		}
		for j := range c.topics[i].Algorithms {
			if c.topics[i].Algorithms[j].ID == algorithmID {
				c.topics[i].Algorithms[j].IsGloballyLocked = locked
				return nil
			}
		}
	}
	return repository.ErrNotFound
}

func (c *MemoryCatalog) SetSubjectLock(_ context.Context, subject string, locked bool) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for i := range c.topics {
		if c.topics[i].Subject == subject {
			c.topics[i].IsGloballyLocked = locked
			n++
		}
	}
	return n, nil
}

type StaticTemplates struct {
	Templates []model.AchievementTemplate
	Err       error
}

func (s *StaticTemplates) ActiveTemplates(_ context.Context) ([]model.AchievementTemplate, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	var out []model.AchievementTemplate
	for _, t := range s.Templates {
		if t.IsActive {
			out = append(out, t)
		}
	}
	return out, nil
}

// MemoryLeaderboards is a versioned leaderboard store.
type MemoryLeaderboards struct {
	mu     sync.Mutex
	boards map[model.LeaderboardType]*model.Leaderboard

	BeforeSave func()
}

func NewMemoryLeaderboards() *MemoryLeaderboards {
	return &MemoryLeaderboards{boards: make(map[model.LeaderboardType]*model.Leaderboard)}
}

func (m *MemoryLeaderboards) GetLeaderboard(_ context.Context, typ model.LeaderboardType) (*model.Leaderboard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return clone(m.boards[typ]), nil
}

func (m *MemoryLeaderboards) ReplaceLeaderboard(_ context.Context, lb *model.Leaderboard) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.boards[lb.Type] = clone(lb)
	return nil
}

func (m *MemoryLeaderboards) SaveLeaderboard(_ context.Context, lb *model.Leaderboard, expectedVersion int64) error {
	if m.BeforeSave != nil {
		m.BeforeSave()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	current := m.boards[lb.Type]
	switch {
	case expectedVersion == 0 && current != nil:
		return repository.ErrVersionConflict
	case expectedVersion != 0 && (current == nil || current.Version != expectedVersion):
		return repository.ErrVersionConflict
	}
	m.boards[lb.Type] = clone(lb)
	return nil
}

type MemoryAssessments struct {
	Tests    map[string]*model.Test
	Problems map[string]*model.DailyProblem
}

func NewMemoryAssessments() *MemoryAssessments {
	return &MemoryAssessments{
		Tests:    make(map[string]*model.Test),
		Problems: make(map[string]*model.DailyProblem),
	}
}

func (m *MemoryAssessments) FindTest(_ context.Context, testID string) (*model.Test, error) {
	return clone(m.Tests[testID]), nil
}

func (m *MemoryAssessments) FindProblem(_ context.Context, problemID string) (*model.DailyProblem, error) {
	return clone(m.Problems[problemID]), nil
}

func (m *MemoryAssessments) ActiveProblem(_ context.Context, subject string) (*model.DailyProblem, error) {
	var best *model.DailyProblem
	for _, p := range m.Problems {
		if p.Subject == subject && p.IsActive && (best == nil || p.CreatedAt.After(best.CreatedAt)) {
			best = p
		}
	}
	return clone(best), nil
}

// PlainPasswords treats the stored hash as the password itself.
type PlainPasswords struct{}

func (PlainPasswords) CheckPassword(hash, password string) bool {
	return hash == password
}

// FakeRunner answers runs with Respond and counts calls.
type FakeRunner struct {
	mu      sync.Mutex
	Respond func(req usecase.RunRequest) (*usecase.RunResult, error)
	Calls   []usecase.RunRequest
}

func (f *FakeRunner) Run(_ context.Context, req usecase.RunRequest) (*usecase.RunResult, error) {
	f.mu.Lock()
	f.Calls = append(f.Calls, req)
	f.mu.Unlock()
	if f.Respond == nil {
		return nil, errors.New("no runner response configured")
	}
	return f.Respond(req)
}

// EchoRunner returns the stdin doubled for programs that "solve" the
// problem, letting tests decide pass or fail by the submitted code.
func EchoRunner() *FakeRunner {
	return &FakeRunner{Respond: func(req usecase.RunRequest) (*usecase.RunResult, error) {
		if req.Code == "correct" {
			return &usecase.RunResult{Stdout: req.Stdin + req.Stdin + "\n"}, nil
		}
		if req.Code == "crash" {
			return &usecase.RunResult{Stderr: "segmentation fault"}, nil
		}
		return &usecase.RunResult{Stdout: "wrong"}, nil
	}}
}

const (
	SubjectAlgorithms = "Algorithms"
	TopicT1           = "t1"
	TopicT2           = "t2"
)

// Topics returns a two-topic catalog: t1 with algorithms a1 and a2, and t2,
// which requires t1, with algorithm b1.
func Topics() []model.Topic {
	return []model.Topic{
		{
			ID:       TopicT1,
			Subject:  SubjectAlgorithms,
			Name:     "Searching",
			Order:    1,
			IsActive: true,
			Algorithms: []model.AlgorithmDef{
				{ID: "a1", Name: "Linear Search", Difficulty: model.AlgorithmEasy, Points: 10},
				{ID: "a2", Name: "Binary Search", Difficulty: model.AlgorithmEasy, Points: 10},
			},
		},
		{
			ID:            TopicT2,
			Subject:       SubjectAlgorithms,
			Name:          "Sorting",
			Order:         2,
			Prerequisites: []string{TopicT1},
			IsActive:      true,
			Algorithms: []model.AlgorithmDef{
				{ID: "b1", Name: "Bubble Sort", Difficulty: model.AlgorithmEasy, Points: 10},
			},
		},
	}
}

// Template builds an active achievement template.
func Template(id, criteriaType string, value interface{}, points int) model.AchievementTemplate {
	return model.AchievementTemplate{
		ID:       id,
		Name:     id,
		Category: "test",
		Points:   points,
		Rarity:   model.RarityCommon,
		Criteria: model.Criteria{Type: criteriaType, Value: value},
		IsActive: true,
	}
}
