package usecase

import (
	"context"
	"errors"
	"sort"
	"time"

	"learnstack/logger"
	"learnstack/model"
	"learnstack/repository"
	"learnstack/utils"
)

const defaultLeaderboardSize = 100

// LeaderboardService materializes rankings by rank points. Every type uses
// the same score; only the period window differs.
type LeaderboardService struct {
	Users      UserRanker
	Boards     LeaderboardStore
	Log        *logger.Logger
	Now        func() time.Time
	Size       int
	MaxRetries int
}

func NewLeaderboardService(users UserRanker, boards LeaderboardStore, log *logger.Logger, size, maxRetries int) *LeaderboardService {
	if log == nil {
		log = logger.Nop()
	}
	return &LeaderboardService{Users: users, Boards: boards, Log: log, Now: time.Now, Size: size, MaxRetries: maxRetries}
}

func (s *LeaderboardService) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

func (s *LeaderboardService) size() int {
	if s.Size < 1 {
		return defaultLeaderboardSize
	}
	return s.Size
}

// PeriodFor returns the window a leaderboard type covers at now. Weeks start
// on Sunday; all-time runs from the epoch to now.
func PeriodFor(typ model.LeaderboardType, now time.Time) model.Period {
	now = now.UTC()
	switch typ {
	case model.LeaderboardDaily:
		start := dayStart(now)
		return model.Period{Start: start, End: start.AddDate(0, 0, 1)}
	case model.LeaderboardWeekly:
		start := weekStart(now)
		return model.Period{Start: start, End: start.AddDate(0, 0, 7)}
	case model.LeaderboardMonthly:
		start := monthStart(now)
		return model.Period{Start: start, End: start.AddDate(0, 1, 0)}
	default:
		return model.Period{Start: time.Unix(0, 0).UTC(), End: now}
	}
}

func entryFor(u *model.User) model.LeaderboardEntry {
	return model.LeaderboardEntry{
		UserID:   u.ID,
		Username: u.Username,
		Score:    u.Stats.Rank.Points,
		Metrics: model.LeaderboardMetrics{
			AlgorithmsCompleted: u.Stats.AlgorithmsCompleted,
			AverageAccuracy:     u.Stats.AverageAccuracy,
			TimeSpent:           u.Stats.TimeSpent.Total,
			Streak:              u.Stats.Streak.Current,
		},
	}
}

// rerank sorts by score, highest first, keeping the existing order for ties,
// truncates and renumbers positions from 1.
func rerank(entries []model.LeaderboardEntry, size int) []model.LeaderboardEntry {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
	if len(entries) > size {
		entries = entries[:size]
	}
	for i := range entries {
		entries[i].Position = i + 1
	}
	return entries
}

// Regenerate rebuilds one leaderboard from the users collection and replaces
// the stored document.
func (s *LeaderboardService) Regenerate(ctx context.Context, typ model.LeaderboardType) (lb *model.Leaderboard, err error) {
	const op = "regenerateLeaderboard"
	defer func() { track(op, err) }()

	if !typ.Valid() {
		return nil, invalid(op, "unknown leaderboard type %q", typ)
	}
	users, err := s.Users.TopUsersByPoints(ctx, s.size())
	if err != nil {
		return nil, unavailable(op, err)
	}
	entries := make([]model.LeaderboardEntry, 0, len(users))
	for i := range users {
		entries = append(entries, entryFor(&users[i]))
	}

	now := s.now()
	lb = &model.Leaderboard{
		Type:      typ,
		Period:    PeriodFor(typ, now),
		Rankings:  rerank(entries, s.size()),
		UpdatedAt: now,
		Version:   1,
	}
	if existing, err := s.Boards.GetLeaderboard(ctx, typ); err == nil && existing != nil {
		lb.Version = existing.Version + 1
	}
	if err := s.Boards.ReplaceLeaderboard(ctx, lb); err != nil {
		return nil, unavailable(op, err)
	}
	s.Log.Info("leaderboard regenerated", "type", typ, "entries", len(lb.Rankings))
	return lb, nil
}

// RegenerateAll rebuilds every leaderboard type. It stops at the first
// failure.
func (s *LeaderboardService) RegenerateAll(ctx context.Context) ([]*model.Leaderboard, error) {
	boards := make([]*model.Leaderboard, 0, len(model.LeaderboardTypes))
	for _, typ := range model.LeaderboardTypes {
		lb, err := s.Regenerate(ctx, typ)
		if err != nil {
			return boards, err
		}
		boards = append(boards, lb)
	}
	return boards, nil
}

// Get returns a stored leaderboard, building it on first request.
func (s *LeaderboardService) Get(ctx context.Context, typ model.LeaderboardType) (*model.Leaderboard, error) {
	const op = "getLeaderboard"
	if !typ.Valid() {
		return nil, invalid(op, "unknown leaderboard type %q", typ)
	}
	lb, err := s.Boards.GetLeaderboard(ctx, typ)
	if err != nil {
		return nil, unavailable(op, err)
	}
	if lb == nil {
		return s.Regenerate(ctx, typ)
	}
	return lb, nil
}

// UpdateUserPosition moves one user within the all-time leaderboard without
// a full rebuild. Users who opted out are removed.
func (s *LeaderboardService) UpdateUserPosition(ctx context.Context, u *model.User) (lb *model.Leaderboard, err error) {
	const op = "updateLeaderboardPosition"
	defer func() { track(op, err) }()

	retries := s.MaxRetries
	if retries < 1 {
		retries = 1
	}
	for attempt := 1; attempt <= retries; attempt++ {
		current, err := s.Boards.GetLeaderboard(ctx, model.LeaderboardAllTime)
		if err != nil {
			return nil, unavailable(op, err)
		}
		if current == nil {
			return s.Regenerate(ctx, model.LeaderboardAllTime)
		}

		entries := make([]model.LeaderboardEntry, 0, len(current.Rankings)+1)
		for _, e := range current.Rankings {
			if e.UserID != u.ID {
				entries = append(entries, e)
			}
		}
		if u.Preferences.Privacy.ShowOnLeaderboard {
			entries = append(entries, entryFor(u))
		}

		expected := current.Version
		now := s.now()
		current.Rankings = rerank(entries, s.size())
		current.Period = PeriodFor(model.LeaderboardAllTime, now)
		current.UpdatedAt = now
		current.Version = expected + 1

		err = s.Boards.SaveLeaderboard(ctx, current, expected)
		if err == nil {
			return current, nil
		}
		if !errors.Is(err, repository.ErrVersionConflict) {
			return nil, unavailable(op, err)
		}
		utils.TrackWriteConflict(op)
		s.Log.Debug("leaderboard write conflict", "user", u.ID, "attempt", attempt)
	}
	return nil, newError(KindConflict, op, "leaderboard is busy, try again", repository.ErrVersionConflict)
}

// UserPosition returns the user's all-time entry, or nil when unranked.
func (s *LeaderboardService) UserPosition(ctx context.Context, userID string) (*model.LeaderboardEntry, error) {
	lb, err := s.Get(ctx, model.LeaderboardAllTime)
	if err != nil {
		return nil, err
	}
	for i := range lb.Rankings {
		if lb.Rankings[i].UserID == userID {
			entry := lb.Rankings[i]
			return &entry, nil
		}
	}
	return nil, nil
}
