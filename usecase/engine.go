package usecase

import (
	"context"
	"errors"
	"math"
	"time"

	"learnstack/logger"
	"learnstack/model"
	"learnstack/repository"
	"learnstack/utils"
)

// errNoChange lets an update callback skip the write.
var errNoChange = errors.New("no change")

var errNoTemplates = errors.New("no achievement template source configured")

// ProgressEngine applies activity and progress events to a user's document
// and keeps the derived stats, unlocks and achievements consistent. Every
// mutation is a read-modify-write conditioned on the document version and is
// retried from a fresh read on conflict.
type ProgressEngine struct {
	Catalog    CatalogReader
	Users      UserStore
	Templates  TemplateReader
	Log        *logger.Logger
	Now        func() time.Time
	MaxRetries int
}

func NewProgressEngine(catalog CatalogReader, users UserStore, templates TemplateReader, log *logger.Logger, maxRetries int) *ProgressEngine {
	if log == nil {
		log = logger.Nop()
	}
	return &ProgressEngine{
		Catalog:    catalog,
		Users:      users,
		Templates:  templates,
		Log:        log,
		Now:        time.Now,
		MaxRetries: maxRetries,
	}
}

type UpdateResult struct {
	User     *model.User               `json:"user"`
	Awarded  []model.EarnedAchievement `json:"newlyAwarded"`
	Warnings []string                  `json:"warnings,omitempty"`
}

type ProgressResult struct {
	UpdateResult
	TopicStatus     model.TopicStatus        `json:"topicStatus"`
	TopicCompletion int                      `json:"topicCompletion"`
	Algorithm       *model.AlgorithmProgress `json:"algorithm"`
}

func (e *ProgressEngine) now() time.Time {
	if e.Now == nil {
		return time.Now().UTC()
	}
	return e.Now().UTC()
}

func (e *ProgressEngine) log() *logger.Logger {
	if e.Log == nil {
		return logger.Nop()
	}
	return e.Log
}

func (e *ProgressEngine) loadCatalog(ctx context.Context) (*model.Catalog, error) {
	topics, err := e.Catalog.ActiveTopics(ctx)
	if err != nil {
		return nil, err
	}
	return model.NewCatalog(topics), nil
}

// templatesFor fetches templates when an achievement pass will run. A fetch
// failure becomes a warning; the caller carries on without awarding.
func (e *ProgressEngine) templatesFor(ctx context.Context, op string, events []Event) ([]model.AchievementTemplate, []string) {
	if len(events) == 0 || e.Templates == nil {
		return nil, nil
	}
	templates, err := e.Templates.ActiveTemplates(ctx)
	if err != nil {
		utils.TrackError("collaborator")
		e.log().Warn("achievement templates unavailable", "op", op, "error", err)
		return nil, []string{"achievements were not evaluated"}
	}
	return templates, nil
}

// update runs fn against a freshly read user and writes the result back if
// nobody else wrote in between. fn may run several times and must derive
// everything from the user it is given.
func (e *ProgressEngine) update(ctx context.Context, op, userID string, fn func(u *model.User) error) (*model.User, error) {
	retries := e.MaxRetries
	if retries < 1 {
		retries = 1
	}
	for attempt := 1; attempt <= retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, unavailable(op, err)
		}
		u, err := e.Users.FindUser(ctx, userID)
		if err != nil {
			return nil, unavailable(op, err)
		}
		if u == nil {
			return nil, notFound(op, "user %q not found", userID)
		}
		if u.Progress == nil {
			u.Progress = make(map[string]*model.TopicProgress)
		}

		if err := fn(u); err != nil {
			if errors.Is(err, errNoChange) {
				return u, nil
			}
			return nil, err
		}

		expected := u.Version
		u.Version = expected + 1
		u.UpdatedAt = e.now()
		err = e.Users.ReplaceUser(ctx, u, expected)
		if err == nil {
			return u, nil
		}
		if !errors.Is(err, repository.ErrVersionConflict) {
			return nil, unavailable(op, err)
		}
		utils.TrackWriteConflict(op)
		e.log().Debug("user write conflict", "op", op, "user", userID, "attempt", attempt)
	}
	return nil, newError(KindConflict, op, "too many concurrent updates, try again", repository.ErrVersionConflict)
}

func track(op string, err error) {
	if err != nil {
		utils.TrackProgressOperation(op, string(KindOf(err)))
		return
	}
	utils.TrackProgressOperation(op, "ok")
}

// RegisterUser creates the user with a freshly initialized progress tree.
// An existing user is returned unchanged with created=false.
func (e *ProgressEngine) RegisterUser(ctx context.Context, in NewUser) (u *model.User, created bool, err error) {
	const op = "registerUser"
	defer func() { track(op, err) }()

	if in.ID == "" || in.Username == "" || in.Email == "" {
		return nil, false, invalid(op, "id, username and email are required")
	}
	existing, err := e.Users.FindUser(ctx, in.ID)
	if err != nil {
		return nil, false, unavailable(op, err)
	}
	if existing != nil {
		return existing, false, nil
	}

	catalog, err := e.loadCatalog(ctx)
	if err != nil {
		return nil, false, unavailable(op, err)
	}
	u = InitializeProgress(in, catalog, e.now())
	if err := e.Users.InsertUser(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			if existing, ferr := e.Users.FindUser(ctx, in.ID); ferr == nil && existing != nil {
				return existing, false, nil
			}
			return nil, false, newError(KindConflict, op, "username or email already registered", err)
		}
		return nil, false, unavailable(op, err)
	}
	e.log().Info("user registered", "user", u.ID, "topics", len(u.LearningPath.TopicOrder))
	return u, true, nil
}

// Snapshot returns the stored user without modifying it.
func (e *ProgressEngine) Snapshot(ctx context.Context, userID string) (*model.User, error) {
	const op = "snapshot"
	u, err := e.Users.FindUser(ctx, userID)
	if err != nil {
		return nil, unavailable(op, err)
	}
	if u == nil {
		return nil, notFound(op, "user %q not found", userID)
	}
	return u, nil
}

// ApplyActivity records an activity delta. With EventLogin among events the
// login timestamp is set and login-scoped achievements are evaluated.
func (e *ProgressEngine) ApplyActivity(ctx context.Context, userID string, delta model.ActivityDelta, events ...Event) (res *UpdateResult, err error) {
	const op = "applyActivity"
	defer func() { track(op, err) }()

	if delta.TimeSpent < 0 || delta.AlgorithmsAttempted < 0 || delta.AlgorithmsCompleted < 0 || delta.PointsEarned < 0 {
		return nil, invalid(op, "activity counters must not be negative")
	}
	templates, warnings := e.templatesFor(ctx, op, events)
	login := newEventSet(events...)[EventLogin]

	var awarded []model.EarnedAchievement
	u, err := e.update(ctx, op, userID, func(u *model.User) error {
		now := e.now()
		RecordActivity(u, delta, now)
		if login {
			u.LastLogin = &now
		}
		awarded = nil
		if templates != nil {
			awarded = AwardAchievements(u, templates, now, e.log(), events...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &UpdateResult{User: u, Awarded: awarded, Warnings: warnings}, nil
}

// ApplyProgressUpdate records one visualization or practice report for an
// algorithm, then refreshes stats, unlocks and achievements.
func (e *ProgressEngine) ApplyProgressUpdate(ctx context.Context, userID, topicID, algorithmID string, delta model.ProgressDelta) (res *ProgressResult, err error) {
	const op = "applyProgressUpdate"
	defer func() { track(op, err) }()

	if topicID == "" || algorithmID == "" {
		return nil, invalid(op, "topic and algorithm are required")
	}
	if delta.Mode != model.ModeVisualization && delta.Mode != model.ModePractice {
		return nil, invalid(op, "mode must be visualization or practice")
	}
	if delta.TimeSpent < 0 || delta.Points < 0 {
		return nil, invalid(op, "time and points must not be negative")
	}

	var warnings []string
	catalog, catErr := e.loadCatalog(ctx)
	if catErr != nil {
		utils.StatsRecalcSkipped.Inc()
		utils.TrackError("collaborator")
		e.log().Warn("catalog unavailable, stats not refreshed", "op", op, "user", userID, "error", catErr)
		warnings = append(warnings, "stats were not refreshed", "algorithm progress was not recorded")
	}
	templates, tw := e.templatesFor(ctx, op, []Event{EventProgress})
	warnings = append(warnings, tw...)

	result := &ProgressResult{}
	u, err := e.update(ctx, op, userID, func(u *model.User) error {
		now := e.now()
		tp, ap, err := progressEntry(u, catalog, topicID, algorithmID, op)
		if err != nil {
			return err
		}

		minutes := sessionMinutes(delta.TimeSpent)
		activity := model.ActivityDelta{
			TimeSpent:    minutes,
			PointsEarned: delta.Points,
			Topic:        topicID,
		}

		// Without a catalog the prerequisites cannot be resolved, so only
		// time and points are kept.
		completedNow := false
		if catalog != nil {
			completedNow = applyProgressDelta(tp, ap, delta, minutes, now)
			if delta.Mode == model.ModePractice {
				activity.AlgorithmsAttempted = 1
			}
			if completedNow {
				activity.AlgorithmsCompleted = 1
			}
		}
		RecordActivity(u, activity, now)

		if catalog != nil {
			completed := RecalculateStats(u, catalog)
			UnlockNextTopic(u, catalog, completed...)
		}

		result.Awarded = nil
		if templates != nil {
			events := []Event{EventProgress}
			if completedNow {
				events = append(events, EventAlgorithmCompleted)
			}
			result.Awarded = AwardAchievements(u, templates, now, e.log(), events...)
		}
		result.TopicStatus = tp.Status
		result.TopicCompletion = tp.Completion
		result.Algorithm = ap
		return nil
	})
	if err != nil {
		return nil, err
	}
	result.User = u
	result.Warnings = warnings
	return result, nil
}

// progressEntry finds, or creates when the catalog defines them, the entries
// a progress report targets, and enforces effective locks. Without a catalog
// only existing entries and their tracked status are consulted, and the
// caller must not change them.
func progressEntry(u *model.User, catalog *model.Catalog, topicID, algorithmID, op string) (*model.TopicProgress, *model.AlgorithmProgress, error) {
	if catalog == nil {
		tp := u.Progress[topicID]
		if tp == nil {
			return nil, nil, notFound(op, "topic %q not found", topicID)
		}
		ap := tp.Algorithms[algorithmID]
		if ap == nil {
			return nil, nil, notFound(op, "algorithm %q not found in topic %q", algorithmID, topicID)
		}
		if tp.Status == model.TopicLocked || ap.Status == model.AlgorithmLocked {
			return nil, nil, accessDenied(op, "algorithm %q is locked", algorithmID)
		}
		return tp, ap, nil
	}

	t, ok := catalog.Topic(topicID)
	if !ok {
		return nil, nil, notFound(op, "topic %q not found", topicID)
	}
	a, ok := t.Algorithm(algorithmID)
	if !ok {
		return nil, nil, notFound(op, "algorithm %q not found in topic %q", algorithmID, topicID)
	}
	if status, reason := AlgorithmStatus(u, t, a); status == model.AlgorithmLocked {
		return nil, nil, accessDenied(op, "algorithm %q is locked (%s)", algorithmID, reason)
	}

	tp := u.Progress[topicID]
	if tp == nil {
		tp = newTopicProgress(t)
		u.Progress[topicID] = tp
	}
	if tp.Algorithms == nil {
		tp.Algorithms = make(map[string]*model.AlgorithmProgress)
	}
	ap := tp.Algorithms[algorithmID]
	if ap == nil {
		ap = newAlgorithmProgress()
		tp.Algorithms[algorithmID] = ap
	}
	return tp, ap, nil
}

// sessionMinutes converts reported seconds to whole minutes, at least one
// for any non-zero report.
func sessionMinutes(seconds int) int {
	if seconds <= 0 {
		return 0
	}
	m := int(math.Round(float64(seconds) / 60))
	if m < 1 {
		m = 1
	}
	return m
}

// applyProgressDelta reports whether the algorithm became completed. A
// completed algorithm is never reverted.
func applyProgressDelta(tp *model.TopicProgress, ap *model.AlgorithmProgress, d model.ProgressDelta, minutes int, now time.Time) bool {
	switch d.Mode {
	case model.ModeVisualization:
		ap.TimeSpentViz += minutes
		ap.LastAttemptViz = &now
	case model.ModePractice:
		ap.AttemptsPractice++
		if d.Accuracy != nil {
			ap.AccuracyPractice = clampPercent(*d.Accuracy)
		}
		if d.BestTime != nil && *d.BestTime > 0 && (ap.BestTimePractice == nil || *d.BestTime < *ap.BestTimePractice) {
			best := *d.BestTime
			ap.BestTimePractice = &best
		}
		ap.PointsPractice += d.Points
		ap.LastAttemptPractice = &now
	}
	tp.TotalTime += minutes
	tp.LastAccessed = &now

	if d.Completed != nil && *d.Completed && !ap.Completed {
		ap.Completed = true
		ap.CompletedAt = &now
		return true
	}
	return false
}

// CheckAccess resolves the effective status of a topic or algorithm for a
// user without modifying anything.
func (e *ProgressEngine) CheckAccess(ctx context.Context, userID, topicID, algorithmID string) (AccessResult, error) {
	const op = "checkAccess"
	u, err := e.Snapshot(ctx, userID)
	if err != nil {
		return AccessResult{}, err
	}
	catalog, err := e.loadCatalog(ctx)
	if err != nil {
		return AccessResult{}, unavailable(op, err)
	}
	return ResolveAccess(u, catalog, topicID, algorithmID)
}

// CheckSubjectAccess reports whether any topic of subject is open to the user.
func (e *ProgressEngine) CheckSubjectAccess(ctx context.Context, userID, subject string) (bool, error) {
	const op = "checkSubjectAccess"
	u, err := e.Snapshot(ctx, userID)
	if err != nil {
		return false, err
	}
	catalog, err := e.loadCatalog(ctx)
	if err != nil {
		return false, unavailable(op, err)
	}
	return SubjectAccessible(u, catalog, subject), nil
}

// EvaluateAchievements runs an explicit achievement pass. Nothing is written
// when nothing new is earned.
func (e *ProgressEngine) EvaluateAchievements(ctx context.Context, userID string, events ...Event) (res *UpdateResult, err error) {
	const op = "evaluateAchievements"
	defer func() { track(op, err) }()

	if len(events) == 0 {
		events = []Event{EventCheck}
	}
	if e.Templates == nil {
		return nil, unavailable(op, errNoTemplates)
	}
	templates, err := e.Templates.ActiveTemplates(ctx)
	if err != nil {
		return nil, unavailable(op, err)
	}

	var awarded []model.EarnedAchievement
	u, err := e.update(ctx, op, userID, func(u *model.User) error {
		awarded = AwardAchievements(u, templates, e.now(), e.log(), events...)
		if len(awarded) == 0 {
			return errNoChange
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &UpdateResult{User: u, Awarded: awarded}, nil
}

// TopicStatuses reports every catalog topic's resolved status for a user.
func (e *ProgressEngine) TopicStatuses(ctx context.Context, userID string) (*model.User, map[string][]TopicStatusReport, error) {
	const op = "topicStatuses"
	u, err := e.Snapshot(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	catalog, err := e.loadCatalog(ctx)
	if err != nil {
		return nil, nil, unavailable(op, err)
	}
	return u, TopicStatuses(u, catalog), nil
}

// CurrentCatalog returns the active catalog.
func (e *ProgressEngine) CurrentCatalog(ctx context.Context) (*model.Catalog, error) {
	catalog, err := e.loadCatalog(ctx)
	if err != nil {
		return nil, unavailable("loadCatalog", err)
	}
	return catalog, nil
}

// ActiveTemplates returns the achievement templates currently awarded.
func (e *ProgressEngine) ActiveTemplates(ctx context.Context) ([]model.AchievementTemplate, error) {
	if e.Templates == nil {
		return nil, unavailable("activeTemplates", errNoTemplates)
	}
	templates, err := e.Templates.ActiveTemplates(ctx)
	if err != nil {
		return nil, unavailable("activeTemplates", err)
	}
	return templates, nil
}
