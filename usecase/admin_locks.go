package usecase

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"

	"learnstack/model"
	"learnstack/repository"
	"learnstack/utils"
)

type LockScope string

const (
	ScopeTopic     LockScope = "topic"
	ScopeAlgorithm LockScope = "algorithm"
	ScopeSubject   LockScope = "subject"
	// ScopeUser targets every active topic of the selected users.
	ScopeUser LockScope = "user"
)

// LockRequest changes lock state either globally, through the catalog flags,
// or per user through tracked statuses. Exactly one audience is allowed:
// Global, UserIDs or AllUsers.
type LockRequest struct {
	Scope       LockScope `json:"scope" binding:"required,lockscope"`
	TopicID     string    `json:"topicId" binding:"omitempty,catalogid"`
	AlgorithmID string    `json:"algorithmId" binding:"omitempty,catalogid"`
	Subject     string    `json:"subject"`
	Global      bool      `json:"global"`
	UserIDs     []string  `json:"userIds" binding:"omitempty,dive,required"`
	AllUsers    bool      `json:"allUsers"`
	Locked      bool      `json:"locked"`
}

type LockResult struct {
	Scope   LockScope         `json:"scope"`
	Global  bool              `json:"global"`
	Locked  bool              `json:"locked"`
	Topics  []string          `json:"topics"`
	Updated []string          `json:"updatedUsers,omitempty"`
	Failed  map[string]string `json:"failedUsers,omitempty"`
}

// AdminService applies lock overrides. Per-user changes run as independent
// writes so one failing user does not block the others.
type AdminService struct {
	Engine      *ProgressEngine
	Catalog     CatalogAdmin
	Users       UserLister
	Concurrency int
}

func NewAdminService(engine *ProgressEngine, catalog CatalogAdmin, users UserLister, concurrency int) *AdminService {
	return &AdminService{Engine: engine, Catalog: catalog, Users: users, Concurrency: concurrency}
}

func (r LockRequest) validate() error {
	const op = "adminSetLock"
	perUser := len(r.UserIDs) > 0 || r.AllUsers
	if r.Global == perUser {
		return invalid(op, "specify either global or the users to change")
	}
	if len(r.UserIDs) > 0 && r.AllUsers {
		return invalid(op, "userIds and allUsers are mutually exclusive")
	}
	switch r.Scope {
	case ScopeTopic:
		if r.TopicID == "" {
			return invalid(op, "topicId is required")
		}
	case ScopeAlgorithm:
		if r.TopicID == "" || r.AlgorithmID == "" {
			return invalid(op, "topicId and algorithmId are required")
		}
	case ScopeSubject:
		if r.Subject == "" {
			return invalid(op, "subject is required")
		}
	case ScopeUser:
		if r.Global {
			return invalid(op, "user scope cannot be global")
		}
	default:
		return invalid(op, "unknown scope %q", r.Scope)
	}
	return nil
}

// SetLock applies a lock or unlock and reports which users were changed.
func (s *AdminService) SetLock(ctx context.Context, req LockRequest) (res *LockResult, err error) {
	const op = "adminSetLock"
	defer func() { track(op, err) }()

	if err := req.validate(); err != nil {
		return nil, err
	}
	topics, err := s.targets(ctx, req)
	if err != nil {
		return nil, err
	}

	res = &LockResult{Scope: req.Scope, Global: req.Global, Locked: req.Locked}
	for _, t := range topics {
		res.Topics = append(res.Topics, t.ID)
	}

	if req.Global {
		if err := s.setGlobal(ctx, req); err != nil {
			return nil, err
		}
		s.invalidateCatalog(ctx)
		s.Engine.log().Info("global lock changed", "scope", req.Scope, "topic", req.TopicID,
			"algorithm", req.AlgorithmID, "subject", req.Subject, "locked", req.Locked)
		return res, nil
	}

	userIDs := req.UserIDs
	if req.AllUsers {
		if userIDs, err = s.Users.ListUserIDs(ctx); err != nil {
			return nil, unavailable(op, err)
		}
	}

	// Best effort: the pointer can advance after an unlock.
	catalog, _ := s.Engine.loadCatalog(ctx)

	var mu sync.Mutex
	failed := make(map[string]error)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency())
	for _, id := range userIDs {
		id := id
		g.Go(func() error {
			_, err := s.Engine.update(gctx, op, id, func(u *model.User) error {
				applyUserLock(u, topics, req.AlgorithmID, req.Locked)
				if catalog != nil {
					UnlockNextTopic(u, catalog)
				}
				return nil
			})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed[id] = err
			} else {
				res.Updated = append(res.Updated, id)
			}
			// Never cancel siblings.
			return nil
		})
	}
	_ = g.Wait()

	if len(userIDs) == 1 && len(failed) == 1 {
		return nil, failed[userIDs[0]]
	}
	if len(failed) > 0 {
		res.Failed = make(map[string]string, len(failed))
		for id, ferr := range failed {
			res.Failed[id] = ferr.Error()
			s.Engine.log().Warn("per-user lock change failed", "user", id, "error", ferr)
		}
	}
	return res, nil
}

func (s *AdminService) concurrency() int {
	if s.Concurrency < 1 {
		return 8
	}
	return s.Concurrency
}

// targets resolves the catalog topics a request touches.
func (s *AdminService) targets(ctx context.Context, req LockRequest) ([]model.Topic, error) {
	const op = "adminSetLock"
	switch req.Scope {
	case ScopeTopic, ScopeAlgorithm:
		t, err := s.Catalog.FindTopic(ctx, req.TopicID)
		if err != nil {
			return nil, unavailable(op, err)
		}
		if t == nil {
			return nil, notFound(op, "topic %q not found", req.TopicID)
		}
		if req.Scope == ScopeAlgorithm {
			if _, ok := t.Algorithm(req.AlgorithmID); !ok {
				return nil, notFound(op, "algorithm %q not found in topic %q", req.AlgorithmID, req.TopicID)
			}
		}
		return []model.Topic{*t}, nil
	case ScopeSubject:
		topics, err := s.Catalog.TopicsBySubject(ctx, req.Subject)
		if err != nil {
			return nil, unavailable(op, err)
		}
		if len(topics) == 0 {
			return nil, notFound(op, "no topics found for subject %q", req.Subject)
		}
		return topics, nil
	default:
		catalog, err := s.Engine.loadCatalog(ctx)
		if err != nil {
			return nil, unavailable(op, err)
		}
		return catalog.Topics(), nil
	}
}

func (s *AdminService) setGlobal(ctx context.Context, req LockRequest) error {
	const op = "adminSetLock"
	var err error
	switch req.Scope {
	case ScopeTopic:
		err = s.Catalog.SetTopicLock(ctx, req.TopicID, req.Locked)
	case ScopeAlgorithm:
		err = s.Catalog.SetAlgorithmLock(ctx, req.TopicID, req.AlgorithmID, req.Locked)
	case ScopeSubject:
		var n int
		n, err = s.Catalog.SetSubjectLock(ctx, req.Subject, req.Locked)
		if err == nil && n == 0 {
			err = repository.ErrNotFound
		}
	}
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return notFound(op, "lock target not found")
	default:
		return unavailable(op, err)
	}
}

func (s *AdminService) invalidateCatalog(ctx context.Context) {
	inv, ok := s.Engine.Catalog.(CatalogInvalidator)
	if !ok {
		return
	}
	if err := inv.Invalidate(ctx); err != nil {
		utils.TrackError("cache")
		s.Engine.log().Warn("catalog cache invalidation failed", "error", err)
	}
}

// applyUserLock sets tracked statuses directly. Unlocking also marks an
// admin override, which lifts global locks and prerequisite gating for this
// user; locking clears it. Missing entries are created.
func applyUserLock(u *model.User, topics []model.Topic, algorithmID string, locked bool) {
	for i := range topics {
		t := &topics[i]
		tp := u.Progress[t.ID]
		if tp == nil {
			tp = newTopicProgress(t)
			tp.Status = model.TopicAvailable
			u.Progress[t.ID] = tp
		}
		if tp.Algorithms == nil {
			tp.Algorithms = make(map[string]*model.AlgorithmProgress)
		}

		if algorithmID != "" {
			ap := tp.Algorithms[algorithmID]
			if ap == nil {
				ap = newAlgorithmProgress()
				tp.Algorithms[algorithmID] = ap
			}
			if locked {
				ap.Status = model.AlgorithmLocked
				ap.AdminUnlocked = false
			} else {
				if ap.Status == model.AlgorithmLocked {
					ap.Status = model.AlgorithmAvailable
				}
				ap.AdminUnlocked = true
			}
			continue
		}

		if locked {
			tp.Status = model.TopicLocked
			tp.AdminUnlocked = false
		} else {
			if tp.Status == model.TopicLocked {
				tp.Status = model.TopicAvailable
			}
			tp.AdminUnlocked = true
		}
	}
}
