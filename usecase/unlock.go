package usecase

import (
	"learnstack/model"
)

// LockReason explains why an effective status is locked.
type LockReason string

const (
	ReasonNone          LockReason = ""
	ReasonGlobal        LockReason = "global"
	ReasonPrerequisites LockReason = "prerequisites"
	ReasonUser          LockReason = "user"
	ReasonTopic         LockReason = "topic"
)

// prerequisitesMet requires every prerequisite topic to be in the completed
// set and still at 100%.
func prerequisitesMet(u *model.User, t *model.Topic) bool {
	for _, id := range t.Prerequisites {
		if !u.LearningPath.HasCompleted(id) {
			return false
		}
		tp := u.Progress[id]
		if tp == nil || tp.Completion != 100 {
			return false
		}
	}
	return true
}

func algorithmPrerequisitesMet(tp *model.TopicProgress, a *model.AlgorithmDef) bool {
	for _, id := range a.Prerequisites {
		if tp == nil {
			return false
		}
		ap := tp.Algorithms[id]
		if ap == nil || !ap.Completed {
			return false
		}
	}
	return true
}

// TopicStatus resolves the effective status of a catalog topic for a user.
// A global lock wins unless the user holds an admin unlock, then unmet
// prerequisites, then whatever the user's tree tracks.
func TopicStatus(u *model.User, t *model.Topic) (model.TopicStatus, LockReason) {
	tp := u.Progress[t.ID]
	override := tp != nil && tp.AdminUnlocked

	if t.IsGloballyLocked && !override {
		return model.TopicLocked, ReasonGlobal
	}
	if !override && !prerequisitesMet(u, t) {
		return model.TopicLocked, ReasonPrerequisites
	}
	if tp == nil {
		return model.TopicAvailable, ReasonNone
	}
	if tp.Status == model.TopicLocked {
		return model.TopicLocked, ReasonUser
	}
	return tp.Status, ReasonNone
}

// AlgorithmStatus resolves an algorithm the same way, and is always locked
// while its topic is.
func AlgorithmStatus(u *model.User, t *model.Topic, a *model.AlgorithmDef) (model.AlgorithmStatus, LockReason) {
	if status, _ := TopicStatus(u, t); status == model.TopicLocked {
		return model.AlgorithmLocked, ReasonTopic
	}
	tp := u.Progress[t.ID]
	var ap *model.AlgorithmProgress
	if tp != nil {
		ap = tp.Algorithms[a.ID]
	}
	override := ap != nil && ap.AdminUnlocked

	if a.IsGloballyLocked && !override {
		return model.AlgorithmLocked, ReasonGlobal
	}
	if !override && !algorithmPrerequisitesMet(tp, a) {
		return model.AlgorithmLocked, ReasonPrerequisites
	}
	if ap != nil && ap.Status == model.AlgorithmLocked {
		return model.AlgorithmLocked, ReasonUser
	}
	return model.AlgorithmAvailable, ReasonNone
}

type AccessResult struct {
	HasAccess       bool       `json:"hasAccess"`
	EffectiveStatus string     `json:"status"`
	Reason          LockReason `json:"reason,omitempty"`
}

// ResolveAccess gates a topic, or one of its algorithms when algorithmID is
// set. Unknown ids are reported as not found.
func ResolveAccess(u *model.User, catalog *model.Catalog, topicID, algorithmID string) (AccessResult, error) {
	const op = "checkAccess"
	t, ok := catalog.Topic(topicID)
	if !ok {
		return AccessResult{}, notFound(op, "topic %q not found", topicID)
	}
	if algorithmID == "" {
		status, reason := TopicStatus(u, t)
		return AccessResult{
			HasAccess:       status != model.TopicLocked,
			EffectiveStatus: string(status),
			Reason:          reason,
		}, nil
	}
	a, ok := t.Algorithm(algorithmID)
	if !ok {
		return AccessResult{}, notFound(op, "algorithm %q not found in topic %q", algorithmID, topicID)
	}
	status, reason := AlgorithmStatus(u, t, a)
	return AccessResult{
		HasAccess:       status != model.AlgorithmLocked,
		EffectiveStatus: string(status),
		Reason:          reason,
	}, nil
}

// SubjectAccessible reports whether any topic of the subject is open to the
// user. A subject without active topics is not accessible.
func SubjectAccessible(u *model.User, catalog *model.Catalog, subject string) bool {
	for _, t := range catalog.SubjectTopics(subject) {
		t := t
		if status, _ := TopicStatus(u, &t); status != model.TopicLocked {
			return true
		}
	}
	return false
}

func topicIndex(order []string, id string) int {
	for i, v := range order {
		if v == id {
			return i
		}
	}
	return -1
}

// successor returns the next topic after id in the user's topic order that
// the catalog still defines.
func successor(u *model.User, catalog *model.Catalog, id string) (*model.Topic, bool) {
	order := u.LearningPath.TopicOrder
	i := topicIndex(order, id)
	if i < 0 {
		return nil, false
	}
	for _, next := range order[i+1:] {
		if t, ok := catalog.Topic(next); ok {
			return t, true
		}
	}
	return nil, false
}

// unlockSuccessor opens the topic after a completed one when its tracked
// status is locked and its prerequisites are now met.
func unlockSuccessor(u *model.User, catalog *model.Catalog, completedID string) bool {
	tp := u.Progress[completedID]
	if tp == nil || tp.Completion != 100 {
		return false
	}
	next, ok := successor(u, catalog, completedID)
	if !ok {
		return false
	}
	ntp := u.Progress[next.ID]
	if ntp == nil {
		ntp = newTopicProgress(next)
		u.Progress[next.ID] = ntp
	}
	if ntp.Status != model.TopicLocked || !prerequisitesMet(u, next) {
		return false
	}
	ntp.Status = model.TopicAvailable
	return true
}

// UnlockNextTopic runs the natural unlock path for the given completed topics
// and then advances the current-topic pointer across fully completed topics,
// stopping at the first successor that is still locked.
func UnlockNextTopic(u *model.User, catalog *model.Catalog, completed ...string) {
	for _, id := range completed {
		unlockSuccessor(u, catalog, id)
	}

	lp := &u.LearningPath
	if lp.CurrentTopic == "" {
		return
	}
	for steps := 0; steps < len(lp.TopicOrder); steps++ {
		cur := u.Progress[lp.CurrentTopic]
		if cur == nil || cur.Completion != 100 {
			return
		}
		unlockSuccessor(u, catalog, lp.CurrentTopic)
		next, ok := successor(u, catalog, lp.CurrentTopic)
		if !ok {
			return
		}
		if status, _ := TopicStatus(u, next); status == model.TopicLocked {
			return
		}
		lp.CurrentTopic = next.ID
	}
}

type AlgorithmStatusReport struct {
	ID              string                   `json:"id"`
	Name            string                   `json:"name"`
	EffectiveStatus model.AlgorithmStatus    `json:"effectiveStatus"`
	Reason          LockReason               `json:"reason,omitempty"`
	Progress        *model.AlgorithmProgress `json:"userProgress"`
}

type TopicStatusReport struct {
	ID               string                  `json:"id"`
	Name             string                  `json:"name"`
	EffectiveStatus  model.TopicStatus       `json:"effectiveStatus"`
	StatusText       string                  `json:"statusText"`
	Reason           LockReason              `json:"reason,omitempty"`
	IsGloballyLocked bool                    `json:"isGloballyLocked"`
	IsUserLocked     bool                    `json:"isUserLocked"`
	AdminUnlocked    bool                    `json:"adminUnlocked"`
	Algorithms       []AlgorithmStatusReport `json:"algorithms"`
}

// TopicStatuses groups every catalog topic by subject with its resolved
// status, for admin review.
func TopicStatuses(u *model.User, catalog *model.Catalog) map[string][]TopicStatusReport {
	out := make(map[string][]TopicStatusReport)
	for i := range catalog.Topics() {
		t := &catalog.Topics()[i]
		tp := u.Progress[t.ID]
		status, reason := TopicStatus(u, t)
		report := TopicStatusReport{
			ID:               t.ID,
			Name:             t.Name,
			EffectiveStatus:  status,
			StatusText:       statusText(t, tp, status, reason),
			Reason:           reason,
			IsGloballyLocked: t.IsGloballyLocked,
			IsUserLocked:     tp != nil && tp.Status == model.TopicLocked,
			AdminUnlocked:    tp != nil && tp.AdminUnlocked,
		}
		for j := range t.Algorithms {
			a := &t.Algorithms[j]
			astatus, areason := AlgorithmStatus(u, t, a)
			var ap *model.AlgorithmProgress
			if tp != nil {
				ap = tp.Algorithms[a.ID]
			}
			if ap == nil {
				ap = newAlgorithmProgress()
			}
			report.Algorithms = append(report.Algorithms, AlgorithmStatusReport{
				ID:              a.ID,
				Name:            a.Name,
				EffectiveStatus: astatus,
				Reason:          areason,
				Progress:        ap,
			})
		}
		subject := t.Subject
		if subject == "" {
			subject = "General"
		}
		out[subject] = append(out[subject], report)
	}
	return out
}

func statusText(t *model.Topic, tp *model.TopicProgress, status model.TopicStatus, reason LockReason) string {
	switch reason {
	case ReasonGlobal:
		return "Locked Globally"
	case ReasonPrerequisites:
		return "Locked (Prerequisites)"
	case ReasonUser:
		return "Locked for User"
	}
	label := titleStatus(status)
	if t.IsGloballyLocked && tp != nil && tp.AdminUnlocked {
		return "Unlocked for User (" + label + ")"
	}
	return label
}

func titleStatus(s model.TopicStatus) string {
	switch s {
	case model.TopicAvailable:
		return "Available"
	case model.TopicInProgress:
		return "In Progress"
	case model.TopicCompleted:
		return "Completed"
	default:
		return "Locked"
	}
}
