package usecase

import (
	"time"

	"learnstack/logger"
	"learnstack/model"
	"learnstack/utils"
)

// Event names the activity that triggered an achievement pass. Event-only
// criteria are evaluated only when their event is present.
type Event string

const (
	EventLogin              Event = "login"
	EventProgress           Event = "progress"
	EventAlgorithmCompleted Event = "algorithm_completed"
	EventTestCompleted      Event = "test_completed"
	EventDailyProblem       Event = "daily_problem"
	EventCheck              Event = "check"
)

var eventScopedCriteria = map[string]Event{
	CriteriaFirstLogin:      EventLogin,
	CriteriaFirstCompletion: EventAlgorithmCompleted,
}

type eventSet map[Event]bool

func newEventSet(events ...Event) eventSet {
	s := make(eventSet, len(events))
	for _, e := range events {
		s[e] = true
	}
	return s
}

// AwardAchievements appends every active template the user now satisfies and
// has not earned yet, crediting its points. Membership is checked before any
// criteria evaluation, so repeated passes award nothing new.
func AwardAchievements(u *model.User, templates []model.AchievementTemplate, now time.Time, log *logger.Logger, events ...Event) []model.EarnedAchievement {
	if log == nil {
		log = logger.Nop()
	}
	active := newEventSet(events...)
	var awarded []model.EarnedAchievement

	// Awards move points, which can satisfy point and rank criteria earlier
	// in the list, so loop until a pass awards nothing.
	for changed := true; changed; {
		changed = false
		for i := range templates {
			t := &templates[i]
			if !t.IsActive || t.ID == "" || u.HasAchievement(t.ID) {
				continue
			}
			if ev, scoped := eventScopedCriteria[t.Criteria.Type]; scoped && !active[ev] {
				continue
			}

			switch evaluateCriteria(u, t.Criteria, now) {
			case criteriaMet:
			case criteriaUnknown:
				log.Warn("unknown achievement criteria type", "achievement", t.ID, "type", t.Criteria.Type)
				continue
			case criteriaMalformed:
				log.Warn("malformed achievement criteria value", "achievement", t.ID, "type", t.Criteria.Type, "value", t.Criteria.Value)
				continue
			default:
				continue
			}

			earned := model.EarnedAchievement{
				ID:       t.ID,
				Name:     t.Name,
				Points:   t.Points,
				EarnedAt: now,
				Criteria: t.Criteria,
			}
			u.Achievements = append(u.Achievements, earned)
			addPoints(u, t.Points)
			utils.TrackAchievementAwarded(string(t.Rarity))
			awarded = append(awarded, earned)
			changed = true
		}
	}
	return awarded
}
