package usecase

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"learnstack/model"
)

const (
	CriteriaCompleteTopic       = "complete_topic"
	CriteriaAlgorithmsCompleted = "algorithms_completed"
	CriteriaStreak              = "streak"
	CriteriaReachRank           = "reach_rank"
	CriteriaTotalPoints         = "total_points"
	CriteriaPerfectAccuracy     = "perfect_accuracy"
	CriteriaTimeLimit           = "time_limit"
	CriteriaDailyTime           = "daily_time"
	CriteriaMonthlyTime         = "monthly_time"
	CriteriaProfileComplete     = "profile_complete"
	CriteriaFirstLogin          = "first_login"
	CriteriaFirstCompletion     = "first_completion"
)

// Types that seed data may carry but that have no evaluator. They never match.
var unevaluatedCriteria = map[string]bool{
	"speed_completion":     true,
	"high_accuracy_streak": true,
	"efficiency_combo":     true,
	"perfect_streak":       true,
	"time_range":           true,
	"weekend_completion":   true,
	"comeback":             true,
	"perfect_topic":        true,
}

type criteriaOutcome int

const (
	criteriaUnmet criteriaOutcome = iota
	criteriaMet
	criteriaUnknown
	criteriaMalformed
)

// evaluateCriteria checks one predicate against the user snapshot.
func evaluateCriteria(u *model.User, c model.Criteria, now time.Time) criteriaOutcome {
	met := func(ok bool) criteriaOutcome {
		if ok {
			return criteriaMet
		}
		return criteriaUnmet
	}

	switch c.Type {
	case CriteriaCompleteTopic:
		id, ok := stringValue(c.Value)
		if !ok {
			return criteriaMalformed
		}
		tp := u.Progress[id]
		return met(tp != nil && tp.Completion == 100)

	case CriteriaAlgorithmsCompleted:
		n, ok := numberValue(c.Value)
		if !ok {
			return criteriaMalformed
		}
		return met(float64(u.Stats.AlgorithmsCompleted) >= n)

	case CriteriaStreak:
		n, ok := numberValue(c.Value)
		if !ok {
			return criteriaMalformed
		}
		return met(float64(u.Stats.Streak.Current) >= n)

	case CriteriaReachRank:
		level, ok := stringValue(c.Value)
		if !ok {
			return criteriaMalformed
		}
		return met(strings.EqualFold(string(u.Stats.Rank.Level), level))

	case CriteriaTotalPoints:
		n, ok := numberValue(c.Value)
		if !ok {
			return criteriaMalformed
		}
		return met(float64(u.Stats.Rank.Points) >= n)

	case CriteriaPerfectAccuracy:
		n, ok := numberValue(c.Value)
		if !ok {
			return criteriaMalformed
		}
		return met(anyAlgorithm(u, func(ap *model.AlgorithmProgress) bool {
			return ap.Completed && ap.AttemptsPractice > 0 && float64(ap.AccuracyPractice) == n
		}))

	case CriteriaTimeLimit:
		seconds, ok := fieldNumber(c.Value, "seconds")
		if !ok {
			return criteriaMalformed
		}
		return met(anyAlgorithm(u, func(ap *model.AlgorithmProgress) bool {
			return ap.Completed && ap.BestTimePractice != nil && float64(*ap.BestTimePractice) <= seconds
		}))

	case CriteriaDailyTime:
		minutes, ok1 := fieldNumber(c.Value, "minutes")
		days, ok2 := fieldNumber(c.Value, "days")
		if !ok1 || !ok2 || days < 1 {
			return criteriaMalformed
		}
		return met(lastDaysAtLeast(u.DailyActivity, int(days), minutes))

	case CriteriaMonthlyTime:
		n, ok := numberValue(c.Value)
		if !ok {
			return criteriaMalformed
		}
		return met(float64(sumTimeSince(u.DailyActivity, monthStart(now))) >= n)

	case CriteriaProfileComplete:
		p := u.Profile
		return met(strings.TrimSpace(p.FirstName) != "" &&
			strings.TrimSpace(p.LastName) != "" &&
			strings.TrimSpace(p.Bio) != "")

	case CriteriaFirstLogin, CriteriaFirstCompletion:
		return criteriaMet
	}

	if unevaluatedCriteria[c.Type] {
		return criteriaUnmet
	}
	return criteriaUnknown
}

func anyAlgorithm(u *model.User, pred func(*model.AlgorithmProgress) bool) bool {
	for _, tp := range u.Progress {
		if tp == nil {
			continue
		}
		for _, ap := range tp.Algorithms {
			if ap != nil && pred(ap) {
				return true
			}
		}
	}
	return false
}

// lastDaysAtLeast takes the most recent n ledger entries and requires each to
// carry at least minutes of study time.
func lastDaysAtLeast(records []model.DailyActivity, n int, minutes float64) bool {
	if len(records) < n {
		return false
	}
	sorted := append([]model.DailyActivity(nil), records...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })
	for _, r := range sorted[len(sorted)-n:] {
		if float64(r.TimeSpent) < minutes {
			return false
		}
	}
	return true
}

// numberValue accepts the numeric shapes criteria values arrive in from BSON,
// JSON and YAML.
func numberValue(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

func stringValue(v interface{}) (string, bool) {
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// fieldNumber reads a numeric field from a document-shaped value. A bare
// number is accepted as the field itself.
func fieldNumber(v interface{}, key string) (float64, bool) {
	if n, ok := numberValue(v); ok {
		return n, true
	}
	switch doc := v.(type) {
	case map[string]interface{}:
		return numberValue(doc[key])
	case bson.M:
		return numberValue(doc[key])
	case primitive.D:
		return numberValue(doc.Map()[key])
	case map[interface{}]interface{}:
		return numberValue(doc[key])
	}
	return 0, false
}
