package usecase_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"learnstack/logger"
	"learnstack/model"
	"learnstack/test/testutils"
	"learnstack/usecase"
)

func fiveAlgorithmTopic() []model.Topic {
	t := model.Topic{ID: "arrays", Subject: testutils.SubjectAlgorithms, Name: "Arrays", Order: 1, IsActive: true}
	for i := 1; i <= 5; i++ {
		t.Algorithms = append(t.Algorithms, model.AlgorithmDef{ID: fmt.Sprintf("alg%d", i), Name: fmt.Sprintf("Algorithm %d", i)})
	}
	return []model.Topic{t}
}

func TestAlgorithmsCompletedAwardedOnce(t *testing.T) {
	f := newFixture(t, fiveAlgorithmTopic(),
		testutils.Template("fifth", usecase.CriteriaAlgorithmsCompleted, 5, 100))
	f.register(t, "u1")

	for i := 1; i <= 4; i++ {
		res := f.complete(t, "u1", "arrays", fmt.Sprintf("alg%d", i))
		assert.Empty(t, res.Awarded)
	}
	res := f.complete(t, "u1", "arrays", "alg5")
	require.Len(t, res.Awarded, 1)
	assert.Equal(t, "fifth", res.Awarded[0].ID)
	assert.Equal(t, 5*10+100, res.User.Stats.Rank.Points)
	assert.Equal(t, 100, res.User.Stats.OverallProgress)

	res = f.complete(t, "u1", "arrays", "alg5")
	assert.Empty(t, res.Awarded)
	assert.Len(t, res.User.Achievements, 1)

	replaces := f.users.Replaces
	check, err := f.engine.EvaluateAchievements(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, check.Awarded)
	assert.Equal(t, replaces, f.users.Replaces, "a pass that earns nothing is not written")
}

func TestAwardsCascadeThroughPoints(t *testing.T) {
	f := newFixture(t, testutils.Topics(),
		testutils.Template("silver", usecase.CriteriaReachRank, "silver", 0),
		testutils.Template("points", usecase.CriteriaTotalPoints, 500, 0),
		testutils.Template("first", usecase.CriteriaFirstCompletion, nil, 500),
	)
	f.register(t, "u1")

	res := f.complete(t, "u1", testutils.TopicT1, "a1")
	ids := make([]string, 0, len(res.Awarded))
	for _, a := range res.Awarded {
		ids = append(ids, a.ID)
	}
	assert.ElementsMatch(t, []string{"first", "silver", "points"}, ids)
	assert.Equal(t, model.RankSilver, res.User.Stats.Rank.Level)
}

func TestEventScopedCriteria(t *testing.T) {
	f := newFixture(t, testutils.Topics(),
		testutils.Template("hello", usecase.CriteriaFirstLogin, nil, 10))
	f.register(t, "u1")
	ctx := context.Background()

	res, err := f.engine.ApplyActivity(ctx, "u1", model.ActivityDelta{}, usecase.EventProgress)
	require.NoError(t, err)
	assert.Empty(t, res.Awarded)

	res, err = f.engine.ApplyActivity(ctx, "u1", model.ActivityDelta{Session: true}, usecase.EventLogin)
	require.NoError(t, err)
	require.Len(t, res.Awarded, 1)
	assert.Equal(t, 10, res.User.Stats.Rank.Points)

	res, err = f.engine.ApplyActivity(ctx, "u1", model.ActivityDelta{Session: true}, usecase.EventLogin)
	require.NoError(t, err)
	assert.Empty(t, res.Awarded)
}

func TestCriteriaEvaluation(t *testing.T) {
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	best := 25

	base := func() *model.User {
		return &model.User{
			ID: "u1",
			Profile: model.Profile{
				FirstName: "Ada", LastName: "Lovelace", Bio: "engines",
			},
			Progress: map[string]*model.TopicProgress{
				"t1": {
					Completion: 100,
					Algorithms: map[string]*model.AlgorithmProgress{
						"a1": {Completed: true, AttemptsPractice: 2, AccuracyPractice: 100, BestTimePractice: &best},
					},
				},
			},
			Stats: model.Stats{
				AlgorithmsCompleted: 3,
				Streak:              model.Streak{Current: 7},
				Rank:                model.Rank{Level: model.RankGold, Points: 2100},
			},
			DailyActivity: []model.DailyActivity{
				{Date: now.AddDate(0, 0, -2), TimeSpent: 40},
				{Date: now.AddDate(0, 0, -1), TimeSpent: 35},
				{Date: now, TimeSpent: 30},
			},
		}
	}

	tests := []struct {
		name     string
		criteria model.Criteria
		want     bool
	}{
		{"complete topic", model.Criteria{Type: usecase.CriteriaCompleteTopic, Value: "t1"}, true},
		{"incomplete topic", model.Criteria{Type: usecase.CriteriaCompleteTopic, Value: "t9"}, false},
		{"algorithms int32", model.Criteria{Type: usecase.CriteriaAlgorithmsCompleted, Value: int32(3)}, true},
		{"algorithms not reached", model.Criteria{Type: usecase.CriteriaAlgorithmsCompleted, Value: int64(4)}, false},
		{"streak float", model.Criteria{Type: usecase.CriteriaStreak, Value: 7.0}, true},
		{"rank case-insensitive", model.Criteria{Type: usecase.CriteriaReachRank, Value: "GOLD"}, true},
		{"points string", model.Criteria{Type: usecase.CriteriaTotalPoints, Value: "2000"}, true},
		{"perfect accuracy", model.Criteria{Type: usecase.CriteriaPerfectAccuracy, Value: 100}, true},
		{"time limit bson", model.Criteria{Type: usecase.CriteriaTimeLimit, Value: bson.M{"seconds": int32(30)}}, true},
		{"time limit missed", model.Criteria{Type: usecase.CriteriaTimeLimit, Value: map[string]interface{}{"seconds": 20}}, false},
		{"daily time", model.Criteria{Type: usecase.CriteriaDailyTime, Value: bson.M{"minutes": 30, "days": 3}}, true},
		{"daily time too short", model.Criteria{Type: usecase.CriteriaDailyTime, Value: bson.M{"minutes": 31, "days": 3}}, false},
		{"daily time too few days", model.Criteria{Type: usecase.CriteriaDailyTime, Value: bson.M{"minutes": 1, "days": 4}}, false},
		{"monthly time", model.Criteria{Type: usecase.CriteriaMonthlyTime, Value: 105}, true},
		{"profile complete", model.Criteria{Type: usecase.CriteriaProfileComplete}, true},
		{"unevaluated type", model.Criteria{Type: "weekend_completion", Value: 1}, false},
		{"unknown type", model.Criteria{Type: "moon_phase", Value: 1}, false},
		{"malformed value", model.Criteria{Type: usecase.CriteriaStreak, Value: []int{1}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := base()
			tmpl := model.AchievementTemplate{ID: "x", Name: "x", IsActive: true, Criteria: tt.criteria}
			awarded := usecase.AwardAchievements(u, []model.AchievementTemplate{tmpl}, now, logger.Nop(), usecase.EventCheck)
			assert.Equal(t, tt.want, len(awarded) == 1)
		})
	}
}

func TestInactiveTemplatesIgnored(t *testing.T) {
	u := &model.User{ID: "u1"}
	tmpl := testutils.Template("off", usecase.CriteriaAlgorithmsCompleted, 0, 10)
	tmpl.IsActive = false

	awarded := usecase.AwardAchievements(u, []model.AchievementTemplate{tmpl}, time.Now(), nil)
	assert.Empty(t, awarded)
	assert.Equal(t, 0, u.Stats.Rank.Points)
}

func TestBadCriteriaDoNotAbortBatch(t *testing.T) {
	u := &model.User{ID: "u1", Stats: model.Stats{AlgorithmsCompleted: 2}}
	templates := []model.AchievementTemplate{
		testutils.Template("moon", "moon_phase", 1, 10),
		testutils.Template("broken", usecase.CriteriaStreak, []int{1}, 10),
		testutils.Template("weekend", "weekend_completion", 1, 10),
		testutils.Template("pair", usecase.CriteriaAlgorithmsCompleted, 2, 25),
		testutils.Template("bad-points", usecase.CriteriaTotalPoints, "lots", 10),
	}

	awarded := usecase.AwardAchievements(u, templates, time.Now(), logger.Nop(), usecase.EventCheck)
	require.Len(t, awarded, 1)
	assert.Equal(t, "pair", awarded[0].ID)
	assert.Len(t, u.Achievements, 1)
	assert.Equal(t, 25, u.Stats.Rank.Points)
}
