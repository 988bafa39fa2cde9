package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learnstack/model"
	"learnstack/test/testutils"
	"learnstack/usecase"
)

func newTests(t *testing.T) (*fixture, *usecase.TestAttemptService) {
	t.Helper()
	f := newFixture(t, testutils.Topics(),
		testutils.Template("tester", usecase.CriteriaTotalPoints, 50, 5))
	f.register(t, "u1")
	store := testutils.NewMemoryAssessments()
	store.Tests["midterm"] = &model.Test{ID: "midterm", Title: "Midterm", PasswordHash: "opensesame", IsActive: true}
	store.Tests["draft"] = &model.Test{ID: "draft", Title: "Draft", PasswordHash: "opensesame"}
	return f, usecase.NewTestAttemptService(f.engine, store, testutils.PlainPasswords{})
}

func TestStartTest(t *testing.T) {
	_, svc := newTests(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		testID   string
		password string
		kind     usecase.Kind
	}{
		{"missing password", "midterm", "", usecase.KindValidation},
		{"unknown test", "final", "opensesame", usecase.KindNotFound},
		{"inactive test", "draft", "opensesame", usecase.KindAccessDenied},
		{"wrong password", "midterm", "guess", usecase.KindAccessDenied},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Start(ctx, "u1", tt.testID, tt.password)
			assert.True(t, usecase.IsKind(err, tt.kind), "got %v", err)
		})
	}

	first, err := svc.Start(ctx, "u1", "midterm", "opensesame")
	require.NoError(t, err)
	assert.Equal(t, model.AttemptInProgress, first.Status)
	assert.NotEmpty(t, first.ID)

	again, err := svc.Start(ctx, "u1", "midterm", "opensesame")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID, "an open attempt is resumed")
}

func TestViolationsLockAndMentorUnlock(t *testing.T) {
	_, svc := newTests(t)
	ctx := context.Background()

	_, err := svc.RecordViolation(ctx, "u1", "midterm")
	assert.True(t, usecase.IsKind(err, usecase.KindValidation), "no attempt yet")

	_, err = svc.Start(ctx, "u1", "midterm", "opensesame")
	require.NoError(t, err)
	for i := 1; i < model.MaxTestStrikes; i++ {
		a, err := svc.RecordViolation(ctx, "u1", "midterm")
		require.NoError(t, err)
		assert.Equal(t, model.AttemptInProgress, a.Status)
		assert.Equal(t, i, a.Strikes)
	}
	a, err := svc.RecordViolation(ctx, "u1", "midterm")
	require.NoError(t, err)
	assert.Equal(t, model.AttemptLocked, a.Status)

	_, err = svc.Start(ctx, "u1", "midterm", "opensesame")
	assert.True(t, usecase.IsKind(err, usecase.KindAccessDenied))
	_, err = svc.Complete(ctx, "u1", "midterm", 90)
	assert.True(t, usecase.IsKind(err, usecase.KindAccessDenied))

	a, err = svc.Unlock(ctx, "mentor-1", "u1", "midterm")
	require.NoError(t, err)
	assert.Equal(t, model.AttemptInProgress, a.Status)
	assert.Equal(t, 0, a.Strikes)
	assert.Equal(t, "mentor-1", a.UnlockedBy)

	_, err = svc.Unlock(ctx, "mentor-1", "u1", "midterm")
	assert.True(t, usecase.IsKind(err, usecase.KindValidation))
	_, err = svc.Unlock(ctx, "mentor-1", "u1", "final")
	assert.True(t, usecase.IsKind(err, usecase.KindNotFound))
}

func TestCompleteTest(t *testing.T) {
	_, svc := newTests(t)
	ctx := context.Background()
	_, err := svc.Start(ctx, "u1", "midterm", "opensesame")
	require.NoError(t, err)

	_, err = svc.Complete(ctx, "u1", "midterm", 101)
	assert.True(t, usecase.IsKind(err, usecase.KindValidation))

	res, err := svc.Complete(ctx, "u1", "midterm", 88)
	require.NoError(t, err)
	a := res.User.TestAttempts["midterm"]
	assert.Equal(t, model.AttemptCompleted, a.Status)
	assert.Equal(t, 88, a.Score)
	assert.NotNil(t, a.CompletedAt)
	require.Len(t, res.Awarded, 1)
	assert.Equal(t, 55, res.User.Stats.Rank.Points)

	_, err = svc.Start(ctx, "u1", "midterm", "opensesame")
	assert.True(t, usecase.IsKind(err, usecase.KindConflict))
}

func newProblems(t *testing.T, runner *testutils.FakeRunner) (*fixture, *usecase.DailyProblemService, *testutils.MemoryAssessments) {
	t.Helper()
	f := newFixture(t, testutils.Topics())
	f.register(t, "u1")
	store := testutils.NewMemoryAssessments()
	store.Problems["echo"] = &model.DailyProblem{
		ID:           "echo",
		Subject:      testutils.SubjectAlgorithms,
		Title:        "Echo twice",
		Language:     "python",
		SolutionCode: "print(input()*2)",
		TestCases: []model.TestCase{
			{Input: "ab", ExpectedOutput: "abab"},
			{Input: "x", ExpectedOutput: "xx\n"},
		},
		IsActive:  true,
		CreatedAt: day0,
	}
	return f, usecase.NewDailyProblemService(f.engine, store, runner), store
}

func TestSubmitFailThenPass(t *testing.T) {
	runner := testutils.EchoRunner()
	f, svc, _ := newProblems(t, runner)
	ctx := context.Background()

	res, err := svc.Submit(ctx, "u1", "echo", "wrong")
	require.NoError(t, err)
	assert.False(t, res.Passed)
	assert.False(t, res.Attempt.IsLocked)
	assert.Equal(t, 1, res.Attempt.RunCount)
	assert.Empty(t, res.Solution)
	assert.True(t, strings.HasPrefix(res.Output, "[0 / 2 Test Cases Passed]"))
	assert.Contains(t, res.Output, "Test Case 1: Failed")
	require.Len(t, runner.Calls, 1, "grading stops at the first failing case")
	assert.Equal(t, "main.py", runner.Calls[0].FileName)

	res, err = svc.Submit(ctx, "u1", "echo", "correct")
	require.NoError(t, err)
	assert.True(t, res.Passed)
	assert.True(t, res.Attempt.IsLocked)
	assert.Equal(t, "print(input()*2)", res.Solution)
	assert.Contains(t, res.Output, "[2 / 2 Test Cases Passed]")

	u, err := f.engine.Snapshot(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 20, u.Stats.Rank.Points, "points are credited on the first run only")

	_, err = svc.Submit(ctx, "u1", "echo", "correct")
	assert.True(t, usecase.IsKind(err, usecase.KindAccessDenied))
}

func TestSubmitLocksAfterTwoRuns(t *testing.T) {
	_, svc, store := newProblems(t, testutils.EchoRunner())
	store.Problems["echo"].PointsForAttempt = 35
	ctx := context.Background()

	_, err := svc.Submit(ctx, "u1", "echo", "wrong")
	require.NoError(t, err)
	res, err := svc.Submit(ctx, "u1", "echo", "wrong")
	require.NoError(t, err)
	assert.True(t, res.Attempt.IsLocked)
	assert.False(t, res.Passed)
	assert.Equal(t, "print(input()*2)", res.Solution)

	details, err := svc.Details(ctx, "u1", "echo")
	require.NoError(t, err)
	assert.Equal(t, "print(input()*2)", details.Solution)
	assert.Equal(t, 2, details.Attempt.RunCount)
}

func TestSubmitExecutionError(t *testing.T) {
	_, svc, _ := newProblems(t, testutils.EchoRunner())

	res, err := svc.Submit(context.Background(), "u1", "echo", "crash")
	require.NoError(t, err)
	assert.False(t, res.Passed)
	assert.Equal(t, "Test Case 1 Error: segmentation fault\n", res.Output)
	assert.Equal(t, 1, res.Attempt.RunCount)
}

func TestSubmitRunnerFailureKeepsRun(t *testing.T) {
	runner := &testutils.FakeRunner{Respond: func(usecase.RunRequest) (*usecase.RunResult, error) {
		return nil, errors.New("dial tcp: timeout")
	}}
	f, svc, _ := newProblems(t, runner)
	ctx := context.Background()

	_, err := svc.Submit(ctx, "u1", "echo", "anything")
	assert.True(t, usecase.IsKind(err, usecase.KindUnavailable))

	u, err := f.engine.Snapshot(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, u.DailyProblemAttempts["echo"])
}

func TestSubmitRejections(t *testing.T) {
	f, svc, store := newProblems(t, testutils.EchoRunner())
	store.Problems["cprob"] = &model.DailyProblem{ID: "cprob", Subject: "C Programming", IsActive: true, Language: "c"}
	store.Problems["old"] = &model.DailyProblem{ID: "old", Subject: testutils.SubjectAlgorithms}
	ctx := context.Background()

	_, err := svc.Submit(ctx, "u1", "echo", "   ")
	assert.True(t, usecase.IsKind(err, usecase.KindValidation))
	_, err = svc.Submit(ctx, "u1", "missing", "code")
	assert.True(t, usecase.IsKind(err, usecase.KindNotFound))
	_, err = svc.Submit(ctx, "u1", "old", "code")
	assert.True(t, usecase.IsKind(err, usecase.KindNotFound))
	_, err = svc.Submit(ctx, "u1", "cprob", "code")
	assert.True(t, usecase.IsKind(err, usecase.KindAccessDenied), "subject without open topics")

	f.catalog.Err = errors.New("catalog down")
	_, err = svc.Submit(ctx, "u1", "echo", "code")
	assert.True(t, usecase.IsKind(err, usecase.KindUnavailable))
}

func TestActiveAndDetails(t *testing.T) {
	_, svc, _ := newProblems(t, testutils.EchoRunner())
	ctx := context.Background()

	p, err := svc.Active(ctx, "u1", testutils.SubjectAlgorithms)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "echo", p.ID)

	p, err = svc.Active(ctx, "u1", "C Programming")
	require.NoError(t, err)
	assert.Nil(t, p)

	d, err := svc.Details(ctx, "u1", "echo")
	require.NoError(t, err)
	assert.Empty(t, d.Solution)
	require.NotNil(t, d.Attempt)
	assert.Equal(t, 0, d.Attempt.RunCount)
}
