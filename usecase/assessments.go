package usecase

import (
	"context"
	"fmt"
	"strings"

	"learnstack/model"
	"learnstack/utils"
)

// Points credited for finishing a proctored test.
const testCompletionPoints = 50

// Default points for the first run of a daily problem.
const defaultDailyProblemPoints = 20

// TestAttemptService runs proctored test attempts. Attempts live on the user
// document, keyed by test id, so they share the engine's versioned writes.
type TestAttemptService struct {
	Engine    *ProgressEngine
	Tests     TestStore
	Passwords PasswordChecker
}

func NewTestAttemptService(engine *ProgressEngine, tests TestStore, passwords PasswordChecker) *TestAttemptService {
	return &TestAttemptService{Engine: engine, Tests: tests, Passwords: passwords}
}

// Start opens, or resumes, the user's attempt at a test. A wrong password or a
// locked attempt is refused.
func (s *TestAttemptService) Start(ctx context.Context, userID, testID, password string) (attempt *model.TestAttempt, err error) {
	const op = "startTest"
	defer func() { track(op, err) }()

	if password == "" {
		return nil, invalid(op, "password is required")
	}
	test, err := s.Tests.FindTest(ctx, testID)
	if err != nil {
		return nil, unavailable(op, err)
	}
	if test == nil {
		return nil, notFound(op, "test %q not found", testID)
	}
	if !test.IsActive {
		return nil, accessDenied(op, "test is not active")
	}
	if !s.Passwords.CheckPassword(test.PasswordHash, password) {
		return nil, accessDenied(op, "invalid test password")
	}

	_, err = s.Engine.update(ctx, op, userID, func(u *model.User) error {
		if u.TestAttempts == nil {
			u.TestAttempts = make(map[string]*model.TestAttempt)
		}
		if existing := u.TestAttempts[testID]; existing != nil {
			switch existing.Status {
			case model.AttemptLocked:
				return accessDenied(op, "attempt is locked, ask a mentor to unlock it")
			case model.AttemptCompleted:
				return newError(KindConflict, op, "test already completed", nil)
			}
			attempt = existing
			return errNoChange
		}
		attempt = &model.TestAttempt{
			ID:        utils.NewID(),
			TestID:    testID,
			Status:    model.AttemptInProgress,
			StartedAt: s.Engine.now(),
		}
		u.TestAttempts[testID] = attempt
		return nil
	})
	if err != nil {
		return nil, err
	}
	return attempt, nil
}

func inProgressAttempt(u *model.User, testID string) *model.TestAttempt {
	a := u.TestAttempts[testID]
	if a == nil || a.Status != model.AttemptInProgress {
		return nil
	}
	return a
}

// RecordViolation adds a strike to an in-progress attempt and locks it once
// the strike limit is reached.
func (s *TestAttemptService) RecordViolation(ctx context.Context, userID, testID string) (attempt *model.TestAttempt, err error) {
	const op = "recordViolation"
	defer func() { track(op, err) }()

	_, err = s.Engine.update(ctx, op, userID, func(u *model.User) error {
		a := inProgressAttempt(u, testID)
		if a == nil {
			return invalid(op, "no attempt in progress for test %q", testID)
		}
		a.Strikes++
		if a.Strikes >= model.MaxTestStrikes {
			a.Status = model.AttemptLocked
		}
		attempt = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	if attempt.Status == model.AttemptLocked {
		s.Engine.log().Warn("test attempt locked", "user", userID, "test", testID, "strikes", attempt.Strikes)
	}
	return attempt, nil
}

// Complete closes an in-progress attempt, credits completion points and runs
// the achievement pass.
func (s *TestAttemptService) Complete(ctx context.Context, userID, testID string, score int) (res *UpdateResult, err error) {
	const op = "completeTest"
	defer func() { track(op, err) }()

	if score < 0 || score > 100 {
		return nil, invalid(op, "score must be between 0 and 100")
	}
	templates, warnings := s.Engine.templatesFor(ctx, op, []Event{EventTestCompleted})

	var awarded []model.EarnedAchievement
	u, err := s.Engine.update(ctx, op, userID, func(u *model.User) error {
		a := inProgressAttempt(u, testID)
		if a == nil {
			return accessDenied(op, "no attempt in progress for test %q", testID)
		}
		now := s.Engine.now()
		a.Status = model.AttemptCompleted
		a.Score = score
		a.CompletedAt = &now

		RecordActivity(u, model.ActivityDelta{PointsEarned: testCompletionPoints}, now)
		awarded = nil
		if templates != nil {
			awarded = AwardAchievements(u, templates, now, s.Engine.log(), EventTestCompleted)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &UpdateResult{User: u, Awarded: awarded, Warnings: warnings}, nil
}

// Unlock reopens a locked attempt on a mentor's behalf and clears its strikes.
func (s *TestAttemptService) Unlock(ctx context.Context, mentorID, userID, testID string) (attempt *model.TestAttempt, err error) {
	const op = "unlockTestAttempt"
	defer func() { track(op, err) }()

	_, err = s.Engine.update(ctx, op, userID, func(u *model.User) error {
		a := u.TestAttempts[testID]
		if a == nil {
			return notFound(op, "no attempt for test %q", testID)
		}
		if a.Status != model.AttemptLocked {
			return invalid(op, "attempt is not locked")
		}
		a.Status = model.AttemptInProgress
		a.Strikes = 0
		a.UnlockedBy = mentorID
		attempt = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.Engine.log().Info("test attempt unlocked", "user", userID, "test", testID, "mentor", mentorID)
	return attempt, nil
}

// DailyProblemService grades daily coding problems against their test cases
// using an external runner. Each user gets a limited number of runs.
type DailyProblemService struct {
	Engine   *ProgressEngine
	Problems DailyProblemStore
	Runner   CodeRunner
}

func NewDailyProblemService(engine *ProgressEngine, problems DailyProblemStore, runner CodeRunner) *DailyProblemService {
	return &DailyProblemService{Engine: engine, Problems: problems, Runner: runner}
}

type SubmitResult struct {
	Attempt  *model.DailyProblemAttempt `json:"attempt"`
	Passed   bool                       `json:"passed"`
	Output   string                     `json:"output"`
	Solution string                     `json:"solution,omitempty"`
	Awarded  []model.EarnedAchievement  `json:"newlyAwarded"`
	Warnings []string                   `json:"warnings,omitempty"`
}

// sourceFileName picks the file name the runner expects for a language.
func sourceFileName(language string) string {
	switch strings.ToLower(language) {
	case "c":
		return "main.c"
	case "cpp", "c++":
		return "main.cpp"
	case "python", "python3":
		return "main.py"
	case "java":
		return "Main.java"
	default:
		return "index.js"
	}
}

// grade runs the cases in order and stops at the first error or mismatch.
// It returns the number of cases passed, the per-case report and the
// execution error text, if any. A transport failure is returned as err.
func (s *DailyProblemService) grade(ctx context.Context, p *model.DailyProblem, code string) (int, string, string, error) {
	var report strings.Builder
	passed := 0
	for i, tc := range p.TestCases {
		res, err := s.Runner.Run(ctx, RunRequest{
			Language: p.Language,
			FileName: sourceFileName(p.Language),
			Code:     code,
			Stdin:    tc.Input,
		})
		if err != nil {
			return passed, "", "", err
		}
		if res.Exception != "" || res.Stderr != "" {
			msg := res.Exception
			if msg == "" {
				msg = res.Stderr
			}
			execErr := fmt.Sprintf("Test Case %d Error: %s", i+1, msg)
			report.WriteString(execErr + "\n")
			return passed, report.String(), execErr, nil
		}
		got := strings.TrimSpace(res.Stdout)
		want := strings.TrimSpace(tc.ExpectedOutput)
		if got != want {
			fmt.Fprintf(&report, "Test Case %d: Failed\n  Expected: %q\n  Got: %q\n", i+1, want, got)
			return passed, report.String(), "", nil
		}
		passed++
		fmt.Fprintf(&report, "Test Case %d: Passed\n", i+1)
	}
	return passed, report.String(), "", nil
}

func resultsText(passed, total int, report, execErr string) string {
	if execErr != "" {
		return report
	}
	return fmt.Sprintf("[%d / %d Test Cases Passed]\n\n%s", passed, total, report)
}

// Submit grades one code submission. The first run earns the problem's
// attempt points; the attempt locks once it passes or runs out of runs, and
// the reference solution is revealed then.
func (s *DailyProblemService) Submit(ctx context.Context, userID, problemID, code string) (res *SubmitResult, err error) {
	const op = "submitDailyProblem"
	defer func() { track(op, err) }()

	if strings.TrimSpace(code) == "" {
		return nil, invalid(op, "code is required")
	}
	p, err := s.Problems.FindProblem(ctx, problemID)
	if err != nil {
		return nil, unavailable(op, err)
	}
	if p == nil || !p.IsActive {
		return nil, notFound(op, "problem %q not found", problemID)
	}

	// The checks below repeat inside the write; this read keeps a refused
	// submission from reaching the runner.
	u, err := s.Engine.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p.Subject != "" {
		catalog, err := s.Engine.loadCatalog(ctx)
		if err != nil {
			return nil, unavailable(op, err)
		}
		if !SubjectAccessible(u, catalog, p.Subject) {
			return nil, accessDenied(op, "subject %q is locked", p.Subject)
		}
	}
	prev := u.DailyProblemAttempts[problemID]
	runs := 0
	if prev != nil {
		if prev.IsLocked || prev.Passed {
			return nil, accessDenied(op, "problem is locked for this user")
		}
		runs = prev.RunCount
	}
	if runs >= model.MaxDailyProblemRuns {
		if _, err := s.lockExhausted(ctx, userID, problemID); err != nil {
			return nil, err
		}
		return nil, accessDenied(op, "no runs left for this problem")
	}

	casesPassed, report, execErr, err := s.grade(ctx, p, code)
	if err != nil {
		utils.TrackError("collaborator")
		s.Engine.log().Warn("code runner failed", "problem", problemID, "error", err)
		return nil, unavailable(op, err)
	}
	passed := execErr == "" && casesPassed == len(p.TestCases)
	output := resultsText(casesPassed, len(p.TestCases), report, execErr)

	points := p.PointsForAttempt
	if points <= 0 {
		points = defaultDailyProblemPoints
	}
	templates, warnings := s.Engine.templatesFor(ctx, op, []Event{EventDailyProblem})

	res = &SubmitResult{Passed: passed, Output: output, Warnings: warnings}
	_, err = s.Engine.update(ctx, op, userID, func(u *model.User) error {
		if u.DailyProblemAttempts == nil {
			u.DailyProblemAttempts = make(map[string]*model.DailyProblemAttempt)
		}
		a := u.DailyProblemAttempts[problemID]
		if a == nil {
			a = &model.DailyProblemAttempt{ProblemID: problemID}
			u.DailyProblemAttempts[problemID] = a
		}
		if a.RunCount != runs || a.IsLocked {
			return newError(KindConflict, op, "another submission was recorded meanwhile", nil)
		}

		now := s.Engine.now()
		a.RunCount++
		a.LastResults = output
		a.LastSubmittedCode = code
		a.LastSubmittedAt = &now
		a.Passed = passed
		if passed || a.RunCount >= model.MaxDailyProblemRuns {
			a.IsLocked = true
		}

		delta := model.ActivityDelta{AlgorithmsAttempted: 1}
		if !a.PointsAwarded {
			a.PointsAwarded = true
			delta.PointsEarned = points
		}
		RecordActivity(u, delta, now)

		res.Awarded = nil
		if templates != nil {
			res.Awarded = AwardAchievements(u, templates, now, s.Engine.log(), EventDailyProblem)
		}
		res.Attempt = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	if res.Attempt.IsLocked {
		res.Solution = p.SolutionCode
	}
	return res, nil
}

// lockExhausted locks an attempt whose runs are used up.
func (s *DailyProblemService) lockExhausted(ctx context.Context, userID, problemID string) (*model.User, error) {
	return s.Engine.update(ctx, "submitDailyProblem", userID, func(u *model.User) error {
		a := u.DailyProblemAttempts[problemID]
		if a == nil || a.IsLocked {
			return errNoChange
		}
		a.IsLocked = true
		return nil
	})
}

// Active returns the subject's current problem, or nil when there is none
// or the subject is locked for the user.
func (s *DailyProblemService) Active(ctx context.Context, userID, subject string) (*model.DailyProblem, error) {
	const op = "activeDailyProblem"
	ok, err := s.Engine.CheckSubjectAccess(ctx, userID, subject)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	p, err := s.Problems.ActiveProblem(ctx, subject)
	if err != nil {
		return nil, unavailable(op, err)
	}
	return p, nil
}

type ProblemDetails struct {
	Problem  *model.DailyProblem        `json:"problem"`
	Attempt  *model.DailyProblemAttempt `json:"attempt"`
	Solution string                     `json:"solution,omitempty"`
}

// Details returns a problem with the user's attempt. The solution is only
// included once the attempt is locked or passed.
func (s *DailyProblemService) Details(ctx context.Context, userID, problemID string) (*ProblemDetails, error) {
	const op = "dailyProblemDetails"
	p, err := s.Problems.FindProblem(ctx, problemID)
	if err != nil {
		return nil, unavailable(op, err)
	}
	if p == nil {
		return nil, notFound(op, "problem %q not found", problemID)
	}
	u, err := s.Engine.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p.Subject != "" {
		catalog, err := s.Engine.loadCatalog(ctx)
		if err != nil {
			return nil, unavailable(op, err)
		}
		if !SubjectAccessible(u, catalog, p.Subject) {
			return nil, accessDenied(op, "subject %q is locked", p.Subject)
		}
	}

	d := &ProblemDetails{Problem: p, Attempt: u.DailyProblemAttempts[problemID]}
	if d.Attempt == nil {
		d.Attempt = &model.DailyProblemAttempt{ProblemID: problemID}
	}
	if d.Attempt.IsLocked || d.Attempt.Passed {
		d.Solution = p.SolutionCode
	}
	return d, nil
}
