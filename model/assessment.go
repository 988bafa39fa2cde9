package model

import "time"

type Test struct {
	ID              string    `bson:"_id" json:"id" yaml:"id"`
	Title           string    `bson:"title" json:"title" yaml:"title"`
	Subject         string    `bson:"subject" json:"subject" yaml:"subject"`
	PasswordHash    string    `bson:"passwordHash" json:"-" yaml:"-"`
	IsActive        bool      `bson:"isActive" json:"isActive" yaml:"isActive"`
	DurationMinutes int       `bson:"durationMinutes" json:"durationMinutes" yaml:"durationMinutes"`
	QuestionCount   int       `bson:"questionCount" json:"questionCount" yaml:"questionCount"`
	CreatedBy       string    `bson:"createdBy" json:"createdBy" yaml:"createdBy"`
	CreatedAt       time.Time `bson:"createdAt" json:"createdAt" yaml:"createdAt"`
}

type TestAttemptStatus string

const (
	AttemptInProgress TestAttemptStatus = "inprogress"
	AttemptLocked     TestAttemptStatus = "locked"
	AttemptCompleted  TestAttemptStatus = "completed"
)

// MaxTestStrikes is the violation count that locks an attempt.
const MaxTestStrikes = 3

type TestAttempt struct {
	ID          string            `bson:"id" json:"id"`
	TestID      string            `bson:"testId" json:"testId"`
	Status      TestAttemptStatus `bson:"status" json:"status"`
	Strikes     int               `bson:"strikes" json:"strikes"`
	Score       int               `bson:"score" json:"score"`
	StartedAt   time.Time         `bson:"startedAt" json:"startedAt"`
	CompletedAt *time.Time        `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	UnlockedBy  string            `bson:"unlockedBy,omitempty" json:"unlockedBy,omitempty"`
}

type TestCase struct {
	Input          string `bson:"input" json:"input" yaml:"input"`
	ExpectedOutput string `bson:"expectedOutput" json:"expectedOutput" yaml:"expectedOutput"`
}

type DailyProblem struct {
	ID               string     `bson:"_id" json:"id"`
	Subject          string     `bson:"subject" json:"subject"`
	Title            string     `bson:"title" json:"title"`
	Description      string     `bson:"description" json:"description"`
	BoilerplateCode  string     `bson:"boilerplateCode" json:"boilerplateCode"`
	SolutionCode     string     `bson:"solutionCode" json:"-"`
	Language         string     `bson:"language" json:"language"`
	TestCases        []TestCase `bson:"testCases" json:"-"`
	PointsForAttempt int        `bson:"pointsForAttempt" json:"pointsForAttempt"`
	IsActive         bool       `bson:"isActive" json:"isActive"`
	CreatedBy        string     `bson:"createdBy" json:"createdBy"`
	CreatedAt        time.Time  `bson:"createdAt" json:"createdAt"`
}

// MaxDailyProblemRuns is the number of code runs allowed per problem.
const MaxDailyProblemRuns = 2

type DailyProblemAttempt struct {
	ProblemID         string     `bson:"problemId" json:"problemId"`
	RunCount          int        `bson:"runCount" json:"runCount"`
	Passed            bool       `bson:"passed" json:"passed"`
	IsLocked          bool       `bson:"isLocked" json:"isLocked"`
	PointsAwarded     bool       `bson:"pointsAwarded" json:"pointsAwarded"`
	LastResults       string     `bson:"lastResults" json:"lastResults"`
	LastSubmittedCode string     `bson:"lastSubmittedCode" json:"-"`
	LastSubmittedAt   *time.Time `bson:"lastSubmittedAt,omitempty" json:"lastSubmittedAt,omitempty"`
}
