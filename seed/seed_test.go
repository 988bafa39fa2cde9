package seed

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learnstack/logger"
	"learnstack/model"
)

type recorder struct {
	subjects  []model.Subject
	topics    []model.Topic
	templates []model.AchievementTemplate
	tests     []model.Test
	problems  []model.DailyProblem
	topicErr  error
}

func (r *recorder) UpsertSubject(_ context.Context, s *model.Subject) error {
	r.subjects = append(r.subjects, *s)
	return nil
}

func (r *recorder) UpsertTopic(_ context.Context, t *model.Topic) error {
	if r.topicErr != nil {
		return r.topicErr
	}
	r.topics = append(r.topics, *t)
	return nil
}

func (r *recorder) UpsertTemplate(_ context.Context, t *model.AchievementTemplate) error {
	r.templates = append(r.templates, *t)
	return nil
}

func (r *recorder) UpsertTest(_ context.Context, t *model.Test) error {
	r.tests = append(r.tests, *t)
	return nil
}

func (r *recorder) UpsertProblem(_ context.Context, p *model.DailyProblem) error {
	r.problems = append(r.problems, *p)
	return nil
}

func stores(r *recorder) Stores {
	return Stores{
		Catalog:     r,
		Templates:   r,
		Assessments: r,
		HashPassword: func(p string) (string, error) {
			return "hashed:" + p, nil
		},
	}
}

func TestDefaultSeed(t *testing.T) {
	f, err := Default()
	require.NoError(t, err)
	assert.Len(t, f.Subjects, 2)
	assert.Len(t, f.Topics, 3)
	assert.NotEmpty(t, f.Achievements)

	r := &recorder{}
	sum, err := Apply(context.Background(), f, stores(r), logger.Nop())
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Topics)
	assert.Equal(t, len(f.Achievements), sum.Achievements)

	for _, topic := range r.topics {
		assert.True(t, topic.IsActive, topic.ID)
		assert.NotNil(t, topic.Prerequisites)
		assert.False(t, topic.UpdatedAt.IsZero())
	}
	for _, tmpl := range r.templates {
		assert.True(t, tmpl.IsActive, tmpl.ID)
		assert.NotEmpty(t, tmpl.Criteria.Type, tmpl.ID)
	}
}

const assessmentSeed = `
topics:
  - id: t1
    subject: Algorithms
    order: 1
    algorithms:
      - { id: a1, points: 10 }
  - id: t2
    subject: Algorithms
    order: 2
    inactive: true
    prerequisites: [t1]
tests:
  - id: midterm
    title: Midterm
    password: opensesame
dailyProblems:
  - id: echo
    subject: Algorithms
    language: python
    solutionCode: print(input()*2)
    testCases:
      - { input: ab, expectedOutput: abab }
`

func TestApplyAssessments(t *testing.T) {
	f, err := Parse([]byte(assessmentSeed))
	require.NoError(t, err)

	r := &recorder{}
	sum, err := Apply(context.Background(), f, stores(r), logger.Nop())
	require.NoError(t, err)
	assert.Equal(t, Summary{Topics: 2, Tests: 1, DailyProblems: 1}, sum)

	assert.True(t, r.topics[0].IsActive)
	assert.False(t, r.topics[1].IsActive)
	require.Len(t, r.tests, 1)
	assert.Equal(t, "hashed:opensesame", r.tests[0].PasswordHash)
	assert.True(t, r.tests[0].IsActive)
	require.Len(t, r.problems, 1)
	assert.Equal(t, "seed", r.problems[0].CreatedBy)
	assert.Equal(t, "abab", r.problems[0].TestCases[0].ExpectedOutput)
}

func TestApplyErrors(t *testing.T) {
	f, err := Parse([]byte(assessmentSeed))
	require.NoError(t, err)

	r := &recorder{topicErr: errors.New("write failed")}
	_, err = Apply(context.Background(), f, stores(r), logger.Nop())
	assert.Error(t, err)

	s := stores(&recorder{})
	s.Assessments = nil
	_, err = Apply(context.Background(), f, s, logger.Nop())
	assert.Error(t, err)
}

func TestParseValidation(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"bad yaml", "topics: ["},
		{"topic without id", "topics:\n  - subject: A\n"},
		{"duplicate topic", "topics:\n  - id: t1\n  - id: t1\n"},
		{"duplicate algorithm", "topics:\n  - id: t1\n    algorithms:\n      - { id: a }\n      - { id: a }\n"},
		{"unknown prerequisite", "topics:\n  - id: t1\n    prerequisites: [t0]\n"},
		{"achievement without criteria", "achievements:\n  - id: x\n"},
		{"duplicate achievement", "achievements:\n  - { id: x, criteria: { type: first_login } }\n  - { id: x, criteria: { type: first_login } }\n"},
		{"test without password", "tests:\n  - id: midterm\n"},
		{"problem without cases", "dailyProblems:\n  - id: echo\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}
