// Package seed loads catalog, achievement and assessment data from YAML and
// upserts it into the stores.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"learnstack/logger"
	"learnstack/model"
)

//go:embed default.yaml
var defaultSeed []byte

type topicSeed struct {
	model.Topic `yaml:",inline"`
	Inactive    bool `yaml:"inactive"`
}

type templateSeed struct {
	model.AchievementTemplate `yaml:",inline"`
	Inactive                  bool `yaml:"inactive"`
}

type testSeed struct {
	model.Test `yaml:",inline"`
	Password   string `yaml:"password"`
	Inactive   bool   `yaml:"inactive"`
}

type problemSeed struct {
	ID               string           `yaml:"id"`
	Subject          string           `yaml:"subject"`
	Title            string           `yaml:"title"`
	Description      string           `yaml:"description"`
	BoilerplateCode  string           `yaml:"boilerplateCode"`
	SolutionCode     string           `yaml:"solutionCode"`
	Language         string           `yaml:"language"`
	PointsForAttempt int              `yaml:"pointsForAttempt"`
	TestCases        []model.TestCase `yaml:"testCases"`
	Inactive         bool             `yaml:"inactive"`
}

// File is the seed document layout. Entries are active unless marked
// inactive.
type File struct {
	Subjects      []model.Subject `yaml:"subjects"`
	Topics        []topicSeed     `yaml:"topics"`
	Achievements  []templateSeed  `yaml:"achievements"`
	Tests         []testSeed      `yaml:"tests"`
	DailyProblems []problemSeed   `yaml:"dailyProblems"`
}

type CatalogStore interface {
	UpsertSubject(ctx context.Context, subject *model.Subject) error
	UpsertTopic(ctx context.Context, topic *model.Topic) error
}

type TemplateStore interface {
	UpsertTemplate(ctx context.Context, t *model.AchievementTemplate) error
}

type AssessmentStore interface {
	UpsertTest(ctx context.Context, test *model.Test) error
	UpsertProblem(ctx context.Context, problem *model.DailyProblem) error
}

// Stores groups the seed targets. Assessments may be nil when the seed
// carries no tests or problems.
type Stores struct {
	Catalog     CatalogStore
	Templates   TemplateStore
	Assessments AssessmentStore
	// HashPassword turns plain test passwords into stored hashes.
	HashPassword func(string) (string, error)
}

// Parse decodes a seed document. Ids must be unique within each section.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Default returns the embedded seed.
func Default() (*File, error) {
	return Parse(defaultSeed)
}

func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(data)
}

func (f *File) validate() error {
	seen := make(map[string]bool)
	for _, t := range f.Topics {
		if t.ID == "" {
			return fmt.Errorf("seed: topic without id")
		}
		if seen[t.ID] {
			return fmt.Errorf("seed: duplicate topic %q", t.ID)
		}
		seen[t.ID] = true
		algos := make(map[string]bool)
		for _, a := range t.Algorithms {
			if a.ID == "" || algos[a.ID] {
				return fmt.Errorf("seed: topic %q has a missing or duplicate algorithm id", t.ID)
			}
			algos[a.ID] = true
		}
	}
	for _, t := range f.Topics {
		for _, p := range t.Prerequisites {
			if !seen[p] {
				return fmt.Errorf("seed: topic %q requires unknown topic %q", t.ID, p)
			}
		}
	}

	ids := make(map[string]bool)
	for _, a := range f.Achievements {
		if a.ID == "" || ids[a.ID] {
			return fmt.Errorf("seed: missing or duplicate achievement id %q", a.ID)
		}
		if a.Criteria.Type == "" {
			return fmt.Errorf("seed: achievement %q has no criteria type", a.ID)
		}
		ids[a.ID] = true
	}
	for _, t := range f.Tests {
		if t.ID == "" || t.Password == "" {
			return fmt.Errorf("seed: tests need an id and a password")
		}
	}
	for _, p := range f.DailyProblems {
		if p.ID == "" || len(p.TestCases) == 0 {
			return fmt.Errorf("seed: daily problem %q needs an id and test cases", p.ID)
		}
	}
	return nil
}

type Summary struct {
	Subjects      int
	Topics        int
	Achievements  int
	Tests         int
	DailyProblems int
}

// Apply upserts every entry. It is safe to run on every start.
func Apply(ctx context.Context, f *File, s Stores, log *logger.Logger) (Summary, error) {
	var sum Summary
	now := time.Now().UTC()

	for i := range f.Subjects {
		sub := f.Subjects[i]
		sub.UpdatedAt = now
		if err := s.Catalog.UpsertSubject(ctx, &sub); err != nil {
			return sum, fmt.Errorf("seed subject %q: %w", sub.Name, err)
		}
		sum.Subjects++
	}
	for i := range f.Topics {
		t := f.Topics[i].Topic
		t.IsActive = !f.Topics[i].Inactive
		t.UpdatedAt = now
		if t.Prerequisites == nil {
			t.Prerequisites = []string{}
		}
		if err := s.Catalog.UpsertTopic(ctx, &t); err != nil {
			return sum, fmt.Errorf("seed topic %q: %w", t.ID, err)
		}
		sum.Topics++
	}
	for i := range f.Achievements {
		a := f.Achievements[i].AchievementTemplate
		a.IsActive = !f.Achievements[i].Inactive
		a.UpdatedAt = now
		if err := s.Templates.UpsertTemplate(ctx, &a); err != nil {
			return sum, fmt.Errorf("seed achievement %q: %w", a.ID, err)
		}
		sum.Achievements++
	}

	if len(f.Tests)+len(f.DailyProblems) > 0 && s.Assessments == nil {
		return sum, fmt.Errorf("seed: assessments present but no assessment store")
	}
	for i := range f.Tests {
		t := f.Tests[i].Test
		hash, err := s.HashPassword(f.Tests[i].Password)
		if err != nil {
			return sum, fmt.Errorf("hash password for test %q: %w", t.ID, err)
		}
		t.PasswordHash = hash
		t.IsActive = !f.Tests[i].Inactive
		if t.CreatedAt.IsZero() {
			t.CreatedAt = now
		}
		if err := s.Assessments.UpsertTest(ctx, &t); err != nil {
			return sum, fmt.Errorf("seed test %q: %w", t.ID, err)
		}
		sum.Tests++
	}
	for _, p := range f.DailyProblems {
		problem := model.DailyProblem{
			ID:               p.ID,
			Subject:          p.Subject,
			Title:            p.Title,
			Description:      p.Description,
			BoilerplateCode:  p.BoilerplateCode,
			SolutionCode:     p.SolutionCode,
			Language:         p.Language,
			TestCases:        p.TestCases,
			PointsForAttempt: p.PointsForAttempt,
			IsActive:         !p.Inactive,
			CreatedBy:        "seed",
			CreatedAt:        now,
		}
		if err := s.Assessments.UpsertProblem(ctx, &problem); err != nil {
			return sum, fmt.Errorf("seed daily problem %q: %w", p.ID, err)
		}
		sum.DailyProblems++
	}

	log.Info("seed applied",
		"subjects", sum.Subjects,
		"topics", sum.Topics,
		"achievements", sum.Achievements,
		"tests", sum.Tests,
		"dailyProblems", sum.DailyProblems)
	return sum, nil
}
