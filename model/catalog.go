package model

import (
	"sort"
	"time"
)

type TopicDifficulty string

const (
	TopicBeginner     TopicDifficulty = "beginner"
	TopicIntermediate TopicDifficulty = "intermediate"
	TopicAdvanced     TopicDifficulty = "advanced"
)

type AlgorithmDifficulty string

const (
	AlgorithmEasy   AlgorithmDifficulty = "easy"
	AlgorithmMedium AlgorithmDifficulty = "medium"
	AlgorithmHard   AlgorithmDifficulty = "hard"
)

type Subject struct {
	Name        string    `bson:"_id" json:"name" yaml:"name"`
	Description string    `bson:"description,omitempty" json:"description,omitempty" yaml:"description"`
	Icon        string    `bson:"icon,omitempty" json:"icon,omitempty" yaml:"icon"`
	Color       string    `bson:"color,omitempty" json:"color,omitempty" yaml:"color"`
	Order       int       `bson:"order" json:"order" yaml:"order"`
	UpdatedAt   time.Time `bson:"updatedAt" json:"updatedAt" yaml:"-"`
}

type Topic struct {
	ID               string          `bson:"_id" json:"id" yaml:"id"`
	Subject          string          `bson:"subject" json:"subject" yaml:"subject"`
	Name             string          `bson:"name" json:"name" yaml:"name"`
	Description      string          `bson:"description,omitempty" json:"description,omitempty" yaml:"description"`
	Order            int             `bson:"order" json:"order" yaml:"order"`
	EstimatedTime    int             `bson:"estimatedTime" json:"estimatedTime" yaml:"estimatedTime"` // minutes
	Difficulty       TopicDifficulty `bson:"difficulty" json:"difficulty" yaml:"difficulty"`
	Prerequisites    []string        `bson:"prerequisites" json:"prerequisites" yaml:"prerequisites"`
	IsGloballyLocked bool            `bson:"isGloballyLocked" json:"isGloballyLocked" yaml:"isGloballyLocked"`
	IsActive         bool            `bson:"isActive" json:"isActive" yaml:"isActive"`
	Algorithms       []AlgorithmDef  `bson:"algorithms" json:"algorithms" yaml:"algorithms"`
	UpdatedAt        time.Time       `bson:"updatedAt" json:"updatedAt" yaml:"-"`
}

type AlgorithmDef struct {
	ID               string              `bson:"id" json:"id" yaml:"id"`
	Name             string              `bson:"name" json:"name" yaml:"name"`
	Difficulty       AlgorithmDifficulty `bson:"difficulty" json:"difficulty" yaml:"difficulty"`
	Points           int                 `bson:"points" json:"points" yaml:"points"`
	Prerequisites    []string            `bson:"prerequisites" json:"prerequisites" yaml:"prerequisites"`
	IsGloballyLocked bool                `bson:"isGloballyLocked" json:"isGloballyLocked" yaml:"isGloballyLocked"`
}

// Algorithm returns the definition with the given id, if the topic defines it.
func (t *Topic) Algorithm(id string) (*AlgorithmDef, bool) {
	for i := range t.Algorithms {
		if t.Algorithms[i].ID == id {
			return &t.Algorithms[i], true
		}
	}
	return nil, false
}

// Catalog is an immutable, order-sorted view over the active topics.
type Catalog struct {
	topics []Topic
	index  map[string]int
}

// NewCatalog keeps the active topics and sorts them by Order, breaking ties
// by id so that the result is deterministic.
func NewCatalog(topics []Topic) *Catalog {
	active := make([]Topic, 0, len(topics))
	for _, t := range topics {
		if t.IsActive {
			active = append(active, t)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		if active[i].Order != active[j].Order {
			return active[i].Order < active[j].Order
		}
		return active[i].ID < active[j].ID
	})
	index := make(map[string]int, len(active))
	for i, t := range active {
		index[t.ID] = i
	}
	return &Catalog{topics: active, index: index}
}

func (c *Catalog) Topics() []Topic {
	return c.topics
}

func (c *Catalog) Topic(id string) (*Topic, bool) {
	i, ok := c.index[id]
	if !ok {
		return nil, false
	}
	return &c.topics[i], true
}

// AlgorithmCount is the number of algorithms the catalog currently defines
// for a topic; zero when the topic is gone or inactive.
func (c *Catalog) AlgorithmCount(topicID string) int {
	t, ok := c.Topic(topicID)
	if !ok {
		return 0
	}
	return len(t.Algorithms)
}

func (c *Catalog) TotalAlgorithms() int {
	total := 0
	for _, t := range c.topics {
		total += len(t.Algorithms)
	}
	return total
}

func (c *Catalog) SubjectTopics(subject string) []Topic {
	var out []Topic
	for _, t := range c.topics {
		if t.Subject == subject {
			out = append(out, t)
		}
	}
	return out
}

func (c *Catalog) Len() int {
	return len(c.topics)
}
