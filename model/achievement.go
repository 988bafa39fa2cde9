package model

import "time"

type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// Criteria is a tagged predicate. Value depends on Type: a number, a string,
// or a small document such as {seconds} or {minutes, days}.
type Criteria struct {
	Type  string      `bson:"type" json:"type" yaml:"type"`
	Value interface{} `bson:"value,omitempty" json:"value,omitempty" yaml:"value"`
}

type AchievementTemplate struct {
	ID          string    `bson:"_id" json:"id" yaml:"id"`
	Name        string    `bson:"name" json:"name" yaml:"name"`
	Description string    `bson:"description" json:"description" yaml:"description"`
	Icon        string    `bson:"icon,omitempty" json:"icon,omitempty" yaml:"icon"`
	Category    string    `bson:"category" json:"category" yaml:"category"`
	Points      int       `bson:"points" json:"points" yaml:"points"`
	Rarity      Rarity    `bson:"rarity" json:"rarity" yaml:"rarity"`
	Criteria    Criteria  `bson:"criteria" json:"criteria" yaml:"criteria"`
	IsActive    bool      `bson:"isActive" json:"isActive" yaml:"isActive"`
	UpdatedAt   time.Time `bson:"updatedAt" json:"updatedAt" yaml:"-"`
}
