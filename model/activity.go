package model

// ActivityDelta is one report of learning activity folded into the daily
// ledger and streak counters. A zero delta still counts as presence.
type ActivityDelta struct {
	TimeSpent           int    `json:"timeSpent" binding:"gte=0"`
	AlgorithmsAttempted int    `json:"algorithmsAttempted" binding:"gte=0"`
	AlgorithmsCompleted int    `json:"algorithmsCompleted" binding:"gte=0"`
	PointsEarned        int    `json:"pointsEarned" binding:"gte=0"`
	Topic               string `json:"topic"`
	Session             bool   `json:"session"`
}

type ProgressMode string

const (
	ModeVisualization ProgressMode = "visualization"
	ModePractice      ProgressMode = "practice"
)

// ProgressDelta reports one visualization or practice session for a single
// algorithm. Pointer fields are optional.
type ProgressDelta struct {
	Mode      ProgressMode `json:"mode" binding:"required,oneof=visualization practice"`
	Completed *bool        `json:"completed"`
	// TimeSpent is in seconds; it is rounded to whole minutes, minimum one.
	TimeSpent int  `json:"timeSpent" binding:"gte=0"`
	Accuracy  *int `json:"accuracy" binding:"omitempty,gte=0,lte=100"`
	// BestTime is in seconds; only an improvement replaces the stored value.
	BestTime *int `json:"bestTime" binding:"omitempty,gt=0"`
	Points   int  `json:"points" binding:"gte=0"`
}
