package model

import "time"

type LeaderboardType string

const (
	LeaderboardDaily   LeaderboardType = "daily"
	LeaderboardWeekly  LeaderboardType = "weekly"
	LeaderboardMonthly LeaderboardType = "monthly"
	LeaderboardAllTime LeaderboardType = "all-time"
)

var LeaderboardTypes = []LeaderboardType{
	LeaderboardDaily, LeaderboardWeekly, LeaderboardMonthly, LeaderboardAllTime,
}

func (t LeaderboardType) Valid() bool {
	for _, v := range LeaderboardTypes {
		if v == t {
			return true
		}
	}
	return false
}

type Period struct {
	Start time.Time `bson:"start" json:"start"`
	End   time.Time `bson:"end" json:"end"`
}

type LeaderboardMetrics struct {
	AlgorithmsCompleted int `bson:"algorithmsCompleted" json:"algorithmsCompleted"`
	AverageAccuracy     int `bson:"averageAccuracy" json:"averageAccuracy"`
	TimeSpent           int `bson:"timeSpent" json:"timeSpent"`
	Streak              int `bson:"streak" json:"streak"`
}

type LeaderboardEntry struct {
	UserID   string             `bson:"userId" json:"userId"`
	Username string             `bson:"username" json:"username"`
	Position int                `bson:"position" json:"position"`
	Score    int                `bson:"score" json:"score"`
	Metrics  LeaderboardMetrics `bson:"metrics" json:"metrics"`
}

type Leaderboard struct {
	Type      LeaderboardType    `bson:"_id" json:"type"`
	Period    Period             `bson:"period" json:"period"`
	Rankings  []LeaderboardEntry `bson:"rankings" json:"rankings"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
	Version   int64              `bson:"version" json:"-"`
}
