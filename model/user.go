package model

import "time"

type Role string

const (
	RoleStudent Role = "student"
	RoleMentor  Role = "mentor"
	RoleAdmin   Role = "admin"
)

type User struct {
	ID           string                    `bson:"_id" json:"id"`
	Username     string                    `bson:"username" json:"username"`
	Email        string                    `bson:"email" json:"email"`
	Role         Role                      `bson:"role" json:"role"`
	Profile      Profile                   `bson:"profile" json:"profile"`
	Preferences  Preferences               `bson:"preferences" json:"preferences"`
	Progress     map[string]*TopicProgress `bson:"progress" json:"progress"`
	Stats        Stats                     `bson:"stats" json:"stats"`
	Achievements []EarnedAchievement       `bson:"achievements" json:"achievements"`
	LearningPath LearningPath              `bson:"learningPath" json:"learningPath"`
	// One record per UTC calendar day, oldest first.
	DailyActivity        []DailyActivity                 `bson:"dailyActivity" json:"dailyActivity"`
	TestAttempts         map[string]*TestAttempt         `bson:"testAttempts,omitempty" json:"testAttempts,omitempty"`
	DailyProblemAttempts map[string]*DailyProblemAttempt `bson:"dailyProblemAttempts,omitempty" json:"dailyProblemAttempts,omitempty"`

	// Version is bumped on every write and guards optimistic updates.
	Version   int64      `bson:"version" json:"version"`
	CreatedAt time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time  `bson:"updatedAt" json:"updatedAt"`
	LastLogin *time.Time `bson:"lastLogin,omitempty" json:"lastLogin,omitempty"`
}

type Profile struct {
	FirstName string `bson:"firstName" json:"firstName"`
	LastName  string `bson:"lastName" json:"lastName"`
	Bio       string `bson:"bio" json:"bio"`
	Avatar    string `bson:"avatar,omitempty" json:"avatar,omitempty"`
}

type Preferences struct {
	Theme         string  `bson:"theme" json:"theme"`
	Notifications bool    `bson:"notifications" json:"notifications"`
	Privacy       Privacy `bson:"privacy" json:"privacy"`
}

type Privacy struct {
	ShowOnLeaderboard bool `bson:"showOnLeaderboard" json:"showOnLeaderboard"`
	ShowProgress      bool `bson:"showProgress" json:"showProgress"`
}

type TopicStatus string

const (
	TopicLocked     TopicStatus = "locked"
	TopicAvailable  TopicStatus = "available"
	TopicInProgress TopicStatus = "in-progress"
	TopicCompleted  TopicStatus = "completed"
)

type AlgorithmStatus string

const (
	AlgorithmLocked    AlgorithmStatus = "locked"
	AlgorithmAvailable AlgorithmStatus = "available"
)

type TopicProgress struct {
	Status     TopicStatus `bson:"status" json:"status"`
	Completion int         `bson:"completion" json:"completion"`
	TotalTime  int         `bson:"totalTime" json:"totalTime"` // minutes
	// AdminUnlocked marks a per-user override that lifts global locks and
	// prerequisite gating for this topic.
	AdminUnlocked bool                          `bson:"adminUnlocked,omitempty" json:"adminUnlocked,omitempty"`
	LastAccessed  *time.Time                    `bson:"lastAccessed,omitempty" json:"lastAccessed,omitempty"`
	Algorithms    map[string]*AlgorithmProgress `bson:"algorithms" json:"algorithms"`
}

type AlgorithmProgress struct {
	Status              AlgorithmStatus `bson:"status" json:"status"`
	Completed           bool            `bson:"completed" json:"completed"`
	AdminUnlocked       bool            `bson:"adminUnlocked,omitempty" json:"adminUnlocked,omitempty"`
	TimeSpentViz        int             `bson:"timeSpentViz" json:"timeSpentViz"` // minutes
	AccuracyPractice    int             `bson:"accuracyPractice" json:"accuracyPractice"`
	BestTimePractice    *int            `bson:"bestTimePractice,omitempty" json:"bestTimePractice"` // seconds
	AttemptsPractice    int             `bson:"attemptsPractice" json:"attemptsPractice"`
	PointsPractice      int             `bson:"pointsPractice" json:"pointsPractice"`
	LastAttemptViz      *time.Time      `bson:"lastAttemptViz,omitempty" json:"lastAttemptViz,omitempty"`
	LastAttemptPractice *time.Time      `bson:"lastAttemptPractice,omitempty" json:"lastAttemptPractice,omitempty"`
	CompletedAt         *time.Time      `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
}

type RankLevel string

const (
	RankBronze   RankLevel = "Bronze"
	RankSilver   RankLevel = "Silver"
	RankGold     RankLevel = "Gold"
	RankPlatinum RankLevel = "Platinum"
	RankDiamond  RankLevel = "Diamond"
)

type Rank struct {
	Level  RankLevel `bson:"level" json:"level"`
	Points int       `bson:"points" json:"points"`
}

type TimeSpent struct {
	Total     int `bson:"total" json:"total"`
	Today     int `bson:"today" json:"today"`
	ThisWeek  int `bson:"thisWeek" json:"thisWeek"`
	ThisMonth int `bson:"thisMonth" json:"thisMonth"`
}

type Streak struct {
	Current        int        `bson:"current" json:"current"`
	Longest        int        `bson:"longest" json:"longest"`
	LastActiveDate *time.Time `bson:"lastActiveDate,omitempty" json:"lastActiveDate"`
}

type Stats struct {
	OverallProgress     int       `bson:"overallProgress" json:"overallProgress"`
	Rank                Rank      `bson:"rank" json:"rank"`
	TimeSpent           TimeSpent `bson:"timeSpent" json:"timeSpent"`
	AlgorithmsCompleted int       `bson:"algorithmsCompleted" json:"algorithmsCompleted"`
	Streak              Streak    `bson:"streak" json:"streak"`
	AverageAccuracy     int       `bson:"averageAccuracy" json:"averageAccuracy"`
}

type LearningPath struct {
	// CurrentTopic is empty when the catalog had no topics at signup.
	CurrentTopic    string   `bson:"currentTopic" json:"currentTopic"`
	CompletedTopics []string `bson:"completedTopics" json:"completedTopics"`
	TopicOrder      []string `bson:"topicOrder" json:"topicOrder"`
}

// HasCompleted reports whether topicID is in the completed set.
func (lp *LearningPath) HasCompleted(topicID string) bool {
	for _, id := range lp.CompletedTopics {
		if id == topicID {
			return true
		}
	}
	return false
}

type EarnedAchievement struct {
	ID       string    `bson:"id" json:"id"`
	Name     string    `bson:"name" json:"name"`
	Points   int       `bson:"points" json:"points"`
	EarnedAt time.Time `bson:"earnedAt" json:"earnedAt"`
	Criteria Criteria  `bson:"criteria" json:"criteria"`
}

func (u *User) HasAchievement(id string) bool {
	for _, a := range u.Achievements {
		if a.ID == id {
			return true
		}
	}
	return false
}

type DailyActivity struct {
	Date                time.Time `bson:"date" json:"date"`
	TimeSpent           int       `bson:"timeSpent" json:"timeSpent"`
	AlgorithmsAttempted int       `bson:"algorithmsAttempted" json:"algorithmsAttempted"`
	AlgorithmsCompleted int       `bson:"algorithmsCompleted" json:"algorithmsCompleted"`
	PointsEarned        int       `bson:"pointsEarned" json:"pointsEarned"`
	TopicsStudied       []string  `bson:"topicsStudied" json:"topicsStudied"`
	Sessions            int       `bson:"sessions" json:"sessions"`
}
