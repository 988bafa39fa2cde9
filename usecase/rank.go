package usecase

import "learnstack/model"

type rankThreshold struct {
	level  model.RankLevel
	points int
}

// Ascending. A level applies from its threshold up to the next one.
var rankThresholds = []rankThreshold{
	{model.RankBronze, 0},
	{model.RankSilver, 500},
	{model.RankGold, 2000},
	{model.RankPlatinum, 5000},
	{model.RankDiamond, 10000},
}

// RankFor returns the highest level whose threshold does not exceed points.
func RankFor(points int) model.RankLevel {
	level := model.RankBronze
	for _, t := range rankThresholds {
		if points >= t.points {
			level = t.level
		}
	}
	return level
}

// addPoints credits points to the user's rank and refreshes the level.
func addPoints(u *model.User, points int) {
	if points == 0 {
		return
	}
	u.Stats.Rank.Points += points
	if u.Stats.Rank.Points < 0 {
		u.Stats.Rank.Points = 0
	}
	u.Stats.Rank.Level = RankFor(u.Stats.Rank.Points)
}
