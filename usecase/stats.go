package usecase

import (
	"math"
	"sort"

	"learnstack/model"
)

func percent(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	return clampPercent(int(math.Round(100 * float64(part) / float64(whole))))
}

func clampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// progressTopicIDs lists the topics in the user's tree, snapshot order first
// and any later additions after it in id order.
func progressTopicIDs(u *model.User) []string {
	ids := make([]string, 0, len(u.Progress))
	seen := make(map[string]bool, len(u.Progress))
	for _, id := range u.LearningPath.TopicOrder {
		if _, ok := u.Progress[id]; ok && !seen[id] {
			ids = append(ids, id)
			seen[id] = true
		}
	}
	var extra []string
	for id := range u.Progress {
		if !seen[id] {
			extra = append(extra, id)
		}
	}
	sort.Strings(extra)
	return append(ids, extra...)
}

// RecalculateStats refreshes every derived progress field from the tree and
// the catalog's current algorithm counts. It returns the topics that moved to
// completed during this pass.
func RecalculateStats(u *model.User, catalog *model.Catalog) []string {
	var newlyCompleted []string
	algorithmsCompleted := 0
	accuracySum, attempted := 0, 0

	for _, topicID := range progressTopicIDs(u) {
		tp := u.Progress[topicID]
		if tp == nil {
			continue
		}
		total := catalog.AlgorithmCount(topicID)
		done := 0
		for _, ap := range tp.Algorithms {
			if ap == nil {
				continue
			}
			if ap.Completed {
				done++
			}
			if ap.AttemptsPractice > 0 {
				accuracySum += clampPercent(ap.AccuracyPractice)
				attempted++
			}
		}
		algorithmsCompleted += done
		tp.Completion = percent(done, total)

		if tp.Status == model.TopicLocked {
			continue
		}
		switch {
		case tp.Completion == 100 && total > 0:
			if tp.Status != model.TopicCompleted {
				tp.Status = model.TopicCompleted
			}
			if !u.LearningPath.HasCompleted(topicID) {
				u.LearningPath.CompletedTopics = append(u.LearningPath.CompletedTopics, topicID)
				newlyCompleted = append(newlyCompleted, topicID)
			}
		case tp.Completion > 0 && tp.Status == model.TopicAvailable:
			tp.Status = model.TopicInProgress
		}
	}

	u.Stats.AlgorithmsCompleted = algorithmsCompleted
	if totalDefined := catalog.TotalAlgorithms(); totalDefined > 0 {
		u.Stats.OverallProgress = percent(algorithmsCompleted, totalDefined)
	} else {
		u.Stats.OverallProgress = 100
	}
	if attempted > 0 {
		u.Stats.AverageAccuracy = clampPercent(int(math.Round(float64(accuracySum) / float64(attempted))))
	} else {
		u.Stats.AverageAccuracy = 0
	}
	u.Stats.Rank.Level = RankFor(u.Stats.Rank.Points)
	return newlyCompleted
}
