package dto

import (
	"time"

	"learnstack/model"
)

type AchievementView struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Icon        string       `json:"icon"`
	Category    string       `json:"category"`
	Points      int          `json:"points"`
	Rarity      model.Rarity `json:"rarity"`
	Earned      bool         `json:"earned"`
	EarnedAt    *time.Time   `json:"earnedAt,omitempty"`
}

// ToAchievementViews lists every template with the user's earned state.
func ToAchievementViews(u *model.User, templates []model.AchievementTemplate) []AchievementView {
	earned := make(map[string]time.Time, len(u.Achievements))
	for _, a := range u.Achievements {
		earned[a.ID] = a.EarnedAt
	}
	views := make([]AchievementView, 0, len(templates))
	for _, t := range templates {
		v := AchievementView{
			ID:          t.ID,
			Name:        t.Name,
			Description: t.Description,
			Icon:        t.Icon,
			Category:    t.Category,
			Points:      t.Points,
			Rarity:      t.Rarity,
		}
		if at, ok := earned[t.ID]; ok {
			at := at
			v.Earned = true
			v.EarnedAt = &at
		}
		views = append(views, v)
	}
	return views
}
