package dto

import (
	"learnstack/model"
	"learnstack/usecase"
)

type AlgorithmView struct {
	ID         string                    `json:"id"`
	Name       string                    `json:"name"`
	Difficulty model.AlgorithmDifficulty `json:"difficulty"`
	Points     int                       `json:"points"`
	Status     model.AlgorithmStatus     `json:"status"`
	Reason     usecase.LockReason        `json:"reason,omitempty"`
	Progress   *model.AlgorithmProgress  `json:"progress,omitempty"`
}

// TopicView is a catalog topic resolved against one user's progress.
type TopicView struct {
	ID            string                `json:"id"`
	Subject       string                `json:"subject"`
	Name          string                `json:"name"`
	Description   string                `json:"description"`
	Order         int                   `json:"order"`
	EstimatedTime int                   `json:"estimatedTime"`
	Difficulty    model.TopicDifficulty `json:"difficulty"`
	Prerequisites []string              `json:"prerequisites"`
	Status        model.TopicStatus     `json:"status"`
	Reason        usecase.LockReason    `json:"reason,omitempty"`
	Completion    int                   `json:"completion"`
	TotalTime     int                   `json:"totalTime"`
	Algorithms    []AlgorithmView       `json:"algorithms"`
}

func ToTopicView(u *model.User, t *model.Topic) TopicView {
	status, reason := usecase.TopicStatus(u, t)
	v := TopicView{
		ID:            t.ID,
		Subject:       t.Subject,
		Name:          t.Name,
		Description:   t.Description,
		Order:         t.Order,
		EstimatedTime: t.EstimatedTime,
		Difficulty:    t.Difficulty,
		Prerequisites: t.Prerequisites,
		Status:        status,
		Reason:        reason,
		Algorithms:    make([]AlgorithmView, 0, len(t.Algorithms)),
	}
	if v.Prerequisites == nil {
		v.Prerequisites = []string{}
	}
	tp := u.Progress[t.ID]
	if tp != nil {
		v.Completion = tp.Completion
		v.TotalTime = tp.TotalTime
	}
	for i := range t.Algorithms {
		a := &t.Algorithms[i]
		as, ar := usecase.AlgorithmStatus(u, t, a)
		av := AlgorithmView{
			ID:         a.ID,
			Name:       a.Name,
			Difficulty: a.Difficulty,
			Points:     a.Points,
			Status:     as,
			Reason:     ar,
		}
		if tp != nil {
			av.Progress = tp.Algorithms[a.ID]
		}
		v.Algorithms = append(v.Algorithms, av)
	}
	return v
}

func ToTopicViews(u *model.User, topics []model.Topic) []TopicView {
	views := make([]TopicView, 0, len(topics))
	for i := range topics {
		views = append(views, ToTopicView(u, &topics[i]))
	}
	return views
}
