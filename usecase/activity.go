package usecase

import (
	"time"

	"learnstack/model"
)

// Ledger entries older than this many records are dropped on write.
const activityRetention = 400

// dayStart truncates t to UTC midnight.
func dayStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// weekStart is the Sunday that opens t's week, at UTC midnight.
func weekStart(t time.Time) time.Time {
	d := dayStart(t)
	return d.AddDate(0, 0, -int(d.Weekday()))
}

func monthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// daysBetween counts calendar days from a to b. Both are truncated first.
func daysBetween(a, b time.Time) int {
	return int(dayStart(b).Sub(dayStart(a)).Hours() / 24)
}

func todayRecord(u *model.User, today time.Time) *model.DailyActivity {
	for i := len(u.DailyActivity) - 1; i >= 0; i-- {
		if dayStart(u.DailyActivity[i].Date).Equal(today) {
			return &u.DailyActivity[i]
		}
	}
	u.DailyActivity = append(u.DailyActivity, model.DailyActivity{
		Date:          today,
		TopicsStudied: []string{},
	})
	if over := len(u.DailyActivity) - activityRetention; over > 0 {
		u.DailyActivity = append([]model.DailyActivity(nil), u.DailyActivity[over:]...)
	}
	return &u.DailyActivity[len(u.DailyActivity)-1]
}

// RecordActivity folds an activity delta into today's ledger entry, the time
// counters, rank points and the streak. It is meant to be called on every
// login as well, with a zero delta, so the streak stays current.
func RecordActivity(u *model.User, d model.ActivityDelta, now time.Time) {
	today := dayStart(now)
	rec := todayRecord(u, today)

	rec.TimeSpent += d.TimeSpent
	rec.AlgorithmsAttempted += d.AlgorithmsAttempted
	rec.AlgorithmsCompleted += d.AlgorithmsCompleted
	rec.PointsEarned += d.PointsEarned
	if d.Topic != "" && !containsString(rec.TopicsStudied, d.Topic) {
		rec.TopicsStudied = append(rec.TopicsStudied, d.Topic)
	}
	if d.Session {
		rec.Sessions++
	}

	ts := &u.Stats.TimeSpent
	ts.Today = rec.TimeSpent
	ts.Total += d.TimeSpent
	ts.ThisWeek = sumTimeSince(u.DailyActivity, weekStart(now))
	ts.ThisMonth = sumTimeSince(u.DailyActivity, monthStart(now))

	addPoints(u, d.PointsEarned)
	updateStreak(&u.Stats.Streak, today)
}

func updateStreak(s *model.Streak, today time.Time) {
	switch {
	case s.LastActiveDate == nil:
		s.Current = 1
	default:
		diff := daysBetween(*s.LastActiveDate, today)
		switch {
		case diff <= 0:
			// Same day, or a clock that moved backwards.
			if s.Current == 0 {
				s.Current = 1
			}
		case diff == 1:
			s.Current++
		default:
			s.Current = 1
		}
	}
	if s.Current > s.Longest {
		s.Longest = s.Current
	}
	if s.LastActiveDate == nil || today.After(*s.LastActiveDate) {
		t := today
		s.LastActiveDate = &t
	}
}

func sumTimeSince(records []model.DailyActivity, from time.Time) int {
	total := 0
	for _, r := range records {
		if !dayStart(r.Date).Before(from) {
			total += r.TimeSpent
		}
	}
	return total
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
