package analytics

import (
	"time"

	"github.com/mlechner/polier/internal/domain"
)

const (
	// DefaultWeeklyCapacityHours is the assumed full-time week.
	DefaultWeeklyCapacityHours = 40.0
	workdaysPerWeek            = 5
)

// Window is a closed date range, both ends inclusive.
type Window struct {
	From time.Time
	To   time.Time
}

func (w Window) Days() int {
	return int(w.To.Sub(w.From).Hours()/24) + 1
}

// UserAvailability summarizes one worker's capacity inside a window.
type UserAvailability struct {
	UserID         string
	CapacityHours  float64
	CommittedHours float64
	AbsenceDays    int
	FreeHours      float64
}

// TeamAvailability aggregates per-user figures for a crew.
type TeamAvailability struct {
	Users          []UserAvailability
	TotalFreeHours float64
}

// AnalyzeAvailability computes free and committed hours per user over
// the window. Absences shave off daily capacity for each overlapping
// day; free hours never go negative even when a user is over-allocated.
func AnalyzeAvailability(userIDs []string, window Window, allocations []domain.Allocation, absences []domain.Absence, weeklyCapacity float64) TeamAvailability {
	if weeklyCapacity <= 0 {
		weeklyCapacity = DefaultWeeklyCapacityHours
	}
	dailyCapacity := weeklyCapacity / workdaysPerWeek
	windowCapacity := float64(window.Days()) / 7 * weeklyCapacity

	committed := make(map[string]float64)
	for _, a := range allocations {
		weekEnd := a.WeekStart.AddDate(0, 0, 6)
		if a.WeekStart.After(window.To) || weekEnd.Before(window.From) {
			continue
		}
		committed[a.UserID] += a.Hours
	}

	absenceDays := make(map[string]int)
	for _, ab := range absences {
		absenceDays[ab.UserID] += overlapDays(window, ab.StartDate, ab.EndDate)
	}

	team := TeamAvailability{Users: make([]UserAvailability, 0, len(userIDs))}
	for _, id := range userIDs {
		ua := UserAvailability{
			UserID:         id,
			CapacityHours:  windowCapacity,
			CommittedHours: committed[id],
			AbsenceDays:    absenceDays[id],
		}
		free := ua.CapacityHours - ua.CommittedHours - float64(ua.AbsenceDays)*dailyCapacity
		if free < 0 {
			free = 0
		}
		ua.FreeHours = free
		team.Users = append(team.Users, ua)
		team.TotalFreeHours += free
	}
	return team
}

func overlapDays(w Window, from, to time.Time) int {
	start := from
	if w.From.After(start) {
		start = w.From
	}
	end := to
	if w.To.Before(end) {
		end = w.To
	}
	if end.Before(start) {
		return 0
	}
	return int(end.Sub(start).Hours()/24) + 1
}
