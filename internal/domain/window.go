package domain

import "time"

// WindowState is the lifecycle of a quiz relative to its window.
type WindowState string

const (
	Scheduled WindowState = "scheduled"
	Active    WindowState = "active"
	Expired   WindowState = "expired"
)

// WindowAt maps now onto the [start, end) window. A missing start means the
// quiz is not open yet; a missing end means it is already over.
func WindowAt(now time.Time, start, end *time.Time) WindowState {
	if end == nil || !now.Before(*end) {
		if start == nil {
			return Scheduled
		}
		return Expired
	}
	if start == nil || now.Before(*start) {
		return Scheduled
	}
	return Active
}

// State is the quiz window state at now.
func (q QuizDefinition) State(now time.Time) WindowState {
	return WindowAt(now, q.StartTime, q.EndTime)
}

// Remaining is the countdown until end; zero when missing or past.
func Remaining(now time.Time, end *time.Time) time.Duration {
	if end == nil {
		return 0
	}
	if d := end.Sub(now); d > 0 {
		return d
	}
	return 0
}
