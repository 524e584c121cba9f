package monitor

import "time"

// Status is the last observed state of every registered dependency.
type Status struct {
	Checks    map[string]bool `json:"checks"`
	LastCheck time.Time       `json:"last_check"`
}

// Healthy reports whether every required check passed on the last refresh.
func (s Status) Healthy(required ...string) bool {
	if s.LastCheck.IsZero() {
		return false
	}
	for _, name := range required {
		if !s.Checks[name] {
			return false
		}
	}
	return true
}
