package handlers

import "sync"

// State owns the process-wide reporter slot. Pass the same State to every
// Install call of a process; the zero value has nothing installed.
type State struct {
	mu       sync.Mutex
	reporter *Reporter
}

// Installed returns the reporter installed in s, or nil.
func (s *State) Installed() *Reporter {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.reporter
}

// Install puts a reporter in the slot of s unless one is already there, and
// returns the reporter in the slot. The alerter is only used when debug is set.
func Install(s *State, logger Logger, debug bool, alerter Alerter) (r *Reporter, installed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.reporter != nil {
		return s.reporter, false
	}

	if !debug {
		alerter = nil
	}

	s.reporter = NewReporter(logger, alerter)

	return s.reporter, true
}
