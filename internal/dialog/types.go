// Package dialog tracks per-user conversational state: the current menu, the
// back-navigable menu history, and the in-progress problem-report sub-flow.
package dialog

import (
	"errors"
	"time"
)

// ErrNotFound indicates an unknown user session.
var ErrNotFound = errors.New("dialog: session not found")

// ProblemStep enumerates the problem-report sub-flow positions.
type ProblemStep string

const (
	ProblemStepNone        ProblemStep = "none"
	ProblemStepCategory    ProblemStep = "category"
	ProblemStepDescription ProblemStep = "description"
)

// Session is one user's dialog state. MenuHistory is never empty and its top
// always equals CurrentMenuID.
type Session struct {
	UserID           string      `json:"user_id"`
	CurrentMenuID    string      `json:"current_menu_id"`
	MenuHistory      []string    `json:"menu_history"`
	ReportingProblem bool        `json:"reporting_problem"`
	ProblemStep      ProblemStep `json:"problem_step"`
	ProblemCategory  string      `json:"problem_category,omitempty"`
	LastSystemKey    string      `json:"last_system_key,omitempty"`
	LastActivityAt   time.Time   `json:"last_activity_at"`
}

// NewSession creates a fresh session positioned at the main menu.
func NewSession(userID, mainMenuID string, now time.Time) *Session {
	return &Session{
		UserID:         userID,
		CurrentMenuID:  mainMenuID,
		MenuHistory:    []string{mainMenuID},
		ProblemStep:    ProblemStepNone,
		LastActivityAt: now,
	}
}

// Push enters a submenu, recording it on the history stack.
func (s *Session) Push(menuID string) {
	s.MenuHistory = append(s.MenuHistory, menuID)
	s.CurrentMenuID = menuID
}

// Back pops the history stack. It floors at the root menu: popping the last
// entry is a no-op and the method reports whether a pop happened.
func (s *Session) Back() bool {
	if len(s.MenuHistory) <= 1 {
		return false
	}
	s.MenuHistory = s.MenuHistory[:len(s.MenuHistory)-1]
	s.CurrentMenuID = s.MenuHistory[len(s.MenuHistory)-1]
	return true
}

// ResetToRoot collapses the history to just the root menu.
func (s *Session) ResetToRoot(mainMenuID string) {
	s.MenuHistory = []string{mainMenuID}
	s.CurrentMenuID = mainMenuID
}

// ClearProblemFlow clears every problem-report field.
func (s *Session) ClearProblemFlow() {
	s.ReportingProblem = false
	s.ProblemStep = ProblemStepNone
	s.ProblemCategory = ""
}
