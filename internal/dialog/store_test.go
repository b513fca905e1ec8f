package dialog

import (
	"testing"
	"time"
)

func TestMenuStackInvariants(t *testing.T) {
	t.Parallel()

	s := NewSession("user@s.whatsapp.net", "main", time.Now())
	if s.CurrentMenuID != "main" || len(s.MenuHistory) != 1 {
		t.Fatalf("fresh session must start at the root: %+v", s)
	}

	s.Push("accounting")
	if s.CurrentMenuID != "accounting" {
		t.Fatalf("push did not update current menu")
	}
	if !s.Back() {
		t.Fatalf("back from a submenu must pop")
	}
	if s.CurrentMenuID != "main" {
		t.Fatalf("back did not return to root, got %q", s.CurrentMenuID)
	}

	// The stack floors at the root: further backs are no-ops.
	if s.Back() {
		t.Fatalf("back at root must be a no-op")
	}
	if len(s.MenuHistory) != 1 || s.CurrentMenuID != "main" {
		t.Fatalf("root state corrupted: %+v", s)
	}
}

func TestResetToRootCollapsesHistory(t *testing.T) {
	t.Parallel()

	s := NewSession("u", "main", time.Now())
	s.Push("design")
	s.Push("problem_followup")
	s.ResetToRoot("main")
	if len(s.MenuHistory) != 1 || s.CurrentMenuID != "main" {
		t.Fatalf("reset did not collapse history: %+v", s)
	}
}

func TestStorePersistsAndReloads(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s := NewStore(nil, dir, time.Hour)
	session := s.GetOrCreate("967777000111@s.whatsapp.net", "main")
	session.Push("exchange")
	session.ReportingProblem = true
	session.ProblemStep = ProblemStepDescription
	s.Save(session)

	fresh := NewStore(nil, dir, time.Hour)
	loaded := fresh.GetOrCreate("967777000111@s.whatsapp.net", "main")
	if loaded.CurrentMenuID != "exchange" {
		t.Fatalf("menu position lost on reload: %q", loaded.CurrentMenuID)
	}
	if !loaded.ReportingProblem || loaded.ProblemStep != ProblemStepDescription {
		t.Fatalf("problem flow state lost on reload: %+v", loaded)
	}
}

func TestSweepEvictsIdleSessions(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s := NewStore(nil, dir, time.Minute)
	stale := s.GetOrCreate("stale", "main")
	s.Save(stale)
	stale.LastActivityAt = time.Now().UTC().Add(-2 * time.Minute)

	active := s.GetOrCreate("active", "main")
	s.Save(active)

	if evicted := s.Sweep(); evicted != 1 {
		t.Fatalf("expected 1 eviction, got %d", evicted)
	}
	if _, err := s.Get("stale"); err == nil {
		t.Fatalf("stale session must be gone")
	}
	if _, err := s.Get("active"); err != nil {
		t.Fatalf("active session must survive: %v", err)
	}

	// The evicted session's file is removed too, so a reload starts fresh.
	fresh := NewStore(nil, dir, time.Minute)
	recreated := fresh.GetOrCreate("stale", "main")
	if recreated.CurrentMenuID != "main" || len(recreated.MenuHistory) != 1 {
		t.Fatalf("evicted session must restart at root: %+v", recreated)
	}
}
