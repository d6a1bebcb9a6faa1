package store

import (
	"testing"
	"time"

	"prism-sync/domain"
	"prism-sync/internal/assertx"
)

func TestReadReturnsCopy(t *testing.T) {
	s := New()
	s.ReplaceFocusedProject(domain.Project{ID: "p1", Tasks: []domain.Task{{ID: "t1"}}})
	s.ReplaceProjects([]domain.Project{{ID: "p1", Tasks: []domain.Task{{ID: "t1"}}}})

	snap := s.Read()
	snap.Project.Tasks[0].Name = "mutated"
	snap.Projects[0].Tasks[0].Name = "mutated"

	again := s.Read()
	assertx.Equal(t, "", again.Project.Tasks[0].Name)
	assertx.Equal(t, "", again.Projects[0].Tasks[0].Name)
}

func TestReplaceProjectsCopiesInput(t *testing.T) {
	s := New()
	in := []domain.Project{{ID: "p1"}}
	s.ReplaceProjects(in)
	in[0].Name = "changed"
	assertx.Equal(t, "", s.Read().Projects[0].Name)
}

func TestClearAlertIgnoresStaleGeneration(t *testing.T) {
	s := New()
	first := s.ReplaceAlert(domain.Success("first"))
	second := s.ReplaceAlert(domain.Failure("second"))

	if s.ClearAlert(first) {
		t.Fatal("stale generation cleared the newer alert")
	}
	got := s.Read().Alert
	if got.Message != "second" || !got.Error {
		t.Fatalf("unexpected alert %+v", got)
	}
	if !s.ClearAlert(second) {
		t.Fatal("current generation did not clear")
	}
	if !s.Read().Alert.IsZero() {
		t.Fatalf("expected empty alert, got %+v", s.Read().Alert)
	}
}

func TestSetFlag(t *testing.T) {
	s := New()
	for _, f := range []Flag{TaskForm, TaskDeleteConfirm, CollaboratorDeleteConfirm, Search} {
		s.SetFlag(f, true)
	}
	flags := s.Read().Flags
	if !flags.TaskForm || !flags.TaskDeleteConfirm || !flags.CollaboratorDeleteConfirm || !flags.Search {
		t.Fatalf("expected all flags set, got %+v", flags)
	}
	s.SetFlag(Search, false)
	assertx.Equal(t, false, s.Read().Flags.Search)
}

func TestResetIsIdempotent(t *testing.T) {
	s := New()
	s.ReplaceProjects([]domain.Project{{ID: "p1"}})
	s.ReplaceFocusedProject(domain.Project{ID: "p1"})
	s.ReplaceFocusedTask(domain.Task{ID: "t1"})
	gen := s.ReplaceAlert(domain.Success("ok"))
	s.SetFlag(TaskForm, true)
	s.ReplaceCandidate(domain.Collaborator{ID: "c1"})
	s.ReplaceSelected(domain.Collaborator{ID: "c2"})

	s.Reset()
	first := s.Read()
	s.Reset()
	second := s.Read()

	for _, snap := range []Snapshot{first, second} {
		if len(snap.Projects) != 0 || snap.Projects == nil {
			t.Fatalf("expected empty non-nil projects, got %#v", snap.Projects)
		}
		if !snap.Project.IsZero() || snap.Task.ID != "" || !snap.Alert.IsZero() {
			t.Fatalf("expected empty records, got %+v", snap)
		}
		if snap.Flags != (Flags{}) {
			t.Fatalf("expected flags cleared, got %+v", snap.Flags)
		}
		if snap.Candidate.ID != "" || snap.Selected.ID != "" {
			t.Fatalf("expected collaborators cleared, got %+v", snap)
		}
	}
	if s.ClearAlert(gen) {
		t.Fatal("clear scheduled before reset must be stale")
	}
}

func TestSubscribeCoalescesSignals(t *testing.T) {
	s := New()
	ch := s.Subscribe()
	defer s.Unsubscribe(ch)

	s.SetLoading(true)
	s.SetLoading(false)

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("no change signal")
	}
	select {
	case <-ch:
		t.Fatal("signals should coalesce into one")
	default:
	}
}

func TestUnsubscribeStopsSignals(t *testing.T) {
	s := New()
	ch := s.Subscribe()
	s.Unsubscribe(ch)
	s.SetLoading(true)
	select {
	case <-ch:
		t.Fatal("received signal after unsubscribe")
	default:
	}
}
