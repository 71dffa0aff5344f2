package session

import (
	"errors"
	"testing"

	"github.com/umbrellacorp/usiop/internal/model"
)

func testIdentity(employeeID string) model.Identity {
	return model.Identity{
		EmployeeID:     employeeID,
		Name:           "Ada",
		LastName:       "Kessler",
		Department:     "R&D",
		ClearanceLevel: 3,
		Location:       "Umbrella Europe",
	}
}

func TestAppendTurnInOrder(t *testing.T) {
	id := testIdentity("e-100")
	s := New(id, nil)

	for _, text := range []string{"first", "second", "third"} {
		q := model.NewQuery(id, text, s.ID())
		if err := s.AppendTurn(q, model.Verdict{Outcome: model.Allowed}, "ok"); err != nil {
			t.Fatalf("append %q: %v", text, err)
		}
	}

	turns := s.History()
	if len(turns) != 3 {
		t.Fatalf("expected 3 turns, got %d", len(turns))
	}
	if turns[0].Query.Text != "first" || turns[2].Query.Text != "third" {
		t.Errorf("turns out of order: %v", turns)
	}
}

func TestAppendTurnRejectsForeignIdentity(t *testing.T) {
	s := New(testIdentity("e-100"), nil)

	intruder := testIdentity("e-200")
	q := model.NewQuery(intruder, "hello", s.ID())

	err := s.AppendTurn(q, model.Verdict{Outcome: model.Allowed}, "ok")
	if err == nil {
		t.Fatal("expected identity mismatch error")
	}

	var mismatch *IdentityMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected IdentityMismatchError, got %T", err)
	}
	if mismatch.Bound != "e-100" || mismatch.Got != "e-200" {
		t.Errorf("unexpected error fields: %+v", mismatch)
	}

	if s.Len() != 0 {
		t.Error("mismatched turn must not be recorded")
	}
}

func TestHistoryReturnsCopy(t *testing.T) {
	id := testIdentity("e-100")
	s := New(id, nil)

	q := model.NewQuery(id, "hello", s.ID())
	if err := s.AppendTurn(q, model.Verdict{Outcome: model.Allowed}, "ok"); err != nil {
		t.Fatal(err)
	}

	h := s.History()
	h[0].Response = "mutated"

	if s.History()[0].Response != "ok" {
		t.Error("history mutation leaked into the session")
	}
}

func TestClearDropsHistory(t *testing.T) {
	id := testIdentity("e-100")
	s := New(id, nil)

	q := model.NewQuery(id, "hello", s.ID())
	if err := s.AppendTurn(q, model.Verdict{Outcome: model.Allowed}, "ok"); err != nil {
		t.Fatal(err)
	}
	if err := s.Clear(); err != nil {
		t.Fatal(err)
	}
	if s.Len() != 0 {
		t.Errorf("expected empty history after clear, got %d turns", s.Len())
	}
}

func TestSessionIDsAreUnique(t *testing.T) {
	a := New(testIdentity("e-100"), nil)
	b := New(testIdentity("e-100"), nil)
	if a.ID() == b.ID() {
		t.Error("sessions for the same identity must get distinct IDs")
	}
}
