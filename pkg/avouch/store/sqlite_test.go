package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/chosenoffset/avouch/pkg/avouch"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "avouch.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testAssessment(id, origin, level string, at time.Time) *avouch.Assessment {
	return &avouch.Assessment{
		ID:      id,
		Time:    at,
		Version: 1,
		Origin:  origin,
		Encoded: fmt.Sprintf("v:1;o:%s;risk:high", origin),
		Context: avouch.Context{
			"risk":      &avouch.Number{Value: 3},
			"escalated": avouch.TRUE,
		},
		Outcome: avouch.Outcome{Level: level, Label: level, Color: "orange"},
		Rule:    level,
	}
}

func TestSaveAndList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour).Truncate(time.Second)
	for i, origin := range []string{"co", "acme", "co"} {
		a := testAssessment(fmt.Sprintf("id-%d", i), origin, "orange", base.Add(time.Duration(i)*10*time.Second))
		if err := s.Save(ctx, a); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	got, err := s.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("List() returned %d assessments, want 3", len(got))
	}

	// Newest first.
	if got[0].ID != "id-2" || got[2].ID != "id-0" {
		t.Errorf("List() order = %s, %s, %s; want id-2 first", got[0].ID, got[1].ID, got[2].ID)
	}

	first := got[0]
	if first.Origin != "co" || first.Version != 1 {
		t.Errorf("round-tripped metadata wrong: %+v", first)
	}
	if first.Outcome.Level != "orange" || first.Outcome.Color != "orange" {
		t.Errorf("round-tripped outcome wrong: %+v", first.Outcome)
	}
	if first.Encoded != "v:1;o:co;risk:high" {
		t.Errorf("round-tripped encoded = %q", first.Encoded)
	}
	if !first.Time.Equal(base.Add(20 * time.Second)) {
		t.Errorf("round-tripped time = %v, want %v", first.Time, base.Add(20*time.Second))
	}
}

func TestListFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour).Truncate(time.Second)
	rows := []struct {
		id     string
		origin string
		level  string
		at     time.Time
	}{
		{"a", "co", "red", base},
		{"b", "co", "green", base.Add(10 * time.Second)},
		{"c", "acme", "red", base.Add(20 * time.Second)},
	}
	for _, r := range rows {
		if err := s.Save(ctx, testAssessment(r.id, r.origin, r.level, r.at)); err != nil {
			t.Fatalf("Save(%s) error = %v", r.id, err)
		}
	}

	t.Run("by origin", func(t *testing.T) {
		got, err := s.List(ctx, Filter{Origin: "co"})
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 2 {
			t.Errorf("got %d assessments, want 2", len(got))
		}
	})

	t.Run("by level", func(t *testing.T) {
		got, err := s.List(ctx, Filter{Level: "red"})
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 2 {
			t.Errorf("got %d assessments, want 2", len(got))
		}
	})

	t.Run("by origin and level", func(t *testing.T) {
		got, err := s.List(ctx, Filter{Origin: "co", Level: "red"})
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 1 || got[0].ID != "a" {
			t.Errorf("got %v, want only a", got)
		}
	})

	t.Run("by time range", func(t *testing.T) {
		got, err := s.List(ctx, Filter{Since: base.Add(5 * time.Second), Until: base.Add(15 * time.Second)})
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 1 || got[0].ID != "b" {
			t.Errorf("got %v, want only b", got)
		}
	})

	t.Run("with limit", func(t *testing.T) {
		got, err := s.List(ctx, Filter{Limit: 2})
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 2 {
			t.Errorf("got %d assessments, want 2", len(got))
		}
		if got[0].ID != "c" {
			t.Errorf("limited list should keep newest first, got %s", got[0].ID)
		}
	})
}

func TestContextRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := testAssessment("ctx-1", "co", "red", time.Now().Truncate(time.Second))
	if err := s.Save(ctx, a); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := s.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d assessments, want 1", len(got))
	}

	risk, ok := got[0].Context["risk"].(*avouch.Number)
	if !ok || risk.Value != 3 {
		t.Errorf("context risk = %v, want number 3", got[0].Context["risk"])
	}
	if got[0].Context["escalated"] != avouch.TRUE {
		t.Errorf("context escalated = %v, want true", got[0].Context["escalated"])
	}
}

func TestSaveValidation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Save(ctx, nil); err == nil {
		t.Error("Save(nil) should fail")
	}
	if err := s.Save(ctx, &avouch.Assessment{}); err == nil {
		t.Error("Save of an assessment without an ID should fail")
	}
}

func TestCount(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	count, err := s.Count(ctx)
	if err != nil || count != 0 {
		t.Fatalf("Count() = %d, %v; want 0, nil", count, err)
	}

	for i := 0; i < 5; i++ {
		a := testAssessment(fmt.Sprintf("n-%d", i), "co", "green", time.Now())
		if err := s.Save(ctx, a); err != nil {
			t.Fatal(err)
		}
	}

	count, err = s.Count(ctx)
	if err != nil || count != 5 {
		t.Errorf("Count() = %d, %v; want 5, nil", count, err)
	}
}

func TestDeleteBefore(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour).Truncate(time.Second)
	for i := 0; i < 4; i++ {
		a := testAssessment(fmt.Sprintf("d-%d", i), "co", "green", base.Add(time.Duration(i)*10*time.Second))
		if err := s.Save(ctx, a); err != nil {
			t.Fatal(err)
		}
	}

	deleted, err := s.DeleteBefore(ctx, base.Add(15*time.Second))
	if err != nil {
		t.Fatalf("DeleteBefore() error = %v", err)
	}
	if deleted != 2 {
		t.Errorf("DeleteBefore() deleted %d rows, want 2", deleted)
	}

	count, err := s.Count(ctx)
	if err != nil || count != 2 {
		t.Errorf("Count() after delete = %d, %v; want 2", count, err)
	}
}

func TestPersistenceAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "avouch.db")
	ctx := context.Background()

	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Save(ctx, testAssessment("persist-1", "co", "red", time.Now().Truncate(time.Second))); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	got, err := reopened.List(ctx, Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != "persist-1" {
		t.Errorf("reopened store lost data: %v", got)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	if err := s.Close(); err != nil {
		t.Errorf("first Close() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestEmptyPathRejected(t *testing.T) {
	if _, err := NewSQLiteStore(""); err == nil {
		t.Error("NewSQLiteStore(\"\") should fail")
	}
}
