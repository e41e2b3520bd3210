package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/erazemk/trgovina/internal/db"
	"github.com/erazemk/trgovina/internal/model"
)

// testClock is a settable clock for deterministic "today" handling.
type testClock struct {
	t time.Time
}

func (c *testClock) now() time.Time { return c.t }

func (c *testClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestStore(t *testing.T) (*Store, *testClock) {
	t.Helper()
	clock := &testClock{t: time.Date(2024, 5, 10, 9, 30, 0, 0, time.UTC)}
	s := New(db.NewTestDB(t), WithClock(clock.now), WithLocation(time.UTC))
	return s, clock
}

func mustCreateItem(t *testing.T, s *Store, it model.Item) *model.Item {
	t.Helper()
	created, err := s.CreateItem(context.Background(), it)
	if err != nil {
		t.Fatalf("CreateItem(%q): %v", it.Name, err)
	}
	return created
}

func cement() model.Item {
	return model.Item{
		Name:     "Cement 50kg",
		Category: "Building",
		Stock:    100,
		MinStock: 20,
		Price:    decimal.NewFromInt(30000),
	}
}

func countRows(t *testing.T, s *Store, query string, args ...any) int {
	t.Helper()
	var n int
	if err := s.db.Get(&n, query, args...); err != nil {
		t.Fatalf("count %q: %v", query, err)
	}
	return n
}

func TestStorageErrKeepsDomainErrors(t *testing.T) {
	nf := model.NotFound("item", 7)
	if got := storageErr("op", nf); got != nf {
		t.Errorf("expected not-found error to pass through, got %v", got)
	}

	wrapped := storageErr("reading", errors.New("disk I/O error"))
	if !errors.Is(wrapped, model.ErrStorage) {
		t.Errorf("expected storage failure, got %v", wrapped)
	}
	if storageErr("op", nil) != nil {
		t.Error("expected nil for nil error")
	}
}

func TestDBTimeSortsAsText(t *testing.T) {
	early := time.Date(2024, 1, 2, 3, 4, 5, 6, time.FixedZone("CET", 3600))
	late := early.Add(time.Nanosecond)
	if !(dbTime(early) < dbTime(late)) {
		t.Errorf("expected %q < %q", dbTime(early), dbTime(late))
	}
	if len(dbTime(early)) != len(dbTime(time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC))) {
		t.Error("expected fixed-width timestamps")
	}
}

func TestOpenCreatesStore(t *testing.T) {
	s, err := Open(t.TempDir() + "/shop.sqlite3")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	items, err := s.ListItems(context.Background())
	if err != nil {
		t.Fatalf("ListItems: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("expected empty store, got %d items", len(items))
	}
}
