package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/avstrong/studio/internal/booking"
	"github.com/avstrong/studio/internal/calendar"
	"github.com/avstrong/studio/internal/logger"
	"github.com/avstrong/studio/internal/payment"
)

var june10 = calendar.New(2024, time.June, 10)

func openTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(Config{L: logger.NewNop(), Path: filepath.Join(t.TempDir(), "studio.db")})
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })

	if err := db.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return db
}

func insert(t *testing.T, db *DB, b *booking.Booking) (int64, error) {
	t.Helper()

	ctx, err := db.BeginTransaction(context.Background())
	if err != nil {
		t.Fatalf("begin: %v", err)
	}

	id, err := db.InsertBooking(ctx, b)
	if err != nil {
		_ = db.RollbackTransaction(ctx)

		return 0, err
	}

	if err := db.CommitTransaction(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}

	return id, nil
}

func slotBooking(owner string, hour, start, end int) *booking.Booking {
	return &booking.Booking{
		Slot:      booking.Slot{Date: june10, Hour: hour, StartMinute: start, EndMinute: end},
		Details:   booking.Details{Title: "Show", EventType: booking.EventTypeLive, HostCount: 1, HasGuest: true},
		OwnerID:   owner,
		CreatedAt: time.Date(2024, time.June, 1, 8, 0, 0, 0, time.UTC),
	}
}

func TestMigrationStatus(t *testing.T) {
	db := openTestDB(t)

	status, err := db.MigrationStatus()
	if err != nil {
		t.Fatalf("status: %v", err)
	}

	if status.CurrentVersion != 2 || status.LatestVersion != 2 || status.Pending || status.Dirty {
		t.Fatalf("status = %+v", status)
	}

	if err := db.Migrate(); err != nil {
		t.Fatalf("second migrate must be a no-op: %v", err)
	}
}

func TestOpenCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "home", ".studio", "studio.db")

	db, err := Open(Config{L: logger.NewNop(), Path: path})
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })

	if err := db.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("database file not created: %v", err)
	}
}

func TestBookingRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	want := slotBooking("u1", 9, 0, 30)

	id, err := insert(t, db, want)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := db.GetBookingByID(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	if got.Slot != want.Slot || got.Details != want.Details || got.OwnerID != "u1" || !got.CreatedAt.Equal(want.CreatedAt) {
		t.Fatalf("got %+v, want %+v", got, want)
	}

	if _, err := db.GetBookingByID(ctx, id+1); !errors.Is(err, booking.ErrRecordNotFound) {
		t.Fatalf("missing id: got %v, want ErrRecordNotFound", err)
	}
}

func TestOverlapTriggerBackstop(t *testing.T) {
	db := openTestDB(t)

	first, err := insert(t, db, slotBooking("u1", 9, 0, 30))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	if _, err := insert(t, db, slotBooking("u2", 9, 30, 60)); err != nil {
		t.Fatalf("adjacent insert: %v", err)
	}

	if _, err := insert(t, db, slotBooking("u2", 9, 29, 45)); booking.IsConflictError(err) == nil {
		t.Fatalf("overlapping insert: got %v, want conflict", err)
	}

	ctx, err := db.BeginTransaction(context.Background())
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	defer func() { _ = db.RollbackTransaction(ctx) }()

	moved := slotBooking("u1", 9, 20, 40)
	moved.ID = first

	if err := db.UpdateBooking(ctx, moved); booking.IsConflictError(err) == nil {
		t.Fatalf("overlapping update: got %v, want conflict", err)
	}

	same := slotBooking("u1", 9, 0, 30)
	same.ID = first

	if err := db.UpdateBooking(ctx, same); err != nil {
		t.Fatalf("update onto own slot: %v", err)
	}
}

func TestRangeQueries(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	for _, b := range []*booking.Booking{
		slotBooking("u2", 10, 0, 30),
		slotBooking("u1", 9, 0, 30),
		{Slot: booking.Slot{Date: june10.AddDays(1), Hour: 0, StartMinute: 0, EndMinute: 10}, OwnerID: "u3"},
	} {
		if _, err := insert(t, db, b); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	day, err := db.GetBookingsByDateRange(ctx, june10, june10.AddDays(1))
	if err != nil {
		t.Fatalf("range: %v", err)
	}

	if len(day) != 2 || day[0].Hour != 9 || day[1].Hour != 10 {
		t.Fatalf("day bookings = %+v", day)
	}

	owners, err := db.GetOwnersByDateRange(ctx, june10, june10.AddDays(2))
	if err != nil {
		t.Fatalf("owners: %v", err)
	}

	if len(owners) != 3 || owners[0] != "u1" || owners[2] != "u3" {
		t.Fatalf("owners = %v", owners)
	}

	bucket, err := db.GetBookingsByBucket(ctx, booking.Bucket{Date: june10, Hour: 9}, 0)
	if err != nil || len(bucket) != 1 {
		t.Fatalf("bucket = %+v, %v", bucket, err)
	}

	excluded, err := db.GetBookingsByBucket(ctx, booking.Bucket{Date: june10, Hour: 9}, bucket[0].ID)
	if err != nil || len(excluded) != 0 {
		t.Fatalf("bucket without own id = %+v, %v", excluded, err)
	}
}

func TestDeleteBooking(t *testing.T) {
	db := openTestDB(t)

	id, err := insert(t, db, slotBooking("u1", 9, 0, 30))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	ctx, err := db.BeginTransaction(context.Background())
	if err != nil {
		t.Fatalf("begin: %v", err)
	}

	if err := db.DeleteBooking(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if err := db.DeleteBooking(ctx, id); !errors.Is(err, booking.ErrRecordNotFound) {
		t.Fatalf("second delete: got %v, want ErrRecordNotFound", err)
	}

	if err := db.CommitTransaction(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}

	if _, err := insert(t, db, slotBooking("u2", 9, 0, 30)); err != nil {
		t.Fatalf("rebook freed range: %v", err)
	}
}

func TestManagersOnSQLite(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	l := logger.NewNop()
	bookings := booking.New(l, db)
	payments := payment.New(l, db, payment.NewCalculator(payment.DefaultRates()))
	u1 := booking.Actor{ID: "u1"}

	for _, start := range []int{0, 30} {
		_, err := bookings.Create(ctx, u1, &booking.CreateInput{
			Slot:    booking.Slot{Date: june10, Hour: 10, StartMinute: start, EndMinute: start + 30},
			Details: booking.Details{Title: "Show", EventType: booking.EventTypeLive, HostCount: 1},
		})
		if err != nil {
			t.Fatalf("create at %d: %v", start, err)
		}
	}

	period := payment.Period{Year: 2024, Month: time.June}

	for _, wantCreated := range []int{1, 0} {
		result, err := payments.Recalculate(ctx, period, nil)
		if err != nil {
			t.Fatalf("recalculate: %v", err)
		}

		if result.Processed != 1 || result.Created != wantCreated {
			t.Fatalf("result = %+v, want created=%d", result, wantCreated)
		}
	}

	summaries, err := payments.ListForOwner(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	if len(summaries) != 1 {
		t.Fatalf("got %d summaries, want 1", len(summaries))
	}

	s := summaries[0]
	if s.TotalMinutes != 60 || s.MergedEventCount != 1 || !s.TotalIncludingVAT.Equal(decimal.RequireFromString("1312.50")) {
		t.Fatalf("summary = %+v", s)
	}
}

func TestConcurrentCreatesOnSQLite(t *testing.T) {
	db := openTestDB(t)
	m := booking.New(logger.NewNop(), db)

	const workers = 8

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			_, err := m.Create(context.Background(), booking.Actor{ID: "u1"}, &booking.CreateInput{
				Slot: booking.Slot{Date: june10, Hour: 9, StartMinute: i, EndMinute: 30 + i},
			})
			if err != nil && booking.IsConflictError(err) == nil {
				t.Errorf("unexpected error: %v", err)

				return
			}

			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}(i)
	}

	wg.Wait()

	if succeeded != 1 {
		t.Fatalf("%d overlapping creates succeeded, want 1", succeeded)
	}
}
