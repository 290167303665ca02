package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/avstrong/studio/internal/booking"
	"github.com/avstrong/studio/internal/calendar"
	"github.com/avstrong/studio/internal/logger"
	"github.com/avstrong/studio/internal/payment"
)

type idGenerator interface {
	GetID(ctx context.Context) (int64, error)
}

type Config struct {
	L     *logger.Logger
	IDGen idGenerator
}

type summaryKey struct {
	ownerID string
	period  payment.Period
}

// DB keeps bookings and payment summaries in memory. Transactions are fully
// serialized: BeginTransaction blocks until the previous transaction finished.
// Writes are staged in the transaction and become visible on commit.
type DB struct {
	trxMu sync.Mutex

	mu           sync.Mutex
	l            *logger.Logger
	idGen        idGenerator
	bookings     map[int64]*booking.Booking
	summaries    map[summaryKey]*payment.Summary
	transactions map[string]*transaction
	nextTrxID    int64
}

func New(conf Config) *DB {
	//nolint:exhaustruct
	return &DB{
		l:            conf.L,
		idGen:        conf.IDGen,
		bookings:     make(map[int64]*booking.Booking),
		summaries:    make(map[summaryKey]*payment.Summary),
		transactions: make(map[string]*transaction),
	}
}

// bookingsViewLocked merges committed bookings with the writes staged in ctx's transaction.
func (db *DB) bookingsViewLocked(ctx context.Context) map[int64]*booking.Booking {
	trx := db.currentTransactionLocked(ctx)
	if trx == nil {
		return db.bookings
	}

	view := make(map[int64]*booking.Booking, len(db.bookings)+len(trx.bookingWrites))
	for id, b := range db.bookings {
		if _, deleted := trx.bookingDeletes[id]; !deleted {
			view[id] = b
		}
	}

	for id, b := range trx.bookingWrites {
		view[id] = b
	}

	return view
}

func (db *DB) InsertBooking(ctx context.Context, b *booking.Booking) (int64, error) {
	id, err := db.idGen.GetID(ctx)
	if err != nil {
		return 0, fmt.Errorf("get next booking id: %w", err)
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	trx, err := db.transactionLocked(ctx)
	if err != nil {
		return 0, err
	}

	stored := *b
	stored.ID = id
	trx.bookingWrites[id] = &stored

	return id, nil
}

func (db *DB) UpdateBooking(ctx context.Context, b *booking.Booking) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	trx, err := db.transactionLocked(ctx)
	if err != nil {
		return err
	}

	if _, ok := db.bookingsViewLocked(ctx)[b.ID]; !ok {
		return fmt.Errorf("booking %d: %w", b.ID, booking.ErrRecordNotFound)
	}

	stored := *b
	trx.bookingWrites[b.ID] = &stored

	return nil
}

func (db *DB) DeleteBooking(ctx context.Context, id int64) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	trx, err := db.transactionLocked(ctx)
	if err != nil {
		return err
	}

	if _, ok := db.bookingsViewLocked(ctx)[id]; !ok {
		return fmt.Errorf("booking %d: %w", id, booking.ErrRecordNotFound)
	}

	delete(trx.bookingWrites, id)
	trx.bookingDeletes[id] = struct{}{}

	return nil
}

func (db *DB) GetBookingByID(ctx context.Context, id int64) (*booking.Booking, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	b, ok := db.bookingsViewLocked(ctx)[id]
	if !ok {
		return nil, booking.ErrRecordNotFound
	}

	found := *b

	return &found, nil
}

func (db *DB) GetBookingsByBucket(ctx context.Context, bucket booking.Bucket, excludeID int64) ([]*booking.Booking, error) {
	return db.selectBookings(ctx, func(b *booking.Booking) bool {
		return b.Bucket() == bucket && b.ID != excludeID
	}), nil
}

func (db *DB) GetBookingsByDateRange(ctx context.Context, from, to calendar.Date) ([]*booking.Booking, error) {
	return db.selectBookings(ctx, func(b *booking.Booking) bool {
		return !b.Date.Before(from) && b.Date.Before(to)
	}), nil
}

func (db *DB) GetBookingsByOwnerAndDateRange(
	ctx context.Context,
	ownerID string,
	from, to calendar.Date,
) ([]*booking.Booking, error) {
	return db.selectBookings(ctx, func(b *booking.Booking) bool {
		return b.OwnerID == ownerID && !b.Date.Before(from) && b.Date.Before(to)
	}), nil
}

func (db *DB) GetOwnersByDateRange(ctx context.Context, from, to calendar.Date) ([]string, error) {
	bookings, err := db.GetBookingsByDateRange(ctx, from, to)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})

	var owners []string

	for _, b := range bookings {
		if _, ok := seen[b.OwnerID]; ok || b.OwnerID == "" {
			continue
		}

		seen[b.OwnerID] = struct{}{}
		owners = append(owners, b.OwnerID)
	}

	sort.Strings(owners)

	return owners, nil
}

// selectBookings returns copies ordered by date, hour and start minute.
func (db *DB) selectBookings(ctx context.Context, match func(b *booking.Booking) bool) []*booking.Booking {
	db.mu.Lock()
	defer db.mu.Unlock()

	var result []*booking.Booking

	for _, b := range db.bookingsViewLocked(ctx) {
		if !match(b) {
			continue
		}

		found := *b
		result = append(result, &found)
	}

	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if c := a.Date.Compare(b.Date); c != 0 {
			return c < 0
		}

		if a.Hour != b.Hour {
			return a.Hour < b.Hour
		}

		return a.StartMinute < b.StartMinute
	})

	return result
}
