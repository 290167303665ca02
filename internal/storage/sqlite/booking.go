package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/avstrong/studio/internal/booking"
	"github.com/avstrong/studio/internal/calendar"
)

const bookingColumns = `id, date, hour, start_minute, end_minute, title, event_type, host_count, has_guest, owner_id, created_at`

func (db *DB) InsertBooking(ctx context.Context, b *booking.Booking) (int64, error) {
	result, err := db.conn(ctx).ExecContext(ctx, `
		INSERT INTO bookings (date, hour, start_minute, end_minute, title, event_type, host_count, has_guest, owner_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, b.Date, b.Hour, b.StartMinute, b.EndMinute, b.Title, b.EventType, b.HostCount, b.HasGuest, b.OwnerID, b.CreatedAt)
	if err != nil {
		return 0, mapWriteError(b.Bucket(), err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read inserted booking id: %w", err)
	}

	return id, nil
}

func (db *DB) UpdateBooking(ctx context.Context, b *booking.Booking) error {
	result, err := db.conn(ctx).ExecContext(ctx, `
		UPDATE bookings
		SET date = ?, hour = ?, start_minute = ?, end_minute = ?,
		    title = ?, event_type = ?, host_count = ?, has_guest = ?, owner_id = ?
		WHERE id = ?
	`, b.Date, b.Hour, b.StartMinute, b.EndMinute, b.Title, b.EventType, b.HostCount, b.HasGuest, b.OwnerID, b.ID)
	if err != nil {
		return mapWriteError(b.Bucket(), err)
	}

	return expectAffected(result, b.ID)
}

func (db *DB) DeleteBooking(ctx context.Context, id int64) error {
	result, err := db.conn(ctx).ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete booking %d: %w", id, err)
	}

	return expectAffected(result, id)
}

func (db *DB) GetBookingByID(ctx context.Context, id int64) (*booking.Booking, error) {
	row := db.conn(ctx).QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id)

	b, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, booking.ErrRecordNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("scan booking %d: %w", id, err)
	}

	return b, nil
}

func (db *DB) GetBookingsByBucket(ctx context.Context, bucket booking.Bucket, excludeID int64) ([]*booking.Booking, error) {
	return db.queryBookings(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE date = ? AND hour = ? AND id <> ?
		ORDER BY start_minute
	`, bucket.Date, bucket.Hour, excludeID)
}

func (db *DB) GetBookingsByDateRange(ctx context.Context, from, to calendar.Date) ([]*booking.Booking, error) {
	return db.queryBookings(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE date >= ? AND date < ?
		ORDER BY date, hour, start_minute
	`, from, to)
}

func (db *DB) GetBookingsByOwnerAndDateRange(
	ctx context.Context,
	ownerID string,
	from, to calendar.Date,
) ([]*booking.Booking, error) {
	return db.queryBookings(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE owner_id = ? AND date >= ? AND date < ?
		ORDER BY date, hour, start_minute
	`, ownerID, from, to)
}

func (db *DB) GetOwnersByDateRange(ctx context.Context, from, to calendar.Date) ([]string, error) {
	rows, err := db.conn(ctx).QueryContext(ctx, `
		SELECT DISTINCT owner_id
		FROM bookings
		WHERE date >= ? AND date < ? AND owner_id <> ''
		ORDER BY owner_id
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("query owners: %w", err)
	}
	defer rows.Close()

	var owners []string

	for rows.Next() {
		var owner string
		if err := rows.Scan(&owner); err != nil {
			return nil, fmt.Errorf("scan owner: %w", err)
		}

		owners = append(owners, owner)
	}

	return owners, rows.Err()
}

func (db *DB) queryBookings(ctx context.Context, query string, args ...any) ([]*booking.Booking, error) {
	rows, err := db.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*booking.Booking

	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}

		bookings = append(bookings, b)
	}

	return bookings, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBooking(s scanner) (*booking.Booking, error) {
	var b booking.Booking

	err := s.Scan(&b.ID, &b.Date, &b.Hour, &b.StartMinute, &b.EndMinute,
		&b.Title, &b.EventType, &b.HostCount, &b.HasGuest, &b.OwnerID, &b.CreatedAt)
	if err != nil {
		return nil, err
	}

	b.CreatedAt = b.CreatedAt.UTC()

	return &b, nil
}

func expectAffected(result sql.Result, id int64) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("read affected rows: %w", err)
	}

	if n == 0 {
		return fmt.Errorf("booking %d: %w", id, booking.ErrRecordNotFound)
	}

	return nil
}

// mapWriteError turns the overlap trigger abort into a conflict.
func mapWriteError(bucket booking.Bucket, err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintTrigger {
		return booking.NewConflictError(bucket)
	}

	return fmt.Errorf("write booking: %w", err)
}
