package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const reservationColumns = `id, name, email, phone, date, time, guests, status, submitted_at`

// InsertReservation stores a new reservation as pending.
func (d *Database) InsertReservation(r *Reservation) error {
	r.ID = uuid.NewString()
	r.Status = StatusPending
	r.SubmittedAt = d.now().UTC()

	query := `INSERT INTO reservations (` + reservationColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := d.db.Exec(query, r.ID, r.Name, r.Email, r.Phone, r.Date, r.Time, r.Guests, r.Status, toMillis(r.SubmittedAt))
	if err != nil {
		return fmt.Errorf("failed to insert reservation: %w", err)
	}
	return nil
}

func scanReservation(scan func(dest ...any) error) (Reservation, error) {
	var r Reservation
	var submitted int64
	if err := scan(&r.ID, &r.Name, &r.Email, &r.Phone, &r.Date, &r.Time, &r.Guests, &r.Status, &submitted); err != nil {
		return r, err
	}
	r.SubmittedAt = fromMillis(submitted)
	return r, nil
}

// GetReservations returns reservations, newest submission first. An empty
// status returns all of them.
func (d *Database) GetReservations(status string) ([]Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations`
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY submitted_at DESC`

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reservations: %w", err)
	}
	defer rows.Close()

	var reservations []Reservation
	for rows.Next() {
		r, err := scanReservation(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reservation: %w", err)
		}
		reservations = append(reservations, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return reservations, nil
}

func (d *Database) GetReservation(id string) (*Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ?`
	r, err := scanReservation(d.db.QueryRow(query, id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("reservation %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}
	return &r, nil
}

func (d *Database) UpdateReservationStatus(id string, status string) error {
	result, err := d.db.Exec(`UPDATE reservations SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update reservation status: %w", err)
	}
	return checkAffected(result, "reservation", id)
}

func (d *Database) DeleteReservation(id string) error {
	result, err := d.db.Exec(`DELETE FROM reservations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete reservation: %w", err)
	}
	return checkAffected(result, "reservation", id)
}

// ExpireReservations cancels pending reservations scheduled before the given
// local time and returns how many were cancelled.
func (d *Database) ExpireReservations(before time.Time) (int64, error) {
	cutoff := before.Format("2006-01-02 15:04")
	result, err := d.db.Exec(
		`UPDATE reservations SET status = ? WHERE status = ? AND (date || ' ' || time) < ?`,
		StatusCancelled, StatusPending, cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to expire reservations: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}
