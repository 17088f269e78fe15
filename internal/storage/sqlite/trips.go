package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/okastudio/tripsplit/internal/models"
	"github.com/okastudio/tripsplit/internal/storage"
)

// CreateTrip persists a new trip together with its host membership.
// Returns storage.ErrCodeTaken when the trip code collides, so the caller
// can retry with a fresh code.
func (s *SQLiteStore) CreateTrip(ctx context.Context, trip *models.Trip, host *models.Member) error {
	if trip.ID == "" {
		trip.ID = uuid.New().String()
	}
	if trip.CreatedAt == 0 {
		trip.CreatedAt = time.Now().Unix()
	}
	host.TripID = trip.ID
	if host.JoinedAt == 0 {
		host.JoinedAt = trip.CreatedAt
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO trips (id, code, name, created_by, created_at) VALUES (?, ?, ?, ?, ?)",
		trip.ID, trip.Code, trip.Name, trip.CreatedBy, trip.CreatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("code %s: %w", trip.Code, storage.ErrCodeTaken)
	}
	if err != nil {
		return fmt.Errorf("failed to insert trip: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO trip_members (trip_id, user_id, display_name, role, status, joined_at) VALUES (?, ?, ?, ?, ?, ?)",
		host.TripID, host.UserID, host.DisplayName, host.Role, host.Status, host.JoinedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert host membership: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetTripByID retrieves a trip by its ID.
func (s *SQLiteStore) GetTripByID(ctx context.Context, tripID string) (*models.Trip, error) {
	return s.getTrip(ctx, "id", tripID)
}

// GetTripByCode retrieves a trip by its shareable join code.
func (s *SQLiteStore) GetTripByCode(ctx context.Context, code string) (*models.Trip, error) {
	return s.getTrip(ctx, "code", code)
}

func (s *SQLiteStore) getTrip(ctx context.Context, column, value string) (*models.Trip, error) {
	trip := &models.Trip{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, code, name, created_by, created_at FROM trips WHERE "+column+" = ?",
		value,
	).Scan(&trip.ID, &trip.Code, &trip.Name, &trip.CreatedBy, &trip.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("trip %s=%s: %w", column, value, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trip: %w", err)
	}
	return trip, nil
}

// AddMember records a membership for a trip.
func (s *SQLiteStore) AddMember(ctx context.Context, member *models.Member) error {
	if member.JoinedAt == 0 {
		member.JoinedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO trip_members (trip_id, user_id, display_name, role, status, joined_at) VALUES (?, ?, ?, ?, ?, ?)",
		member.TripID, member.UserID, member.DisplayName, member.Role, member.Status, member.JoinedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("user %s already requested to join trip %s", member.UserID, member.TripID)
	}
	if err != nil {
		return fmt.Errorf("failed to insert membership: %w", err)
	}
	return nil
}

// GetMember retrieves one membership row.
func (s *SQLiteStore) GetMember(ctx context.Context, tripID, userID string) (*models.Member, error) {
	member := &models.Member{}
	err := s.db.QueryRowContext(ctx,
		`SELECT trip_id, user_id, display_name, role, status, joined_at
		 FROM trip_members WHERE trip_id = ? AND user_id = ?`,
		tripID, userID,
	).Scan(&member.TripID, &member.UserID, &member.DisplayName, &member.Role, &member.Status, &member.JoinedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("membership %s/%s: %w", tripID, userID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	return member, nil
}

// ListMembers returns all memberships for a trip, hosts first, then by join time.
func (s *SQLiteStore) ListMembers(ctx context.Context, tripID string) ([]*models.Member, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT trip_id, user_id, display_name, role, status, joined_at
		 FROM trip_members WHERE trip_id = ?
		 ORDER BY CASE role WHEN 'host' THEN 0 ELSE 1 END, joined_at, user_id`,
		tripID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []*models.Member
	for rows.Next() {
		member := &models.Member{}
		if err := rows.Scan(&member.TripID, &member.UserID, &member.DisplayName,
			&member.Role, &member.Status, &member.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, member)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}
	return members, nil
}

// UpdateMemberStatus transitions a membership status.
func (s *SQLiteStore) UpdateMemberStatus(ctx context.Context, tripID, userID, status string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE trip_members SET status = ? WHERE trip_id = ? AND user_id = ?",
		status, tripID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update membership: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check membership update: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("membership %s/%s: %w", tripID, userID, storage.ErrNotFound)
	}
	return nil
}
