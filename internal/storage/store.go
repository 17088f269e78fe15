// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/okastudio/tripsplit/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
// Implementations wrap it with the record type and ID.
var ErrNotFound = errors.New("not found")

// ErrCodeTaken is returned by CreateTrip when the generated trip code
// collides with an existing trip; callers retry with a fresh code.
var ErrCodeTaken = errors.New("trip code already taken")

// Store defines the interface for tripsplit storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
type Store interface {
	// CreateUser persists a new user account.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail retrieves a user by email.
	// Returns (nil, nil) when no such user exists.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID retrieves a user by ID.
	// Returns (nil, nil) when no such user exists.
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// CreateTrip persists a new trip along with its host membership.
	// The trip.ID and CreatedAt fields are populated by the store.
	CreateTrip(ctx context.Context, trip *models.Trip, host *models.Member) error

	// GetTripByID retrieves a trip by its ID.
	GetTripByID(ctx context.Context, tripID string) (*models.Trip, error)

	// GetTripByCode retrieves a trip by its shareable join code.
	GetTripByCode(ctx context.Context, code string) (*models.Trip, error)

	// AddMember records a membership (typically pending) for a trip.
	AddMember(ctx context.Context, member *models.Member) error

	// GetMember retrieves one membership row.
	GetMember(ctx context.Context, tripID, userID string) (*models.Member, error)

	// ListMembers returns all memberships for a trip, hosts first.
	ListMembers(ctx context.Context, tripID string) ([]*models.Member, error)

	// UpdateMemberStatus transitions a membership (pending -> approved).
	UpdateMemberStatus(ctx context.Context, tripID, userID, status string) error

	// CreateExpense persists a new expense and its shares.
	// The expense.ID and CreatedAt fields are populated by the store.
	CreateExpense(ctx context.Context, expense *models.Expense) error

	// GetExpense retrieves an expense by ID, including its shares.
	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)

	// ListExpensesByTrip returns all expenses for a trip, oldest first.
	ListExpensesByTrip(ctx context.Context, tripID string) ([]*models.Expense, error)

	// DeleteExpense removes an expense and its shares.
	DeleteExpense(ctx context.Context, expenseID string) error

	// CreateSettlement persists a recorded settlement payment.
	CreateSettlement(ctx context.Context, settlement *models.Settlement) error

	// GetSettlement retrieves a settlement by ID.
	GetSettlement(ctx context.Context, settlementID string) (*models.Settlement, error)

	// ListSettlementsByTrip returns all settlements for a trip, newest first.
	ListSettlementsByTrip(ctx context.Context, tripID string) ([]*models.Settlement, error)

	// DeleteSettlement removes a settlement by ID.
	DeleteSettlement(ctx context.Context, settlementID string) error

	// Close releases any resources held by the store.
	Close() error
}
