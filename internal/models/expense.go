package models

import "github.com/shopspring/decimal"

// Expense represents a single payment made by one trip member,
// split across a subset of the trip's members.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// TripID is the trip this expense belongs to.
	TripID string

	// Description is a short human-readable label (e.g. "Dinner", "Taxi").
	Description string

	// Amount is the full amount paid by the payer. Always positive.
	Amount decimal.Decimal

	// PayerID is the user ID of the member who paid.
	PayerID string

	// Shares is the non-empty split of Amount across members.
	// Shares need not be equal; for an equal split they are derived
	// server-side as amount / count.
	Shares []ExpenseShare

	// CreatedAt is the Unix timestamp when the expense was recorded.
	CreatedAt int64
}

// ExpenseShare is one member's owed portion of an expense.
type ExpenseShare struct {
	// MemberID is the user ID of the member who owes this share.
	MemberID string

	// Amount is the owed portion. Always positive.
	Amount decimal.Decimal
}
