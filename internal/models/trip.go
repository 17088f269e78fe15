package models

// Member roles within a trip.
const (
	RoleHost   = "host"
	RoleMember = "member"
)

// Membership statuses. A joiner starts pending and is approved by the host;
// only approved members appear in balance computations.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
)

// Trip represents a bounded group expense-sharing session.
type Trip struct {
	// ID is the unique identifier for the trip (UUID format).
	ID string

	// Code is the short shareable join code (e.g. "KWH3N7").
	// Unique across all trips.
	Code string

	// Name is the display name of the trip (e.g. "Lisbon 2026").
	Name string

	// CreatedBy is the user ID of the host who created the trip.
	CreatedBy string

	// CreatedAt is the Unix timestamp when the trip was created.
	CreatedAt int64
}

// Member represents a user's membership in a trip.
type Member struct {
	// TripID is the trip this membership belongs to.
	TripID string

	// UserID identifies the member. Opaque to balance computation.
	UserID string

	// DisplayName is a snapshot of the user's name at join time,
	// used for output only.
	DisplayName string

	// Role is RoleHost for the creator, RoleMember otherwise.
	Role string

	// Status is StatusPending until the host approves the join request.
	Status string

	// JoinedAt is the Unix timestamp of the join request.
	JoinedAt int64
}
