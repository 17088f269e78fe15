// Package service implements the tripsplit HTTP API on top of storage.Store
// and the settle engine.
package service

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/okastudio/tripsplit/internal/models"
	"github.com/okastudio/tripsplit/internal/settle"
	"github.com/okastudio/tripsplit/internal/storage"
)

// storeError maps storage errors onto HTTP status codes.
func storeError(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	return fiber.NewError(fiber.StatusInternalServerError, "storage error")
}

// engineError maps settle validation errors onto HTTP status codes.
// Validation failures are the caller's fault; anything else is not expected
// from a pure computation.
func engineError(err error) error {
	switch {
	case errors.Is(err, settle.ErrUnknownMember),
		errors.Is(err, settle.ErrEmptySplit),
		errors.Is(err, settle.ErrNonPositiveAmount),
		errors.Is(err, settle.ErrNegativeShare):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}

// approvedMember loads the requester's membership and ensures it is approved.
func approvedMember(ctx context.Context, store storage.Store, tripID, userID string) (*models.Member, error) {
	member, err := store.GetMember(ctx, tripID, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fiber.NewError(fiber.StatusForbidden, "you are not a member of this trip")
		}
		return nil, storeError(err)
	}
	if member.Status != models.StatusApproved {
		return nil, fiber.NewError(fiber.StatusForbidden, "your membership is pending approval")
	}
	return member, nil
}

// approvedMembers filters a member list down to approved memberships.
func approvedMembers(members []*models.Member) []*models.Member {
	var approved []*models.Member
	for _, m := range members {
		if m.Status == models.StatusApproved {
			approved = append(approved, m)
		}
	}
	return approved
}
