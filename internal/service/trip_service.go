package service

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/okastudio/tripsplit/internal/middleware"
	"github.com/okastudio/tripsplit/internal/models"
	"github.com/okastudio/tripsplit/internal/settle"
	"github.com/okastudio/tripsplit/internal/storage"
	"github.com/okastudio/tripsplit/internal/tripcode"
)

// codeAttempts bounds retries when a generated trip code collides.
const codeAttempts = 5

// TripService implements trip, membership, and balance endpoints.
type TripService struct {
	store storage.Store
}

// NewTripService creates a new TripService with the given storage backend.
func NewTripService(store storage.Store) *TripService {
	return &TripService{store: store}
}

// RegisterRoutes mounts the trip endpoints on the given router. Trip preview
// by code works without a session so invite links can be opened before
// signing in; everything else requires authentication.
func (s *TripService) RegisterRoutes(r fiber.Router, requireAuth, optionalAuth fiber.Handler) {
	r.Post("/trips", requireAuth, s.CreateTrip)
	r.Get("/trips/:code", optionalAuth, s.GetTrip)
	r.Post("/trips/:code/join", requireAuth, s.Join)
	r.Post("/trips/:id/members/:userID/approve", requireAuth, s.Approve)
	r.Get("/trips/:id/balances", requireAuth, s.Balances)
}

type createTripRequest struct {
	Name string `json:"name"`
}

type tripResponse struct {
	ID        string `json:"id"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	CreatedBy string `json:"created_by"`
	CreatedAt int64  `json:"created_at"`
}

type memberResponse struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
	Status      string `json:"status"`
	JoinedAt    int64  `json:"joined_at"`
}

type tripDetailResponse struct {
	Trip     tripResponse      `json:"trip"`
	Members  []memberResponse  `json:"members,omitempty"`
	Expenses []expenseResponse `json:"expenses,omitempty"`

	// MemberStatus is the requester's own membership status
	// ("", "pending", or "approved").
	MemberStatus string `json:"member_status"`
}

func toTripResponse(trip *models.Trip) tripResponse {
	return tripResponse{
		ID:        trip.ID,
		Code:      trip.Code,
		Name:      trip.Name,
		CreatedBy: trip.CreatedBy,
		CreatedAt: trip.CreatedAt,
	}
}

func toMemberResponses(members []*models.Member) []memberResponse {
	out := make([]memberResponse, len(members))
	for i, m := range members {
		out[i] = memberResponse{
			UserID:      m.UserID,
			DisplayName: m.DisplayName,
			Role:        m.Role,
			Status:      m.Status,
			JoinedAt:    m.JoinedAt,
		}
	}
	return out
}

// CreateTrip creates a trip with a fresh shareable code and the requester
// as approved host.
func (s *TripService) CreateTrip(c *fiber.Ctx) error {
	var req createTripRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "name is required")
	}

	userID := middleware.UserID(c)

	var trip *models.Trip
	for attempt := 0; attempt < codeAttempts; attempt++ {
		code, err := tripcode.New()
		if err != nil {
			slog.Error("failed to generate trip code", "error", err)
			return fiber.NewError(fiber.StatusInternalServerError, "failed to create trip")
		}

		trip = &models.Trip{Code: code, Name: req.Name, CreatedBy: userID}
		host := &models.Member{
			UserID:      userID,
			DisplayName: middleware.DisplayName(c),
			Role:        models.RoleHost,
			Status:      models.StatusApproved,
		}

		err = s.store.CreateTrip(c.Context(), trip, host)
		if err == nil {
			break
		}
		if errors.Is(err, storage.ErrCodeTaken) {
			trip = nil
			continue
		}
		slog.Error("CreateTrip failed", "error", err)
		return storeError(err)
	}
	if trip == nil {
		slog.Error("exhausted trip code attempts", "attempts", codeAttempts)
		return fiber.NewError(fiber.StatusInternalServerError, "failed to allocate trip code")
	}

	slog.Info("trip created", "trip_id", trip.ID, "code", trip.Code, "host", userID)
	return c.Status(fiber.StatusCreated).JSON(toTripResponse(trip))
}

// GetTrip returns a trip snapshot by its shareable code. Approved members get
// the full snapshot (members and expenses); anyone else gets just enough to
// decide whether to join.
func (s *TripService) GetTrip(c *fiber.Ctx) error {
	trip, err := s.store.GetTripByCode(c.Context(), c.Params("code"))
	if err != nil {
		return storeError(err)
	}

	userID := middleware.UserID(c)
	resp := tripDetailResponse{Trip: toTripResponse(trip)}

	member, err := s.store.GetMember(c.Context(), trip.ID, userID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return storeError(err)
	}
	if member == nil || member.Status != models.StatusApproved {
		if member != nil {
			resp.MemberStatus = member.Status
		}
		return c.JSON(resp)
	}
	resp.MemberStatus = member.Status

	members, err := s.store.ListMembers(c.Context(), trip.ID)
	if err != nil {
		return storeError(err)
	}
	expenses, err := s.store.ListExpensesByTrip(c.Context(), trip.ID)
	if err != nil {
		return storeError(err)
	}

	resp.Members = toMemberResponses(members)
	resp.Expenses = toExpenseResponses(expenses)
	return c.JSON(resp)
}

// Join records a pending membership request for the trip with the given code.
func (s *TripService) Join(c *fiber.Ctx) error {
	trip, err := s.store.GetTripByCode(c.Context(), c.Params("code"))
	if err != nil {
		return storeError(err)
	}

	userID := middleware.UserID(c)
	if existing, err := s.store.GetMember(c.Context(), trip.ID, userID); err == nil {
		return fiber.NewError(fiber.StatusConflict, "already "+existing.Status+" on this trip")
	} else if !errors.Is(err, storage.ErrNotFound) {
		return storeError(err)
	}

	member := &models.Member{
		TripID:      trip.ID,
		UserID:      userID,
		DisplayName: middleware.DisplayName(c),
		Role:        models.RoleMember,
		Status:      models.StatusPending,
	}
	if err := s.store.AddMember(c.Context(), member); err != nil {
		slog.Error("Join failed", "trip_id", trip.ID, "user_id", userID, "error", err)
		return storeError(err)
	}

	slog.Info("join requested", "trip_id", trip.ID, "user_id", userID)
	return c.Status(fiber.StatusAccepted).JSON(memberResponse{
		UserID:      member.UserID,
		DisplayName: member.DisplayName,
		Role:        member.Role,
		Status:      member.Status,
		JoinedAt:    member.JoinedAt,
	})
}

// Approve transitions a pending membership to approved. Host only.
func (s *TripService) Approve(c *fiber.Ctx) error {
	trip, err := s.store.GetTripByID(c.Context(), c.Params("id"))
	if err != nil {
		return storeError(err)
	}
	if trip.CreatedBy != middleware.UserID(c) {
		return fiber.NewError(fiber.StatusForbidden, "only the host can approve members")
	}

	targetID := c.Params("userID")
	if err := s.store.UpdateMemberStatus(c.Context(), trip.ID, targetID, models.StatusApproved); err != nil {
		return storeError(err)
	}

	slog.Info("member approved", "trip_id", trip.ID, "user_id", targetID)
	member, err := s.store.GetMember(c.Context(), trip.ID, targetID)
	if err != nil {
		return storeError(err)
	}
	return c.JSON(memberResponse{
		UserID:      member.UserID,
		DisplayName: member.DisplayName,
		Role:        member.Role,
		Status:      member.Status,
		JoinedAt:    member.JoinedAt,
	})
}

type balanceResponse struct {
	MemberID    string          `json:"member_id"`
	DisplayName string          `json:"display_name"`
	TotalPaid   decimal.Decimal `json:"total_paid"`
	TotalOwed   decimal.Decimal `json:"total_owed"`
	Net         decimal.Decimal `json:"net"`
}

type transferResponse struct {
	FromID string          `json:"from"`
	ToID   string          `json:"to"`
	Amount decimal.Decimal `json:"amount"`
}

type balancesResponse struct {
	Balances  []balanceResponse  `json:"balances"`
	Transfers []transferResponse `json:"transfers"`

	// Warning is set when balances fail to net to zero beyond tolerance,
	// indicating inconsistent expense data upstream.
	Warning string `json:"warning,omitempty"`
}

// Balances computes per-member balances and a settlement plan for a trip.
func (s *TripService) Balances(c *fiber.Ctx) error {
	trip, err := s.store.GetTripByID(c.Context(), c.Params("id"))
	if err != nil {
		return storeError(err)
	}
	if _, err := approvedMember(c.Context(), s.store, trip.ID, middleware.UserID(c)); err != nil {
		return err
	}

	members, err := s.store.ListMembers(c.Context(), trip.ID)
	if err != nil {
		return storeError(err)
	}
	expenses, err := s.store.ListExpensesByTrip(c.Context(), trip.ID)
	if err != nil {
		return storeError(err)
	}
	settlements, err := s.store.ListSettlementsByTrip(c.Context(), trip.ID)
	if err != nil {
		return storeError(err)
	}

	// Pending members carry no balances.
	var engineMembers []settle.Member
	for _, m := range approvedMembers(members) {
		engineMembers = append(engineMembers, settle.Member{ID: m.UserID, Name: m.DisplayName})
	}
	engineExpenses := make([]settle.Expense, len(expenses))
	for i, e := range expenses {
		shares := make([]settle.Share, len(e.Shares))
		for j, sh := range e.Shares {
			shares[j] = settle.Share{MemberID: sh.MemberID, Amount: sh.Amount}
		}
		engineExpenses[i] = settle.Expense{ID: e.ID, Amount: e.Amount, PayerID: e.PayerID, Shares: shares}
	}
	payments := make([]settle.Payment, len(settlements))
	for i, st := range settlements {
		payments[i] = settle.Payment{FromID: st.FromUserID, ToID: st.ToUserID, Amount: st.Amount}
	}

	summary, err := settle.Plan(engineMembers, engineExpenses, payments)
	if err != nil {
		slog.Error("balance computation failed", "trip_id", trip.ID, "error", err)
		return engineError(err)
	}

	resp := balancesResponse{
		Balances:  make([]balanceResponse, len(summary.Balances)),
		Transfers: make([]transferResponse, len(summary.Transfers)),
	}
	for i, b := range summary.Balances {
		resp.Balances[i] = balanceResponse{
			MemberID:    b.MemberID,
			DisplayName: b.Name,
			TotalPaid:   b.TotalPaid,
			TotalOwed:   b.TotalOwed,
			Net:         b.Net,
		}
	}
	for i, tr := range summary.Transfers {
		resp.Transfers[i] = transferResponse{FromID: tr.FromID, ToID: tr.ToID, Amount: tr.Amount}
	}
	if !summary.Settled() {
		resp.Warning = "balances do not net to zero (residual " + summary.Residual.StringFixed(2) + "); expense data may be inconsistent"
		slog.Warn("settlement residual beyond tolerance",
			"trip_id", trip.ID,
			"residual", summary.Residual.String(),
		)
	}

	slog.Debug("balances computed",
		"trip_id", trip.ID,
		"members", len(engineMembers),
		"expenses", len(engineExpenses),
		"transfers", len(resp.Transfers),
	)
	return c.JSON(resp)
}
