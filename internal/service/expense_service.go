package service

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/okastudio/tripsplit/internal/middleware"
	"github.com/okastudio/tripsplit/internal/models"
	"github.com/okastudio/tripsplit/internal/settle"
	"github.com/okastudio/tripsplit/internal/storage"
)

// shareTolerance is how far an explicit split may deviate from the expense
// amount before it is rejected (one cent, matching the settle engine).
var shareTolerance = decimal.New(1, -2)

// ExpenseService implements expense and settlement endpoints.
type ExpenseService struct {
	store storage.Store
}

// NewExpenseService creates a new ExpenseService with the given storage backend.
func NewExpenseService(store storage.Store) *ExpenseService {
	return &ExpenseService{store: store}
}

// RegisterRoutes mounts the expense and settlement endpoints on the given
// router. All routes require authentication.
func (s *ExpenseService) RegisterRoutes(r fiber.Router) {
	r.Post("/trips/:id/expenses", s.CreateExpense)
	r.Get("/trips/:id/expenses", s.ListExpenses)
	r.Delete("/trips/:id/expenses/:expenseID", s.DeleteExpense)
	r.Post("/trips/:id/settlements", s.CreateSettlement)
	r.Get("/trips/:id/settlements", s.ListSettlements)
	r.Delete("/trips/:id/settlements/:settlementID", s.DeleteSettlement)
}

type shareRequest struct {
	MemberID string          `json:"member_id"`
	Amount   decimal.Decimal `json:"amount"`
}

type createExpenseRequest struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	PayerID     string          `json:"payer_id"`

	// ParticipantIDs requests an equal split among the listed members.
	ParticipantIDs []string `json:"participant_ids,omitempty"`

	// Shares sets an explicit, possibly uneven split. Takes precedence
	// over ParticipantIDs.
	Shares []shareRequest `json:"shares,omitempty"`
}

type shareResponse struct {
	MemberID string          `json:"member_id"`
	Amount   decimal.Decimal `json:"amount"`
}

type expenseResponse struct {
	ID          string          `json:"id"`
	TripID      string          `json:"trip_id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	PayerID     string          `json:"payer_id"`
	Shares      []shareResponse `json:"shares"`
	CreatedAt   int64           `json:"created_at"`
}

func toExpenseResponse(e *models.Expense) expenseResponse {
	shares := make([]shareResponse, len(e.Shares))
	for i, sh := range e.Shares {
		shares[i] = shareResponse{MemberID: sh.MemberID, Amount: sh.Amount}
	}
	return expenseResponse{
		ID:          e.ID,
		TripID:      e.TripID,
		Description: e.Description,
		Amount:      e.Amount,
		PayerID:     e.PayerID,
		Shares:      shares,
		CreatedAt:   e.CreatedAt,
	}
}

func toExpenseResponses(expenses []*models.Expense) []expenseResponse {
	out := make([]expenseResponse, len(expenses))
	for i, e := range expenses {
		out[i] = toExpenseResponse(e)
	}
	return out
}

// buildShares derives the expense split from the request: explicit shares
// when given, otherwise an equal split among the participants.
func buildShares(req createExpenseRequest) ([]models.ExpenseShare, error) {
	if len(req.Shares) > 0 {
		sum := decimal.Zero
		shares := make([]models.ExpenseShare, len(req.Shares))
		for i, sh := range req.Shares {
			if sh.Amount.IsNegative() {
				return nil, fiber.NewError(fiber.StatusBadRequest, "share amounts must not be negative")
			}
			shares[i] = models.ExpenseShare{MemberID: sh.MemberID, Amount: sh.Amount}
			sum = sum.Add(sh.Amount)
		}
		if sum.Sub(req.Amount).Abs().GreaterThan(shareTolerance) {
			return nil, fiber.NewError(fiber.StatusBadRequest,
				"shares sum to "+sum.String()+", expected "+req.Amount.String())
		}
		return shares, nil
	}

	if len(req.ParticipantIDs) == 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "expense needs participants or explicit shares")
	}
	equal := settle.EqualShares(req.Amount, req.ParticipantIDs)
	shares := make([]models.ExpenseShare, len(equal))
	for i, sh := range equal {
		shares[i] = models.ExpenseShare{MemberID: sh.MemberID, Amount: sh.Amount}
	}
	return shares, nil
}

// CreateExpense records a new expense on a trip. The payer and every share
// member must be approved trip members; invalid expenses never reach storage.
func (s *ExpenseService) CreateExpense(c *fiber.Ctx) error {
	trip, err := s.store.GetTripByID(c.Context(), c.Params("id"))
	if err != nil {
		return storeError(err)
	}
	if _, err := approvedMember(c.Context(), s.store, trip.ID, middleware.UserID(c)); err != nil {
		return err
	}

	var req createExpenseRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if !req.Amount.IsPositive() {
		return fiber.NewError(fiber.StatusBadRequest, "amount must be positive")
	}
	if req.PayerID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "payer_id is required")
	}

	shares, err := buildShares(req)
	if err != nil {
		return err
	}

	// Every referenced member must be an approved member of this trip.
	members, err := s.store.ListMembers(c.Context(), trip.ID)
	if err != nil {
		return storeError(err)
	}
	approved := make(map[string]bool)
	for _, m := range approvedMembers(members) {
		approved[m.UserID] = true
	}
	if !approved[req.PayerID] {
		return fiber.NewError(fiber.StatusBadRequest, "payer is not an approved trip member")
	}
	for _, sh := range shares {
		if !approved[sh.MemberID] {
			return fiber.NewError(fiber.StatusBadRequest, "share member "+sh.MemberID+" is not an approved trip member")
		}
	}

	expense := &models.Expense{
		TripID:      trip.ID,
		Description: req.Description,
		Amount:      req.Amount,
		PayerID:     req.PayerID,
		Shares:      shares,
	}
	if err := s.store.CreateExpense(c.Context(), expense); err != nil {
		slog.Error("CreateExpense failed", "trip_id", trip.ID, "error", err)
		return storeError(err)
	}

	slog.Info("expense recorded",
		"trip_id", trip.ID,
		"expense_id", expense.ID,
		"amount", expense.Amount.String(),
		"payer", expense.PayerID,
	)
	return c.Status(fiber.StatusCreated).JSON(toExpenseResponse(expense))
}

// ListExpenses returns all expenses for a trip, oldest first.
func (s *ExpenseService) ListExpenses(c *fiber.Ctx) error {
	trip, err := s.store.GetTripByID(c.Context(), c.Params("id"))
	if err != nil {
		return storeError(err)
	}
	if _, err := approvedMember(c.Context(), s.store, trip.ID, middleware.UserID(c)); err != nil {
		return err
	}

	expenses, err := s.store.ListExpensesByTrip(c.Context(), trip.ID)
	if err != nil {
		return storeError(err)
	}
	return c.JSON(toExpenseResponses(expenses))
}

// DeleteExpense removes an expense from a trip.
func (s *ExpenseService) DeleteExpense(c *fiber.Ctx) error {
	trip, err := s.store.GetTripByID(c.Context(), c.Params("id"))
	if err != nil {
		return storeError(err)
	}
	if _, err := approvedMember(c.Context(), s.store, trip.ID, middleware.UserID(c)); err != nil {
		return err
	}

	expense, err := s.store.GetExpense(c.Context(), c.Params("expenseID"))
	if err != nil {
		return storeError(err)
	}
	if expense.TripID != trip.ID {
		return fiber.NewError(fiber.StatusNotFound, "expense not found on this trip")
	}

	if err := s.store.DeleteExpense(c.Context(), expense.ID); err != nil {
		slog.Error("DeleteExpense failed", "expense_id", expense.ID, "error", err)
		return storeError(err)
	}

	slog.Info("expense deleted", "trip_id", trip.ID, "expense_id", expense.ID)
	return c.SendStatus(fiber.StatusNoContent)
}

type createSettlementRequest struct {
	FromUserID string          `json:"from_user_id"`
	ToUserID   string          `json:"to_user_id"`
	Amount     decimal.Decimal `json:"amount"`
	Note       string          `json:"note,omitempty"`
}

type settlementResponse struct {
	ID         string          `json:"id"`
	TripID     string          `json:"trip_id"`
	FromUserID string          `json:"from_user_id"`
	ToUserID   string          `json:"to_user_id"`
	Amount     decimal.Decimal `json:"amount"`
	Note       string          `json:"note,omitempty"`
	CreatedAt  int64           `json:"created_at"`
	CreatedBy  string          `json:"created_by"`
}

func toSettlementResponse(st *models.Settlement) settlementResponse {
	return settlementResponse{
		ID:         st.ID,
		TripID:     st.TripID,
		FromUserID: st.FromUserID,
		ToUserID:   st.ToUserID,
		Amount:     st.Amount,
		Note:       st.Note,
		CreatedAt:  st.CreatedAt,
		CreatedBy:  st.CreatedBy,
	}
}

// CreateSettlement records a settlement payment between two trip members.
func (s *ExpenseService) CreateSettlement(c *fiber.Ctx) error {
	trip, err := s.store.GetTripByID(c.Context(), c.Params("id"))
	if err != nil {
		return storeError(err)
	}
	if _, err := approvedMember(c.Context(), s.store, trip.ID, middleware.UserID(c)); err != nil {
		return err
	}

	var req createSettlementRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if !req.Amount.IsPositive() {
		return fiber.NewError(fiber.StatusBadRequest, "amount must be positive")
	}
	if req.FromUserID == req.ToUserID {
		return fiber.NewError(fiber.StatusBadRequest, "cannot settle with yourself")
	}
	for _, userID := range []string{req.FromUserID, req.ToUserID} {
		if _, err := approvedMember(c.Context(), s.store, trip.ID, userID); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "user "+userID+" is not an approved trip member")
		}
	}

	settlement := &models.Settlement{
		TripID:     trip.ID,
		FromUserID: req.FromUserID,
		ToUserID:   req.ToUserID,
		Amount:     req.Amount,
		Note:       req.Note,
		CreatedBy:  middleware.UserID(c),
	}
	if err := s.store.CreateSettlement(c.Context(), settlement); err != nil {
		slog.Error("CreateSettlement failed", "trip_id", trip.ID, "error", err)
		return storeError(err)
	}

	slog.Info("settlement recorded",
		"trip_id", trip.ID,
		"settlement_id", settlement.ID,
		"from", settlement.FromUserID,
		"to", settlement.ToUserID,
		"amount", settlement.Amount.String(),
	)
	return c.Status(fiber.StatusCreated).JSON(toSettlementResponse(settlement))
}

// ListSettlements returns all recorded settlements for a trip, newest first.
func (s *ExpenseService) ListSettlements(c *fiber.Ctx) error {
	trip, err := s.store.GetTripByID(c.Context(), c.Params("id"))
	if err != nil {
		return storeError(err)
	}
	if _, err := approvedMember(c.Context(), s.store, trip.ID, middleware.UserID(c)); err != nil {
		return err
	}

	settlements, err := s.store.ListSettlementsByTrip(c.Context(), trip.ID)
	if err != nil {
		return storeError(err)
	}
	out := make([]settlementResponse, len(settlements))
	for i, st := range settlements {
		out[i] = toSettlementResponse(st)
	}
	return c.JSON(out)
}

// DeleteSettlement removes a recorded settlement, e.g. one entered by mistake.
func (s *ExpenseService) DeleteSettlement(c *fiber.Ctx) error {
	trip, err := s.store.GetTripByID(c.Context(), c.Params("id"))
	if err != nil {
		return storeError(err)
	}
	if _, err := approvedMember(c.Context(), s.store, trip.ID, middleware.UserID(c)); err != nil {
		return err
	}

	settlement, err := s.store.GetSettlement(c.Context(), c.Params("settlementID"))
	if err != nil {
		return storeError(err)
	}
	if settlement.TripID != trip.ID {
		return fiber.NewError(fiber.StatusNotFound, "settlement not found on this trip")
	}

	if err := s.store.DeleteSettlement(c.Context(), settlement.ID); err != nil {
		slog.Error("DeleteSettlement failed", "settlement_id", settlement.ID, "error", err)
		return storeError(err)
	}

	slog.Info("settlement deleted", "trip_id", trip.ID, "settlement_id", settlement.ID)
	return c.SendStatus(fiber.StatusNoContent)
}
