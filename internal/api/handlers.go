package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/homeit/platform/internal/fault"
	"github.com/homeit/platform/internal/fulfillment"
	"github.com/homeit/platform/internal/loyalty"
	"github.com/homeit/platform/internal/models"
	"github.com/homeit/platform/internal/policy"
	"github.com/homeit/platform/internal/scheduling"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// --- fulfillment ---

type assignRequest struct {
	ManagerID string `json:"managerId" binding:"required"`
}

func (s *Server) handleAssignServiceRequest(c *gin.Context) {
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	request, err := fulfillment.AssignServiceRequest(s.db, c.Param("id"), req.ManagerID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, request)
}

func (s *Server) handleApproveEstimate(c *gin.Context) {
	estimate, err := fulfillment.ApproveEstimate(s.db, c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, estimate)
}

func (s *Server) handleRejectEstimate(c *gin.Context) {
	estimate, err := fulfillment.RejectEstimate(s.db, c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, estimate)
}

type payRequest struct {
	PaymentMethod string `json:"paymentMethod" binding:"required"`
	TransactionID string `json:"transactionId" binding:"required"`
}

func (s *Server) handlePayInvoice(c *gin.Context) {
	var req payRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	invoice, err := fulfillment.PayInvoice(s.db, c.Param("id"), req.PaymentMethod, req.TransactionID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, invoice)
}

// --- loyalty ---

func (s *Server) handleLoyaltyBalance(c *gin.Context) {
	memberID := c.Param("id")
	balance, err := loyalty.Balance(s.db, memberID)
	if err != nil {
		s.fail(c, err)
		return
	}
	history, err := loyalty.History(s.db, memberID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance": balance, "transactions": history})
}

type pointsRequest struct {
	Points        int    `json:"points" binding:"required,min=1"`
	Description   string `json:"description" binding:"required"`
	ReferenceID   string `json:"referenceId"`
	ReferenceType string `json:"referenceType"`
}

func (s *Server) handleAddPoints(c *gin.Context) {
	var req pointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	entry, err := loyalty.Add(s.db, c.Param("id"), req.Points, req.Description,
		loyalty.Opts{ReferenceID: req.ReferenceID, ReferenceType: req.ReferenceType})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

func (s *Server) handleSpendPoints(c *gin.Context) {
	var req pointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	entry, err := loyalty.Spend(s.db, c.Param("id"), req.Points, req.Description,
		loyalty.Opts{ReferenceID: req.ReferenceID, ReferenceType: req.ReferenceType})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// --- scheduling ---

func timeRange(c *gin.Context, fromKey, toKey string) (time.Time, time.Time, error) {
	from, err := time.Parse(time.RFC3339, c.Query(fromKey))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid %s: %w", fromKey, err)
	}
	to, err := time.Parse(time.RFC3339, c.Query(toKey))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid %s: %w", toKey, err)
	}
	return from, to, nil
}

func (s *Server) handleOverlaps(c *gin.Context) {
	start, end, err := timeRange(c, "start", "end")
	if err != nil {
		badRequest(c, err)
		return
	}

	contractorID := c.Param("id")
	orders, err := scheduling.OverlappingWorkOrders(s.db, contractorID, start, end, "")
	if err != nil {
		s.fail(c, err)
		return
	}
	slots, err := scheduling.OverlappingTimeSlots(s.db, contractorID, start, end)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"workOrders": orders, "timeSlots": slots})
}

func (s *Server) handleAvailability(c *gin.Context) {
	from, to, err := timeRange(c, "from", "to")
	if err != nil {
		badRequest(c, err)
		return
	}

	slots, err := scheduling.Availability(s.db, c.Param("id"), from, to)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"slots": slots})
}

func (s *Server) handleOpenConflicts(c *gin.Context) {
	conflicts, err := scheduling.OpenConflicts(s.db, c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conflicts": conflicts})
}

type generateSlotsRequest struct {
	Date        string `json:"date" binding:"required"` // YYYY-MM-DD
	StartHour   int    `json:"startHour"`
	EndHour     int    `json:"endHour"`
	SlotMinutes int    `json:"slotMinutes"`
}

func (s *Server) handleGenerateSlots(c *gin.Context) {
	var req generateSlotsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	day, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		badRequest(c, fmt.Errorf("invalid date: %w", err))
		return
	}

	opts := scheduling.GenerateOpts{StartHour: req.StartHour, EndHour: req.EndHour}
	if req.SlotMinutes > 0 {
		opts.SlotDuration = time.Duration(req.SlotMinutes) * time.Minute
	}
	slots, err := scheduling.GenerateDailySlots(s.db, c.Param("id"), day, opts)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"slots": slots})
}

type bookRequest struct {
	ContractorID   string    `json:"contractorId" binding:"required"`
	Start          time.Time `json:"start" binding:"required"`
	End            time.Time `json:"end" binding:"required"`
	SlotType       string    `json:"slotType"`
	Actor          string    `json:"actor"`
	AdminOverride  bool      `json:"adminOverride"`
	OverrideReason string    `json:"overrideReason"`
}

func (s *Server) handleBookSlot(c *gin.Context) {
	var req bookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	slot, err := scheduling.BookSlot(s.db, req.ContractorID, c.Param("id"), req.Start, req.End,
		scheduling.BookOpts{
			SlotType:       req.SlotType,
			Actor:          req.Actor,
			AdminOverride:  req.AdminOverride,
			OverrideReason: req.OverrideReason,
		})
	if err != nil {
		s.notifyHardConflicts(req.ContractorID, err)
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, slot)
}

// notifyHardConflicts pushes a Slack alert for conflicts that blocked a
// booking.
func (s *Server) notifyHardConflicts(contractorID string, bookErr error) {
	if s.notifier == nil || !fault.IsSchedulingConflict(bookErr) {
		return
	}
	conflicts, err := scheduling.OpenConflicts(s.db, contractorID)
	if err != nil {
		return
	}
	for i := range conflicts {
		if conflicts[i].Severity == models.SeverityHard {
			s.notifier.HardConflict(&conflicts[i])
			break
		}
	}
}

type resolveRequest struct {
	ResolvedBy string `json:"resolvedBy" binding:"required"`
	Notes      string `json:"notes" binding:"required"`
}

func (s *Server) handleResolveConflict(c *gin.Context) {
	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	conflict, err := scheduling.ResolveConflict(s.db, c.Param("id"), req.ResolvedBy, req.Notes)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, conflict)
}

// --- policy ---

type quoteRequest struct {
	ServiceType     string  `json:"serviceType" binding:"required"`
	MembershipTier  string  `json:"membershipTier" binding:"required"`
	DurationMinutes int     `json:"durationMinutes"`
	BaseRate        float64 `json:"baseRate"`
}

func (s *Server) handleQuote(c *gin.Context) {
	var req quoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	quote, err := s.catalog.Price(req.ServiceType, req.MembershipTier,
		req.DurationMinutes, decimal.NewFromFloat(req.BaseRate))
	if err != nil {
		badRequest(c, err)
		return
	}
	reward, err := s.catalog.LoyaltyReward(req.ServiceType, req.MembershipTier)
	if err != nil {
		badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"basePrice":       quote.BasePrice,
		"discountPercent": quote.DiscountPercent,
		"finalPrice":      quote.FinalPrice,
		"escrowRequired":  quote.EscrowRequired,
		"pointsReward":    reward,
	})
}

type validateRequest struct {
	ServiceType       string     `json:"serviceType" binding:"required"`
	MembershipTier    string     `json:"membershipTier" binding:"required"`
	PreferredDateTime *time.Time `json:"preferredDateTime"`
}

func (s *Server) handleValidateRequest(c *gin.Context) {
	var req validateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	violations := s.catalog.ValidateRequest(req.ServiceType, req.MembershipTier,
		policy.RequestData{PreferredDateTime: req.PreferredDateTime})

	out := make([]gin.H, 0, len(violations))
	for _, v := range violations {
		out = append(out, gin.H{"field": v.Field, "message": v.Message})
	}
	c.JSON(http.StatusOK, gin.H{"valid": len(out) == 0, "errors": out})
}
