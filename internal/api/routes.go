package api

import "github.com/gin-gonic/gin"

// registerRoutes sets up all API routes on the Gin router.
func (s *Server) registerRoutes(router *gin.Engine) {
	router.GET("/healthz", s.handleHealth)

	apiGroup := router.Group("/api")
	{
		apiGroup.POST("/service-requests/:id/assign", s.handleAssignServiceRequest)
		apiGroup.POST("/estimates/:id/approve", s.handleApproveEstimate)
		apiGroup.POST("/estimates/:id/reject", s.handleRejectEstimate)
		apiGroup.POST("/invoices/:id/pay", s.handlePayInvoice)

		apiGroup.GET("/members/:id/loyalty", s.handleLoyaltyBalance)
		apiGroup.POST("/members/:id/loyalty/add", s.handleAddPoints)
		apiGroup.POST("/members/:id/loyalty/spend", s.handleSpendPoints)

		apiGroup.GET("/contractors/:id/overlaps", s.handleOverlaps)
		apiGroup.GET("/contractors/:id/availability", s.handleAvailability)
		apiGroup.GET("/contractors/:id/conflicts", s.handleOpenConflicts)
		apiGroup.POST("/contractors/:id/slots/generate", s.handleGenerateSlots)

		apiGroup.POST("/work-orders/:id/book", s.handleBookSlot)
		apiGroup.POST("/schedule/conflicts/:id/resolve", s.handleResolveConflict)

		apiGroup.POST("/pricing/quote", s.handleQuote)
		apiGroup.POST("/service-requests/validate", s.handleValidateRequest)
	}
}
