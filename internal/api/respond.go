package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/homeit/platform/internal/fault"
	"github.com/homeit/platform/internal/loyalty"
)

// fail maps a typed error to its HTTP status and JSON body. Duplicate
// side effects and illegal transitions are conflicts; missing or
// role-failing references are not-found; everything untyped is a 500.
func (s *Server) fail(c *gin.Context, err error) {
	var te *fault.TransactionError
	if errors.As(err, &te) {
		c.JSON(statusFor(te.Code), gin.H{
			"error":   te.Message,
			"code":    te.Code,
			"details": te.Details,
		})
		return
	}
	if errors.Is(err, loyalty.ErrInsufficientBalance) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	s.logger.Error("internal error", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}

func statusFor(code string) int {
	switch code {
	case fault.CodeInvalidStatusTransition, fault.CodeDuplicateOperation, fault.CodeSchedulingConflict:
		return http.StatusConflict
	case fault.CodeReferentialIntegrity:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// badRequest reports a malformed payload or query parameter.
func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
