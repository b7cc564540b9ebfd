package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/gjtracker/tracker"
)

// respondError maps tracker errors to HTTP status codes.
func respondError(c *gin.Context, err error) {
	var gate *tracker.GateError
	var cycle *tracker.CyclicGraphError
	switch {
	case errors.As(err, &gate):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "unmet": gate.Unmet})
	case errors.As(err, &cycle):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "items": cycle.Items})
	case errors.Is(err, tracker.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, tracker.ErrAlreadyAcquired),
		errors.Is(err, tracker.ErrNotAcquired),
		errors.Is(err, tracker.ErrInsufficientXP):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, tracker.ErrInvalidItem), errors.Is(err, tracker.ErrInvalidInput):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, tracker.ErrNoScheduler):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// badRequest reports a malformed request body or query.
func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// confirmOption builds the confirmation policy of one request from the
// confirm_enhancement and confirm_divine query flags. Absent flags decline.
func confirmOption(c *gin.Context) tracker.CallOption {
	enh := c.Query("confirm_enhancement") == "true"
	div := c.Query("confirm_divine") == "true"
	return tracker.WithConfirmer(tracker.ConfirmFunc(func(p tracker.Prompt) bool {
		switch p.Kind {
		case tracker.PromptEnhancement:
			return enh
		case tracker.PromptDivineUnlock:
			return div
		}
		return false
	}))
}
