package rest

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/gjtracker/tracker"
)

// PartyHandler handles party and temporary boost endpoints.
type PartyHandler struct {
	store *tracker.Store
}

// NewPartyHandler creates a new PartyHandler.
func NewPartyHandler(store *tracker.Store) *PartyHandler {
	return &PartyHandler{store: store}
}

// List handles GET /api/parties.
func (h *PartyHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"parties": h.store.Parties()})
}

// Get handles GET /api/parties/:id.
func (h *PartyHandler) Get(c *gin.Context) {
	p, err := h.store.Party(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"party": p})
}

type createPartyRequest struct {
	Name    string   `json:"name" binding:"required"`
	CharIDs []string `json:"charIds"`
}

// Create handles POST /api/parties.
func (h *PartyHandler) Create(c *gin.Context) {
	var req createPartyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, err := h.store.CreateParty(req.Name, req.CharIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"party": p})
}

// Items handles GET /api/parties/:id/items: every item a member holds.
func (h *PartyHandler) Items(c *gin.Context) {
	items, err := h.store.PartyItems(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if items == nil {
		items = []*tracker.Item{}
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

type boostRequest struct {
	ItemID   string `json:"itemId" binding:"required"`
	Bonus    int    `json:"bonus" binding:"required,min=1"`
	Duration string `json:"duration" binding:"required"` // Go duration, e.g. "30m"
}

// AddBoost handles POST /api/parties/:id/boosts.
func (h *PartyHandler) AddBoost(c *gin.Context) {
	var req boostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	d, err := time.ParseDuration(req.Duration)
	if err != nil {
		badRequest(c, err)
		return
	}
	bh, err := h.store.AddTemporaryBoost(c.Param("id"), req.ItemID, req.Bonus, d)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": bh.ID, "itemId": bh.ItemID, "expires": bh.Expires})
}

// CancelBoost handles DELETE /api/parties/:id/boosts/:boostId.
func (h *PartyHandler) CancelBoost(c *gin.Context) {
	if !h.store.CancelBoost(c.Param("id"), c.Param("boostId")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "boost not found"})
		return
	}
	c.Status(http.StatusNoContent)
}
