package rest

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/gjtracker/tracker"
)

// CharacterHandler handles character progress, goals and journal endpoints.
type CharacterHandler struct {
	store *tracker.Store
	now   func() time.Time
}

// NewCharacterHandler creates a new CharacterHandler.
func NewCharacterHandler(store *tracker.Store) *CharacterHandler {
	return &CharacterHandler{store: store, now: time.Now}
}

// charID resolves the :id path parameter; "me" names the user's own character.
func (h *CharacterHandler) charID(c *gin.Context) string {
	if id := c.Param("id"); id != "me" {
		return id
	}
	return h.store.Me().ID
}

// List handles GET /api/characters.
func (h *CharacterHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"characters": h.store.Characters()})
}

// Get handles GET /api/characters/:id.
func (h *CharacterHandler) Get(c *gin.Context) {
	ch, err := h.store.Character(h.charID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"character": ch})
}

type createCharacterRequest struct {
	Name string `json:"name" binding:"required,min=1,max=64"`
}

// Create handles POST /api/characters.
func (h *CharacterHandler) Create(c *gin.Context) {
	var req createCharacterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ch, err := h.store.CreateCharacter(req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"character": ch})
}

// Acquire handles POST /api/characters/:id/items/:itemId.
func (h *CharacterHandler) Acquire(c *gin.Context) {
	id, itemID := h.charID(c), c.Param("itemId")
	if err := h.store.AcquireItem(id, itemID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"characterId": id, "itemId": itemID})
}

type checklistRequest struct {
	Level   int  `json:"level" binding:"required,min=1,max=7"`
	Task    int  `json:"task" binding:"min=0"`
	Checked bool `json:"checked"`
}

// Checklist handles PUT /api/characters/:id/items/:itemId/checklist. Checking
// the last open task of the next level levels the item up.
func (h *CharacterHandler) Checklist(c *gin.Context) {
	var req checklistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	res, err := h.store.SetChecklistItem(h.charID(c), c.Param("itemId"), req.Level, req.Task, req.Checked, confirmOption(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// EffectiveLevel handles GET /api/characters/:id/items/:itemId/level.
func (h *CharacterHandler) EffectiveLevel(c *gin.Context) {
	id, itemID := h.charID(c), c.Param("itemId")
	ch, err := h.store.Character(id)
	if err != nil {
		respondError(c, err)
		return
	}
	eff, err := h.store.EffectiveLevel(id, itemID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"level": ch.LevelOf(itemID), "effective": eff, "grade": tracker.LevelGrade(eff)})
}

type xpRequest struct {
	Amount int `json:"amount" binding:"required,min=1"`
}

// AddXP handles POST /api/characters/:id/xp.
func (h *CharacterHandler) AddXP(c *gin.Context) {
	var req xpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	total, err := h.store.AddXP(h.charID(c), req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"xp": total})
}

// SpendXP handles POST /api/characters/:id/items/:itemId/spend-xp.
func (h *CharacterHandler) SpendXP(c *gin.Context) {
	res, err := h.store.SpendXP(h.charID(c), c.Param("itemId"), confirmOption(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// AddGoal handles POST /api/characters/:id/goals.
func (h *CharacterHandler) AddGoal(c *gin.Context) {
	var g tracker.Goal
	if err := c.ShouldBindJSON(&g); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.store.AddGoal(h.charID(c), g); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"goal": g})
}

type journalRequest struct {
	Text string `json:"text" binding:"required"`
}

// AppendJournal handles POST /api/characters/:id/journal/:itemId.
func (h *CharacterHandler) AppendJournal(c *gin.Context) {
	var req journalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	id, itemID := h.charID(c), c.Param("itemId")
	if err := h.store.AppendJournal(id, itemID, req.Text); err != nil {
		respondError(c, err)
		return
	}
	ch, err := h.store.Character(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"journal": ch.Journals[itemID]})
}

// Reminders handles GET /api/reminders.
func (h *CharacterHandler) Reminders(c *gin.Context) {
	rs := h.store.DueReminders(h.now())
	out := make([]gin.H, 0, len(rs))
	for _, r := range rs {
		out = append(out, gin.H{"reminder": r, "text": r.Text()})
	}
	c.JSON(http.StatusOK, gin.H{"reminders": out})
}
