package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/gjtracker/tracker"
)

// ItemHandler handles item, progression and graph endpoints.
type ItemHandler struct {
	store *tracker.Store
}

// NewItemHandler creates a new ItemHandler.
func NewItemHandler(store *tracker.Store) *ItemHandler {
	return &ItemHandler{store: store}
}

// List handles GET /api/items. Query: q, type (repeatable), loose,
// tier_min, tier_max, level_min, level_max.
func (h *ItemHandler) List(c *gin.Context) {
	var f tracker.Filter
	if err := c.ShouldBindQuery(&f); err != nil {
		badRequest(c, err)
		return
	}
	items := h.store.Search(f)
	if items == nil {
		items = []*tracker.Item{}
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// Get handles GET /api/items/:id.
func (h *ItemHandler) Get(c *gin.Context) {
	it, err := h.store.Item(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": it, "grade": tracker.LevelGrade(it.Level)})
}

// Create handles POST /api/items. An existing id or name-derived id is
// overwritten, keeping its history.
func (h *ItemHandler) Create(c *gin.Context) {
	var in tracker.ItemInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	res, err := h.store.SaveItem(in, confirmOption(c))
	if err != nil {
		respondError(c, err)
		return
	}
	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	c.JSON(status, res)
}

// Update handles PUT /api/items/:id.
func (h *ItemHandler) Update(c *gin.Context) {
	id := c.Param("id")
	if _, err := h.store.Item(id); err != nil {
		respondError(c, err)
		return
	}
	var in tracker.ItemInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	in.ID = id
	res, err := h.store.SaveItem(in, confirmOption(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Delete handles DELETE /api/items/:id.
func (h *ItemHandler) Delete(c *gin.Context) {
	if err := h.store.DeleteItem(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Children handles GET /api/items/:id/children.
func (h *ItemHandler) Children(c *gin.Context) {
	kids, err := h.store.Children(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if kids == nil {
		kids = []*tracker.Item{}
	}
	c.JSON(http.StatusOK, gin.H{"items": kids})
}

// LevelUp handles POST /api/items/:id/level-up?actor=<charID>. Without an
// actor the global level is raised.
func (h *ItemHandler) LevelUp(c *gin.Context) {
	res, err := h.store.LevelUp(c.Param("id"), c.Query("actor"), confirmOption(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Evolve handles POST /api/items/:id/evolve?confirm=true. Without the
// confirmation it answers 428 with the question to ask.
func (h *ItemHandler) Evolve(c *gin.Context) {
	id := c.Param("id")
	it, err := h.store.Item(id)
	if err != nil {
		respondError(c, err)
		return
	}
	if c.Query("confirm") != "true" {
		p := tracker.Prompt{Kind: tracker.PromptEvolution, ItemID: id, ItemName: it.Name}
		c.JSON(http.StatusPreconditionRequired, gin.H{"error": "confirmation required", "prompt": p.Text()})
		return
	}
	out, err := h.store.Evolve(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": out})
}

// ToggleEnhancement handles POST /api/items/:id/enhance.
func (h *ItemHandler) ToggleEnhancement(c *gin.Context) {
	on, err := h.store.ToggleEnhancement(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"enhanced": on})
}

// CanAcquire handles GET /api/items/:id/can-acquire?actor=<charID>.
func (h *ItemHandler) CanAcquire(c *gin.Context) {
	id, actor := c.Param("id"), c.Query("actor")
	unmet, err := h.store.UnmetRequirements(id, actor)
	if err != nil {
		respondError(c, err)
		return
	}
	if unmet == nil {
		unmet = []tracker.Requirement{}
	}
	c.JSON(http.StatusOK, gin.H{"canAcquire": h.store.CanAcquire(id, actor), "unmet": unmet})
}

// LooseEnds handles GET /api/loose-ends.
func (h *ItemHandler) LooseEnds(c *gin.Context) {
	items := h.store.LooseEnds()
	if items == nil {
		items = []*tracker.Item{}
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// RecomputeTiers handles POST /api/tiers/recompute.
func (h *ItemHandler) RecomputeTiers(c *gin.Context) {
	cycle, err := tracker.SplitCycle(h.store.RecomputeAll())
	if err == nil && cycle != nil {
		err = cycle
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": h.store.Items()})
}
