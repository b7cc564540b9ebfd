package rest

import (
	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/gjtracker/audit"
	"github.com/kasuganosora/gjtracker/tracker"
)

// Register mounts every tracker endpoint on g (normally the /api group).
func Register(g gin.IRouter, store *tracker.Store, log audit.Log) {
	itemH := NewItemHandler(store)
	charH := NewCharacterHandler(store)
	partyH := NewPartyHandler(store)
	dataH := NewDataHandler(store, log)

	itemsG := g.Group("/items")
	itemsG.GET("", itemH.List)
	itemsG.POST("", itemH.Create)
	itemsG.GET("/:id", itemH.Get)
	itemsG.PUT("/:id", itemH.Update)
	itemsG.DELETE("/:id", itemH.Delete)
	itemsG.GET("/:id/children", itemH.Children)
	itemsG.GET("/:id/can-acquire", itemH.CanAcquire)
	itemsG.POST("/:id/level-up", itemH.LevelUp)
	itemsG.POST("/:id/evolve", itemH.Evolve)
	itemsG.POST("/:id/enhance", itemH.ToggleEnhancement)
	g.GET("/loose-ends", itemH.LooseEnds)
	g.POST("/tiers/recompute", itemH.RecomputeTiers)

	charsG := g.Group("/characters")
	charsG.GET("", charH.List)
	charsG.POST("", charH.Create)
	charsG.GET("/:id", charH.Get)
	charsG.POST("/:id/xp", charH.AddXP)
	charsG.POST("/:id/goals", charH.AddGoal)
	charsG.POST("/:id/items/:itemId", charH.Acquire)
	charsG.GET("/:id/items/:itemId/level", charH.EffectiveLevel)
	charsG.PUT("/:id/items/:itemId/checklist", charH.Checklist)
	charsG.POST("/:id/items/:itemId/spend-xp", charH.SpendXP)
	charsG.POST("/:id/journal/:itemId", charH.AppendJournal)
	g.GET("/reminders", charH.Reminders)

	partiesG := g.Group("/parties")
	partiesG.GET("", partyH.List)
	partiesG.POST("", partyH.Create)
	partiesG.GET("/:id", partyH.Get)
	partiesG.GET("/:id/items", partyH.Items)
	partiesG.POST("/:id/boosts", partyH.AddBoost)
	partiesG.DELETE("/:id/boosts/:boostId", partyH.CancelBoost)

	g.GET("/export.json", dataH.ExportJSON)
	g.POST("/import.json", dataH.ImportJSON)
	g.GET("/export.csv", dataH.ExportCSV)
	g.POST("/import.csv", dataH.ImportCSV)
	g.GET("/settings", dataH.GetSettings)
	g.PUT("/settings", dataH.PutSettings)
	g.POST("/settings/theme/toggle", dataH.ToggleTheme)
	g.GET("/audit", dataH.Audit)
}
