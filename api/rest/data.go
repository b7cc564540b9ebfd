package rest

import (
	"bytes"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/gjtracker/audit"
	"github.com/kasuganosora/gjtracker/exchange"
	"github.com/kasuganosora/gjtracker/tracker"
)

// maxUpload bounds import bodies.
const maxUpload = 8 << 20

// DataHandler handles import/export, settings and the change log.
type DataHandler struct {
	store *tracker.Store
	log   audit.Log
}

// NewDataHandler creates a new DataHandler. log may be nil.
func NewDataHandler(store *tracker.Store, log audit.Log) *DataHandler {
	return &DataHandler{store: store, log: log}
}

// ExportJSON handles GET /api/export.json.
func (h *DataHandler) ExportJSON(c *gin.Context) {
	var buf bytes.Buffer
	if err := exchange.WriteJSON(&buf, h.store.Snapshot()); err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="gj_tracker.json"`)
	c.Data(http.StatusOK, "application/json", buf.Bytes())
}

// ImportJSON handles POST /api/import.json: the body replaces the whole state.
func (h *DataHandler) ImportJSON(c *gin.Context) {
	st, err := exchange.ReadJSON(http.MaxBytesReader(c.Writer, c.Request.Body, maxUpload))
	if err != nil {
		badRequest(c, err)
		return
	}
	cycle, err := tracker.SplitCycle(h.store.Replace(st))
	if err != nil {
		respondError(c, err)
		return
	}
	resp := gin.H{"items": len(st.Items), "characters": len(st.Characters)}
	if cycle != nil {
		resp["warning"] = cycle.Error()
	}
	c.JSON(http.StatusOK, resp)
}

// ExportCSV handles GET /api/export.csv.
func (h *DataHandler) ExportCSV(c *gin.Context) {
	var buf bytes.Buffer
	if err := exchange.WriteCSV(&buf, h.store.Items()); err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="gj_tracker.csv"`)
	c.Data(http.StatusOK, "text/csv", buf.Bytes())
}

// ImportCSV handles POST /api/import.csv. The CSV is either the raw body or
// the "file" field of a multipart form. Rows are merged into the items.
func (h *DataHandler) ImportCSV(c *gin.Context) {
	var r io.Reader = http.MaxBytesReader(c.Writer, c.Request.Body, maxUpload)
	if c.ContentType() == "multipart/form-data" {
		fh, err := c.FormFile("file")
		if err != nil {
			badRequest(c, err)
			return
		}
		f, err := fh.Open()
		if err != nil {
			badRequest(c, err)
			return
		}
		defer f.Close()
		r = f
	}
	rows, err := exchange.ReadCSV(r)
	if err != nil {
		badRequest(c, err)
		return
	}
	sum, err := h.store.Import(rows)
	cycle, err := tracker.SplitCycle(err)
	if err != nil {
		respondError(c, err)
		return
	}
	resp := gin.H{"summary": sum}
	if cycle != nil {
		resp["warning"] = cycle.Error()
	}
	c.JSON(http.StatusOK, resp)
}

// GetSettings handles GET /api/settings.
func (h *DataHandler) GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"settings": h.store.Settings()})
}

// PutSettings handles PUT /api/settings.
func (h *DataHandler) PutSettings(c *gin.Context) {
	var set tracker.Settings
	if err := c.ShouldBindJSON(&set); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.store.SetSettings(set); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": set})
}

// ToggleTheme handles POST /api/settings/theme/toggle.
func (h *DataHandler) ToggleTheme(c *gin.Context) {
	theme, err := h.store.ToggleTheme()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"theme": theme})
}

// Audit handles GET /api/audit?limit=N (default 50, at most 500).
func (h *DataHandler) Audit(c *gin.Context) {
	if h.log == nil {
		c.JSON(http.StatusOK, gin.H{"entries": []any{}})
		return
	}
	limit := 50
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, 500)
	}
	entries, err := h.log.Recent(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}
