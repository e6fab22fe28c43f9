package catalog

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"animeatlas/internal/queue"
)

// BatchCounter reports batch-table progress.
type BatchCounter interface {
	Counts(ctx context.Context) (queue.StatusCounts, error)
}

type Handler struct {
	Repo    *Repo
	Batches BatchCounter
}

func NewHandler(repo *Repo, batches BatchCounter) *Handler {
	return &Handler{Repo: repo, Batches: batches}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/media", h.listMedia)         // GET /media
	rg.GET("/media/:id", h.getMedia)      // GET /media/:id
	rg.GET("/people/:id", h.getPerson)    // GET /people/:id
	rg.GET("/batches/summary", h.batches) // GET /batches/summary
}

func (h *Handler) listMedia(c *gin.Context) {
	q := ListQuery{
		Q:      c.Query("q"),
		Type:   c.Query("type"),
		Limit:  parseInt(c.Query("limit"), 20),
		Offset: parseInt(c.Query("offset"), 0),
	}

	total, err := h.Repo.Count(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "count failed"})
		return
	}

	items, err := h.Repo.List(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":  total,
		"limit":  clampLimit(q.Limit),
		"offset": q.Offset,
		"items":  items,
	})
}

func (h *Handler) getMedia(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	m, err := h.Repo.GetMedia(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get failed"})
		return
	}
	if m == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	credits, err := h.Repo.CreditsForMedia(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "credits failed"})
		return
	}
	characters, err := h.Repo.CharactersForMedia(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "characters failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"media": m, "credits": credits, "characters": characters})
}

func (h *Handler) getPerson(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	p, err := h.Repo.GetPerson(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get failed"})
		return
	}
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	credits, err := h.Repo.CreditsForPerson(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "credits failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"person": p, "credits": credits})
}

func (h *Handler) batches(c *gin.Context) {
	counts, err := h.Batches.Counts(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "count failed"})
		return
	}
	c.JSON(http.StatusOK, counts)
}

func parseInt(s string, def int) int {
	if strings.TrimSpace(s) == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
