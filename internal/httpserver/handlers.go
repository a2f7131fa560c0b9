package httpserver

import (
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"wholesale-catalog/internal/domain"
	"wholesale-catalog/internal/feed"
	"wholesale-catalog/internal/service/importrun"
)

type handlers struct {
	deps    Deps
	feedDir string
	log     *zerolog.Logger
}

type startRunRequest struct {
	File   string `json:"file" binding:"required"`
	Source string `json:"source"`
	Format string `json:"format"`
}

type runErrorsResponse struct {
	Errors   []domain.ItemError `json:"errors"`
	Warnings []domain.ItemError `json:"warnings"`
}

func (h *handlers) listRuns(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 500 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 500"})
			return
		}
		limit = n
	}
	runs, err := h.deps.RunSvc.List(c.Request.Context(), limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": runs, "count": len(runs)})
}

func (h *handlers) startRun(c *gin.Context) {
	var req startRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	format, err := feed.ParseFormat(req.Format)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	path, ok := resolveFeedPath(h.feedDir, req.File)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file must be inside the feed directory"})
		return
	}
	run, err := h.deps.RunSvc.Start(c.Request.Context(), importrun.Request{Path: path, SourceKey: req.Source, Format: format})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusAccepted, run)
}

func (h *handlers) getRun(c *gin.Context) {
	run, err := h.deps.RunSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, run)
}

func (h *handlers) runErrors(c *gin.Context) {
	errs, warnings, err := h.deps.RunSvc.Errors(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, runErrorsResponse{Errors: errs, Warnings: warnings})
}

func (h *handlers) getProduct(c *gin.Context) {
	p, err := h.deps.ProductSvc.GetByBarcode(c.Request.Context(), c.Param("barcode"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *handlers) listCategories(c *gin.Context) {
	cats, err := h.deps.CategorySvc.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	if cats == nil {
		cats = []domain.Category{}
	}
	c.JSON(http.StatusOK, gin.H{"results": cats, "count": len(cats)})
}

func (h *handlers) fail(c *gin.Context, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	h.log.Error().Err(err).Str("route", c.FullPath()).Msg("request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

// resolveFeedPath joins name onto dir and rejects anything that escapes dir.
func resolveFeedPath(dir, name string) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" || filepath.IsAbs(name) {
		return "", false
	}
	path := filepath.Join(dir, name)
	rel, err := filepath.Rel(dir, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return path, true
}
