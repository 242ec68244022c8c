package admin

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"phonehub/internal/importer"
	apperrors "phonehub/pkg/errors"
	"phonehub/pkg/models"
)

// Importer is the slice of the import service the admin surface needs.
type Importer interface {
	ImportBrands(ctx context.Context) (models.ImportResult, error)
	ImportLatest(ctx context.Context, limit int) (models.ImportResult, error)
	ImportPopularBrands(ctx context.Context) (models.ImportResult, error)
	SearchAndImport(ctx context.Context, query string, limit int) (models.ImportResult, error)
	Status(ctx context.Context) (importer.Status, error)
}

type Handler struct {
	Imports Importer
}

func NewHandler(imports Importer) *Handler {
	return &Handler{Imports: imports}
}

// RegisterRoutes mounts the import control endpoints. The caller wraps the
// group in the auth middleware; nothing here is public.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/import/status", h.status)
	rg.POST("/import/brands", h.importBrands)
	rg.POST("/import/latest", h.importLatest)
	rg.POST("/import/popular", h.importPopular)
	rg.POST("/import/search", h.importSearch)
}

func (h *Handler) status(c *gin.Context) {
	st, err := h.Imports.Status(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "status failed"})
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *Handler) importBrands(c *gin.Context) {
	res, err := h.Imports.ImportBrands(c.Request.Context())
	h.respond(c, res, err)
}

func (h *Handler) importLatest(c *gin.Context) {
	limit, ok := parseLimit(c)
	if !ok {
		return
	}
	res, err := h.Imports.ImportLatest(c.Request.Context(), limit)
	h.respond(c, res, err)
}

func (h *Handler) importPopular(c *gin.Context) {
	res, err := h.Imports.ImportPopularBrands(c.Request.Context())
	h.respond(c, res, err)
}

func (h *Handler) importSearch(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q is required"})
		return
	}
	limit, ok := parseLimit(c)
	if !ok {
		return
	}
	res, err := h.Imports.SearchAndImport(c.Request.Context(), q, limit)
	h.respond(c, res, err)
}

// respond maps run outcomes onto HTTP. A busy guard is a 409, not a
// failure; partial provider errors still come back 200 with the counts
// and the collected error strings.
func (h *Handler) respond(c *gin.Context, res models.ImportResult, err error) {
	if err != nil {
		if errors.Is(err, apperrors.ErrRunInProgress) {
			c.JSON(http.StatusConflict, gin.H{"error": "an import run is already in progress"})
			return
		}
		log.Error().Err(err).Msg("import run failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "import failed"})
		return
	}
	c.JSON(http.StatusOK, res)
}

// parseLimit reads ?limit=N. 0 means "use the configured default" and is
// what the importer receives when the parameter is absent.
func parseLimit(c *gin.Context) (int, bool) {
	raw := strings.TrimSpace(c.Query("limit"))
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
		return 0, false
	}
	return limit, true
}
