package phones

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"phonehub/internal/catalog"
	"phonehub/pkg/models"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Handler serves the public, read-only catalog. Everything here is
// backed by local sqlite; no request ever reaches a provider.
type Handler struct {
	Repo *catalog.Repo
}

func NewHandler(repo *catalog.Repo) *Handler {
	return &Handler{Repo: repo}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/phones", h.listPhones)
	rg.GET("/phones/:slug", h.getPhone)
	rg.GET("/brands", h.listBrands)
}

func (h *Handler) listPhones(c *gin.Context) {
	q := catalog.ListQuery{
		Q:     strings.TrimSpace(c.Query("q")),
		Brand: strings.TrimSpace(c.Query("brand")),
	}

	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "page must be a positive integer"})
		return
	}
	size, err := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(defaultPageSize)))
	if err != nil || size < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "page_size must be a positive integer"})
		return
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	q.Limit = size
	q.Offset = (page - 1) * size

	total, err := h.Repo.CountDevices(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	devices, err := h.Repo.ListDevices(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"phones":    toSummaries(devices),
		"total":     total,
		"page":      page,
		"page_size": size,
	})
}

func (h *Handler) getPhone(c *gin.Context) {
	slug := c.Param("slug")
	d, err := h.Repo.FindBySlug(c.Request.Context(), slug)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	if d == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "phone not found"})
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *Handler) listBrands(c *gin.Context) {
	brands, err := h.Repo.ListBrands(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}

	visible := make([]models.Brand, 0, len(brands))
	for _, b := range brands {
		if b.Visible {
			visible = append(visible, b)
		}
	}
	c.JSON(http.StatusOK, gin.H{"brands": visible})
}

// summary is the list-view shape: compact specs only, first image,
// no full spec sheet.
type summary struct {
	Brand      string            `json:"brand"`
	Name       string            `json:"name"`
	Slug       string            `json:"slug"`
	Price      float64           `json:"price"`
	ShortSpecs models.ShortSpecs `json:"short_specs"`
	Image      string            `json:"image,omitempty"`
}

func toSummaries(devices []models.Device) []summary {
	out := make([]summary, 0, len(devices))
	for _, d := range devices {
		s := summary{
			Brand:      d.Brand,
			Name:       d.Name,
			Slug:       d.Slug,
			Price:      d.Price,
			ShortSpecs: d.ShortSpecs,
		}
		if len(d.Images) > 0 {
			s.Image = d.Images[0]
		}
		out = append(out, s)
	}
	return out
}
