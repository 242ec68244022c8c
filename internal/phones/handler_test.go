package phones

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"phonehub/internal/catalog"
	"phonehub/pkg/database"
	"phonehub/pkg/models"
)

func testHandler(t *testing.T) (*Handler, *catalog.Repo) {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))
	repo := catalog.NewRepo(db)
	return NewHandler(repo), repo
}

func testRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h.RegisterRoutes(r.Group("/api"))
	return r
}

func seedDevice(t *testing.T, repo *catalog.Repo, brand, name string, price float64) {
	t.Helper()
	d := models.Device{
		IdentityKey: brand + " " + name,
		Brand:       brand,
		Name:        name,
		Slug:        brand + "-" + name,
		Price:       price,
		ShortSpecs:  models.ShortSpecs{RAM: "12 GB"},
		Images:      []string{"https://img.example/" + name + ".jpg"},
	}
	require.NoError(t, repo.UpsertDevice(t.Context(), d))
}

func TestListPhonesPaginates(t *testing.T) {
	h, repo := testHandler(t)
	seedDevice(t, repo, "samsung", "galaxy-s24", 799)
	seedDevice(t, repo, "samsung", "galaxy-s24-ultra", 1199)
	seedDevice(t, repo, "google", "pixel-9", 699)
	r := testRouter(h)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/phones?page=1&page_size=2", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Phones []summary `json:"phones"`
		Total  int       `json:"total"`
		Page   int       `json:"page"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 3, resp.Total)
	require.Len(t, resp.Phones, 2)
	require.Equal(t, "12 GB", resp.Phones[0].ShortSpecs.RAM)
	require.NotEmpty(t, resp.Phones[0].Image)
}

func TestListPhonesFiltersByBrand(t *testing.T) {
	h, repo := testHandler(t)
	seedDevice(t, repo, "samsung", "galaxy-s24", 799)
	seedDevice(t, repo, "google", "pixel-9", 699)
	r := testRouter(h)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/phones?brand=google", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Phones []summary `json:"phones"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Phones, 1)
	require.Equal(t, "google", resp.Phones[0].Brand)
}

func TestGetPhoneBySlug(t *testing.T) {
	h, repo := testHandler(t)
	seedDevice(t, repo, "google", "pixel-9", 699)
	r := testRouter(h)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/phones/google-pixel-9", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var d models.Device
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &d))
	require.Equal(t, "pixel-9", d.Name)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/phones/no-such-slug", nil))
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestListBrandsHidesInvisible(t *testing.T) {
	h, repo := testHandler(t)
	require.NoError(t, repo.UpsertBrand(t.Context(), models.Brand{Name: "Samsung", Slug: "samsung", Visible: true}))
	require.NoError(t, repo.UpsertBrand(t.Context(), models.Brand{Name: "Shadow", Slug: "shadow", Visible: false}))
	r := testRouter(h)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/brands", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Brands []models.Brand `json:"brands"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Brands, 1)
	require.Equal(t, "samsung", resp.Brands[0].Slug)
}
