package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"phonehub/internal/importer"
	apperrors "phonehub/pkg/errors"
	"phonehub/pkg/models"
)

type fakeImporter struct {
	lastQuery string
	lastLimit int
	result    models.ImportResult
	err       error
	status    importer.Status
}

func (f *fakeImporter) ImportBrands(ctx context.Context) (models.ImportResult, error) {
	return f.result, f.err
}

func (f *fakeImporter) ImportLatest(ctx context.Context, limit int) (models.ImportResult, error) {
	f.lastLimit = limit
	return f.result, f.err
}

func (f *fakeImporter) ImportPopularBrands(ctx context.Context) (models.ImportResult, error) {
	return f.result, f.err
}

func (f *fakeImporter) SearchAndImport(ctx context.Context, query string, limit int) (models.ImportResult, error) {
	f.lastQuery = query
	f.lastLimit = limit
	return f.result, f.err
}

func (f *fakeImporter) Status(ctx context.Context) (importer.Status, error) {
	return f.status, f.err
}

func testRouter(f *fakeImporter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(f).RegisterRoutes(r.Group("/api/admin"))
	return r
}

func TestStatusEndpoint(t *testing.T) {
	f := &fakeImporter{status: importer.Status{TotalBrands: 4, TotalDevices: 120, Running: true}}
	r := testRouter(f)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/admin/import/status", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var st importer.Status
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	require.Equal(t, 4, st.TotalBrands)
	require.Equal(t, 120, st.TotalDevices)
	require.True(t, st.Running)
}

func TestImportLatestPassesLimit(t *testing.T) {
	f := &fakeImporter{result: models.ImportResult{Processed: 7, Inserted: 7}}
	r := testRouter(f)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/admin/import/latest?limit=7", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 7, f.lastLimit)

	var res models.ImportResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.Equal(t, 7, res.Inserted)
}

func TestImportLatestDefaultsLimit(t *testing.T) {
	f := &fakeImporter{lastLimit: -1}
	r := testRouter(f)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/admin/import/latest", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 0, f.lastLimit)
}

func TestImportLatestRejectsBadLimit(t *testing.T) {
	r := testRouter(&fakeImporter{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/admin/import/latest?limit=abc", nil))
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearchRequiresQuery(t *testing.T) {
	r := testRouter(&fakeImporter{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/admin/import/search", nil))
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearchPassesQuery(t *testing.T) {
	f := &fakeImporter{}
	r := testRouter(f)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/admin/import/search?q=pixel+9&limit=5", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "pixel 9", f.lastQuery)
	require.Equal(t, 5, f.lastLimit)
}

func TestBusyGuardMapsToConflict(t *testing.T) {
	f := &fakeImporter{err: apperrors.ErrRunInProgress}
	r := testRouter(f)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/admin/import/popular", nil))
	require.Equal(t, http.StatusConflict, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Contains(t, body["error"], "in progress")
}
