package auth

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"phonehub/pkg/database"
)

func testRepo(t *testing.T) *Repo {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))
	return NewRepo(db)
}

func seedAdmin(t *testing.T, repo *Repo, username, password string) User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	u := User{ID: uuid.NewString(), Username: username, PasswordHash: string(hash)}
	require.NoError(t, repo.CreateUser(t.Context(), u))
	return u
}

func testRouter(repo *Repo, tokens TokenService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(repo, tokens).RegisterRoutes(r.Group("/api/auth"))
	return r
}

func TestLoginAndTokenRoundTrip(t *testing.T) {
	repo := testRepo(t)
	seedAdmin(t, repo, "ops", "correct horse")
	tokens := TokenService{Secret: []byte("test-secret"), Issuer: "phonehub", Duration: time.Hour}
	r := testRouter(repo, tokens)

	body, _ := json.Marshal(gin.H{"username": "ops", "password": "correct horse"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)

	claims, err := tokens.Parse(resp.Token)
	require.NoError(t, err)
	require.Equal(t, "ops", claims.Username)
	require.Equal(t, 0, claims.TokenVersion)
}

func TestLoginRejectsBadPassword(t *testing.T) {
	repo := testRepo(t)
	seedAdmin(t, repo, "ops", "correct horse")
	tokens := TokenService{Secret: []byte("test-secret"), Issuer: "phonehub", Duration: time.Hour}
	r := testRouter(repo, tokens)

	body, _ := json.Marshal(gin.H{"username": "ops", "password": "wrong"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body)))
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogoutRevokesToken(t *testing.T) {
	repo := testRepo(t)
	u := seedAdmin(t, repo, "ops", "correct horse")
	tokens := TokenService{Secret: []byte("test-secret"), Issuer: "phonehub", Duration: time.Hour}
	r := testRouter(repo, tokens)

	token, _, err := tokens.Sign(&u)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	// the same token is now stale: version was bumped
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
