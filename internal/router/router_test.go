package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"petitionsite/internal/config"
	"petitionsite/internal/db"
	"petitionsite/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		Server:   config.ServerConfig{SessionSecret: "test-session"},
		Database: config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:"},
		JWT:      config.JWTConfig{Secret: "test-secret"},
		Cache:    config.CacheConfig{Size: 8, TTLSeconds: 60},
	}
	database, err := db.Open(cfg.Database)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(database))
	t.Cleanup(func() {
		if sqlDB, err := database.DB(); err == nil {
			sqlDB.Close()
		}
	})

	r, err := New(database, cfg)
	require.NoError(t, err)
	return r
}

func doJSON(r *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(middleware.AuthHeader, token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

// signup 注册并登录，返回 token
func signup(t *testing.T, r *gin.Engine, name string) (uint, string) {
	t.Helper()
	email := fmt.Sprintf("%s@example.com", name)
	w := doJSON(r, http.MethodPost, "/api/v1/users/register", "", gin.H{
		"email": email, "firstName": name, "lastName": "Tester", "password": "password1",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(r, http.MethodPost, "/api/v1/users/login", "", gin.H{"email": email, "password": "password1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res struct {
		UserID uint   `json:"userId"`
		Token  string `json:"token"`
	}
	decode(t, w, &res)
	return res.UserID, res.Token
}

func createPetition(t *testing.T, r *gin.Engine, token, title string, costs ...int) uint {
	t.Helper()
	tiers := make([]gin.H, len(costs))
	for i, c := range costs {
		tiers[i] = gin.H{"title": fmt.Sprintf("Tier %d", i+1), "description": "help", "cost": c}
	}
	w := doJSON(r, http.MethodPost, "/api/v1/petitions", token, gin.H{
		"title": title, "description": "About " + title, "categoryId": 1, "supportTiers": tiers,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var res struct {
		PetitionID uint `json:"petitionId"`
	}
	decode(t, w, &res)
	return res.PetitionID
}

func TestCategoriesRoute(t *testing.T) {
	r := newTestServer(t)

	w := doJSON(r, http.MethodGet, "/api/v1/petitions/categories", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var categories []map[string]interface{}
	decode(t, w, &categories)
	assert.Len(t, categories, len(db.DefaultCategories))
}

func TestCreatePetition_StatusCodes(t *testing.T) {
	r := newTestServer(t)
	_, token := signup(t, r, "owner")
	createPetition(t, r, token, "Existing", 5)

	tests := []struct {
		name  string
		token string
		body  gin.H
		want  int
	}{
		{"no credential", "", gin.H{"title": "A", "description": "d", "categoryId": 1, "supportTiers": []gin.H{{"title": "t", "description": "d", "cost": 1}}}, http.StatusUnauthorized},
		{"stale credential", "not-a-token", gin.H{"title": "A", "description": "d", "categoryId": 1, "supportTiers": []gin.H{{"title": "t", "description": "d", "cost": 1}}}, http.StatusUnauthorized},
		{"missing title", token, gin.H{"description": "d", "categoryId": 1, "supportTiers": []gin.H{{"title": "t", "description": "d", "cost": 1}}}, http.StatusBadRequest},
		{"no tiers", token, gin.H{"title": "A", "description": "d", "categoryId": 1, "supportTiers": []gin.H{}}, http.StatusBadRequest},
		{"unknown category", token, gin.H{"title": "A", "description": "d", "categoryId": 99, "supportTiers": []gin.H{{"title": "t", "description": "d", "cost": 1}}}, http.StatusBadRequest},
		{"duplicate title", token, gin.H{"title": "Existing", "description": "d", "categoryId": 1, "supportTiers": []gin.H{{"title": "t", "description": "d", "cost": 1}}}, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(r, http.MethodPost, "/api/v1/petitions", tt.token, tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestSearchRoute(t *testing.T) {
	r := newTestServer(t)
	_, token := signup(t, r, "owner")
	createPetition(t, r, token, "Clean the river", 5)
	createPetition(t, r, token, "Build a park", 10)

	w := doJSON(r, http.MethodGet, "/api/v1/petitions?q=clean", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var res struct {
		Petitions []struct {
			Title string `json:"title"`
		} `json:"petitions"`
		Count int `json:"count"`
	}
	decode(t, w, &res)
	assert.Equal(t, 1, res.Count)
	require.Len(t, res.Petitions, 1)
	assert.Equal(t, "Clean the river", res.Petitions[0].Title)

	assert.Equal(t, http.StatusBadRequest, doJSON(r, http.MethodGet, "/api/v1/petitions?q=", "", nil).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(r, http.MethodGet, "/api/v1/petitions?sortBy=NOPE", "", nil).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(r, http.MethodGet, "/api/v1/petitions?startIndex=10", "", nil).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(r, http.MethodGet, "/api/v1/petitions?count=abc", "", nil).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(r, http.MethodGet, "/api/v1/petitions?categoryIds=x", "", nil).Code)
}

func TestPetitionLifecycle(t *testing.T) {
	r := newTestServer(t)
	_, owner := signup(t, r, "owner")
	_, fan := signup(t, r, "fan")
	id := createPetition(t, r, owner, "Bike lanes", 5, 10)
	base := fmt.Sprintf("/api/v1/petitions/%d", id)

	w := doJSON(r, http.MethodGet, base, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var detail struct {
		SupportTiers []struct {
			SupportTierID uint `json:"supportTierId"`
		} `json:"supportTiers"`
		MoneyRaised int `json:"moneyRaised"`
	}
	decode(t, w, &detail)
	require.Len(t, detail.SupportTiers, 2)
	tier := detail.SupportTiers[0].SupportTierID

	assert.Equal(t, http.StatusForbidden, doJSON(r, http.MethodPatch, base, fan, gin.H{"title": "Mine"}).Code)
	assert.Equal(t, http.StatusOK, doJSON(r, http.MethodPatch, base, owner, gin.H{"title": "Bike lanes"}).Code)

	w = doJSON(r, http.MethodPost, base+"/supportTiers", owner, gin.H{"title": "Gold", "description": "most", "cost": 100})
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = doJSON(r, http.MethodPost, base+"/supportTiers", owner, gin.H{"title": "Platinum", "description": "more", "cost": 200})
	assert.Equal(t, http.StatusForbidden, w.Code, w.Body.String())

	assert.Equal(t, http.StatusForbidden, doJSON(r, http.MethodPost, base+"/supporters", owner, gin.H{"supportTierId": tier}).Code)
	assert.Equal(t, http.StatusCreated, doJSON(r, http.MethodPost, base+"/supporters", fan, gin.H{"supportTierId": tier, "message": "yes"}).Code)
	assert.Equal(t, http.StatusForbidden, doJSON(r, http.MethodPost, base+"/supporters", fan, gin.H{"supportTierId": tier}).Code)

	w = doJSON(r, http.MethodGet, base+"/supporters", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var supporters []map[string]interface{}
	decode(t, w, &supporters)
	assert.Len(t, supporters, 1)

	tierPath := fmt.Sprintf("%s/supportTiers/%d", base, tier)
	assert.Equal(t, http.StatusForbidden, doJSON(r, http.MethodPatch, tierPath, owner, gin.H{"cost": 1}).Code)
	assert.Equal(t, http.StatusForbidden, doJSON(r, http.MethodDelete, tierPath, owner, nil).Code)
	assert.Equal(t, http.StatusForbidden, doJSON(r, http.MethodDelete, base, owner, nil).Code)

	assert.Equal(t, http.StatusNotFound, doJSON(r, http.MethodGet, "/api/v1/petitions/999", "", nil).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(r, http.MethodGet, "/api/v1/petitions/abc", "", nil).Code)
}

func TestUserRoutes(t *testing.T) {
	r := newTestServer(t)
	id, token := signup(t, r, "user")
	path := fmt.Sprintf("/api/v1/users/%d", id)

	w := doJSON(r, http.MethodGet, path, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var view map[string]interface{}
	decode(t, w, &view)
	assert.Equal(t, "user@example.com", view["email"])

	w = doJSON(r, http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	view = nil
	decode(t, w, &view)
	assert.NotContains(t, view, "email")

	assert.Equal(t, http.StatusForbidden, doJSON(r, http.MethodPost, "/api/v1/users/register", "", gin.H{
		"email": "user@example.com", "firstName": "a", "lastName": "b", "password": "password1",
	}).Code)
	assert.Equal(t, http.StatusUnauthorized, doJSON(r, http.MethodPost, "/api/v1/users/login", "", gin.H{
		"email": "user@example.com", "password": "wrong-password",
	}).Code)

	assert.Equal(t, http.StatusOK, doJSON(r, http.MethodPost, "/api/v1/users/logout", token, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, doJSON(r, http.MethodPatch, path, token, gin.H{"firstName": "x"}).Code)
}
