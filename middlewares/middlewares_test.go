package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/mcaservicing/mca_backend/config"
	"github.com/mcaservicing/mca_backend/models"
	"github.com/mcaservicing/mca_backend/utils"
	"github.com/redis/go-redis/v9"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func useMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	s, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	config.UseRedisClient(redis.NewClient(&redis.Options{Addr: s.Addr()}))
	t.Cleanup(func() {
		config.UseRedisClient(nil)
		s.Close()
	})
	return s
}

func serve(t *testing.T, r *gin.Engine, header, value string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	if header != "" {
		req.Header.Set(header, value)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSessionMiddleware(t *testing.T) {
	s := useMiniredis(t)
	if err := s.Set("Token:abc", "alice"); err != nil {
		t.Fatalf("seed token: %v", err)
	}

	var seen string
	r := gin.New()
	r.Use(SessionMiddleware())
	r.GET("/probe", func(c *gin.Context) {
		seen, _ = utils.GetUsernameFromContext(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	tests := []struct {
		name     string
		token    string
		wantCode int
		wantUser string
	}{
		{"no token passes through", "", http.StatusNoContent, ""},
		{"known token", "abc", http.StatusNoContent, "alice"},
		{"unknown token", "nope", http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = ""
			header := ""
			if tt.token != "" {
				header = "token"
			}
			w := serve(t, r, header, tt.token)
			if w.Code != tt.wantCode {
				t.Fatalf("code = %d, want %d", w.Code, tt.wantCode)
			}
			if seen != tt.wantUser {
				t.Fatalf("username = %q, want %q", seen, tt.wantUser)
			}
		})
	}
}

func TestSessionMiddlewareExpiredToken(t *testing.T) {
	s := useMiniredis(t)
	s.Set("Token:short", "bob")
	s.SetTTL("Token:short", time.Minute)
	s.FastForward(2 * time.Minute)

	r := gin.New()
	r.Use(SessionMiddleware())
	r.GET("/probe", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	if w := serve(t, r, "token", "short"); w.Code != http.StatusUnauthorized {
		t.Fatalf("expired token should be rejected, got %d", w.Code)
	}
}

func TestAuthMiddlewareWithAPIToken(t *testing.T) {
	token, err := utils.JwtGenerate(42, string(models.UserRoleOwner), "biz-1")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	var businessId string
	var userId int
	r := gin.New()
	r.Use(AuthMiddleware(), RequireUser(false))
	r.GET("/probe", func(c *gin.Context) {
		businessId, _ = utils.GetBusinessIdFromContext(c.Request.Context())
		userId, _ = utils.GetUserIdFromContext(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	w := serve(t, r, "Authorization", "Bearer "+token)
	if w.Code != http.StatusNoContent {
		t.Fatalf("code = %d body %s", w.Code, w.Body.String())
	}
	if businessId != "biz-1" || userId != 42 {
		t.Fatalf("context = %q/%d", businessId, userId)
	}

	if w := serve(t, r, "Authorization", "Bearer garbage"); w.Code != http.StatusUnauthorized {
		t.Fatalf("bad jwt should be 401, got %d", w.Code)
	}
	if w := serve(t, r, "Authorization", "Basic abc"); w.Code != http.StatusUnauthorized {
		t.Fatalf("non bearer should be 401, got %d", w.Code)
	}
	if w := serve(t, r, "", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous should be 401, got %d", w.Code)
	}
}

func TestRequireAdmin(t *testing.T) {
	token, err := utils.JwtGenerate(7, string(models.UserRoleOwner), "biz-1")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	r := gin.New()
	r.Use(AuthMiddleware(), RequireUser(false), RequireAdmin())
	r.GET("/probe", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	// API tokens never carry admin rights
	if w := serve(t, r, "Authorization", "Bearer "+token); w.Code != http.StatusUnauthorized {
		t.Fatalf("code = %d", w.Code)
	}
}

func TestGenerateLoaderResults(t *testing.T) {
	results := []models.Account{{ID: 3, Name: "Funder"}, {ID: 1, Name: "Merchant"}}
	got := generateLoaderResults(results, []int{1, 2, 3})
	if len(got) != 3 {
		t.Fatalf("len = %d", len(got))
	}
	if got[0].Data.Name != "Merchant" || got[2].Data.Name != "Funder" {
		t.Fatalf("order not kept: %+v %+v", got[0].Data, got[2].Data)
	}
	if got[1].Data.ID != 2 || got[1].Data.Name != "" {
		t.Fatalf("missing id should get default, got %+v", got[1].Data)
	}
}

func TestGenerateLoaderArrayResults(t *testing.T) {
	addresses := []models.Address{
		{ID: 1, AccountId: 10, City: "Austin"},
		{ID: 2, AccountId: 11, City: "Denver"},
		{ID: 3, AccountId: 10, City: "Dallas"},
	}
	got := generateLoaderArrayResults(addresses, []int{10, 11, 12})
	if len(got[0].Data) != 2 || got[0].Data[1].City != "Dallas" {
		t.Fatalf("account 10 = %+v", got[0].Data)
	}
	if len(got[1].Data) != 1 || len(got[2].Data) != 0 {
		t.Fatalf("unexpected grouping")
	}
}
