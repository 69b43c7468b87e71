package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-sql-driver/mysql"
	"github.com/mcaservicing/mca_backend/middlewares"
	"github.com/mcaservicing/mca_backend/models"
	"github.com/mcaservicing/mca_backend/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter() *gin.Engine {
	r := gin.New()
	r.Use(middlewares.AuthMiddleware())
	Register(r)
	return r
}

func do(r http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func bearer(t *testing.T) map[string]string {
	t.Helper()
	token, err := utils.JwtGenerate(5, string(models.UserRoleOwner), "biz-1")
	require.NoError(t, err)
	return map[string]string{"Authorization": "Bearer " + token}
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"record not found", utils.ErrorRecordNotFound, http.StatusNotFound},
		{"gorm not found", fmt.Errorf("load: %w", gorm.ErrRecordNotFound), http.StatusNotFound},
		{"funding not found", models.ErrFundingNotFound, http.StatusNotFound},
		{"domain rule", errors.New("payback exceeds outstanding balance"), http.StatusBadRequest},
		{"duplicate key is the caller's fault", &mysql.MySQLError{Number: 1062, Message: "dup"}, http.StatusBadRequest},
		{"driver failure", &mysql.MySQLError{Number: 1205, Message: "lock wait timeout"}, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusOf(tt.err))
		})
	}
}

func TestProtectedRoutesRequireIdentity(t *testing.T) {
	r := newRouter()
	for _, path := range []string{"/api/fundings", "/api/accounts", "/api/reports/portfolio"} {
		w := do(r, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestLoginBindingErrors(t *testing.T) {
	w := do(newRouter(), http.MethodPost, "/api/auth/login", `{}`, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var body struct {
		Errors map[string]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "required", body.Errors["Username"])
	assert.Equal(t, "required", body.Errors["Password"])
}

func TestInvalidIdParam(t *testing.T) {
	w := do(newRouter(), http.MethodGet, "/api/paybacks/abc", "", bearer(t))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid id")
}

func TestUnknownEnumIsRejected(t *testing.T) {
	w := do(newRouter(), http.MethodPost, "/api/fundings/3/status", `{"status":"Closed"}`, bearer(t))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "funding status")
}

func TestAPITokenIssuedForCaller(t *testing.T) {
	w := do(newRouter(), http.MethodPost, "/api/auth/api-token", "", bearer(t))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	claims, err := utils.JwtClaims(body.Token)
	require.NoError(t, err)
	assert.Equal(t, 5, claims.ID)
	assert.Equal(t, "biz-1", claims.BusinessId)
}

type echoInput struct {
	Name string `json:"name" binding:"required"`
}

type echoOutput struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func TestGenericHandlers(t *testing.T) {
	r := gin.New()
	r.POST("/things", createHandler("createThing", func(_ context.Context, in *echoInput) (*echoOutput, error) {
		return &echoOutput{ID: 1, Name: in.Name}, nil
	}))
	r.PUT("/things/:id", updateHandler("updateThing", func(_ context.Context, id int, in *echoInput) (*echoOutput, error) {
		return &echoOutput{ID: id, Name: in.Name}, nil
	}))
	r.GET("/things/:id", byIdHandler("getThing", func(_ context.Context, id int) (*echoOutput, error) {
		if id == 404 {
			return nil, utils.ErrorRecordNotFound
		}
		return &echoOutput{ID: id}, nil
	}))

	w := do(r, http.MethodPost, "/things", `{"name":"Acme"}`, nil)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"id":1,"name":"Acme"}`, w.Body.String())

	w = do(r, http.MethodPost, "/things", `{}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"errors":{"Name":"required"}}`, w.Body.String())

	w = do(r, http.MethodPut, "/things/9", `{"name":"Renamed"}`, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":9,"name":"Renamed"}`, w.Body.String())

	w = do(r, http.MethodGet, "/things/404", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"record not found"}`, w.Body.String())
}

func TestQueryParams(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/x?limit=50&after=abc&funding_id=7&status=Funded&is_active=false&from_date=2026-01-05&bad_date=05/01/2026", nil)

	limit, after := pageParams(c)
	require.NotNil(t, limit)
	require.NotNil(t, after)
	assert.Equal(t, 50, *limit)
	assert.Equal(t, "abc", *after)

	assert.Equal(t, 7, *queryInt(c, "funding_id"))
	assert.Nil(t, queryInt(c, "iso_id"))
	assert.Equal(t, models.FundingStatusFunded, *queryEnum[models.FundingStatus](c, "status"))
	assert.False(t, *queryBool(c, "is_active"))
	assert.Equal(t, "2026-01-05", queryDate(c, "from_date").Format("2006-01-02"))
	assert.Nil(t, queryDate(c, "bad_date"))
}

func TestPageParamsDefaults(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/x?limit=lots", nil)

	limit, after := pageParams(c)
	assert.Nil(t, limit)
	assert.Nil(t, after)
}

func TestOutboxReferenceValidation(t *testing.T) {
	r := newRouter()
	for _, path := range []string{"/api/outbox/XX/5", "/api/outbox/PB/abc", "/api/outbox/PB/0"} {
		w := do(r, http.MethodGet, path, "", bearer(t))
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
		assert.Contains(t, w.Body.String(), "invalid outbox reference", path)
	}
}
