package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/go-sql-driver/mysql"
	"github.com/mcaservicing/mca_backend/config"
	"github.com/mcaservicing/mca_backend/models"
	"github.com/mcaservicing/mca_backend/utils"
	"gorm.io/gorm"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// statusOf maps domain errors to HTTP status codes.
func statusOf(err error) int {
	var mysqlErr *mysql.MySQLError
	switch {
	case errors.Is(err, utils.ErrorRecordNotFound),
		errors.Is(err, gorm.ErrRecordNotFound),
		errors.Is(err, models.ErrFundingNotFound):
		return http.StatusNotFound
	case errors.As(err, &mysqlErr) && mysqlErr.Number != 1062:
		return http.StatusInternalServerError
	}
	return http.StatusBadRequest
}

func respondError(c *gin.Context, funcName string, err error) {
	code := statusOf(err)
	if code == http.StatusInternalServerError {
		config.LogError(config.GetLogger(), "api", funcName, c.Request.Method+" "+c.FullPath(), nil, err)
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(code, gin.H{"error": err.Error()})
}

// bindJSON writes the 400 itself and reports whether the handler may continue.
func bindJSON(c *gin.Context, input any) bool {
	if err := c.ShouldBindJSON(input); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
			return false
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

func idParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

// pageParams reads limit and after. An unparsable limit falls back to the default.
func pageParams(c *gin.Context) (*int, *string) {
	var limit *int
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = &n
		}
	}
	var after *string
	if raw := c.Query("after"); raw != "" {
		after = &raw
	}
	return limit, after
}

func queryInt(c *gin.Context, key string) *int {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &n
}

func queryString(c *gin.Context, key string) *string {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil
	}
	return &raw
}

func queryBool(c *gin.Context, key string) *bool {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &b
}

// queryEnum returns nil for an absent parameter.
func queryEnum[T ~string](c *gin.Context, key string) *T {
	raw := queryString(c, key)
	if raw == nil {
		return nil
	}
	v := T(*raw)
	return &v
}

func queryDate(c *gin.Context, key string) *time.Time {
	raw := queryString(c, key)
	if raw == nil {
		return nil
	}
	d, err := time.Parse("2006-01-02", *raw)
	if err != nil {
		return nil
	}
	return &d
}

func sendXlsx(c *gin.Context, filename string, data []byte) {
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, xlsxContentType, data)
}
