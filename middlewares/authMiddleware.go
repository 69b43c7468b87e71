package middlewares

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mcaservicing/mca_backend/models"
	"github.com/mcaservicing/mca_backend/utils"
)

type authString string

const authKey = authString("auth")

// header used by platform admins to pick the business they act on
const BusinessHeader = "X-Business-Id"

var errUnauthorized = errors.New("unauthorized")

// AuthMiddleware validates "Authorization: Bearer <jwt>" API tokens.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.Request.Header.Get("Authorization")
		if auth == "" {
			c.Next()
			return
		}

		const bearer = "Bearer "
		if !strings.HasPrefix(auth, bearer) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		claims, err := utils.JwtClaims(strings.TrimSpace(auth[len(bearer):]))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		ctx := context.WithValue(c.Request.Context(), authKey, claims)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func CtxValue(ctx context.Context) *utils.JwtCustomClaim {
	raw, _ := ctx.Value(authKey).(*utils.JwtCustomClaim)
	return raw
}

// identify fills business, user and role into ctx from either a session or an API token.
func identify(ctx context.Context, requestedBusiness string) (context.Context, error) {
	if claims := CtxValue(ctx); claims != nil {
		if claims.BusinessId == "" {
			return nil, errUnauthorized
		}
		ctx = utils.SetBusinessIdInContext(ctx, claims.BusinessId)
		ctx = utils.SetUserIdInContext(ctx, claims.ID)
		ctx = utils.SetUserNameInContext(ctx, "API")
		ctx = utils.SetUserRoleInContext(ctx, claims.Role)
		return utils.SetIsAdminInContext(ctx, false), nil
	}

	username, ok := utils.GetUsernameFromContext(ctx)
	if !ok || username == "" {
		return nil, errUnauthorized
	}
	user, err := models.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, utils.ErrorRecordNotFound) {
			// user was deleted, the session goes with it
			_, _ = models.Logout(ctx)
			return nil, errUnauthorized
		}
		return nil, err
	}
	if user.IsActive == nil || !*user.IsActive {
		return nil, errors.New("user is disabled")
	}

	businessId := user.BusinessId
	isAdmin := user.Role == models.UserRoleAdmin
	if isAdmin {
		businessId = requestedBusiness
	}
	ctx = utils.SetBusinessIdInContext(ctx, businessId)
	ctx = utils.SetUserIdInContext(ctx, user.ID)
	ctx = utils.SetUserNameInContext(ctx, user.Name)
	ctx = utils.SetUserRoleInContext(ctx, string(user.Role))
	return utils.SetIsAdminInContext(ctx, isAdmin), nil
}

// RequireUser rejects anonymous requests. Admins must name a business with X-Business-Id
// unless allowNoBusiness is set.
func RequireUser(allowNoBusiness bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, err := identify(c.Request.Context(), strings.TrimSpace(c.GetHeader(BusinessHeader)))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		if businessId, _ := utils.GetBusinessIdFromContext(ctx); businessId == "" && !allowNoBusiness {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": utils.ErrorBusinessIdRequired.Error()})
			return
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireAdmin must run after RequireUser.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if isAdmin, _ := utils.GetIsAdminFromContext(c.Request.Context()); !isAdmin {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}
