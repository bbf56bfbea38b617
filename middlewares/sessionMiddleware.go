package middlewares

import (
	"context"
	"net/http"

	"bitbucket.org/mmdatafocus/catalog_backend/config"
	"bitbucket.org/mmdatafocus/catalog_backend/models"
	"bitbucket.org/mmdatafocus/catalog_backend/utils"
	"github.com/gin-gonic/gin"
)

// SessionMiddleware checks the token header's JWT signature and expiry,
// then resolves it against the Redis session store and loads the owning user
// into the request context. The Redis lookup is what makes Logout stick: a
// signed token that was revoked no longer resolves. Requests without a token
// pass through anonymously; route guards decide what needs auth.
func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Request.Header.Get("token")
		if token == "" {
			c.Next()
			return
		}
		if parsed, err := utils.JwtValidate(token); err != nil || !parsed.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		username, exists, err := config.GetRedisValue("Token:" + token)
		if err != nil || !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		ctx := context.WithValue(c.Request.Context(), utils.ContextKeyToken, token)
		ctx = context.WithValue(ctx, utils.ContextKeyUsername, username)

		var user models.User
		cached, err := config.GetRedisObject("User:"+username, &user)
		if err == nil && !cached {
			fresh, err := models.GetUserByUsername(ctx, username)
			if err == nil {
				user = *fresh
				cached = true
			}
		}
		if cached {
			if user.IsActive != nil && !*user.IsActive {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
				c.Abort()
				return
			}
			ctx = utils.SetUserIdInContext(ctx, user.ID)
			ctx = utils.SetUserNameInContext(ctx, user.Name)
			ctx = utils.SetIsAdminInContext(ctx, user.Role == models.UserRoleAdmin)
		}

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireSession rejects anonymous requests.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := utils.GetUsernameFromContext(c.Request.Context()); !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		c.Next()
	}
}
