package middlewares

import (
	"net/http"

	"bitbucket.org/mmdatafocus/catalog_backend/config"
	"bitbucket.org/mmdatafocus/catalog_backend/models"
	"bitbucket.org/mmdatafocus/catalog_backend/utils"
	"github.com/gin-gonic/gin"
)

// RequirePermission gates a route on "action|Module" membership in the
// caller's role. Admins bypass the lookup. Allowed-path sets are cached per
// role and invalidated whenever the role or its modules change.
func RequirePermission(action string, module string) gin.HandlerFunc {
	permission := action + "|" + module
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		if isAdmin, ok := utils.GetIsAdminFromContext(ctx); ok && isAdmin {
			c.Next()
			return
		}

		username, ok := utils.GetUsernameFromContext(ctx)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		user, err := models.GetUserByUsername(ctx, username)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		paths := map[string]bool{}
		cached, err := config.GetRedisObject(utils.PathsCacheKey(user.RoleId), &paths)
		if err != nil || !cached {
			paths, err = models.GetQueryPathsFromRole(ctx, user.RoleId)
			if err != nil {
				c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
				c.Abort()
				return
			}
			_ = config.SetRedisObject(utils.PathsCacheKey(user.RoleId), paths, 0)
		}

		if !paths[permission] {
			c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			c.Abort()
			return
		}
		c.Next()
	}
}
