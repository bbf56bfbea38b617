package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"bitbucket.org/mmdatafocus/catalog_backend/api"
	"bitbucket.org/mmdatafocus/catalog_backend/config"
	"bitbucket.org/mmdatafocus/catalog_backend/importer"
	"bitbucket.org/mmdatafocus/catalog_backend/middlewares"
	"bitbucket.org/mmdatafocus/catalog_backend/models"
	"bitbucket.org/mmdatafocus/catalog_backend/utils"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const defaultPort = "8080"

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	r := gin.New()
	r.Use(func(c *gin.Context) {
		cid := c.GetHeader("x-correlation-id")
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Request = c.Request.WithContext(utils.SetCorrelationIdInContext(c.Request.Context(), cid))
		c.Next()
	})
	r.Use(func(c *gin.Context) {
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		if config.GetDB() == nil || config.GetRedisDB() == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	})
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	corsConfig := cors.DefaultConfig()
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("token", "Origin", "Content-Type", "Authorization")
	corsConfig.AddExposeHeaders("Content-Length")
	corsConfig.AllowCredentials = true

	r.Use(cors.New(corsConfig))
	r.Use(func(c *gin.Context) {
		if c.GetHeader("token") == "" {
			auth := strings.TrimSpace(c.GetHeader("Authorization"))
			if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
				token := strings.TrimSpace(auth[7:])
				if token != "" {
					c.Request.Header.Set("token", token)
				}
			}
		}
		c.Next()
	})
	r.Use(middlewares.SessionMiddleware())
	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())

	r.POST("/api/signin", api.SigninHandler())

	authed := r.Group("/api", middlewares.RequireSession())
	authed.POST("/signout", api.SignoutHandler())
	authed.POST("/change-password", api.ChangePasswordHandler())

	versions := authed.Group("/versions")
	versions.GET("", api.ListVersionsHandler())
	versions.GET("/:id", api.GetVersionHandler())
	versions.POST("", middlewares.RequirePermission("create", "Version"), api.CreateVersionHandler())
	versions.DELETE("/:id", middlewares.RequirePermission("delete", "Version"), api.DeleteVersionHandler())
	versions.POST("/:id/approve", middlewares.RequirePermission("approve", "Version"), api.ApproveVersionHandler())
	versions.POST("/:id/reject", middlewares.RequirePermission("approve", "Version"), api.RejectVersionHandler())
	versions.POST("/:id/promote", middlewares.RequirePermission("promote", "Version"), api.PromoteVersionHandler())
	versions.POST("/:id/workbook", middlewares.RequirePermission("create", "Version"), api.UploadWorkbookHandler())

	staging := versions.Group("", middlewares.RequirePermission("update", "Staging"))
	staging.POST("/:id/brands", api.CreateStagingBrandHandler())
	staging.PUT("/:id/brands/:brandId", api.UpdateStagingBrandHandler())
	staging.DELETE("/:id/brands/:brandId", api.DeleteStagingBrandHandler())
	staging.POST("/:id/brands/:brandId/logo", api.UploadBrandLogoHandler())
	staging.POST("/:id/vehicle-lines", api.CreateStagingVehicleLineHandler())
	staging.PUT("/:id/vehicle-lines/:lineId", api.UpdateStagingVehicleLineHandler())
	staging.DELETE("/:id/vehicle-lines/:lineId", api.DeleteStagingVehicleLineHandler())
	staging.POST("/:id/models", api.CreateStagingModelHandler())
	staging.PUT("/:id/models/:modelId", api.UpdateStagingModelHandler())
	staging.DELETE("/:id/models/:modelId", api.DeleteStagingModelHandler())
	staging.POST("/:id/trims", api.CreateStagingTrimHandler())
	staging.PUT("/:id/trims/:trimId", api.UpdateStagingTrimHandler())
	staging.DELETE("/:id/trims/:trimId", api.DeleteStagingTrimHandler())
	staging.POST("/:id/options", api.CreateStagingOptionHandler())
	staging.PUT("/:id/options/:optionId", api.UpdateStagingOptionHandler())
	staging.DELETE("/:id/options/:optionId", api.DeleteStagingOptionHandler())

	versions.GET("/:id/brands", api.ListStagingBrandsHandler())
	versions.GET("/:id/brands/:brandId", api.GetStagingBrandHandler())
	versions.GET("/:id/vehicle-lines", api.ListStagingVehicleLinesHandler())
	versions.GET("/:id/vehicle-lines/:lineId", api.GetStagingVehicleLineHandler())
	versions.GET("/:id/models", api.ListStagingModelsHandler())
	versions.GET("/:id/models/:modelId", api.GetStagingModelHandler())
	versions.GET("/:id/trims", api.ListStagingTrimsHandler())
	versions.GET("/:id/trims/:trimId", api.GetStagingTrimHandler())
	versions.GET("/:id/options", api.ListStagingOptionsHandler())
	versions.GET("/:id/options/:optionId", api.GetStagingOptionHandler())

	authed.GET("/jobs", api.ListJobsHandler())
	authed.GET("/jobs/:id", api.GetJobHandler())

	catalog := authed.Group("/catalog")
	catalog.GET("/brands", api.ListBrandsHandler())
	catalog.GET("/brands/:brandId/vehicle-lines", api.ListCatalogVehicleLinesHandler())
	catalog.GET("/vehicle-lines/:lineId/models", api.ListCatalogModelsHandler())
	catalog.GET("/models/:modelId/trims", api.ListCatalogTrimsHandler())
	catalog.GET("/trims/:trimId/options", api.ListCatalogOptionsHandler())

	authed.GET("/events", api.ListEventsHandler())
	authed.GET("/events/:id", api.GetEventHandler())

	discounts := authed.Group("/discount-policies")
	discounts.GET("", api.ListDiscountPoliciesHandler())
	discounts.GET("/:id", api.GetDiscountPolicyHandler())
	discounts.POST("", middlewares.RequirePermission("create", "DiscountPolicy"), api.CreateDiscountPolicyHandler())
	discounts.PUT("/:id", middlewares.RequirePermission("update", "DiscountPolicy"), api.UpdateDiscountPolicyHandler())
	discounts.DELETE("/:id", middlewares.RequirePermission("delete", "DiscountPolicy"), api.DeleteDiscountPolicyHandler())

	admin := authed.Group("", middlewares.RequirePermission("manage", "User"))
	admin.POST("/users", api.CreateUserHandler())
	admin.GET("/users", api.ListUsersHandler())
	admin.GET("/users/:id", api.GetUserHandler())
	admin.PUT("/users/:id", api.UpdateUserHandler())
	admin.DELETE("/users/:id", api.DeleteUserHandler())
	admin.POST("/roles", api.CreateRoleHandler())
	admin.GET("/roles", api.ListRolesHandler())
	admin.GET("/roles/:id", api.GetRoleHandler())
	admin.PUT("/roles/:id", api.UpdateRoleHandler())
	admin.DELETE("/roles/:id", api.DeleteRoleHandler())
	admin.POST("/modules", api.CreateModuleHandler())
	admin.GET("/modules", api.ListModulesHandler())
	admin.PUT("/modules/:id", api.UpdateModuleHandler())
	admin.DELETE("/modules/:id", api.DeleteModuleHandler())
	admin.POST("/role-modules", api.SaveRoleModuleHandler())
	admin.DELETE("/role-modules", api.DeleteRoleModuleHandler())
	admin.GET("/role-modules", api.ListRoleModulesHandler())

	// Pub/Sub push endpoints for the pipeline workers.
	r.POST("/pubsub/catalog-import", importer.ImportPushHandler())
	r.POST("/pubsub/catalog-promotion", importer.PromotionPushHandler())

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()

	if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
		models.MigrateTable()
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	select {
	case <-sigCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	case err := <-serverErrCh:
		if err != nil && err != http.ErrServerClosed {
			logger.WithFields(logrus.Fields{"field": "server"}).Error(err)
		}
	}
}

func splitAndTrim(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		cid, _ := utils.GetCorrelationIdFromContext(c.Request.Context())
		logger.WithFields(logrus.Fields{
			"status":         c.Writer.Status(),
			"method":         c.Request.Method,
			"path":           c.Request.URL.Path,
			"latency":        latency.String(),
			"correlation_id": cid,
		}).Info("request")
	}
}
