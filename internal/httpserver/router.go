package httpserver

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"taskplanner/internal/handler"
)

type Handlers struct {
	Auth     *handler.AuthHandler
	Task     *handler.TaskHandler
	Category *handler.CategoryHandler
	Tag      *handler.TagHandler
}

func NewRouter(h Handlers, logger *zap.Logger, db *pgxpool.Pool, jwtSecret string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.HEAD("/healthz", func(c *gin.Context) {
		c.Status(200)
	})
	r.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c, 1*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			c.JSON(500, gin.H{"status": "db_not_ready", "error": err.Error()})
			return
		}
		c.JSON(200, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/auth/register", h.Auth.Register)
	r.POST("/auth/login", h.Auth.Login)

	authed := r.Group("/", RequireAuth(jwtSecret))

	authed.GET("/tasks", h.Task.ListTasks)
	authed.POST("/tasks", h.Task.CreateTask)
	authed.POST("/tasks/full-create", h.Task.CreateFullTask)
	authed.GET("/tasks/:id", h.Task.GetTask)
	authed.PUT("/tasks/:id", h.Task.ReplaceTask)
	authed.PUT("/tasks/:id/update", h.Task.ReplaceFullTask)
	authed.PATCH("/tasks/:id", h.Task.PatchTask)
	authed.DELETE("/tasks/:id", h.Task.DeleteTask)

	authed.GET("/categories", h.Category.ListCategories)
	authed.POST("/categories", h.Category.CreateCategory)
	authed.GET("/categories/:id", h.Category.GetCategory)
	authed.PUT("/categories/:id", h.Category.UpdateCategory)
	authed.DELETE("/categories/:id", h.Category.DeleteCategory)

	authed.GET("/tags", h.Tag.ListTags)
	authed.POST("/tags", h.Tag.CreateTag)
	authed.GET("/tags/:id", h.Tag.GetTag)
	authed.DELETE("/tags/:id", h.Tag.DeleteTag)

	return r
}
