package app

import (
	"net/http"
	"time"

	"github.com/diy-network/core/internal/middleware"
	"github.com/diy-network/core/internal/modules/digest"
	"github.com/diy-network/core/internal/modules/event"
	"github.com/diy-network/core/internal/modules/subscription"
	"github.com/diy-network/core/internal/pkg/jwt"
	"github.com/diy-network/core/internal/pkg/metrics"
	"github.com/diy-network/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

const (
	throttleMax    = 5
	throttleWindow = time.Minute
)

func (a *App) registerRoutes(signer *jwt.Signer) {
	a.router.GET("/metrics", metrics.Handler())
	a.router.NoRoute(response.NotFound)

	api := a.router.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": 1, "time": time.Now()})
	})

	var counter middleware.Counter
	if a.infra.Redis != nil {
		counter = a.infra.Redis
	}
	throttle := middleware.RateLimit(counter, "subscribers", throttleMax, throttleWindow, a.logger.Named("RateLimit"))

	subHandler := subscription.NewHandler(a.services.Subscription)
	eventHandler := event.NewHandler(a.services.Events, a.cfg.Locales.Supported)
	digestHandler := digest.NewHandler(a.services.Digest, digestRunner{sched: a.sched})

	subHandler.RegisterRoutes(api, throttle)
	eventHandler.RegisterRoutes(api)

	if signer == nil {
		return
	}
	admin := api.Group("/admin", middleware.Auth(signer))
	subHandler.RegisterAdminRoutes(admin)
	eventHandler.RegisterAdminRoutes(admin)
	digestHandler.RegisterAdminRoutes(admin)
	admin.GET("/tasks", a.listTasks)
	admin.POST("/tasks/:name/run", a.runTask)
}

func (a *App) listTasks(c *gin.Context) {
	response.OK(c, a.sched.List())
}

func (a *App) runTask(c *gin.Context) {
	if err := a.sched.Run(c.Request.Context(), c.Param("name")); err != nil {
		response.NotFoundMsg(c, err.Error())
		return
	}
	response.Accepted(c, gin.H{"name": c.Param("name")})
}
