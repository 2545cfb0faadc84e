package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/richardliu001/store-credit-service/internal/config"
	"github.com/richardliu001/store-credit-service/internal/service"
	"go.uber.org/zap"
)

func NewRouter(svc *service.CreditService, rl config.RateLimitConfig, auth config.AuthConfig, log *zap.SugaredLogger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(LoggingMiddleware(log))
	r.Use(RateLimitMiddleware(rl.RPS, rl.Burst))
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	RegisterHandlers(r, svc, auth.JWTSecret, log)
	return r
}
