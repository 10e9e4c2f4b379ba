package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/rundown-api/rundown/internal/service"
)

func NewRouter(meetings *service.MeetingService, logger *slog.Logger, corsOrigins []string) http.Handler {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	if len(corsOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     corsOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost},
			AllowHeaders:     []string{"Content-Type"},
			AllowCredentials: true,
		}))
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	meetingHandler := NewMeetingHandler(meetings, logger)
	meetingHandler.RegisterRoutes(&r.RouterGroup)

	return r
}
