package api

import (
	"net/http"

	"github.com/Domenick1991/parkbooking/internal/logger"
	"github.com/gin-gonic/gin"
)

func NewRouter(log *logger.Logger, reservations *ReservationHandler, spots *SpotHandler) *gin.Engine {
	router := gin.New()
	router.Use(RequestLogging(log), Recovery(log))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	reservations.Register(v1.Group("/reservations"))
	spots.Register(v1.Group("/parking-spots"))

	return router
}
