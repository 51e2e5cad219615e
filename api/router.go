package api

import (
	"net/http"
	"path/filepath"

	"github.com/Domenick1991/roombooking/config"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	httpSwagger "github.com/swaggo/http-swagger"
)

const specPath = "/openapi/roombooking.swagger.json"

type Handlers struct {
	Rooms        *RoomHandler
	Bookings     *BookingHandler
	BulkBookings *BulkBookingHandler
}

func NewRouter(cfg config.HTTPConfig, log *logrus.Logger, h Handlers, middleware ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), TraceContext(), AccessLog(log), CORS(cfg.CORSOrigins))
	router.Use(middleware...)

	router.GET("/liveness", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	if cfg.SwaggerDir != "" {
		router.StaticFile(specPath, filepath.Join(cfg.SwaggerDir, "roombooking.swagger.json"))
		router.GET("/docs/*any", gin.WrapH(httpSwagger.Handler(httpSwagger.URL(specPath))))
	}

	v1 := router.Group("/api/v1")
	h.Rooms.Register(v1.Group("/rooms"))
	h.Bookings.Register(v1.Group("/bookings"))
	h.BulkBookings.Register(v1.Group("/bulk-bookings"))

	return router
}
