package routes

import (
	ginlog "github.com/gin-contrib/logger"
	"github.com/gin-gonic/gin"

	"bus_tracker/internal/controllers"
)

// SetupRouter assembles the engine with recovery, request logging and all
// route groups.
func SetupRouter(ac *controllers.AuthController, lc *controllers.LocationController, sc *controllers.SocketController) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(ginlog.SetLogger())

	AuthRoutes(r, ac)
	LocationRoutes(r, lc)
	WebSocketRoutes(r, sc)

	return r
}
