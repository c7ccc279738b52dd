package routes

import (
	"github.com/gin-gonic/gin"

	"bus_tracker/internal/controllers"
)

func WebSocketRoutes(r *gin.Engine, sc *controllers.SocketController) {
	ws := r.Group("/ws")
	{
		ws.GET("/location", sc.HandleWebSocket)
	}
}
