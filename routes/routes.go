package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"artemis/controllers"
	"artemis/middlewares"
)

// SetupRouter builds the relay server.
func SetupRouter(relay controllers.Relayer, logger *logrus.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middlewares.Logger(logger), middlewares.CORS())

	chat := controllers.NewChatController(relay)

	r.POST("/mcp", chat.HandleMCP)
	r.GET("/healthz", controllers.Health)

	return r
}

// SetupUIRouter builds the browser-facing chat server.
func SetupUIRouter(ui *controllers.UIController, logger *logrus.Logger) *gin.Engine {
	r := gin.New()
	r.MaxMultipartMemory = 2 << 20
	r.Use(gin.Recovery(), middlewares.Logger(logger))

	r.GET("/", ui.Index)
	r.GET("/healthz", controllers.Health)

	api := r.Group("/api/session")
	api.GET("", ui.GetSession)
	api.POST("/report", ui.UploadReport)
	api.POST("/analyze", ui.Analyze)
	api.POST("/ask", ui.Ask)
	api.POST("/reset", ui.Reset)

	return r
}
