package api

import (
	"github.com/gin-gonic/gin"

	"github.com/autosolutionsai-didac/Falcon/internal/middleware"
)

// SetupRoutes configures all API routes
func SetupRoutes(handlers *Handlers, jwtSecret string) *gin.Engine {
	router := gin.Default()

	router.Use(middleware.CORSMiddleware())

	api := router.Group("/api")
	api.Use(middleware.AuthMiddleware(jwtSecret))
	{
		cases := api.Group("/cases")
		{
			cases.POST("", handlers.CreateCaseHandler)
			cases.GET("", handlers.ListCasesHandler)
			cases.GET("/:id", handlers.GetCaseHandler)
			cases.PUT("/:id", handlers.UpdateCaseHandler)
			cases.DELETE("/:id", handlers.DeleteCaseHandler)
			cases.POST("/:id/analyze", handlers.AnalyzeCaseHandler)
			cases.GET("/:id/reports", handlers.GetReportsHandler)
			cases.POST("/:id/documents", handlers.UploadDocumentHandler)
		}

		api.GET("/analysis/status/:taskId", handlers.GetTaskStatusHandler)
		api.POST("/documents/:id/process", handlers.ProcessDocumentHandler)
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return router
}
