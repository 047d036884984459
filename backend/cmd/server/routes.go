package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tracegraph/backend/internal/graph"
	"tracegraph/backend/internal/search"
)

// Data is a pointer so binding:"required" actually rejects bodies
// without a data key.
type importRequest struct {
	Data *graph.ImportPayload `json:"data" binding:"required"`
}

type searchRequest struct {
	Query string `json:"query" binding:"required"`
}

// registerRoutes wires the HTTP surface. Every internal failure maps to a 500
// with the triggering message; nothing partially succeeds silently.
func registerRoutes(router *gin.Engine, engine *search.Engine, log *zap.Logger) {
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Welcome to the Traceability KG + Vector + Chat API.",
		})
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.POST("/import-json", func(c *gin.Context) {
		var req importRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if _, err := engine.Import(c.Request.Context(), *req.Data); err != nil {
			log.Error("Import failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Import failed: " + err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "imported"})
	})

	router.POST("/search/vector", func(c *gin.Context) {
		var req searchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		matches, err := engine.VectorSearch(c.Request.Context(), req.Query)
		if err != nil {
			log.Error("Vector search failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Vector search failed: " + err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"query": req.Query, "matches": matches})
	})

	router.POST("/search/hybrid", func(c *gin.Context) {
		var req searchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		result, err := engine.HybridSearch(c.Request.Context(), req.Query)
		if err != nil {
			log.Error("Hybrid search failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Hybrid search failed: " + err.Error()})
			return
		}

		c.JSON(http.StatusOK, result)
	})

	router.POST("/ask", func(c *gin.Context) {
		var req searchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		result, err := engine.Ask(c.Request.Context(), req.Query)
		if err != nil {
			log.Error("Ask failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ask failed: " + err.Error()})
			return
		}

		c.JSON(http.StatusOK, result)
	})
}
