// Package httpapi exposes the sprite sheet operations over HTTP with gin.
package httpapi

import (
	"github.com/gin-gonic/gin"

	"github.com/ironsheep/sprite-tools-mcp/internal/sprite"
)

// RegisterRoutes mounts the API under /api.
//
// Every path a client names is resolved against root and must stay inside
// it; an empty root means the working directory. The options are passed to
// every decode a handler performs.
func RegisterRoutes(r *gin.Engine, root string, opts ...sprite.Option) {
	if root == "" {
		root = "."
	}
	h := &handlers{root: root, decodeOpts: opts}

	api := r.Group("/api")
	{
		api.GET("/health", health)
		api.POST("/combine", h.combine)
		api.POST("/size", h.size)
		api.POST("/verify", h.verify)
		api.POST("/extract", h.extract)
	}
}

// NewRouter returns an engine with recovery middleware and the API routes.
func NewRouter(root string, opts ...sprite.Option) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	RegisterRoutes(r, root, opts...)
	return r
}
