package http

import (
	"github.com/gin-gonic/gin"
)

// RouteGroup defines a group of routes that can be registered.
type RouteGroup interface {
	// RegisterRoutes registers routes to the given router group.
	RegisterRoutes(rg *gin.RouterGroup)
}

// PackingRoutes registers the packing API.
type PackingRoutes struct {
	handler *Handler
}

// NewPackingRoutes creates a new PackingRoutes instance.
func NewPackingRoutes(handler *Handler) *PackingRoutes {
	return &PackingRoutes{handler: handler}
}

// RegisterRoutes registers POST /pack, GET /packaging and, when the decision
// log is enabled, GET /decisions.
func (r *PackingRoutes) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/pack", r.handler.PackProducts)
	rg.GET("/packaging", r.handler.ListPackaging)

	if r.handler.decisions != nil {
		rg.GET("/decisions", r.handler.ListDecisions)
	}
}
