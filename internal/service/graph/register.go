package graph

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cybernauts/social-graph/internal/app"
	svcErr "github.com/cybernauts/social-graph/internal/errors"
)

// Registrar ties the graph route into the HTTP server
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the graph service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the graph endpoint to the router
func (r *Registrar) Register(router *gin.Engine) {
	service := NewGraphService(r.appCtx)

	router.GET("/api/graph", func(c *gin.Context) {
		g, err := service.Project(c.Request.Context())
		if err != nil {
			e := svcErr.Map(err)
			c.AbortWithStatusJSON(e.Status(), e.Body())
			return
		}
		c.JSON(http.StatusOK, g)
	})
}
