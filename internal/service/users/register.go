package users

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cybernauts/social-graph/internal/app"
	svcErr "github.com/cybernauts/social-graph/internal/errors"
)

// Registrar ties the user routes into the HTTP server
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the user service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the user endpoints to the router
func (r *Registrar) Register(router *gin.Engine) {
	service := NewUserService(r.appCtx)
	h := &handler{service: service}

	api := router.Group("/api")
	api.GET("/users", h.list)
	api.GET("/users/:id", h.get)
	api.POST("/users", h.create)
	api.PUT("/users/:id", h.update)
	api.DELETE("/users/:id", h.delete)
	api.POST("/users/:id/link", h.link)
	api.DELETE("/users/:id/unlink", h.unlink)
}

type handler struct {
	service *Service
}

// linkRequest is the body of link/unlink calls.
type linkRequest struct {
	FriendID string `json:"friendId"`
}

func (h *handler) list(c *gin.Context) {
	users, err := h.service.List(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *handler) get(c *gin.Context) {
	user, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *handler) create(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, svcErr.Validation("invalid request body"))
		return
	}
	user, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *handler) update(c *gin.Context) {
	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, svcErr.Validation("invalid request body"))
		return
	}
	user, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *handler) delete(c *gin.Context) {
	id, err := h.service.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "User deleted successfully",
		"id":      id,
	})
}

func (h *handler) link(c *gin.Context) {
	var req linkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, svcErr.InvalidArgument("friendId is required"))
		return
	}
	user, friend, err := h.service.Link(c.Request.Context(), c.Param("id"), req.FriendID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Friendship created successfully",
		"user":    user,
		"friend":  friend,
	})
}

func (h *handler) unlink(c *gin.Context) {
	var req linkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, svcErr.InvalidArgument("friendId is required"))
		return
	}
	user, friend, err := h.service.Unlink(c.Request.Context(), c.Param("id"), req.FriendID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Friendship removed successfully",
		"user":    user,
		"friend":  friend,
	})
}

// abortWithError renders a domain error as its stable status + JSON body.
func abortWithError(c *gin.Context, err error) {
	e := svcErr.Map(err)
	c.AbortWithStatusJSON(e.Status(), e.Body())
}
