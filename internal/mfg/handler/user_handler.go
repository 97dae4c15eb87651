package handler

import (
	"github.com/bitfantasy/nimo-mfg/internal/mfg/service"
	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	responder
	svc *service.UserService
}

// List GET /api/user
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.svc.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	Success(c, users)
}

// Get GET /api/user/:id
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	Success(c, user)
}

// Create POST /api/user
func (h *UserHandler) Create(c *gin.Context) {
	var req service.CreateUserRequest
	if !h.bind(c, &req) {
		return
	}
	user, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	Created(c, user)
}

// Update PUT /api/user/:id
func (h *UserHandler) Update(c *gin.Context) {
	var req service.UpdateUserRequest
	if !h.bind(c, &req) {
		return
	}
	user, err := h.svc.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	Success(c, user)
}

// Delete DELETE /api/user/:id
func (h *UserHandler) Delete(c *gin.Context) {
	user, err := h.svc.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	Success(c, user)
}
