package handler

import (
	"github.com/bitfantasy/nimo-mfg/internal/mfg/service"
	"github.com/gin-gonic/gin"
)

type ProductionHandler struct {
	responder
	svc *service.ProductionService
}

func (h *ProductionHandler) List(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	Success(c, items)
}

func (h *ProductionHandler) Get(c *gin.Context) {
	p, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	Success(c, p)
}

// ListByUserEmail GET /api/production/email/:email
func (h *ProductionHandler) ListByUserEmail(c *gin.Context) {
	items, err := h.svc.ListByUserEmail(c.Request.Context(), c.Param("email"))
	if err != nil {
		h.fail(c, err)
		return
	}
	Success(c, items)
}

func (h *ProductionHandler) Create(c *gin.Context) {
	var req service.ProductionRequest
	if !h.bind(c, &req) {
		return
	}
	p, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	Created(c, p)
}

func (h *ProductionHandler) Update(c *gin.Context) {
	var req service.ProductionRequest
	if !h.bind(c, &req) {
		return
	}
	p, err := h.svc.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	Success(c, p)
}

func (h *ProductionHandler) Delete(c *gin.Context) {
	p, err := h.svc.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	Success(c, p)
}
