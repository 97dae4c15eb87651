package handler

import (
	"github.com/bitfantasy/nimo-mfg/internal/mfg/service"
	"github.com/gin-gonic/gin"
)

type FinishedProductHandler struct {
	responder
	svc *service.FinishedProductService
}

func (h *FinishedProductHandler) List(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	Success(c, items)
}

func (h *FinishedProductHandler) Get(c *gin.Context) {
	fp, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	Success(c, fp)
}

func (h *FinishedProductHandler) Create(c *gin.Context) {
	var req service.FinishedProductRequest
	if !h.bind(c, &req) {
		return
	}
	fp, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	Created(c, fp)
}

func (h *FinishedProductHandler) Update(c *gin.Context) {
	var req service.FinishedProductRequest
	if !h.bind(c, &req) {
		return
	}
	fp, err := h.svc.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	Success(c, fp)
}

func (h *FinishedProductHandler) Delete(c *gin.Context) {
	fp, err := h.svc.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	Success(c, fp)
}
