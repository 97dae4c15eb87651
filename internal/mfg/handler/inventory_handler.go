package handler

import (
	"github.com/bitfantasy/nimo-mfg/internal/mfg/service"
	"github.com/gin-gonic/gin"
)

type InventoryHandler struct {
	responder
	svc *service.InventoryService
}

func (h *InventoryHandler) List(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	Success(c, items)
}

func (h *InventoryHandler) Get(c *gin.Context) {
	inv, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	Success(c, inv)
}

// ListTransactions GET /api/inventory/:id/transactions
func (h *InventoryHandler) ListTransactions(c *gin.Context) {
	items, err := h.svc.ListTransactions(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	Success(c, items)
}

// Add POST /api/inventory，新建返回 201，已有类型累加返回 200
func (h *InventoryHandler) Add(c *gin.Context) {
	var req service.InventoryRequest
	if !h.bind(c, &req) {
		return
	}
	inv, created, err := h.svc.Add(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	if created {
		Created(c, inv)
		return
	}
	Success(c, inv)
}

func (h *InventoryHandler) Update(c *gin.Context) {
	var req service.InventoryRequest
	if !h.bind(c, &req) {
		return
	}
	inv, err := h.svc.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	Success(c, inv)
}

func (h *InventoryHandler) Delete(c *gin.Context) {
	inv, err := h.svc.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	Success(c, inv)
}
