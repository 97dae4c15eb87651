package handler

import (
	"mime"

	"github.com/bitfantasy/nimo-mfg/internal/mfg/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type SalesReportHandler struct {
	responder
	svc *service.SalesReportService
}

func (h *SalesReportHandler) List(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	Success(c, items)
}

func (h *SalesReportHandler) Get(c *gin.Context) {
	sr, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	Success(c, sr)
}

// ListByProductType GET /api/sales-report/product-type/:productType
func (h *SalesReportHandler) ListByProductType(c *gin.Context) {
	items, err := h.svc.ListByProductType(c.Request.Context(), c.Param("productType"))
	if err != nil {
		h.fail(c, err)
		return
	}
	Success(c, items)
}

func (h *SalesReportHandler) Create(c *gin.Context) {
	var req service.SalesReportRequest
	if !h.bind(c, &req) {
		return
	}
	sr, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	Created(c, sr)
}

func (h *SalesReportHandler) Delete(c *gin.Context) {
	sr, err := h.svc.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	Success(c, sr)
}

// Import POST /api/sales-report/import，multipart 字段 file
func (h *SalesReportHandler) Import(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		BadRequest(c, "file is required", service.FieldError{Field: "file", Message: "is required"})
		return
	}
	defer file.Close()

	result, err := h.svc.Import(c.Request.Context(), header.Filename, file)
	if err != nil {
		h.fail(c, err)
		return
	}
	Success(c, result)
}

// Export GET /api/sales-report/export?product_type=
func (h *SalesReportHandler) Export(c *gin.Context) {
	f, filename, err := h.svc.Export(c.Request.Context(), c.Query("product_type"))
	if err != nil {
		h.fail(c, err)
		return
	}
	defer f.Close()

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": filename})
	if disposition == "" {
		disposition = `attachment; filename="sales_reports.xlsx"`
	}
	c.Header("Content-Disposition", disposition)
	c.Header("Content-Transfer-Encoding", "binary")

	if err := f.Write(c.Writer); err != nil {
		h.logger.Error("write sales export", zap.Error(err))
	}
}
