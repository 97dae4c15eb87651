package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bitfantasy/nimo-mfg/internal/mfg/entity"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

type SalesReportService struct {
	base
}

// SalesReportRequest 手工录入销售记录请求
type SalesReportRequest struct {
	ProductType       string           `json:"product_type" binding:"required,max=128"`
	SalesDate         *time.Time       `json:"sales_date" binding:"required"`
	QuantitySold      *int             `json:"quantity_sold" binding:"required,gt=0"`
	TotalRevenue      *decimal.Decimal `json:"total_revenue" binding:"required"`
	FinishedProductID *string          `json:"finished_product_id"`
}

func (req SalesReportRequest) validate() error {
	verr := &ValidationError{}
	checkProductType(verr, "product_type", req.ProductType)
	if req.SalesDate == nil {
		verr.add("sales_date", "is required")
	}
	if req.QuantitySold == nil || *req.QuantitySold <= 0 {
		verr.add("quantity_sold", "must be greater than 0")
	}
	if req.TotalRevenue == nil {
		verr.add("total_revenue", "is required")
	} else {
		checkMoney(verr, "total_revenue", *req.TotalRevenue, maxAmount)
	}
	return verr.orNil()
}

func (s *SalesReportService) List(ctx context.Context) ([]entity.SalesReport, error) {
	return s.repos.SalesReport.List(ctx)
}

func (s *SalesReportService) Get(ctx context.Context, id string) (*entity.SalesReport, error) {
	return s.repos.SalesReport.FindByID(ctx, id)
}

// ListByProductType 优先读取缓存
func (s *SalesReportService) ListByProductType(ctx context.Context, productType string) ([]entity.SalesReport, error) {
	if reports, ok := s.cache.Get(ctx, productType); ok {
		return reports, nil
	}
	reports, err := s.repos.SalesReport.ListByProductType(ctx, productType)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, productType, reports)
	return reports, nil
}

func (s *SalesReportService) Create(ctx context.Context, req SalesReportRequest) (*entity.SalesReport, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	sr := &entity.SalesReport{
		ID:           uuid.New().String(),
		ProductType:  strings.TrimSpace(req.ProductType),
		SalesDate:    *req.SalesDate,
		QuantitySold: *req.QuantitySold,
		TotalRevenue: *req.TotalRevenue,
	}
	if req.FinishedProductID != nil && strings.TrimSpace(*req.FinishedProductID) != "" {
		fpID := strings.TrimSpace(*req.FinishedProductID)
		if _, err := s.repos.FinishedProduct.FindByID(ctx, fpID); err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, invalid("finished_product_id", "no finished product with this id")
			}
			return nil, fmt.Errorf("find finished product: %w", err)
		}
		sr.FinishedProductID = &fpID
	}
	if err := s.repos.SalesReport.Create(ctx, sr); err != nil {
		return nil, fmt.Errorf("create sales report: %w", err)
	}
	s.cache.Invalidate(ctx, sr.ProductType)
	return sr, nil
}

func (s *SalesReportService) Delete(ctx context.Context, id string) (*entity.SalesReport, error) {
	sr, err := s.repos.SalesReport.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repos.SalesReport.Delete(ctx, id); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, sr.ProductType)
	return sr, nil
}

var salesExportHeaders = []string{
	"ID", "Product Type", "Sales Date", "Quantity Sold", "Total Revenue", "Finished Product",
}

// Export 导出销售记录为xlsx，productType 为空时导出全部
func (s *SalesReportService) Export(ctx context.Context, productType string) (*excelize.File, string, error) {
	var (
		reports []entity.SalesReport
		err     error
	)
	if productType == "" {
		reports, err = s.repos.SalesReport.List(ctx)
	} else {
		reports, err = s.repos.SalesReport.ListByProductType(ctx, productType)
	}
	if err != nil {
		return nil, "", fmt.Errorf("list sales reports: %w", err)
	}

	f := excelize.NewFile()
	sheet := "Sales"
	f.SetSheetName("Sheet1", sheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	for i, h := range salesExportHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	var (
		totalQty     int
		totalRevenue = decimal.Zero
	)
	for i, r := range reports {
		row := i + 2
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), r.ID)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), r.ProductType)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), r.SalesDate.UTC().Format(time.RFC3339))
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), r.QuantitySold)
		f.SetCellValue(sheet, fmt.Sprintf("E%d", row), r.TotalRevenue.InexactFloat64())
		if r.FinishedProductID != nil {
			f.SetCellValue(sheet, fmt.Sprintf("F%d", row), *r.FinishedProductID)
		}
		totalQty += r.QuantitySold
		totalRevenue = totalRevenue.Add(r.TotalRevenue)
	}

	// 汇总行
	summaryRow := len(reports) + 2
	summaryStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	f.SetCellValue(sheet, fmt.Sprintf("A%d", summaryRow), "Total")
	f.SetCellValue(sheet, fmt.Sprintf("B%d", summaryRow), fmt.Sprintf("%d reports", len(reports)))
	f.SetCellValue(sheet, fmt.Sprintf("D%d", summaryRow), totalQty)
	f.SetCellValue(sheet, fmt.Sprintf("E%d", summaryRow), totalRevenue.InexactFloat64())
	f.SetCellStyle(sheet, fmt.Sprintf("A%d", summaryRow), fmt.Sprintf("F%d", summaryRow), summaryStyle)

	colWidths := []float64{38, 20, 22, 14, 14, 38}
	for i, w := range colWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, w)
	}

	filename := "sales_reports.xlsx"
	if productType != "" {
		filename = fmt.Sprintf("sales_reports_%s.xlsx", safeFilePart(productType))
	}
	return f, filename, nil
}

// safeFilePart 替换路径分隔符与控制字符
func safeFilePart(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r < 0x20 || r == 0x7f {
			return '_'
		}
		return r
	}, s)
}
