package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bitfantasy/nimo-mfg/internal/mfg/entity"
	"github.com/bitfantasy/nimo-mfg/internal/mfg/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

// ImportRowError 导入失败的行，Row 从 1 开始，含表头
type ImportRowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportResult 导入结果
type ImportResult struct {
	Created int              `json:"created"`
	Failed  int              `json:"failed"`
	Errors  []ImportRowError `json:"errors,omitempty"`
}

// Import 批量导入销售记录，支持 .xlsx 与 .csv（UTF-8 或 GBK）。
// 列顺序: product_type, sales_date, quantity_sold, total_revenue；首行为表头。
// 有效行在同一事务内写入，无效行计入 Failed。
func (s *SalesReportService) Import(ctx context.Context, filename string, r io.Reader) (*ImportResult, error) {
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		rows, err = readXLSXRows(r)
	case ".csv":
		rows, err = readCSVRows(r)
	default:
		return nil, invalid("file", "must be a .xlsx or .csv file")
	}
	if err != nil {
		return nil, invalid("file", err.Error())
	}

	result := &ImportResult{}
	var reports []*entity.SalesReport
	for i, row := range rows {
		if i == 0 || isBlankRow(row) {
			continue
		}
		req, err := parseSalesRow(row)
		if err == nil {
			err = req.validate()
		}
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, ImportRowError{Row: i + 1, Message: err.Error()})
			continue
		}
		reports = append(reports, &entity.SalesReport{
			ID:           uuid.New().String(),
			ProductType:  strings.TrimSpace(req.ProductType),
			SalesDate:    *req.SalesDate,
			QuantitySold: *req.QuantitySold,
			TotalRevenue: *req.TotalRevenue,
		})
	}

	if len(reports) > 0 {
		err := s.inTx(ctx, func(r *repository.Repositories) error {
			for _, sr := range reports {
				if err := r.SalesReport.Create(ctx, sr); err != nil {
					return fmt.Errorf("create sales report: %w", err)
				}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	result.Created = len(reports)

	types := make(map[string]struct{})
	for _, sr := range reports {
		types[sr.ProductType] = struct{}{}
	}
	keys := make([]string, 0, len(types))
	for t := range types {
		keys = append(keys, t)
	}
	s.cache.Invalidate(ctx, keys...)
	return result, nil
}

func readXLSXRows(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("cannot parse workbook: %w", err)
	}
	defer f.Close()
	return f.GetRows(f.GetSheetName(0))
}

// readCSVRows 非 UTF-8 内容按 GBK 解码
func readCSVRows(r io.Reader) ([][]string, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))
	var src io.Reader = bytes.NewReader(raw)
	if !utf8.Valid(raw) {
		src = transform.NewReader(src, simplifiedchinese.GBK.NewDecoder())
	}
	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("cannot parse csv: %w", err)
	}
	return rows, nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func parseSalesRow(row []string) (SalesReportRequest, error) {
	var req SalesReportRequest
	if len(row) < 4 {
		return req, fmt.Errorf("expected 4 columns, got %d", len(row))
	}
	req.ProductType = strings.TrimSpace(row[0])

	date, err := parseSalesDate(strings.TrimSpace(row[1]))
	if err != nil {
		return req, fmt.Errorf("sales_date: %w", err)
	}
	req.SalesDate = &date

	qty, err := strconv.Atoi(strings.TrimSpace(row[2]))
	if err != nil {
		return req, fmt.Errorf("quantity_sold: not an integer")
	}
	req.QuantitySold = &qty

	revenue, err := decimal.NewFromString(strings.TrimSpace(row[3]))
	if err != nil {
		return req, fmt.Errorf("total_revenue: not a number")
	}
	req.TotalRevenue = &revenue
	return req, nil
}

func parseSalesDate(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%q is not RFC 3339 or YYYY-MM-DD", s)
}
