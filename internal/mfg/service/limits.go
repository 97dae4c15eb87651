package service

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// 与 entity 列定义一致
const (
	maxProductTypeLen = 128
	maxPasswordBytes  = 72 // bcrypt 上限
)

var (
	maxUnitPrice = decimal.New(1, 10) // decimal(12,2)
	maxAmount    = decimal.New(1, 12) // decimal(14,2)
)

// checkProductType 非空且不超过列长度
func checkProductType(verr *ValidationError, field, value string) {
	value = strings.TrimSpace(value)
	switch {
	case value == "":
		verr.add(field, "must not be empty")
	case utf8.RuneCountInString(value) > maxProductTypeLen:
		verr.add(field, fmt.Sprintf("must be at most %d characters", maxProductTypeLen))
	}
}

// checkMoney 非负且小于列精度允许的上限
func checkMoney(verr *ValidationError, field string, d, limit decimal.Decimal) {
	switch {
	case d.IsNegative():
		verr.add(field, "must not be negative")
	case d.GreaterThanOrEqual(limit):
		verr.add(field, "must be less than "+limit.String())
	}
}

// lineTotal unit_price * quantity
func lineTotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}
