package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/bitfantasy/nimo-mfg/internal/mfg/events"
	"github.com/bitfantasy/nimo-mfg/internal/mfg/service"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Handlers 生产管理 HTTP 处理器集合
type Handlers struct {
	User            *UserHandler
	Production      *ProductionHandler
	Inventory       *InventoryHandler
	FinishedProduct *FinishedProductHandler
	SalesReport     *SalesReportHandler
	Events          *EventsHandler
}

func NewHandlers(services *service.Services, hub *events.Hub, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	registerValidator()
	r := responder{logger: logger}
	return &Handlers{
		User:            &UserHandler{responder: r, svc: services.User},
		Production:      &ProductionHandler{responder: r, svc: services.Production},
		Inventory:       &InventoryHandler{responder: r, svc: services.Inventory},
		FinishedProduct: &FinishedProductHandler{responder: r, svc: services.FinishedProduct},
		SalesReport:     &SalesReportHandler{responder: r, svc: services.SalesReport},
		Events:          NewEventsHandler(hub),
	}
}

// Response 通用响应结构
type Response struct {
	Code    int                  `json:"code"`
	Message string               `json:"message"`
	Data    interface{}          `json:"data,omitempty"`
	Errors  []service.FieldError `json:"errors,omitempty"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Created 创建成功响应
func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error 错误响应
func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
	})
}

// BadRequest 参数错误响应，附带字段错误
func BadRequest(c *gin.Context, message string, fields ...service.FieldError) {
	c.JSON(400, Response{
		Code:    40000,
		Message: message,
		Errors:  fields,
	})
}

// NotFound 资源不存在响应
func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

// Conflict 状态冲突响应
func Conflict(c *gin.Context, message string) {
	Error(c, 40900, message)
}

// InternalError 服务器错误响应
func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// responder 把服务层错误映射为 HTTP 响应
type responder struct {
	logger *zap.Logger
}

func (r responder) fail(c *gin.Context, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		BadRequest(c, "validation failed", verr.Fields...)
	case errors.Is(err, service.ErrDuplicateUser):
		BadRequest(c, "Email or name already in use")
	case errors.Is(err, service.ErrNotFound):
		NotFound(c, "resource not found")
	case errors.Is(err, service.ErrInsufficientStock):
		Conflict(c, err.Error())
	case errors.Is(err, service.ErrConflict):
		Conflict(c, err.Error())
	default:
		r.logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		InternalError(c, "internal server error")
	}
}

// bind 解析并校验请求体，失败时已写出 400
func (r responder) bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		BadRequest(c, "invalid request body", bindingErrors(err)...)
		return false
	}
	return true
}

var validatorOnce sync.Once

// registerValidator 字段错误使用 json 字段名
func registerValidator() {
	validatorOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
	})
}

func bindingErrors(err error) []service.FieldError {
	var (
		verrs   validator.ValidationErrors
		typeErr *json.UnmarshalTypeError
		synErr  *json.SyntaxError
		timeErr *time.ParseError
	)
	switch {
	case errors.As(err, &verrs):
		fields := make([]service.FieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, service.FieldError{Field: fe.Field(), Message: tagMessage(fe)})
		}
		return fields
	case errors.As(err, &typeErr):
		return []service.FieldError{{Field: typeErr.Field, Message: "must be a " + typeErr.Type.String()}}
	case errors.As(err, &timeErr):
		return []service.FieldError{{Field: "body", Message: "time must be RFC 3339, e.g. 2024-01-02T15:04:05Z"}}
	case errors.As(err, &synErr), errors.Is(err, io.ErrUnexpectedEOF):
		return []service.FieldError{{Field: "body", Message: "malformed JSON"}}
	case errors.Is(err, io.EOF):
		return []service.FieldError{{Field: "body", Message: "request body is required"}}
	default:
		return []service.FieldError{{Field: "body", Message: err.Error()}}
	}
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "min":
		return "must not be empty"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "datetime":
		return "must be a date in format " + fe.Param()
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
