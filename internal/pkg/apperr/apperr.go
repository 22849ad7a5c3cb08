// internal/pkg/apperr/apperr.go
package apperr

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// Kind 是错误的分类标签，调用方只依据 Kind 做分支判断。
// 它的字符串值同时也是对外暴露的 errorCode。
type Kind string

const (
	KindNotFound           Kind = "NOT_FOUND"
	KindProductNotFound    Kind = "PRODUCT_NOT_FOUND"
	KindInvalidArgument    Kind = "VALIDATION_ERROR"
	KindInsufficientStock  Kind = "INSUFFICIENT_STOCK"
	KindOutOfStock         Kind = "OUT_OF_STOCK"
	KindProductInactive    Kind = "PRODUCT_INACTIVE"
	KindInvalidRelease     Kind = "INVALID_RELEASE_QUANTITY"
	KindInvalidOrderState  Kind = "INVALID_ORDER_STATE"
	KindServiceUnavailable Kind = "PRODUCT_SERVICE_UNAVAILABLE"
	KindInternal           Kind = "INTERNAL_ERROR"
)

// Error 携带错误分类和一条人类可读的信息。
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New 创建一个指定分类的错误。
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap 用指定分类包装一个底层错误。
func Wrap(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf 沿着错误链查找分类，未分类的错误归为 KindInternal。
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is 判断 err 是否属于指定分类。
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// MessageOf 返回适合直接展示给调用方的信息。
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}

// HTTPStatus 把错误分类映射为 HTTP 状态码。
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindNotFound, KindProductNotFound:
		return http.StatusNotFound
	case KindInvalidArgument, KindInsufficientStock, KindOutOfStock, KindProductInactive, KindInvalidRelease:
		return http.StatusBadRequest
	case KindInvalidOrderState:
		return http.StatusConflict
	case KindServiceUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
