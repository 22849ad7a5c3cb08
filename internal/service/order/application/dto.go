// internal/service/order/application/dto.go
package application

import (
	"math"
	"strconv"
	"strings"

	"fulfillment/internal/pkg/apperr"
	"fulfillment/internal/service/order/application/saga"
	"fulfillment/internal/service/order/domain"
)

// 分页默认值
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// OrderItemRequest 是下单请求中的一行
type OrderItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// CreateOrderRequest 是创建订单用例的输入数据
type CreateOrderRequest struct {
	CustomerID string             `json:"customerId"`
	Currency   string             `json:"currency,omitempty"`
	Items      []OrderItemRequest `json:"items"`
}

func (req *CreateOrderRequest) lines() []saga.LineRequest {
	lines := make([]saga.LineRequest, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, saga.LineRequest{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return lines
}

var sortFields = map[string]bool{
	domain.SortByCreatedAt:  true,
	domain.SortByUpdatedAt:  true,
	domain.SortByOrderTotal: true,
	domain.SortByStatus:     true,
}

// ParsePageRequest 解析 page、size 和 sort 参数。sort 形如 "createdAt,desc"。
// 空值取默认值，size 超过上限时截断。未知的排序字段或 page*size 溢出时返回 InvalidArgument。
func ParsePageRequest(page, size, sort string) (domain.PageRequest, error) {
	req := domain.PageRequest{Page: 0, Size: DefaultPageSize, SortField: domain.SortByCreatedAt, SortDesc: true}

	if page != "" {
		n, err := strconv.Atoi(page)
		if err != nil || n < 0 {
			return req, apperr.New(apperr.KindInvalidArgument, "page must be a non-negative integer, got %q", page)
		}
		req.Page = n
	}
	if size != "" {
		n, err := strconv.Atoi(size)
		if err != nil || n <= 0 {
			return req, apperr.New(apperr.KindInvalidArgument, "size must be a positive integer, got %q", size)
		}
		req.Size = min(n, MaxPageSize)
	}
	if req.Page > math.MaxInt/req.Size {
		return req, apperr.New(apperr.KindInvalidArgument, "page %d is out of range", req.Page)
	}
	if sort != "" {
		field, dir, _ := strings.Cut(sort, ",")
		field = strings.TrimSpace(field)
		if !sortFields[field] {
			return req, apperr.New(apperr.KindInvalidArgument, "unsupported sort field %q", field)
		}
		req.SortField = field
		switch strings.ToLower(strings.TrimSpace(dir)) {
		case "", "desc":
			req.SortDesc = true
		case "asc":
			req.SortDesc = false
		default:
			return req, apperr.New(apperr.KindInvalidArgument, "unsupported sort direction %q", dir)
		}
	}
	return req, nil
}
