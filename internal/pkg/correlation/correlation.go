package correlation

import "context"

// HeaderName 是网关写入、各服务原样透传的关联 ID 请求头。
const HeaderName = "X-Correlation-Id"

type ctxKey struct{}

// WithID 把关联 ID 放入 context。空值不写入。
func WithID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext 取出关联 ID，没有时返回空字符串。
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}
