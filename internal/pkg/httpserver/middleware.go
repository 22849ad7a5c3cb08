package httpserver

import (
	"fmt"
	"net/http"
	"time"

	"fulfillment/internal/pkg/apperr"
	"fulfillment/internal/pkg/correlation"
	"fulfillment/internal/pkg/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware 为每个请求提取上游的追踪上下文、开启 server span、
// 透传关联 ID，并在 panic 时返回 500。/healthz 和 /metrics 不经过它。
func Middleware(serviceName string, next http.Handler) http.Handler {
	tracer := otel.Tracer(serviceName)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
		ctx = correlation.WithID(ctx, r.Header.Get(correlation.HeaderName))

		ctx, span := tracer.Start(ctx, fmt.Sprintf("%s %s", r.Method, r.URL.Path), trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		if id := correlation.FromContext(ctx); id != "" {
			w.Header().Set(correlation.HeaderName, id)
			span.SetAttributes(attribute.String("correlation.id", id))
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		r = r.WithContext(ctx)

		defer func() {
			if p := recover(); p != nil {
				err := apperr.New(apperr.KindInternal, "unexpected failure")
				span.RecordError(fmt.Errorf("panic: %v", p))
				span.SetStatus(codes.Error, "panic")
				logger.Ctx(ctx).Error().Interface("panic", p).Msg("🛑 recovered from panic")
				WriteError(rec, r, err)
			}
			span.SetAttributes(attribute.Int("http.status_code", rec.status))
			logger.Ctx(ctx).Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", rec.status).
				Dur("duration", time.Since(start)).
				Msg("request handled")
		}()

		next.ServeHTTP(rec, r)
	})
}
