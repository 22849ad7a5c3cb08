// internal/pkg/logger/logger.go
package logger

import (
	"context"
	"os"
	"time"

	"fulfillment/internal/pkg/correlation"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

// Init 配置全局 zerolog 实例。pretty 为 true 时输出便于本地阅读的彩色日志。
func Init(serviceName, level string, pretty bool) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339Nano

	var base zerolog.Logger
	if pretty {
		base = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	} else {
		base = zerolog.New(os.Stdout)
	}
	log.Logger = base.With().Timestamp().Str("service", serviceName).Logger()
}

// Ctx 返回带有 trace_id、span_id 和 correlation_id 的日志实例。
// context 中挂载了 logger 时以它为基础，否则使用全局 logger。
func Ctx(ctx context.Context) *zerolog.Logger {
	l := log.Logger
	if cl := zerolog.Ctx(ctx); cl != nil && cl.GetLevel() != zerolog.Disabled {
		l = *cl
	}

	c := l.With()
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		c = c.Str("trace_id", sc.TraceID().String()).Str("span_id", sc.SpanID().String())
	}
	if id := correlation.FromContext(ctx); id != "" {
		c = c.Str("correlation_id", id)
	}
	out := c.Logger()
	return &out
}
