// internal/pkg/bootstrap/app.go
package bootstrap

import (
	"context"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"fulfillment/internal/pkg/logger"
	"fulfillment/internal/pkg/nacos"
	"fulfillment/internal/pkg/tracing"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// AppCtx 是注册路由时可以使用的公共组件。
type AppCtx struct {
	Mux    *http.ServeMux
	Nacos  *nacos.Client // 未配置 Nacos 时为 nil
	Config *Config

	shutdownHooks []func(ctx context.Context) error
}

// OnShutdown 注册一个关停时执行的清理函数，按注册的逆序执行。
func (a *AppCtx) OnShutdown(fn func(ctx context.Context) error) {
	a.shutdownHooks = append(a.shutdownHooks, fn)
}

func (a *AppCtx) runShutdownHooks(ctx context.Context) {
	for i := len(a.shutdownHooks) - 1; i >= 0; i-- {
		if err := a.shutdownHooks[i](ctx); err != nil {
			log.Error().Err(err).Msg("Error running shutdown hook")
		}
	}
	a.shutdownHooks = nil
}

// AppInfo 包含了启动一个微服务所需的所有特定信息。
type AppInfo struct {
	ServiceName      string
	Config           *Config
	RegisterHandlers func(appCtx *AppCtx) error // 每个服务在这里组装依赖并注册自己的路由
}

// StartService 封装了所有微服务的通用启动和优雅关停逻辑，阻塞到收到退出信号。
func StartService(info AppInfo) error {
	cfg := info.Config
	if cfg == nil {
		cfg = GetCurrentConfig()
	}
	logger.Init(info.ServiceName, cfg.Log.Level, cfg.Log.Pretty)

	tp, err := tracing.InitTracerProvider(info.ServiceName, cfg.Infra.Jaeger.Endpoint)
	if err != nil {
		return errors.Wrap(err, "failed to initialize tracer provider")
	}

	appCtx := &AppCtx{Mux: http.NewServeMux(), Config: cfg}
	appCtx.Mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	appCtx.Mux.Handle("/metrics", promhttp.Handler())
	appCtx.OnShutdown(tp.Shutdown)

	// 启动失败时同样释放已经创建的资源
	abort := func(err error) error {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if appCtx.Nacos != nil {
			appCtx.Nacos.Close()
		}
		appCtx.runShutdownHooks(ctx)
		return err
	}

	var ip string
	if cfg.Infra.Nacos.Addrs != "" {
		namingClient, err := nacos.NewNacosClient(cfg.Infra.Nacos.Addrs, cfg.Infra.Nacos.Namespace, cfg.Infra.Nacos.Group)
		if err != nil {
			return abort(err)
		}
		appCtx.Nacos = namingClient
	}

	if info.RegisterHandlers != nil {
		if err := info.RegisterHandlers(appCtx); err != nil {
			return abort(errors.Wrapf(err, "failed to wire %s", info.ServiceName))
		}
	}

	if appCtx.Nacos != nil && cfg.Infra.Nacos.Register {
		if ip, err = getOutboundIP(); err != nil {
			return abort(errors.Wrap(err, "failed to get outbound IP address"))
		}
		if err := appCtx.Nacos.RegisterServiceInstance(info.ServiceName, ip, cfg.Server.Port); err != nil {
			return abort(err)
		}
	}

	server := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Server.Port),
		Handler:           appCtx.Mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(sigCtx)

	g.Go(func() error {
		log.Info().Str("service", info.ServiceName).Int("port", cfg.Server.Port).Msg("✅ listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrapf(err, "could not listen on %s", server.Addr)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Str("service", info.ServiceName).Msg("🛑 Shutting down service...")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		// 先从注册中心摘除，再停止接收请求
		if appCtx.Nacos != nil {
			if ip != "" {
				if err := appCtx.Nacos.DeregisterServiceInstance(info.ServiceName, ip, cfg.Server.Port); err != nil {
					log.Error().Err(err).Msg("Error deregistering from Nacos")
				}
			}
			appCtx.Nacos.Close()
		}

		if err := server.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("Error shutting down http server")
		}

		// Tracer Provider 最先注册，最后关闭，确保所有缓冲的 trace 都被发送出去
		appCtx.runShutdownHooks(ctx)
		log.Info().Str("service", info.ServiceName).Msg("Service gracefully shut down.")
		return nil
	})

	return g.Wait()
}

// getOutboundIP 通过一次 UDP "连接" 找出本机对外的地址，不会真正发包。
func getOutboundIP() (string, error) {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "", err
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).IP.String(), nil
}
