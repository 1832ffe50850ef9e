// File: cmd/catalog-server/main.go
package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	_ "github.com/lib/pq"
	"github.com/nats-io/nats.go"
	"github.com/robfig/cron/v3"

	"catalog-self/internal/middleware"
	"catalog-self/internal/modules/catalog/handler"
	"catalog-self/internal/modules/catalog/repository"
	"catalog-self/internal/modules/catalog/service"
	"catalog-self/internal/pkg/config"
	"catalog-self/internal/pkg/correlation"
	"catalog-self/internal/pkg/log"
	"catalog-self/internal/pkg/messaging"
	"catalog-self/internal/pkg/metrics"
	"catalog-self/internal/pkg/redis"
	"catalog-self/internal/pkg/response"
	"catalog-self/internal/pkg/security"
	"catalog-self/internal/pkg/validator"
	"catalog-self/internal/pkg/xerrors"
)

func main() {
	cfg := config.Load()

	log.Init(parseLogLevel(cfg.Logging.Level), cfg.Service.Environment)
	log.Info("启动 Catalog Server...")

	metrics.SetServiceName(cfg.Service.Name)

	// 数据库
	if cfg.Database.URL == "" {
		log.Error("DATABASE_URL 未配置", nil)
		return
	}
	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Error("打开数据库失败", err)
		return
	}
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	if err := db.PingContext(pingCtx); err != nil {
		cancelPing()
		log.Error("数据库连接失败", err)
		return
	}
	cancelPing()
	defer db.Close()
	log.Info("数据库连接成功")

	// Redis（连接失败时降级为无缓存运行）
	var cache *redis.Client
	cache, err = redis.NewClient(redis.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, cfg.Service.Name)
	if err != nil {
		log.Warn("Redis 连接失败，缓存功能关闭", log.Any("error", err))
		cache = nil
	} else {
		log.Info("Redis 连接成功")
	}

	// NATS
	nc, err := nats.Connect(cfg.NATS.URL,
		nats.MaxReconnects(cfg.NATS.MaxReconnects),
		nats.ReconnectWait(cfg.NATS.ReconnectWait),
	)
	if err != nil {
		log.Error("连接 NATS 失败", err)
		return
	}
	defer nc.Close()
	log.Info("NATS 地址: " + cfg.NATS.URL)

	// 异步执行器（关联标识随任务传播）
	executor := correlation.NewExecutor(cfg.Executor.Workers, cfg.Executor.QueueSize)

	// 业务装配
	repo := repository.NewPostgresRepository(db)
	publisher := messaging.NewPublisher(nc, cfg.Service.Name)
	productService := service.NewProductService(repo, cache, publisher, executor, cfg.Redis.CacheTTL)

	respWriter := response.NewWriter(log.GetLogger())

	// 事件消费：其他实例的商品变更会使本实例缓存失效
	consumer := messaging.NewConsumer(nc, cfg.NATS.Queue, cfg.Service.Name)
	invalidate := func(ctx context.Context, event *messaging.ProductEvent) error {
		productService.InvalidateProduct(ctx, event.ProductID)
		return nil
	}
	for _, subject := range []string{
		messaging.SubjectProductUpdated,
		messaging.SubjectProductDeleted,
		messaging.SubjectProductStatusChanged,
	} {
		if err := consumer.Subscribe(subject, invalidate); err != nil {
			log.Error("事件订阅失败", err, log.String("subject", subject))
			return
		}
	}

	// NATS 健康检查
	healthChecker := messaging.NewHealthChecker(nc, 10*time.Second)
	rootCtx, cancelRoot := context.WithCancel(context.Background())
	defer cancelRoot()
	go healthChecker.Start(rootCtx)

	// 定时预热已上架商品缓存
	scheduler := cron.New()
	_, err = scheduler.AddFunc("@every 10m", func() {
		ctx := correlation.NewContext(context.Background())
		if err := productService.WarmActiveProducts(ctx); err != nil {
			log.Error("缓存预热任务失败", err)
		}
	})
	if err != nil {
		log.Error("注册缓存预热任务失败", err)
		return
	}
	scheduler.Start()

	// HTTP 服务器
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validator.New()
	e.HTTPErrorHandler = newHTTPErrorHandler(respWriter)

	e.Use(security.CORSMiddleware())
	e.Use(security.SecurityHeadersMiddleware())
	e.Use(middleware.CorrelationMiddleware())
	e.Use(middleware.LoggingMiddleware(log.GetLogger()))
	e.Use(metrics.Middleware(cfg.Service.Name))
	e.Use(middleware.RecoveryMiddleware(respWriter, log.GetLogger()))
	e.Use(middleware.ErrorMiddleware(respWriter, log.GetLogger()))
	e.Use(middleware.RateLimitMiddleware())

	e.GET("/health", healthHandler(db, cache, healthChecker))
	e.GET("/metrics", metrics.EchoHandler())

	api := e.Group("/api/v1")
	productHandler := handler.NewProductHandler(productService, respWriter)
	productHandler.Register(api)

	// 启动
	addr := cfg.HTTP.Host + ":" + strconv.Itoa(cfg.HTTP.Port)
	go func() {
		log.Info("Catalog Server 监听 " + addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Error("服务启动失败", err)
			os.Exit(1)
		}
	}()

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("正在关闭服务...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP 服务关闭失败", err)
	}

	scheduler.Stop()
	healthChecker.Stop()

	if err := consumer.Drain(); err != nil {
		log.Error("事件消费排空失败", err)
	}
	if err := executor.Shutdown(shutdownCtx); err != nil {
		log.Error("执行器关闭超时", err)
	}

	log.Info("服务已安全关闭")
}

// newHTTPErrorHandler 兜底错误处理器。
// 处理路由未命中等未经过错误中间件的错误，关联标识从 Echo context 补齐。
func newHTTPErrorHandler(respWriter response.Writer) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var appErr *xerrors.AppError
		switch e := err.(type) {
		case *xerrors.AppError:
			appErr = e
		case *echo.HTTPError:
			if e.Code == http.StatusNotFound {
				appErr = xerrors.FromCode(xerrors.CodeResourceNotFound)
			} else {
				appErr = xerrors.NewWithError(xerrors.CodeInternalError, "系统内部错误", e)
			}
		default:
			appErr = xerrors.NewWithError(xerrors.CodeInternalError, "系统内部错误", err)
		}

		traceID, _ := c.Get("trace_id").(string)
		requestID, _ := c.Get("request_id").(string)
		appErr = appErr.WithCorrelation(traceID, requestID)

		_ = respWriter.WriteError(c.Request().Context(), c.Response().Writer, appErr)
	}
}

// healthHandler 健康检查：数据库、缓存、消息队列
func healthHandler(db *sql.DB, cache *redis.Client, hc *messaging.HealthChecker) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()

		status := map[string]string{
			"database": "ok",
			"cache":    "disabled",
			"nats":     "ok",
		}
		healthy := true

		if err := db.PingContext(ctx); err != nil {
			status["database"] = "down"
			healthy = false
		}
		if cache != nil {
			status["cache"] = "ok"
			if err := cache.Ping(ctx).Err(); err != nil {
				status["cache"] = "down"
				healthy = false
			}
		}
		if !hc.IsHealthy() {
			status["nats"] = "down"
			healthy = false
		}

		code := http.StatusOK
		if !healthy {
			code = http.StatusServiceUnavailable
		}
		return c.JSON(code, status)
	}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
