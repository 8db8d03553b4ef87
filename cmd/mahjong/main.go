package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"sudooom.im.mahjong/internal/admin"
	"sudooom.im.mahjong/internal/config"
	"sudooom.im.mahjong/internal/game/analyzer"
	"sudooom.im.mahjong/internal/game/event"
	"sudooom.im.mahjong/internal/game/table"
	"sudooom.im.mahjong/internal/handler"
	"sudooom.im.mahjong/internal/health"
	"sudooom.im.mahjong/internal/logging"
	imNats "sudooom.im.mahjong/internal/nats"
	"sudooom.im.mahjong/internal/repository"
	"sudooom.im.mahjong/internal/room"
	"sudooom.im.mahjong/internal/service"
	"sudooom.im.mahjong/internal/session"
	"sudooom.im.mahjong/internal/task"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "mahjong",
	Short: "四人麻将牌桌引擎",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动牌桌引擎, 从 NATS 接收命令并推送事件",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return err
		}
		return serve(cfg)
	},
}

func init() {
	serveCmd.Flags().StringVar(&configFile, "config", "configs/config.yaml", "config file")
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serve(cfg *config.Config) error {
	logger := logging.New(os.Stdout, cfg.App.LogFormat, cfg.App.LogLevel, cfg.App.Name)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 连接 NATS
	natsClient, err := imNats.NewClient(cfg.NATS, cfg.App.Name)
	if err != nil {
		return fmt.Errorf("connect nats: %w", err)
	}
	defer natsClient.Close()
	logger.Info("Connected to NATS", "url", cfg.NATS.URL)

	// 连接 Redis
	redisClient := connectRedis(cfg.Redis)
	defer redisClient.Close()
	logger.Info("Connected to Redis", "addr", cfg.Redis.Addr())

	// 连接数据库
	db, err := connectDatabase(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()
	logger.Info("Connected to PostgreSQL", "host", cfg.Database.Host)

	rounds := repository.NewRoundRepository(db)
	if err := rounds.Migrate(ctx); err != nil {
		return err
	}

	// 超时调度
	scheduler := task.NewScheduler(cfg.Scheduler.Workers, cfg.Scheduler.Tick)
	if err := scheduler.Start(); err != nil {
		return err
	}
	defer scheduler.Stop()

	checker, err := analyzer.NewCachedChecker(cfg.Analyzer.CacheMaxCost)
	if err != nil {
		return err
	}
	defer checker.Close()

	// 事件出口: 推送给玩家, 同时记录对局
	publisher := imNats.NewEventPublisher(natsClient.Conn())
	recorder := service.NewRoundRecorder(rounds, service.RoundRecorderConfig{
		BatchSize:     cfg.Recorder.BatchSize,
		FlushInterval: cfg.Recorder.FlushInterval,
	})
	recorder.Start(ctx)
	sink := event.Tee{publisher, recorder}

	registry := room.NewRegistry(room.Options{
		MaxTables:     cfg.Table.MaxTables,
		IdleTimeout:   cfg.Table.IdleTimeout,
		EvictInterval: cfg.Table.EvictInterval,
		Directory:     session.NewRedisDirectory(redisClient, cfg.Redis.SessionTTL),
		Table: table.Options{
			ClaimTimeout: cfg.Table.ClaimTimeout,
			Timer:        scheduler,
			Sink:         sink,
			WinChecker:   checker,
		},
	})

	cmdHandler := handler.NewCommandHandler(registry, publisher)
	subscriber := imNats.NewCommandSubscriber(natsClient.Conn(), cmdHandler, imNats.SubscriberConfig{
		WorkerCount: cfg.Subscriber.WorkerCount,
		BufferSize:  cfg.Subscriber.BufferSize,
	})
	if err := subscriber.Start(ctx); err != nil {
		return fmt.Errorf("start subscriber: %w", err)
	}

	// 健康检查与管理接口
	healthChecker := health.NewChecker(
		cfg.App.Name,
		natsClient,
		health.PingFunc(func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }),
		db,
		registry,
	)
	router := admin.SetupRouter(gin.ReleaseMode, healthChecker, admin.NewTableHandler(registry, rounds))
	server := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: router,
	}
	go func() {
		logger.Info("Admin server started", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Admin server failed", "error", err)
		}
	}()

	logger.Info("Mahjong engine started", "name", cfg.App.Name)

	// 优雅退出
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := subscriber.Stop(); err != nil {
		logger.Warn("Failed to stop subscriber", "error", err)
	}
	if err := registry.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Registry shutdown incomplete", "error", err)
	}
	recorder.Stop()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Admin server shutdown failed", "error", err)
	}
	cancel()

	logger.Info("Mahjong engine stopped")
	return nil
}

// connectRedis 连接 Redis
func connectRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

// connectDatabase 连接 PostgreSQL
func connectDatabase(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, err
	}

	poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime
	poolConfig.MaxConnIdleTime = 10 * time.Minute

	return pgxpool.NewWithConfig(ctx, poolConfig)
}
