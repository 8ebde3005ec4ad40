package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"SupportChat/global/config"
	"SupportChat/logger"
	"SupportChat/middleware"
	midsec "SupportChat/middleware/security"
	"SupportChat/module/chat/auth"
	"SupportChat/module/chat/directory"
	"SupportChat/module/chat/groupinfo"
	"SupportChat/module/chat/message"
	"SupportChat/module/chat/presence"
	"SupportChat/service/chat"
	"SupportChat/service/chat/handlers"
	redis "SupportChat/service/storage/redis"
	"SupportChat/tools/safe"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		logger.Error("server exited", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
	logger.Sync()
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		return err
	}

	// 配置日志与生成的ids
	config.ConfigLogger(cfg)
	config.ConfigIds(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb, err := config.ConfigRedis(cfg)
	if err != nil {
		return err
	}
	// Mongo 单独的生命周期：收尾 flush 完成后再断开
	mctx, mcancel := context.WithCancel(context.Background())
	defer mcancel()
	mgr := config.ConfigMgo(mctx, cfg)
	nc, err := config.ConfigNats(cfg)
	if err != nil {
		return err
	}

	dir := directory.NewMongoDirectory(mgr.TryGetDB)
	store := message.NewMongoStore(mgr.TryGetDB)
	msgLog := message.NewLog(message.NewRedisBuffer(rdb, cfg.BatchKey), store, message.Options{
		Threshold: cfg.FlushBatchSize,
		Interval:  cfg.FlushInterval(),
	})

	var bg safe.Group
	bg.Go("mongo.indexes", func() {
		if err := mgr.WaitReady(ctx); err != nil {
			return
		}
		ictx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := store.EnsureIndexes(ictx); err != nil {
			logger.Warn("[Mongo] ensure indexes failed", zap.Error(err))
		}
	})
	bg.Go("message.flush", func() { msgLog.Run(ctx) })

	hub := chat.NewConnManager()
	tracker := presence.NewTracker()
	groups := groupinfo.NewResolver(dir, tracker, cfg.DefaultGroupTitle)
	verifier := auth.NewTokenVerifier(cfg.JwtOptions())
	authorizer := auth.NewAuthorizer(dir)
	origins := middleware.NewOriginSet(cfg.CorsOrigins)

	var notifier chat.Notifier = chat.NewLocalNotifier(hub)
	if nc != nil {
		nn := chat.NewNatsNotifier(nc, cfg.NotifySubject, hub)
		if err := nn.Start(ctx); err != nil {
			return err
		}
		notifier = nn
		logger.Info("[Notify] relay via nats", zap.String("subject", cfg.NotifySubject))
	}

	deps := chat.Deps{
		Verifier:    verifier,
		Authorizer:  authorizer,
		Names:       auth.NewIdentityResolver(dir, cfg.AdminDisplayName),
		Presence:    tracker,
		Log:         msgLog,
		Groups:      groups,
		Notifier:    notifier,
		Hub:         hub,
		CheckOrigin: origins.CheckOrigin,
	}

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := chat.NewRouter(chat.RouterDeps{
		Chat:      chat.NewGateway(chat.ScopeChat, deps),
		Notify:    chat.NewGateway(chat.ScopeNotify, deps),
		History:   handlers.NewHistoryHandler(msgLog),
		GroupInfo: handlers.NewGroupInfoHandler(groups),
		Auth:      midsec.Middleware(midsec.Options{Verifier: verifier, Authorizer: authorizer}),
		Origins:   origins,
		Paths: chat.Paths{
			ChatWs:    cfg.ChatWsPath,
			NotifyWs:  cfg.NotifyWsPath,
			History:   cfg.HistoryPath,
			GroupInfo: cfg.GroupInfoPath,
		},
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	safe.SafeGo("http.serve", func() {
		logger.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	})

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serveErr:
		if err != nil {
			stop()
			logger.Error("HTTP server failed", zap.Error(err))
		}
	}

	// 关闭顺序：HTTP -> websocket 连接 -> flush 收尾 -> 外部客户端
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		logger.Warn("HTTP shutdown", zap.Error(err))
	}
	logger.Info("closing websocket connections", zap.Int("count", hub.CloseAll()))
	stop()
	bg.Wait()
	msgLog.Wait()
	mcancel()

	if nc != nil {
		if err := nc.Close(); err != nil {
			logger.Warn("[Nats] close", zap.Error(err))
		}
	}
	if err := redis.CloseRedis(); err != nil {
		logger.Warn("[Redis] close", zap.Error(err))
	}
	select {
	case <-mgr.Done():
	case <-time.After(5 * time.Second):
		logger.Warn("[Mongo] disconnect timed out")
	}
	return nil
}
