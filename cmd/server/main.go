package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata" // 确保在精简镜像中也能识别时区

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/user/moovie/internal/config"
	"github.com/user/moovie/internal/handler"
	"github.com/user/moovie/internal/logging"
	"github.com/user/moovie/internal/recommend"
	"github.com/user/moovie/internal/repository"
	"github.com/user/moovie/internal/router"
	"github.com/user/moovie/internal/service"
	"github.com/user/moovie/internal/tmdb"
)

func main() {
	// 加载环境变量
	envErr := godotenv.Load()

	cfg := config.Load()
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if envErr != nil {
		logging.Debug().Msg("no .env file, using process environment")
	}

	warnings, err := cfg.Validate()
	if err != nil {
		logging.Fatal().Err(err).Msg("invalid configuration")
	}
	for _, w := range warnings {
		logging.Warn().Msg(w)
	}

	// 初始化数据库
	db, err := repository.InitDB(cfg.DatabaseURL)
	if err != nil {
		logging.Fatal().Err(err).Msg("database connection failed")
	}
	sqlDB, _ := db.DB()
	defer sqlDB.Close()

	if err := repository.Migrate(db); err != nil {
		logging.Fatal().Err(err).Msg("database migration failed")
	}
	repos := repository.NewRepositories(db)

	// TMDB 客户端全局只创建一个，由各服务共享
	tmdbClient := tmdb.NewClient(cfg.TMDB)
	importer := service.NewTMDBService(repos, tmdbClient, cfg.BulkImportMax, cfg.BulkImportConcurrency)
	engine := recommend.NewEngine(service.NewRatingSource(repos.Rating), service.NewCatalogAdapter(tmdbClient))

	bgCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()
	var syncDone <-chan struct{}
	if tmdbClient.Configured() {
		syncDone = service.NewGenreSyncer(importer, cfg.GenreSyncInterval, cfg.TMDB.Timeout).Start(bgCtx)
	}

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	h := handler.NewHandler(repos, cfg, tmdbClient, importer, engine)
	r := router.Setup(h)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	// 在 goroutine 中启动服务器，主 goroutine 等待信号
	go func() {
		logging.Info().Str("addr", srv.Addr).Str("env", cfg.Env).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logging.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Error().Err(err).Msg("forced shutdown")
	}

	// 等待后台同步退出后再关闭数据库
	stopBackground()
	if syncDone != nil {
		select {
		case <-syncDone:
		case <-ctx.Done():
			logging.Warn().Msg("genre sync did not stop before shutdown deadline")
		}
	}
	logging.Info().Msg("server exited")
}
