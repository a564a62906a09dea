package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/xxxsen/fshare/internal/config"
	"github.com/xxxsen/fshare/internal/db"
	"github.com/xxxsen/fshare/internal/handler"
	"github.com/xxxsen/fshare/internal/job"
	"github.com/xxxsen/fshare/internal/middleware"
	"github.com/xxxsen/fshare/internal/pkg/mimeutil"
	"github.com/xxxsen/fshare/internal/repo"
	"github.com/xxxsen/fshare/internal/sandbox"
	"github.com/xxxsen/fshare/internal/schedule"
	"github.com/xxxsen/fshare/internal/service"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "fshare",
		Short: "fshare storage and sharing backend",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run fshare server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))

			conn, err := db.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			if err := db.ApplyMigrations(conn); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return runServer(cfg, conn)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config, conn *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("storage_root", cfg.Storage.Root),
	)

	resolver, err := sandbox.NewResolver(cfg.Storage.Root)
	if err != nil {
		return fmt.Errorf("init resolver: %w", err)
	}
	if err := os.MkdirAll(resolver.Root(), 0o755); err != nil {
		return fmt.Errorf("init storage root: %w", err)
	}

	userRepo := repo.NewUserRepo(conn)
	shareRepo := repo.NewShareRepo(conn)

	directoryService := service.NewDirectoryService(resolver)
	shareService := service.NewShareService(shareRepo, userRepo, resolver)
	downloadService := service.NewDownloadService(resolver, mimeutil.NewDetector())

	deps := handler.RouterDeps{
		Files:       handler.NewFileHandler(directoryService, downloadService, resolver, cfg.Storage.UploadLimitBytes),
		Shares:      handler.NewShareHandler(shareService, downloadService),
		JWTSecret:   []byte(cfg.JWTSecret),
		ShareWindow: time.Duration(cfg.Storage.ShareWindowSec) * time.Second,
	}

	engine, err := webapi.NewEngine(
		"/",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.CORS(cfg.CORSOrigins),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := schedule.NewCronScheduler()
	sweep := job.NewUploadSweepJob(resolver.Root(), service.UploadTempPrefix, time.Duration(cfg.Storage.TempMaxAgeMinutes)*time.Minute)
	if err := scheduler.AddJob(sweep, cfg.Storage.TempSweepSpec); err != nil {
		return fmt.Errorf("schedule upload sweep: %w", err)
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))

	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
