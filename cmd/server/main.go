package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/brewhaven/internal/app"
	"github.com/Skotchmaster/brewhaven/internal/config"
	"github.com/Skotchmaster/brewhaven/internal/httpserver"
	"github.com/Skotchmaster/brewhaven/internal/logging"
	pkgconfig "github.com/Skotchmaster/brewhaven/pkg/config"
	loggingmw "github.com/Skotchmaster/brewhaven/pkg/middleware/logging"
)

// set with -ldflags "-X main.BuildTime=..."
var BuildTime = "unknown"

func main() {
	cfg := config.Load()
	pkgconfig.MustNonEmptyBytes(cfg.JWTSecret, "JWT_SECRET")

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	initCtx, cancel := context.WithTimeout(logging.IntoContext(context.Background(), logger), 30*time.Second)
	store, err := app.OpenStore(initCtx, cfg)
	if err != nil {
		cancel()
		log.Fatalf("store init error: %v", err)
	}

	a, err := app.Build(initCtx, cfg, store, BuildTime)
	if err != nil {
		cancel()
		log.Fatalf("app init error: %v", err)
	}

	// the listener only opens once the catalog exists
	rep, err := a.Seeder.EnsureSeeded(initCtx)
	cancel()
	if err != nil {
		log.Fatalf("seed error: %v", err)
	}
	logger.Info("catalog_ready", "already_seeded", rep.AlreadySeeded, "created", rep.Created, "skipped", rep.Skipped)

	e := echo.New()
	e.HideBanner = true

	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(middleware.CORS())

	httpserver.Register(e, a.Deps())

	port := strconv.Itoa(cfg.ServerPort)
	go func() {
		logger.Info("server_starting", "port", port, "store_driver", cfg.StoreDriver, "version", cfg.Version)
		if err := e.Start(":" + port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("echo start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("echo shutdown: %v", err)
	}
	if err := a.Close(shutdownCtx); err != nil {
		log.Printf("close: %v", err)
	}

	log.Println("Server stopped")
}
