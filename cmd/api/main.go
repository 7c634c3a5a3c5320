package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"google.golang.org/grpc"

	"permitdesk.org/internal/audit"
	"permitdesk.org/internal/auth"
	"permitdesk.org/internal/config"
	"permitdesk.org/internal/httpapi"
	"permitdesk.org/internal/migrate"
	"permitdesk.org/internal/obs"
	"permitdesk.org/internal/permits"
	"permitdesk.org/internal/store/memory"
	"permitdesk.org/internal/store/sqlstore"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

// backend is what both the memory and SQL stores provide.
type backend interface {
	auth.UserStore
	permits.Store
	Ping(ctx context.Context) error
	Close() error
}

func main() {
	cfg, err := config.New()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	obs.Init()
	obs.InitBuildInfo(version, commit)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	st, err := openBackend(ctx, cfg)
	cancel()
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	defer st.Close()

	codec, err := auth.NewTokenCodec(cfg.JWTSecret, auth.WithIssuer(cfg.JWTIssuer), auth.WithTTL(cfg.JWTTTL))
	if err != nil {
		log.Fatalf("token codec: %v", err)
	}
	authSvc, err := auth.NewService(st, codec, auth.WithBcryptCost(cfg.BcryptCost))
	if err != nil {
		log.Fatalf("auth service: %v", err)
	}
	permitSvc, err := permits.NewService(st)
	if err != nil {
		log.Fatalf("permit service: %v", err)
	}

	if cfg.AdminEmail != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		created, err := authSvc.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword, cfg.AdminName)
		if err != nil {
			cancel()
			log.Fatalf("bootstrap admin: %v", err)
		}
		_ = audit.LogEvent(ctx, audit.AdminBootstrapped, map[string]any{"email": cfg.AdminEmail, "created": created})
		cancel()
	}

	readiness := httpapi.ReadyProbe{Store: st}
	api := httpapi.New(authSvc, permitSvc, readiness, httpapi.Options{
		Version:        version,
		Development:    cfg.Development(),
		CORSOrigins:    cfg.CORSOrigins,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		MaxBodyBytes:   cfg.MaxBodyBytes,
		TrustProxy:     cfg.TrustProxy,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	obs.Info("server_starting", map[string]any{
		"service":    "permitdesk-api",
		"version":    version,
		"addr":       srv.Addr,
		"env":        cfg.AppEnv,
		"db_adapter": cfg.DBAdapter,
	})

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	var grpcServer *grpc.Server
	if cfg.GRPCPort != "" {
		lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
		if err != nil {
			log.Fatalf("grpc listen: %v", err)
		}
		grpcServer = grpc.NewServer()
		httpapi.NewGRPCServer(readiness).Register(grpcServer)
		go func() {
			if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				log.Fatalf("grpc serve: %v", err)
			}
		}()
		obs.Info("grpc_starting", map[string]any{"addr": lis.Addr().String()})
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	obs.Info("server_stopping", nil)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		obs.Error("server_shutdown", err, nil)
	}
	if grpcServer != nil {
		grpcServer.GracefulStop()
	}
	obs.Info("server_stopped", nil)
}

func openBackend(ctx context.Context, cfg *config.Config) (backend, error) {
	switch cfg.DBAdapter {
	case config.AdapterMemory:
		return memory.New(), nil
	case config.AdapterSQLite:
		if dir := filepath.Dir(cfg.SQLiteFile); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create sqlite dir: %w", err)
			}
		}
		return sqlstore.Open(ctx, sqlstore.DriverSQLite, cfg.SQLiteFile)
	case config.AdapterPostgres:
		if cfg.MigrateOnStart {
			if err := migrateUp(ctx, cfg.PostgresDSN); err != nil {
				return nil, err
			}
		}
		return sqlstore.Open(ctx, sqlstore.DriverPostgres, cfg.PostgresDSN)
	}
	return nil, fmt.Errorf("unsupported DB_ADAPTER %q", cfg.DBAdapter)
}

func migrateUp(ctx context.Context, dsn string) error {
	mgr, err := migrate.Open(ctx, dsn)
	if err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	defer mgr.Close()
	from, to, err := mgr.Up(0)
	if err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}
	obs.Info("migrations_applied", map[string]any{"from": from, "to": to})
	return nil
}
