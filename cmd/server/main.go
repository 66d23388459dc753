package main

import (
	"context"
	"crypto/rand"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/iudanet/syncstore/internal/config"
	"github.com/iudanet/syncstore/internal/crypto"
	"github.com/iudanet/syncstore/internal/discovery"
	"github.com/iudanet/syncstore/internal/server"
	"github.com/iudanet/syncstore/internal/server/arbitrator"
	"github.com/iudanet/syncstore/internal/server/handlers"
	"github.com/iudanet/syncstore/internal/server/middleware"
	"github.com/iudanet/syncstore/internal/server/storage/sqlite"
	"github.com/iudanet/syncstore/internal/server/ticket"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

const shutdownTimeout = 10 * time.Second

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	genSalt := flag.Bool("gen-salt", false, "Print a new ticket-salt value and exit")
	configPath := flag.String("config", "", "Path to the TOML configuration")
	listenAddr := flag.String("listen", "", "TCP address peers connect to")
	adminAddr := flag.String("admin", "", "HTTP address for /health and /metrics")
	dbPath := flag.String("db", "", "Path to the counter database")
	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}
	if *genSalt {
		salt, err := crypto.GenerateSaltBase64()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(salt)
		os.Exit(0)
	}

	cfg, err := config.LoadServer(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	// Флаги имеют приоритет над файлом
	if *listenAddr != "" {
		cfg.ListenAddr = *listenAddr
	}
	if *adminAddr != "" {
		cfg.AdminAddr = *adminAddr
	}
	if *dbPath != "" {
		cfg.DatabasePath = *dbPath
	}

	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	handlers.Version = Version

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func run(ctx context.Context, cfg *config.Server, logger *slog.Logger) error {
	store, err := sqlite.New(ctx, cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close storage", "error", err)
		}
	}()

	key, err := ticketKey(cfg)
	if err != nil {
		return err
	}
	tickets := ticket.NewService(key, cfg.TicketTTL)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	arbCfg := arbitrator.DefaultConfig()
	arbCfg.ReservationTTL = cfg.ReservationTTL
	arbCfg.CatchUpTimeout = cfg.CatchUpTimeout
	arb := arbitrator.New(store, arbitrator.NewMetrics(reg), arbCfg, logger)
	if err := arb.Load(ctx); err != nil {
		return fmt.Errorf("failed to load counters: %w", err)
	}

	ln, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.ListenAddr, err)
	}
	ln = middleware.LimitListener(ln, middleware.NewRateLimiter(cfg.AcceptRate, cfg.AcceptWindow, logger))

	srv := server.New(arb, tickets, server.Options{
		RequestTimeout: cfg.RequestTimeout,
		MaxPayload:     cfg.MaxPayload,
	}, logger)

	if cfg.InstanceName != "" {
		announcer, err := discovery.Announce(cfg.InstanceName, ln.Addr().String(), Version)
		if err != nil {
			logger.Warn("failed to announce over mDNS", "error", err)
		} else {
			logger.Info("announced over mDNS", "instance", cfg.InstanceName)
			defer announcer.Stop()
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		arb.Run(gctx)
		return nil
	})
	g.Go(func() error {
		return srv.Serve(gctx, ln)
	})

	if cfg.AdminAddr != "" {
		router := handlers.NewRouter(handlers.NewHealthHandler(logger, arb), reg)
		admin := &http.Server{
			Addr:              cfg.AdminAddr,
			Handler:           middleware.Chain(router, middleware.Logging(logger, "/metrics"), middleware.Recovery(logger)),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			logger.Info("admin server listening", "addr", cfg.AdminAddr)
			if err := admin.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("admin server failed: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return admin.Shutdown(shutdownCtx)
		})
	}

	return g.Wait()
}

// ticketKey derives the signing key; without a secret tickets are valid until restart
func ticketKey(cfg *config.Server) ([]byte, error) {
	if cfg.TicketSecret == "" {
		key := make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("failed to generate ticket key: %w", err)
		}
		return key, nil
	}
	salt, err := crypto.DecodeSalt(cfg.TicketSalt)
	if err != nil {
		return nil, err
	}
	return crypto.DeriveTicketKey(cfg.TicketSecret, salt)
}

func printVersion() {
	fmt.Printf("SyncStore Server\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
