// Package main runs the loan and savings calculator API server.
package main

import (
	"cmp"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/atinyakov/loancalc/internal/cache"
	"github.com/atinyakov/loancalc/internal/config"
	"github.com/atinyakov/loancalc/internal/db"
	"github.com/atinyakov/loancalc/internal/logger"
	"github.com/atinyakov/loancalc/internal/mailer"
	"github.com/atinyakov/loancalc/internal/repository"
	"github.com/atinyakov/loancalc/internal/server/handler/http"
	"github.com/atinyakov/loancalc/internal/service"
	"github.com/atinyakov/loancalc/internal/token"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

const shutdownTimeout = 10 * time.Second

// app carries the state shared by every command after initConfig ran.
type app struct {
	v       *viper.Viper
	options *config.Options
	log     *logger.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.New(), log: logger.New()}

	root := &cobra.Command{
		Use:               "loancalc",
		Short:             "Loan and savings calculator API",
		SilenceUsage:      true,
		PersistentPreRunE: a.initConfig,
		RunE:              a.serve,
	}
	if err := config.RegisterFlags(a.v, root.PersistentFlags()); err != nil {
		panic(err)
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API (default)",
			RunE:  a.serve,
		},
		&cobra.Command{
			Use:   "seed",
			Short: "Create the schema, the admin account and the default calculators",
			RunE:  a.seed,
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print build metadata",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "Build version: %s\nBuild date: %s\n",
					cmp.Or(version, "N/A"), cmp.Or(buildDate, "N/A"))
			},
		},
	)
	return root
}

func (a *app) initConfig(_ *cobra.Command, _ []string) error {
	opts, err := config.Load(a.v)
	if err != nil {
		return err
	}
	a.options = opts

	if err := a.log.Init(opts.Logging.Level); err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	return nil
}

func (a *app) seed(cmd *cobra.Command, _ []string) error {
	zapLogger := a.log.Log
	defer func() { _ = zapLogger.Sync() }()

	if a.options.Database.DSN == "" {
		return errors.New("database dsn is required")
	}

	postgresDB, err := db.InitPostgres(a.options.Database.DSN)
	if err != nil {
		return err
	}
	defer postgresDB.Close()

	return db.Seed(cmd.Context(),
		repository.NewPostgresAuthRepository(postgresDB),
		repository.NewPostgresCalculatorRepository(postgresDB),
		adminAccount(a.options),
		zapLogger,
	)
}

func (a *app) serve(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	opts := a.options
	zapLogger := a.log.Log
	defer func() { _ = zapLogger.Sync() }()

	zapLogger.Info("build info",
		zap.String("version", cmp.Or(version, "N/A")),
		zap.String("date", cmp.Or(buildDate, "N/A")),
	)

	if err := opts.Validate(); err != nil {
		return err
	}

	// Initialize PostgreSQL connection and first-boot data.
	postgresDB, err := db.InitPostgres(opts.Database.DSN)
	if err != nil {
		return fmt.Errorf("cannot init database: %w", err)
	}
	defer postgresDB.Close()

	authRepo := repository.NewPostgresAuthRepository(postgresDB)
	calcRepo := repository.NewPostgresCalculatorRepository(postgresDB)

	if err := db.Seed(ctx, authRepo, calcRepo, adminAccount(opts), zapLogger); err != nil {
		return err
	}
	if err := db.AuditActiveDuplicates(ctx, calcRepo, zapLogger); err != nil {
		zapLogger.Error("failed to audit active calculators", zap.Error(err))
	}
	if opts.Database.AuditInterval > 0 {
		db.StartDuplicateAuditor(ctx, calcRepo, opts.Database.AuditInterval, zapLogger)
	}

	configCache, closeCache := newConfigCache(ctx, opts.Redis, zapLogger)
	defer closeCache()

	// Initialize business-logic services.
	tokens := token.NewManager(opts.Auth.JWTSecret, opts.Auth.TokenTTL)
	authService := service.NewAuthService(authRepo, tokens, zapLogger)
	catalogService := service.NewCatalogService(calcRepo, configCache, zapLogger)
	calcService := service.NewCalculationService(catalogService)
	notifyService := service.NewNotificationService(newMailer(opts.SMTP, zapLogger), zapLogger)

	limiter := http.NewRateLimiter(opts.RateLimit.Capacity, opts.RateLimit.Window)
	defer limiter.Stop()

	router := http.NewRouter(http.Handlers{
		Auth: &http.AuthHandler{AuthService: authService, Logger: zapLogger},
		Calculators: &http.CalculatorHandler{
			Catalog:      catalogService,
			Calculations: calcService,
			Notifier:     notifyService,
			Logger:       zapLogger,
		},
		Admin:  &http.AdminHandler{Catalog: catalogService, Logger: zapLogger},
		Health: &http.HealthHandler{DB: postgresDB, Logger: zapLogger},
	}, tokens, limiter, zapLogger)

	server := &nethttp.Server{
		Addr:         opts.Server.Address,
		Handler:      router,
		ReadTimeout:  opts.Server.ReadTimeout,
		WriteTimeout: opts.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}
	if opts.Server.TLS() {
		server.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	serverErr := make(chan error, 1)
	go func() {
		zapLogger.Info("starting server", zap.String("addr", server.Addr), zap.Bool("tls", opts.Server.TLS()))
		var err error
		if opts.Server.TLS() {
			err = server.ListenAndServeTLS(opts.Server.TLSCert, opts.Server.TLSKey)
		} else {
			err = server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
		zapLogger.Info("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	zapLogger.Info("server exited")
	return nil
}

func adminAccount(opts *config.Options) db.AdminAccount {
	return db.AdminAccount{
		Name:     "Admin",
		Email:    service.NormalizeEmail(opts.Seed.AdminEmail),
		Password: opts.Seed.AdminPassword,
	}
}

// newConfigCache uses Redis when an address is configured and reachable, and
// process memory otherwise.
func newConfigCache(ctx context.Context, opts config.RedisOptions, log *zap.Logger) (service.ConfigCache, func()) {
	if opts.Addr == "" {
		return cache.NewMemory(opts.TTL), func() {}
	}

	rc := cache.NewRedis(opts.Addr, opts.TTL)
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rc.Ping(pingCtx); err != nil {
		log.Warn("redis unavailable, caching in memory", zap.String("addr", opts.Addr), zap.Error(err))
		_ = rc.Close()
		return cache.NewMemory(opts.TTL), func() {}
	}
	return rc, func() { _ = rc.Close() }
}

func newMailer(opts config.SMTPOptions, log *zap.Logger) service.Mailer {
	if opts.Host == "" {
		log.Warn("smtp host not configured, emails will only be logged")
		return mailer.NewLog(log)
	}
	return mailer.NewSMTP(opts.Host, opts.Port, opts.Username, opts.Password, opts.From)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
