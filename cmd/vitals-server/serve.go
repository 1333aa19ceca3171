package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/BrandonDHaskell/vitals/server/internal/config"
	"github.com/BrandonDHaskell/vitals/server/internal/db"
	"github.com/BrandonDHaskell/vitals/server/internal/grpcapi"
	"github.com/BrandonDHaskell/vitals/server/internal/httpapi"
	"github.com/BrandonDHaskell/vitals/server/internal/logging"
	"github.com/BrandonDHaskell/vitals/server/internal/vitals/auth"
	"github.com/BrandonDHaskell/vitals/server/internal/vitals/service"
	sqlitestore "github.com/BrandonDHaskell/vitals/server/internal/vitals/store/sqlite"
)

func runServer(parent context.Context, cfg config.Config) error {
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, "vitals-server")
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Storage. A database that cannot be opened or migrated is fatal.
	conn, err := db.Open(ctx, db.Config{Path: cfg.DBPath, Env: cfg.Env})
	if err != nil {
		logger.Error("open database", zap.String("path", cfg.DBPath), zap.Error(err))
		return err
	}
	defer conn.Close()

	writer := db.NewWorker(conn)
	defer writer.Close()

	patients := cfg.PatientMap()
	if patients == nil {
		patients = service.DefaultPatients()
	}
	directory := service.NewPatientDirectory(patients)

	if cfg.SeedDemo {
		n, err := db.SeedDev(ctx, conn, db.SeedDevOptions{Patients: patients})
		if err != nil {
			return err
		}
		logger.Info("demo vitals seeded", zap.Int("rows", n))
	}

	// Auth.
	creds := make([]auth.Credential, 0, len(cfg.Users))
	for _, u := range cfg.Users {
		role, err := auth.ParseRole(u.Role)
		if err != nil {
			return fmt.Errorf("credentials %s: user %q: %w", cfg.CredentialsFile, u.Username, err)
		}
		creds = append(creds, auth.Credential{Username: u.Username, PasswordHash: u.PasswordHash, Role: role})
	}
	authenticator, err := auth.NewAuthenticator(creds)
	if err != nil {
		return err
	}
	if authenticator.Len() == 0 {
		logger.Warn("no credentials loaded; every login will fail", zap.String("credentials_file", cfg.CredentialsFile))
	}

	secret := []byte(cfg.SessionSecret)
	if len(secret) == 0 {
		// Only reachable in dev; prod config requires a secret.
		secret, err = randomSecret()
		if err != nil {
			return err
		}
		logger.Warn("VITALS_SESSION_SECRET not set; sessions will not survive a restart")
	}

	sessions, err := auth.NewManager(authenticator, auth.ManagerConfig{
		Secret:  secret,
		IdleTTL: cfg.SessionIdleTTL(),
	}, logger.Named("auth"))
	if err != nil {
		return err
	}

	sweeper := auth.NewSweeper(sessions, cfg.SessionSweepInterval(), logger.Named("sweeper"))
	sweeper.Start(ctx)
	defer sweeper.Stop()

	// Services.
	vitalSvc := service.NewVitalService(
		sqlitestore.NewVitalStore(conn, writer),
		directory,
		auth.NewGate(sessions, logger.Named("gate")),
		service.Options{Logger: logger.Named("vitals")},
	)

	// Transport.
	srv := httpapi.NewServer(httpapi.Dependencies{
		Logger:       logger.Named("http"),
		Addr:         cfg.HTTPAddr,
		VitalService: vitalSvc,
		Sessions:     sessions,
		DB:           conn,
	})

	var health *grpcapi.Server
	var grpcLis net.Listener
	if cfg.GRPCAddr != "" {
		grpcLis, err = net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			return fmt.Errorf("grpc listen %s: %w", cfg.GRPCAddr, err)
		}
		health = grpcapi.NewServer(conn, logger.Named("grpc"))
	}

	errCh := make(chan error, 2)

	go func() {
		logger.Info("listening",
			zap.String("addr", cfg.HTTPAddr),
			zap.String("env", cfg.Env),
			zap.String("db", cfg.DBPath),
			zap.Int("patients", directory.Len()),
			zap.Int("users", authenticator.Len()),
		)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	if health != nil {
		go func() {
			if err := health.Serve(grpcLis); err != nil {
				errCh <- fmt.Errorf("grpc server: %w", err)
			}
		}()
		if err := health.MarkServing(ctx); err != nil {
			logger.Warn("health check ping failed", zap.Error(err))
		}
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case runErr = <-errCh:
		logger.Error("server error", zap.Error(runErr))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace())
	defer cancel()
	if health != nil {
		health.Stop(shutdownCtx)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	return runErr
}

func randomSecret() ([]byte, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("generate session secret: %w", err)
	}
	return []byte(hex.EncodeToString(b)), nil
}
