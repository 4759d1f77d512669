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

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/alphabot-ai/socialfeed/internal/auth"
	"github.com/alphabot-ai/socialfeed/internal/config"
	httpapp "github.com/alphabot-ai/socialfeed/internal/http"
	"github.com/alphabot-ai/socialfeed/internal/logging"
	"github.com/alphabot-ai/socialfeed/internal/store"
	"github.com/alphabot-ai/socialfeed/internal/store/mongo"
	"github.com/alphabot-ai/socialfeed/internal/store/postgres"
	"github.com/alphabot-ai/socialfeed/internal/store/sqlite"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server (default)",
	Long: `Start the API server. Configuration is read from the environment:

  SOCIALFEED_ADDR / PORT   listen address (default :3002)
  DB_CONNECT               mongodb://, postgres:// or a sqlite path (default socialfeed.db)
  DB_NAME                  mongo database name (default socialfeed)
  JWT_SECRET               HS256 secret
  TOKEN_ALG                HS256 or ES256K
  TOKEN_SIGNING_KEY        hex secp256k1 key for ES256K
  TOKEN_TTL                token lifetime (default 24h)
  BCRYPT_COST              bcrypt cost (default 10)
  CORS_ORIGIN              allowed origin (default *)
  LOG_LEVEL, LOG_FORMAT    zerolog level and json|console output`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func runServe(ctx context.Context) error {
	cfg := config.Load()
	logging.Setup(cfg.LogLevel, cfg.LogFormat)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.Token.Alg == "HS256" && cfg.Token.Secret == config.DevJWTSecret {
		log.Warn().Msg("JWT_SECRET not set, using the development secret")
	}

	st, err := openStore(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Str("backend", string(cfg.StoreKind())).Msg("store connection failed")
		return err
	}
	defer st.Close()
	log.Info().Str("backend", string(cfg.StoreKind())).Msg("store connected")

	tokens, err := auth.NewTokenService(auth.TokenConfig{
		Alg:        cfg.Token.Alg,
		Secret:     cfg.Token.Secret,
		SigningKey: cfg.Token.SigningKey,
		TTL:        cfg.Token.TTL,
		Issuer:     cfg.Token.Issuer,
	})
	if err != nil {
		return fmt.Errorf("token service: %w", err)
	}

	server, err := httpapp.NewServer(st, tokens, cfg)
	if err != nil {
		return fmt.Errorf("initialize server: %w", err)
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("socialfeed listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, cfg config.Config) (store.Store, error) {
	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	switch cfg.StoreKind() {
	case config.StoreMongo:
		st, err := mongo.Open(openCtx, cfg.DBConnect, cfg.DBName)
		if err != nil {
			return nil, err
		}
		return st, nil
	case config.StorePostgres:
		st, err := postgres.Open(openCtx, cfg.DBConnect)
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		st, err := sqlite.Open(cfg.DBConnect)
		if err != nil {
			return nil, err
		}
		return st, nil
	}
}
