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

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-auth-go/internal/config"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/federation"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/router"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/token"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/user"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/user/repo"
	"github.com/ovaphlow/pitchfork/service-auth-go/pkg/database"
	"github.com/ovaphlow/pitchfork/service-auth-go/pkg/utilities"
)

// userStore is what both the password and the federated flows need.
type userStore interface {
	user.Directory
	federation.Directory
}

func main() {
	// best-effort: real environment wins when no .env exists
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	lg, err := utilities.Init(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()
	sugar := lg.Sugar()
	sugar.Infow("starting service-auth-go", "env", cfg.AppEnv, "store", cfg.UserStore)

	if err := utilities.SetSnowflakeNode(cfg.SnowflakeNode); err != nil {
		sugar.Fatalw("snowflake node", "err", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg, sugar)
	if err != nil {
		sugar.Fatalw("user store", "err", err)
	}
	defer closeStore()

	hasher, err := user.NewBcryptHasher(cfg.BcryptCost, cfg.HashWorkers)
	if err != nil {
		sugar.Fatalw("hasher", "err", err)
	}
	tokens, err := token.NewService(token.Config{
		Secret: []byte(cfg.JWTSecret),
		TTL:    cfg.TokenTTL,
		Issuer: "service-auth-go",
	})
	if err != nil {
		sugar.Fatalw("token service", "err", err)
	}
	cookie := token.NewCookieConfig(cfg.Production(), tokens.TTL())

	deps := router.Deps{
		Users:      user.NewHandler(user.NewService(store, hasher, tokens, sugar), cookie, sugar),
		Tokens:     tokens,
		CookieName: cookie.Name,
		ClientURL:  cfg.ClientURL,
	}
	if cfg.Google.Enabled() {
		fed := federation.NewService(store, tokens, sugar, federation.WithProviderLinking(cfg.LinkProvider))
		deps.Federation = federation.NewHandler(fed, federation.NewGoogleProvider(cfg.Google),
			cookie, cfg.ClientURL, cfg.LoginPath, sugar)
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.RegisterRoutes(sugar, deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalf("http server failed: %v", err)
		}
	}()
	sugar.Infow("listening", "addr", cfg.HTTPAddr)

	<-ctx.Done()
	sugar.Info("shutting down")

	doneCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(doneCtx); err != nil {
		sugar.Warnf("http server shutdown failed: %v", err)
	}
	sugar.Info("goodbye")
}

func openStore(ctx context.Context, cfg config.Config, logger *zap.SugaredLogger) (userStore, func(), error) {
	if cfg.UserStore == config.StoreMemory {
		logger.Warn("using in-memory user store; accounts are lost on restart")
		return repo.NewMemoryRepo(), func() {}, nil
	}
	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	r := repo.NewUserRepo(db)
	if err := r.EnsureTable(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ensure users table: %w", err)
	}
	return r, func() { _ = db.Close() }, nil
}
