package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"GammaExposure/internal/app"
	"GammaExposure/internal/auth"
	"GammaExposure/internal/config"
	"GammaExposure/internal/data"
	"GammaExposure/internal/notify"
	"GammaExposure/internal/servers"
	"GammaExposure/internal/tdclient"
)

func main() {
	config.LoadEnv()

	if err := run(); err != nil {
		log.Fatalf("[MAIN] %v", err)
	}
	log.Info("[MAIN] Shutting down...")
}

// run returns instead of exiting so deferred cleanup always happens.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	log.SetLevel(cfg.LogLevel)

	// Auth
	session := auth.NewSession(auth.SessionConfig{
		ClientID:        cfg.ClientID,
		RedirectURL:     cfg.RedirectURI,
		CredentialsPath: cfg.CredentialsPath,
		AuthURL:         cfg.AuthURL,
		TokenURL:        cfg.TokenURL,
	})
	loginCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	if err := session.Login(loginCtx); err != nil {
		if errors.Is(err, auth.ErrLoginRequired) {
			log.Warnf("[AUTH] no stored refresh token; visit %s and let it redirect to /auth/callback", session.AuthCodeURL())
		} else {
			log.Errorf("[AUTH] login failed: %v", err)
		}
	}
	cancel()

	rdb := data.NewRedisClient(cfg.RedisAddr)
	defer rdb.Close()

	// Optional notifier (Telegram)
	var ntf notify.Notifier
	if n, err := notify.NewTelegram(cfg.TelegramToken, cfg.TelegramChatID); err == nil {
		ntf = n
	}

	svc := app.NewGammaService(tdclient.NewClient(cfg.APIBase, session), session, ntf, cfg.ChainWindowMonths)
	router := servers.NewRouter(servers.Deps{
		Hits:  data.NewHitCounter(rdb),
		Gamma: svc,
		Auth:  session,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	handle, err := app.StartHTTP(ctx, "HTTP", cfg.HTTPAddr, router)
	if err != nil {
		return err
	}

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	handle.Stop(shutdownCtx)
	return nil
}
