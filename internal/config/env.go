package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultAPIBase     = "https://api.tdameritrade.com/v1"
	DefaultAuthURL     = "https://auth.tdameritrade.com/auth"
	DefaultTokenURL    = "https://api.tdameritrade.com/v1/oauth2/token"
	DefaultRedirectURI = "https://127.0.0.1"
)

// Config is the process configuration, read once at startup.
type Config struct {
	ClientID        string
	CredentialsPath string
	RedirectURI     string
	APIBase         string
	AuthURL         string
	TokenURL        string

	HTTPAddr          string
	RedisAddr         string
	ChainWindowMonths int

	TelegramToken  string
	TelegramChatID int64

	StreamConfigPath string
	LogLevel         log.Level
}

// LoadEnv loads environment variables from the .env file in the project root.
func LoadEnv() {
	err := godotenv.Load(".env")
	if err != nil {
		log.Debug("[CONFIG] .env file not found or failed to load")
	} else {
		log.Info("[CONFIG] .env loaded successfully")
	}
}

// Load reads the configuration from the environment. Credentials are
// resolved the way the container mounts them: docker secrets first, local
// files as fallback. When the secret can be staged to a writable path the
// staged copy is used, since refreshed tokens are written back to it.
func Load() (Config, error) {
	cfg := Config{
		RedirectURI:      envOr("TD_REDIRECT_URI", DefaultRedirectURI),
		APIBase:          envOr("TD_API_BASE", DefaultAPIBase),
		AuthURL:          envOr("TD_AUTH_URL", DefaultAuthURL),
		TokenURL:         envOr("TD_TOKEN_URL", DefaultTokenURL),
		HTTPAddr:         envOr("HTTP_ADDR", ":5000"),
		RedisAddr:        envOr("REDIS_ADDR", "redis:6379"),
		TelegramToken:    strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN")),
		StreamConfigPath: envOr("STREAM_CONFIG", "config/stream.yaml"),
	}

	level, err := log.ParseLevel(envOr("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	cfg.LogLevel = level

	months, err := strconv.Atoi(envOr("CHAIN_WINDOW_MONTHS", "3"))
	if err != nil || months <= 0 {
		return Config{}, fmt.Errorf("CHAIN_WINDOW_MONTHS must be a positive integer, got %q", os.Getenv("CHAIN_WINDOW_MONTHS"))
	}
	cfg.ChainWindowMonths = months

	if cid := strings.TrimSpace(os.Getenv("TELEGRAM_CHAT_ID")); cid != "" {
		chatID, err := strconv.ParseInt(cid, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
		}
		cfg.TelegramChatID = chatID
	}

	cfg.ClientID = strings.TrimSpace(os.Getenv("TD_CLIENT_ID"))
	if cfg.ClientID == "" {
		cfg.ClientID, err = ReadClientID(
			envOr("TD_CLIENT_ID_FILE", "/run/secrets/client_id"),
			envOr("TD_CLIENT_ID_FALLBACK", "../client_id.txt"),
		)
		if err != nil {
			return Config{}, err
		}
	}

	secret := envOr("TD_CREDENTIALS_SECRET", "/run/secrets/client_secret")
	cfg.CredentialsPath = ResolveCredentialsPath(secret, envOr("TD_CREDENTIALS_FALLBACK", "../client_secret.json"))
	if stage := envOr("TD_CREDENTIALS_STAGE", "/code/client_secret"); stage != "" {
		if err := StageCredentials(secret, stage); err != nil {
			log.Warnf("[CONFIG] error copying client secret (expected when running locally): %v", err)
		} else {
			cfg.CredentialsPath = stage
		}
	}

	return cfg, nil
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
