package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"GammaExposure/internal/app"
	"GammaExposure/internal/auth"
	"GammaExposure/internal/config"
	"GammaExposure/internal/data"
	"GammaExposure/internal/tdclient"
	"GammaExposure/internal/wsclient"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "stream",
	Short: "Subscribe to the brokerage streamer and record time-and-sales prints",
	RunE: func(cmd *cobra.Command, args []string) error {
		if logLevel != "" {
			level, err := log.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			log.SetLevel(level)
		}
		return run(cmd.Context())
	},
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "", "stream config file (defaults to STREAM_CONFIG)")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "log level, overrides LOG_LEVEL")
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if logLevel == "" {
		log.SetLevel(cfg.LogLevel)
	}
	if configPath == "" {
		configPath = cfg.StreamConfigPath
	}

	sc, err := config.LoadStreamConfig(configPath)
	if err != nil {
		return err
	}

	session := auth.NewSession(auth.SessionConfig{
		ClientID:        cfg.ClientID,
		RedirectURL:     cfg.RedirectURI,
		CredentialsPath: cfg.CredentialsPath,
		AuthURL:         cfg.AuthURL,
		TokenURL:        cfg.TokenURL,
	})
	if err := session.Login(ctx); err != nil {
		return fmt.Errorf("login: %w", err)
	}

	principals, err := tdclient.NewClient(cfg.APIBase, session).GetUserPrincipals(ctx)
	if err != nil {
		return err
	}

	streamer, err := wsclient.Dial(ctx, principals)
	if err != nil {
		return err
	}
	if err := streamer.Subscribe(ctx, sc.Service, sc.Symbols, sc.Fields); err != nil {
		streamer.Close()
		return err
	}

	store := data.NewTimeSaleStore()
	defer store.Close()

	stats, err := app.RunPipeline(ctx, streamer, app.PipelineConfig{
		Service:          sc.Service,
		UnsubscribeAfter: sc.UnsubscribeAfter,
		MaxHeartbeats:    sc.MaxHeartbeats,
	}, store)
	log.Infof("[STREAM] data=%d heartbeats=%d sales=%d unsubscribed=%v",
		stats.DataMessages, stats.Heartbeats, stats.Sales, stats.Unsubscribed)

	snap := store.Snapshot()
	keys := make([]string, 0, len(snap))
	for k := range snap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		s := snap[k]
		fmt.Printf("%-24s %s  %10s x %-6s  notional %s\n",
			k, s.TradeTime.Format("15:04:05.000"), s.PriceDecimal().StringFixed(2), s.SizeDecimal().String(), s.Notional().StringFixed(2))
	}
	return err
}

func main() {
	config.LoadEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Error(err)
		stop()
		os.Exit(1)
	}
}
