package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/amanullahtanweer/speaker-align/internal/config"
	"github.com/amanullahtanweer/speaker-align/internal/store"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var configFile string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "aligner",
		Short:         "Attribute transcript segments to speakers",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "configuration file (yaml)")
	root.PersistentFlags().String("log-level", "info", "log level")
	root.PersistentFlags().Bool("redis", false, "store results in Redis")
	root.PersistentFlags().String("redis-addr", "localhost:6379", "Redis address")

	root.AddCommand(newProcessCmd(), newAlignCmd(), newShowCmd(), newListCmd(), newDeleteCmd())
	return root
}

// loadConfig merges the config file, environment and the flags of cmd
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return nil, err
	}
	if err := config.SetupLogging(cfg.Log); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openStore(cfg *config.Config) *store.RedisStore {
	return store.New(store.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Prefix:   cfg.Redis.Prefix,
		TTL:      cfg.Redis.TTL,
	})
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}
}
