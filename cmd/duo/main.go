package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"mahjong-duo-client/internal/config"
	"mahjong-duo-client/internal/engine"
	"mahjong-duo-client/internal/protocol"
	"mahjong-duo-client/internal/store"
)

var (
	flagServer   string
	flagRoom     string
	flagUsername string
	flagPassword string
)

var rootCmd = &cobra.Command{
	Use:   "duo",
	Short: "headless mahjong duo match client",
	Long: `duo connects to a mahjong duo match server, authenticates,
joins a room and plays through the server's offered actions. Identity
and the last-used room survive restarts through the configured
durability store.`,
	RunE: run,
}

func init() {
	rootCmd.Flags().StringVar(&flagServer, "server", "", "websocket endpoint override")
	rootCmd.Flags().StringVar(&flagRoom, "room", "", "room id to join")
	rootCmd.Flags().StringVar(&flagUsername, "username", "", "account name")
	rootCmd.Flags().StringVar(&flagPassword, "password", "", "account password")
}

func run(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if flagServer != "" {
		cfg.ServerURL = flagServer
	}
	if flagRoom != "" {
		cfg.RoomID = flagRoom
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "duo",
	})

	st, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sess := engine.NewSession(st, cfg.KeyPrefix, logger)
	if err := sess.Restore(ctx); err != nil {
		return fmt.Errorf("restore session: %w", err)
	}
	if flagRoom != "" || sess.Room() == "" {
		sess.SetRoom(cfg.RoomID)
	}
	if flagUsername != "" {
		sess.SetCredentials(flagUsername, flagPassword)
		// Connecting needs a resolved identity; first login seeds a
		// provisional one that authentication_success overwrites with
		// the server's record.
		if sess.Identity() == nil {
			if err := sess.SetIdentity(ctx, &protocol.Identity{Username: flagUsername}); err != nil {
				return fmt.Errorf("seed identity: %w", err)
			}
		}
	}
	if sess.Identity() == nil {
		return fmt.Errorf("no stored identity and no --username given")
	}

	client := engine.NewClient(sess, cfg.Endpoint(), engine.WithLogger(logger))
	if err := client.JoinAndReady(ctx); err != nil {
		return fmt.Errorf("join: %w", err)
	}
	logger.Info("session running", "endpoint", cfg.Endpoint(), "room", sess.Room(), "player", sess.Nickname())

	<-ctx.Done()
	logger.Info("shutdown signal received")
	client.Disconnect()
	return nil
}

func openStore(cfg config.Config) (store.Store, error) {
	switch cfg.StoreBackend {
	case "redis":
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return store.NewRedis(ctx, cfg.RedisAddr)
	case "postgres":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return store.NewPostgres(ctx, cfg.PostgresDSN)
	case "", "memory":
		return store.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error("fatal", "err", err)
		os.Exit(1)
	}
}
