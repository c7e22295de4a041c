// Memo daemon - the personal assistant backend service
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/askfredo/memo-backend/internal/api"
	"github.com/askfredo/memo-backend/internal/assistant"
	"github.com/askfredo/memo-backend/internal/config"
	"github.com/askfredo/memo-backend/internal/llm"
	"github.com/askfredo/memo-backend/internal/logging"
	"github.com/askfredo/memo-backend/internal/storage"
	"github.com/askfredo/memo-backend/internal/vault"
)

var (
	dataDir    string
	port       int
	configPath string
	verbose    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "memod",
		Short: "Memo daemon - personal assistant backend",
		RunE:  runDaemon,
	}

	rootCmd.Flags().StringVar(&dataDir, "data-dir", "", "Data directory (default ~/.memo)")
	rootCmd.Flags().IntVar(&port, "port", 0, "HTTP server port (default 3001)")
	rootCmd.Flags().StringVar(&configPath, "config", "", "Path to config.json")
	rootCmd.Flags().BoolVar(&verbose, "verbose", false, "Enable debug logging")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runDaemon(cmd *cobra.Command, args []string) error {
	if verbose {
		logging.SetLevel(logging.DEBUG)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if port != 0 {
		cfg.Server.Port = port
	}

	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	// Database
	db, err := storage.Open(storage.Config{Path: cfg.DatabasePath()})
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	logging.Info("database ready at %s", cfg.DatabasePath())

	// Stores
	notes := storage.NewNoteStore(db)
	events := storage.NewEventStore(db)
	notifications := storage.NewNotificationStore(db)
	credentials := storage.NewCredentialStore(db)

	// Providers
	llmCfg := llm.DefaultConfig()
	if cfg.Gemini.APIKey != "" {
		llmCfg.APIKey = cfg.Gemini.APIKey
	}
	if cfg.Gemini.BaseURL != "" {
		llmCfg.BaseURL = cfg.Gemini.BaseURL
	}
	if cfg.Gemini.Model != "" {
		llmCfg.Model = cfg.Gemini.Model
	}
	client := llm.NewClient(llmCfg)
	if !client.IsConfigured() {
		logging.Warn("GEMINI_API_KEY not set, classification and chat degrade to fallbacks")
	}

	liveCfg := llm.DefaultLiveConfig()
	liveCfg.APIKey = cfg.Gemini.APIKey
	if cfg.Gemini.LiveModel != "" {
		liveCfg.Model = cfg.Gemini.LiveModel
	}
	live := llm.NewLiveSession(liveCfg)
	defer live.Close()

	// Vault is optional; routes report unavailable without a seed.
	var v *vault.Vault
	if cfg.Vault.KeySeed != "" {
		v, err = vault.New(cfg.Vault.KeySeed)
		if err != nil {
			return fmt.Errorf("init vault: %w", err)
		}
	} else {
		logging.Warn("VAULT_KEY_SEED not set, password vault disabled")
	}

	// Pipeline + server
	router := assistant.NewRouter(client, live, notes, events, notifications)

	server := api.New(api.Config{
		Host:          cfg.Server.Host,
		Port:          cfg.Server.Port,
		Assistant:     router,
		Classifier:    assistant.NewClassifier(client),
		Notes:         notes,
		Events:        events,
		Notifications: notifications,
		Credentials:   credentials,
		Vault:         v,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logging.Info("received %s, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Stop(ctx)
}
