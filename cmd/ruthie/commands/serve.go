package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/odiadev/ruthie-core/calllog"
	"github.com/odiadev/ruthie-core/config"
	dialogue "github.com/odiadev/ruthie-core/core"
	"github.com/odiadev/ruthie-core/core/dispatch"
	"github.com/odiadev/ruthie-core/core/generate/groq"
	"github.com/odiadev/ruthie-core/core/recognize"
	"github.com/odiadev/ruthie-core/core/recognize/deepgram"
	"github.com/odiadev/ruthie-core/core/sanitize"
	"github.com/odiadev/ruthie-core/core/transport/wsbridge"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the call bridge server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return serve(cmd.Context(), cfg)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(ctx context.Context, cfg config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	managerOpts, cleanup, err := buildManagerOptions(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	manager := dialogue.NewManager(managerOpts...)
	defer manager.Close("server shutdown")

	server := &http.Server{
		Addr:    cfg.Listen,
		Handler: wsbridge.NewServer(manager, buildBridgeOptions(cfg)...).Handler(),
	}

	errs := make(chan error, 1)
	go func() {
		fmt.Println("Listening on", cfg.Listen)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// buildManagerOptions assembles the session defaults from the policy file.
// The returned cleanup closes any opened backends.
func buildManagerOptions(ctx context.Context, cfg config.Config) ([]dialogue.ManagerOption, func(), error) {
	sanitizer, err := sanitize.New(cfg.SanitizePolicy())
	if err != nil {
		return nil, nil, err
	}

	sessionOpts := []dialogue.SessionOption{
		dialogue.WithSanitizer(sanitizer),
		dialogue.WithSchemas(cfg.SchemaMap()),
		dialogue.WithSilenceThresholds(cfg.SilenceThresholds()),
		dialogue.WithQueueCapacity(cfg.Session.QueueCapacity),
		dialogue.WithMaxTurns(cfg.Session.MaxTurns),
	}
	if cfg.Greeting != "" {
		phrases := defaultOverride(cfg.Greeting)
		sessionOpts = append(sessionOpts, dialogue.WithPhrases(phrases))
	}

	if apiKey := os.Getenv(cfg.Generator.APIKeyEnv); apiKey != "" {
		groqOpts := []groq.Option{}
		if cfg.Generator.Model != "" {
			groqOpts = append(groqOpts, groq.WithModel(cfg.Generator.Model))
		}
		if cfg.Generator.SystemPrompt != "" {
			groqOpts = append(groqOpts, groq.WithSystemPrompt(cfg.Generator.SystemPrompt))
		}
		if cfg.Generator.Timeout > 0 {
			groqOpts = append(groqOpts, groq.WithTimeout(cfg.Generator.Timeout))
		}
		sessionOpts = append(sessionOpts, dialogue.WithGenerator(groq.NewClient(apiKey, groqOpts...)))
	}

	if cfg.Dispatcher.WebhookURL != "" {
		webhookOpts := []dispatch.WebhookOption{}
		if cfg.Dispatcher.Timeout > 0 {
			webhookOpts = append(webhookOpts, dispatch.WithTimeout(cfg.Dispatcher.Timeout))
		}
		if cfg.Dispatcher.MaxAttempts > 0 {
			webhookOpts = append(webhookOpts, dispatch.WithMaxAttempts(cfg.Dispatcher.MaxAttempts))
		}
		sessionOpts = append(sessionOpts,
			dialogue.WithDispatcher(dispatch.NewWebhookDispatcher(cfg.Dispatcher.WebhookURL, webhookOpts...)))
	}

	managerOpts := []dialogue.ManagerOption{dialogue.WithSessionDefaults(sessionOpts...)}
	cleanup := func() {}

	if cfg.CallLog.DatabaseURL != "" {
		store, err := calllog.New(ctx, cfg.CallLog.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open call log store: %w", err)
		}
		managerOpts = append(managerOpts,
			dialogue.WithCloseHook(store.Hook(context.Background(), 5*time.Second)))
		cleanup = store.Close
	}

	return managerOpts, cleanup, nil
}

// buildBridgeOptions turns the recognizer section into the bridge's audio
// mode. Without the API key the bridge stays transcript-only.
func buildBridgeOptions(cfg config.Config) []wsbridge.Option {
	apiKey := os.Getenv(cfg.Recognizer.APIKeyEnv)
	if apiKey == "" {
		return nil
	}

	recognizerOpts := []deepgram.Option{}
	if cfg.Recognizer.Model != "" {
		recognizerOpts = append(recognizerOpts, deepgram.WithModel(cfg.Recognizer.Model))
	}
	if cfg.Recognizer.Language != "" {
		recognizerOpts = append(recognizerOpts, deepgram.WithLanguage(cfg.Recognizer.Language))
	}
	if cfg.Recognizer.Encoding != "" {
		sampleRate := cfg.Recognizer.SampleRate
		if sampleRate <= 0 {
			sampleRate = 8000
		}
		recognizerOpts = append(recognizerOpts, deepgram.WithEncoding(cfg.Recognizer.Encoding, sampleRate))
	}

	return []wsbridge.Option{
		wsbridge.WithRecognizerFactory(func() recognize.Recognizer {
			return deepgram.NewClient(apiKey, recognizerOpts...)
		}),
	}
}

func defaultOverride(greeting string) dialogue.Phrases {
	phrases := dialogue.DefaultPhrases()
	phrases.Greeting = greeting
	return phrases
}
