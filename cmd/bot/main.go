package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"

	"github.com/xaenox/micatbot/internal/bot"
	"github.com/xaenox/micatbot/internal/chat"
	"github.com/xaenox/micatbot/internal/classifier"
	"github.com/xaenox/micatbot/internal/speech"
	"github.com/xaenox/micatbot/internal/storage"
	"github.com/xaenox/micatbot/pkg/config"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the config file")
	flag.Parse()

	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err), zap.String("path", *configPath))
	}

	store, err := openStorage(cfg.Database, logger)
	if err != nil {
		logger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer store.Close()

	var clf classifier.Classifier = classifier.NewSimpleClassifier(cfg.Classifier.MaxTags)
	if cfg.Classifier.UseGPT && cfg.OpenAI.APIKey != "" {
		clf = classifier.NewGPTClassifier(classifier.GPTConfig{
			APIKey:      cfg.OpenAI.APIKey,
			BaseURL:     cfg.OpenAI.BaseURL,
			Model:       cfg.OpenAI.Model,
			MaxTokens:   cfg.OpenAI.MaxTokens,
			Temperature: cfg.OpenAI.Temperature,
			MaxTags:     cfg.Classifier.MaxTags,
		}, logger)
	} else {
		logger.Info("Using keyword tag classifier")
	}

	responder := chat.NewOpenAIResponder(chat.Config{
		APIKey:      cfg.OpenAI.APIKey,
		BaseURL:     cfg.OpenAI.BaseURL,
		Model:       cfg.Chat.Model,
		MaxTokens:   cfg.Chat.MaxTokens,
		Temperature: cfg.OpenAI.Temperature,
	}, logger)

	speaker := speech.NewClient(speech.Config{
		APIKey:   cfg.Speech.APIKey,
		BaseURL:  cfg.Speech.BaseURL,
		VoiceID:  cfg.Speech.VoiceID,
		ModelID:  cfg.Speech.ModelID,
		MaxChars: cfg.Speech.MaxChars,
	}, logger)
	if !speaker.Enabled() {
		logger.Info("Speech synthesis disabled")
	}

	// Initialize bot
	b, err := bot.New(cfg.Telegram.Token, bot.Services{
		Storage:    store,
		Classifier: clf,
		Responder:  responder,
		Speech:     speaker,
		History:    chat.NewHistory(cfg.Chat.HistoryLimit),
		PageSize:   cfg.Telegram.PageSize,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to create bot", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start the bot
	if err := b.Start(ctx); err != nil {
		logger.Fatal("Bot error", zap.Error(err))
	}
	logger.Info("Bot stopped")
}

func openStorage(cfg config.DatabaseConfig, logger *zap.Logger) (storage.Storage, error) {
	return storage.Open(storage.DatabaseConfig{
		Driver:   cfg.Driver,
		Host:     cfg.Host,
		Port:     cfg.Port,
		User:     cfg.User,
		Password: cfg.Password,
		DBName:   cfg.DBName,
		SSLMode:  cfg.SSLMode,
		Path:     cfg.Path,
	}, logger)
}
