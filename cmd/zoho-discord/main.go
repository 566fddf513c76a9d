package main

import (
	"context"
	"crypto/ed25519"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Traumatized-ink/zoho-discord/internal/api"
	"github.com/Traumatized-ink/zoho-discord/internal/config"
	"github.com/Traumatized-ink/zoho-discord/internal/directory"
	"github.com/Traumatized-ink/zoho-discord/internal/discord"
	"github.com/Traumatized-ink/zoho-discord/internal/flow"
	"github.com/Traumatized-ink/zoho-discord/internal/relay"
	"github.com/Traumatized-ink/zoho-discord/internal/store"
	"github.com/Traumatized-ink/zoho-discord/internal/zoho"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		logger.Error("open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if cfg.DBPath == "" {
		logger.Warn("DB_PATH not set; correlations reset on restart")
	}

	tokens := zoho.NewTokens(cfg.ZohoClientID, cfg.ZohoClientSecret, cfg.ZohoRefreshToken, cfg.RedirectURI())
	mailClient := zoho.NewClient(tokens, cfg.ZohoAccountID)
	chatClient := discord.NewClient(cfg.DiscordBotToken, cfg.DiscordWebhookURL)
	if !chatClient.HasBot() {
		logger.Warn("DISCORD_BOT_TOKEN not set; falling back to webhook posts without reply buttons")
	}

	var publicKey ed25519.PublicKey
	if cfg.DiscordPublicKey != "" {
		publicKey, err = discord.ParsePublicKey(cfg.DiscordPublicKey)
		if err != nil {
			logger.Error("parse discord public key", "error", err)
			os.Exit(1)
		}
	} else {
		logger.Warn("DISCORD_PUBLIC_KEY not set; interaction endpoint disabled")
	}

	dir := directory.New(mailClient, db)
	scheduler := directory.NewScheduler(dir, logger)
	if mailClient.Configured() {
		if err := scheduler.Start(); err != nil {
			logger.Error("start refresh scheduler", "error", err)
			os.Exit(1)
		}
		defer scheduler.Stop()
	} else {
		logger.Warn("zoho credentials incomplete; identity refresh disabled")
	}

	mailRelay := relay.New(chatClient, db, cfg.DiscordChannelID, cfg.ZohoAccountID, logger)
	controller := flow.NewController(mailClient, chatClient, db, dir, cfg.DiscordChannelID, logger)
	server := api.NewServer(cfg, mailRelay, controller, dir, db, tokens, publicKey, logger)

	httpAddr := fmt.Sprintf(":%d", cfg.Port)
	httpSrv := &http.Server{
		Addr:    httpAddr,
		Handler: server,
	}

	go func() {
		logger.Info("zoho-discord relay listening", "addr", httpAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server stopped", "error", err)
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	<-shutdown

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(ctx); err != nil {
		logger.Error("shutdown http", "error", err)
	}
}
