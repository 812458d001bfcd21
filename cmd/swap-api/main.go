package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DataDog/datadog-go/statsd"
	"github.com/sirupsen/logrus"

	"github.com/evault-labs/swap-router/config"
	"github.com/evault-labs/swap-router/internal/contracts"
	"github.com/evault-labs/swap-router/internal/server"
	"github.com/evault-labs/swap-router/internal/swap/strategies"
	"github.com/evault-labs/swap-router/internal/tokens"
	"github.com/evault-labs/swap-router/internal/venues"
	"github.com/evault-labs/swap-router/storage"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.GetConfigure()
	if err != nil {
		logger.Fatalf("fail to read config, err: %v", err)
	}

	var sdClient *statsd.Client
	if cfg.Datadog.Host != "" {
		sdClient, err = statsd.New(cfg.Datadog.Host + ":" + cfg.Datadog.Port)
		if err != nil {
			logger.Fatalf("fail to create statsd client, err: %v", err)
		}
	}

	redisStorage, err := storage.NewRedisStorage(*cfg)
	if err != nil {
		logger.Fatalf("fail to connect to redis, err: %v", err)
	}
	defer redisStorage.Close()

	tokenCache := tokens.NewCache(tokens.Config{
		URL:             cfg.TokenList.URL,
		RefreshInterval: cfg.TokenList.RefreshInterval,
		ChainIDs:        cfg.ChainIDs,
	}, redisStorage.Client(), logger)
	if err := tokenCache.Start(context.Background()); err != nil {
		logger.Fatalf("fail to start token cache, err: %v", err)
	}
	defer tokenCache.Stop()

	registry := venues.NewRegistry()
	if cfg.Venues.GlueX.APIKey != "" {
		registry.Register(venues.NewGlueX(venues.GlueXConfig{
			BaseURL: cfg.Venues.GlueX.URL,
			APIKey:  cfg.Venues.GlueX.APIKey,
		}, logger))
	}
	registry.Register(venues.NewLiFi(venues.LiFiConfig{
		BaseURL: cfg.Venues.LiFi.URL,
		APIKey:  cfg.Venues.LiFi.APIKey,
	}, logger))
	if cfg.Venues.Uniswap.RPCURL != "" {
		uni, err := venues.NewUniswap(venues.UniswapConfig{
			RPCURL:  cfg.Venues.Uniswap.RPCURL,
			Router:  cfg.Venues.Uniswap.Router,
			ChainID: cfg.Venues.Uniswap.ChainID,
		}, logger)
		if err != nil {
			logger.Fatalf("fail to create uniswap venue, err: %v", err)
		}
		registry.Register(uni)
	}

	book := contracts.DefaultBook()
	runner := strategies.NewRunner(cfg.RoutingTable(), strategies.Deps{
		Sources: registry,
		Book:    book,
		Logger:  logger,
		Metrics: sdClient,
	})

	srv := server.NewServer(cfg.Server.Port, runner, tokenCache, book, logger, sdClient)
	go func() {
		if err := srv.StartServer(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("fail to start server, err: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		logger.Errorf("fail to shutdown server, err: %v", err)
	}
}
