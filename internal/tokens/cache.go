// Package tokens maintains the per-chain token list cache the API layer
// resolves request tokens against. The cache is an explicitly owned service
// with an initialize/refresh/teardown lifecycle; Redis keeps the last good
// snapshot across restarts.
package tokens

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/evault-labs/swap-router/internal/swap"
)

const (
	defaultRefreshInterval = 5 * time.Minute
	redisKeyPrefix         = "tokenlist:"
	redisSnapshotTTL       = 24 * time.Hour
)

type Config struct {
	// URL serves the token list as JSON, one request per chain id.
	URL             string        `mapstructure:"url"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	ChainIDs        []uint64      `mapstructure:"chain_ids"`
}

// Cache holds the token lists for every configured chain.
type Cache struct {
	cfg    Config
	client *http.Client
	redis  *redis.Client // optional
	logger *logrus.Entry

	mu      sync.RWMutex
	byChain map[uint64][]swap.Token

	stop chan struct{}
	done chan struct{}
}

func NewCache(cfg Config, redisClient *redis.Client, logger *logrus.Logger) *Cache {
	if cfg.RefreshInterval == 0 {
		cfg.RefreshInterval = defaultRefreshInterval
	}
	return &Cache{
		cfg:     cfg,
		client:  &http.Client{Timeout: 15 * time.Second},
		redis:   redisClient,
		logger:  logger.WithField("service", "tokenlist"),
		byChain: make(map[uint64][]swap.Token),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Start performs the initial build and launches the periodic refresh. The
// initial build tolerates partial failure as long as a Redis snapshot or a
// previous fetch covers the chain.
func (c *Cache) Start(ctx context.Context) error {
	if err := c.Refresh(ctx); err != nil {
		c.logger.WithError(err).Warn("initial token list build incomplete")
	}

	go func() {
		defer close(c.done)
		ticker := time.NewTicker(c.cfg.RefreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
				if err := c.Refresh(ctx); err != nil {
					c.logger.WithError(err).Warn("token list refresh failed")
				}
				cancel()
			case <-c.stop:
				return
			}
		}
	}()
	return nil
}

// Stop terminates the refresh loop.
func (c *Cache) Stop() {
	close(c.stop)
	<-c.done
}

// Refresh rebuilds every chain's list. A chain whose fetch fails keeps its
// previous snapshot; the first error is returned for logging.
func (c *Cache) Refresh(ctx context.Context) error {
	var firstErr error
	for _, chainID := range c.cfg.ChainIDs {
		tokens, err := c.fetch(ctx, chainID)
		if err != nil {
			if restored := c.restoreSnapshot(ctx, chainID); !restored && firstErr == nil {
				firstErr = fmt.Errorf("fail to fetch token list for chain %d: %w", chainID, err)
			}
			continue
		}

		c.mu.Lock()
		c.byChain[chainID] = tokens
		c.mu.Unlock()
		c.storeSnapshot(ctx, chainID, tokens)
	}
	return firstErr
}

func (c *Cache) fetch(ctx context.Context, chainID uint64) ([]swap.Token, error) {
	if c.cfg.URL == "" {
		return nil, fmt.Errorf("token list url not configured")
	}
	sep := "?"
	if strings.Contains(c.cfg.URL, "?") {
		sep = "&"
	}
	url := fmt.Sprintf("%s%schainId=%d", c.cfg.URL, sep, chainID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token list endpoint returned %d", resp.StatusCode)
	}

	var tokens []swap.Token
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		return nil, fmt.Errorf("fail to decode token list: %w", err)
	}
	return tokens, nil
}

func (c *Cache) storeSnapshot(ctx context.Context, chainID uint64, tokens []swap.Token) {
	if c.redis == nil {
		return
	}
	raw, err := json.Marshal(tokens)
	if err != nil {
		return
	}
	key := fmt.Sprintf("%s%d", redisKeyPrefix, chainID)
	if err := c.redis.Set(ctx, key, raw, redisSnapshotTTL).Err(); err != nil {
		c.logger.WithError(err).Debug("fail to store token list snapshot")
	}
}

// restoreSnapshot loads the last good list from Redis when the in-memory
// cache has nothing for the chain yet.
func (c *Cache) restoreSnapshot(ctx context.Context, chainID uint64) bool {
	c.mu.RLock()
	_, populated := c.byChain[chainID]
	c.mu.RUnlock()
	if populated {
		return true
	}
	if c.redis == nil {
		return false
	}

	key := fmt.Sprintf("%s%d", redisKeyPrefix, chainID)
	raw, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	var tokens []swap.Token
	if err := json.Unmarshal(raw, &tokens); err != nil {
		return false
	}

	c.mu.Lock()
	c.byChain[chainID] = tokens
	c.mu.Unlock()
	return true
}

// List returns the cached tokens for a chain.
func (c *Cache) List(chainID uint64) []swap.Token {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.byChain[chainID]
}

// Find looks a token up by address.
func (c *Cache) Find(chainID uint64, address common.Address) (swap.Token, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, t := range c.byChain[chainID] {
		if t.Address == address {
			return t, true
		}
	}
	return swap.Token{}, false
}
