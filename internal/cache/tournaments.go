// Package cache holds the Redis-backed display caches. Cached data is never
// used for money or admission decisions.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/abdurrahman998/tournament/internal/logger"
	"github.com/abdurrahman998/tournament/internal/models"
	"github.com/abdurrahman998/tournament/internal/repository"
)

const (
	keyTournamentList  = "tournaments:list:%s"
	tournamentListTTL  = 30 * time.Second
	defaultDialTimeout = 5 * time.Second
)

type TournamentCache struct {
	client *redis.Client
	logger logger.Logger
}

func NewTournamentCache(ctx context.Context, addr string, l logger.Logger) (*TournamentCache, error) {
	if l == nil {
		l = logger.NewNoOp()
	}

	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: defaultDialTimeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &TournamentCache{client: client, logger: l}, nil
}

func (c *TournamentCache) Get(ctx context.Context, opts repository.ListTournamentsOpts) ([]models.Tournament, bool) {
	data, err := c.client.Get(ctx, listKey(opts)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("Tournament cache read failed", "error", err)
		return nil, false
	}

	var tournaments []models.Tournament
	if err := json.Unmarshal([]byte(data), &tournaments); err != nil {
		c.logger.Warn("Tournament cache entry is not decodable", "error", err)
		return nil, false
	}

	return tournaments, true
}

func (c *TournamentCache) Set(ctx context.Context, opts repository.ListTournamentsOpts, tournaments []models.Tournament) {
	data, err := json.Marshal(tournaments)
	if err != nil {
		c.logger.Warn("Failed to marshal tournaments for cache", "error", err)
		return
	}

	if err := c.client.Set(ctx, listKey(opts), data, tournamentListTTL).Err(); err != nil {
		c.logger.Warn("Tournament cache write failed", "error", err)
	}
}

func (c *TournamentCache) Close() error {
	return c.client.Close()
}

func listKey(opts repository.ListTournamentsOpts) string {
	maxFee := ""
	if opts.MaxFee != nil {
		maxFee = opts.MaxFee.String()
	}

	return fmt.Sprintf(keyTournamentList, fmt.Sprintf("%s|%s|%t|%s|%s|%d",
		opts.Game, maxFee, opts.Featured, opts.SortBy, opts.Search, opts.Limit))
}
