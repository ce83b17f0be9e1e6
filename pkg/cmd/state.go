package cmd

import (
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/botblocks/botblocks/pkg/state"
)

// NewSessionStore selects the session backend. An empty URL keeps sessions
// in process memory; a redis URL shares them across bot processes.
func NewSessionStore(logger *slog.Logger, redisURL string) state.Store {
	if redisURL == "" {
		return state.NewMemoryStore()
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		panic(fmt.Errorf("failed to parse redis URL: %w", err))
	}

	logger.Info("Using redis session store", "addr", opts.Addr)

	return state.NewRedisStore(redis.NewClient(opts))
}
