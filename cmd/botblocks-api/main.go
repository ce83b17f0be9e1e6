package main

import (
	"context"
	"os"
	"time"

	cli "github.com/urfave/cli/v3"

	"github.com/botblocks/botblocks/pkg/cmd"
	"github.com/botblocks/botblocks/pkg/log"
	"github.com/botblocks/botblocks/pkg/registry"
	"github.com/botblocks/botblocks/pkg/state"
)

const (
	defaultPort        = 9091
	defaultSessionIdle = 24 * time.Hour
	defaultPruneEvery  = "@every 10m"
)

func main() {
	logger := log.WithModule("api")

	command := &cli.Command{
		Name:                  "botblocks-api",
		Usage:                 "Create, validate, repair and simulate bot schemas",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (kafka, gochannel)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Redis URL for shared session state (empty keeps sessions in memory)",
				Sources: cli.EnvVars("REDIS_URL"),
			},
			&cli.DurationFlag{
				Name:    "session-idle",
				Usage:   "Idle duration after which sessions are pruned",
				Value:   defaultSessionIdle,
				Sources: cli.EnvVars("SESSION_IDLE"),
			},
			&cli.StringFlag{
				Name:    "session-prune-schedule",
				Usage:   "Cron schedule for pruning idle sessions",
				Value:   defaultPruneEvery,
				Sources: cli.EnvVars("SESSION_PRUNE_SCHEDULE"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger.InfoContext(ctx, "Initializing BotBlocks API")

			persistence := cmd.NewPersistence(ctx, logger, command.String("database-url"))

			defer func() {
				err := persistence.Close(ctx)
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus := cmd.NewEventBus(command.String("event-bus"), logger)
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			sessions := cmd.NewSessionStore(logger, command.String("redis-url"))

			janitor := state.NewJanitor(sessions, command.Duration("session-idle"), logger)
			if err := janitor.Start(command.String("session-prune-schedule")); err != nil {
				return err
			}
			defer janitor.Stop()

			api := NewAPI(
				logger,
				persistence,
				registry.Builtin(logger),
				eventBus,
				sessions,
			)

			err := api.Start(command.Int("port"))
			if err != nil {
				logger.ErrorContext(ctx, "Failed to start API server", "error", err)
			}

			return nil
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
