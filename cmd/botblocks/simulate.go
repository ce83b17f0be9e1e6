package main

import (
	"context"
	"fmt"
	"strings"

	cli "github.com/urfave/cli/v3"

	"github.com/botblocks/botblocks/pkg/engine"
	"github.com/botblocks/botblocks/pkg/log"
	"github.com/botblocks/botblocks/pkg/models"
	"github.com/botblocks/botblocks/pkg/registry"
	"github.com/botblocks/botblocks/pkg/state"
	"github.com/botblocks/botblocks/pkg/validation"
)

func SimulateCommand() *cli.Command {
	return &cli.Command{
		Name:      "simulate",
		Aliases:   []string{"s"},
		Usage:     "Run one inbound event through a bot schema file",
		ArgsUsage: "<schema.json>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "text",
				Usage:    "Inbound message text",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "user",
				Usage: "Sender user id",
				Value: "cli-user",
			},
			&cli.StringFlag{
				Name:  "chat",
				Usage: "Chat id",
				Value: "cli-chat",
			},
			&cli.StringFlag{
				Name:  "start-node",
				Usage: "Start traversal at a specific node id",
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))
			logger := log.WithModule("simulate")

			graph, err := loadGraph(command.Args().First())
			if err != nil {
				return err
			}

			report := validation.New().Validate(graph)
			if !report.IsValid {
				return fmt.Errorf("%w: %d errors, run validate for details",
					errGraphInvalid, report.Summary.ErrorCount)
			}

			text := command.String("text")

			eventType := models.EventTypeText
			if strings.HasPrefix(text, "/") {
				eventType = models.EventTypeCommand
			}

			eng, err := engine.New(engine.Config{
				Schema:    graph,
				SchemaID:  command.Args().First(),
				Registry:  registry.Builtin(logger),
				Sessions:  state.NewMemoryStore(),
				Messenger: consoleMessenger{},
				Logger:    logger,
			})
			if err != nil {
				return err
			}

			run, err := eng.ExecuteWorkflow(ctx, models.InboundEvent{
				Type:   eventType,
				Text:   text,
				UserID: command.String("user"),
				ChatID: command.String("chat"),
			}, command.String("start-node"))
			if err != nil {
				return err
			}

			return printJSON(run)
		},
	}
}

// consoleMessenger prints outbound messages instead of delivering them.
type consoleMessenger struct{}

func (consoleMessenger) SendMessage(_ context.Context, effect models.SideEffect) error {
	fmt.Printf("-> [%s] %s\n", effect.ChatID, effect.Text)

	return nil
}
