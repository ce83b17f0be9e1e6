package main

import (
	"context"
	"encoding/json"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/botblocks/botblocks/pkg/autofix"
	"github.com/botblocks/botblocks/pkg/log"
	"github.com/botblocks/botblocks/pkg/models"
	"github.com/botblocks/botblocks/pkg/registry"
	"github.com/botblocks/botblocks/pkg/validation"
)

func FixCommand() *cli.Command {
	return &cli.Command{
		Name:      "fix",
		Aliases:   []string{"f"},
		Usage:     "Repair a bot schema file",
		ArgsUsage: "<schema.json>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "write",
				Aliases: []string{"w"},
				Usage:   "Write the repaired graph back to the file",
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))
			logger := log.WithModule("fix")

			path := command.Args().First()

			graph, err := loadGraph(path)
			if err != nil {
				return err
			}

			fixer := autofix.New(registry.Builtin(logger), logger)
			fixed := fixer.ApplyAllFixes(graph.Nodes, graph.Edges)

			repaired := models.BotSchema{
				Nodes:     fixed.Nodes,
				Edges:     fixed.Edges,
				Variables: graph.Variables,
				Settings:  graph.Settings,
			}

			if command.Bool("write") && len(fixed.FixLog) > 0 {
				raw, err := json.MarshalIndent(repaired, "", "  ")
				if err != nil {
					return err
				}

				if err := os.WriteFile(path, raw, 0o644); err != nil {
					return err
				}
			}

			return printJSON(map[string]any{
				"graph":      repaired,
				"fixLog":     fixed.FixLog,
				"stats":      autofix.GetStats(fixed.FixLog),
				"validation": validation.New().Validate(&repaired),
			})
		},
	}
}
