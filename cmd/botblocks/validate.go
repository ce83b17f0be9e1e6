package main

import (
	"context"
	"errors"

	cli "github.com/urfave/cli/v3"

	"github.com/botblocks/botblocks/pkg/validation"
)

var errGraphInvalid = errors.New("graph has validation errors")

func ValidateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Aliases:   []string{"v"},
		Usage:     "Validate a bot schema file",
		ArgsUsage: "<schema.json>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "quick",
				Usage: "Skip graph analysis (cycles, reachability, logical integrity)",
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			graph, err := loadGraph(command.Args().First())
			if err != nil {
				return err
			}

			v := validation.New()

			var report validation.Result
			if command.Bool("quick") {
				report = v.QuickValidate(graph)
			} else {
				report = v.Validate(graph)
			}

			if err := printJSON(report); err != nil {
				return err
			}

			if !report.IsValid {
				return errGraphInvalid
			}

			return nil
		},
	}
}
