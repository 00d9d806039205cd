package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/akriventsev/catalog/internal/config"
)

func configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration helpers",
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Write a sample configuration file",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "force", Usage: "Overwrite an existing file"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					path := c.String("config")
					if !c.Bool("force") && fileExists(path) {
						return fmt.Errorf("%s already exists (use --force to overwrite)", path)
					}
					if err := config.WriteSample(path); err != nil {
						return err
					}
					fmt.Println("Wrote", path)
					return nil
				},
			},
			{
				Name:  "validate",
				Usage: "Load and validate the configuration",
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig(c)
					if err != nil {
						return err
					}
					fmt.Printf("Configuration is valid (storage=%s, cache=%s, events=%s)\n",
						cfg.Storage.Driver, cfg.Cache.Driver, cfg.Events.Driver)
					return nil
				},
			},
		},
	}
}
