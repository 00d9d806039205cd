package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/akriventsev/catalog/framework/adapters/repository"
	"github.com/akriventsev/catalog/framework/migrations"
	"github.com/akriventsev/catalog/internal/category/infrastructure"
)

const defaultMigrationsDir = "internal/category/infrastructure/migrations"

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Manage PostgreSQL schema migrations",
		Commands: []*cli.Command{
			{
				Name:  "up",
				Usage: "Apply pending migrations",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "steps", Usage: "Apply at most N migrations (0 = all)"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return withMigrator(ctx, c, func(m *migrations.Migrator) error {
						var (
							results []migrations.MigrationResult
							err     error
						)
						if steps := c.Int("steps"); steps > 0 {
							results, err = m.UpBy(ctx, steps)
						} else {
							results, err = m.Up(ctx)
						}
						printResults(results)
						return err
					})
				},
			},
			{
				Name:  "down",
				Usage: "Roll back migrations",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "steps", Usage: "Number of migrations to roll back", Value: 1},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return withMigrator(ctx, c, func(m *migrations.Migrator) error {
						results, err := m.Down(ctx, c.Int("steps"))
						printResults(results)
						return err
					})
				},
			},
			{
				Name:  "status",
				Usage: "Show migration status",
				Action: func(ctx context.Context, c *cli.Command) error {
					return withMigrator(ctx, c, func(m *migrations.Migrator) error {
						statuses, err := m.Status(ctx)
						if err != nil {
							return err
						}
						version, err := m.Version(ctx)
						if err != nil {
							return err
						}
						fmt.Printf("current version: %d\n", version)
						w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
						fmt.Fprintln(w, "VERSION\tNAME\tSTATE\tAPPLIED AT")
						for _, s := range statuses {
							appliedAt := "-"
							if s.AppliedAt != nil {
								appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
							}
							fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", s.Version, s.Name, s.Status, appliedAt)
						}
						return w.Flush()
					})
				},
			},
			{
				Name:      "create",
				Usage:     "Create a new SQL migration",
				ArgsUsage: "<name>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "dir", Usage: "Migrations directory", Value: defaultMigrationsDir},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					name := c.Args().First()
					if name == "" {
						return fmt.Errorf("migration name is required")
					}
					path, err := migrations.CreateMigration(c.String("dir"), name)
					if err != nil {
						return err
					}
					fmt.Println("Created", path)
					return nil
				},
			},
		},
	}
}

func withMigrator(ctx context.Context, c *cli.Command, fn func(m *migrations.Migrator) error) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	db, err := repository.OpenPostgres(ctx, cfg.Postgres.Repository())
	if err != nil {
		return err
	}
	defer func() {
		_ = db.Close()
	}()

	migrator, err := migrations.NewMigrator(db, infrastructure.Migrations())
	if err != nil {
		return err
	}
	defer func() {
		_ = migrator.Close()
	}()

	return fn(migrator)
}

func printResults(results []migrations.MigrationResult) {
	if len(results) == 0 {
		fmt.Println("No migrations to apply")
		return
	}
	for _, r := range results {
		fmt.Printf("%s %d %s (%s)\n", r.Direction, r.Version, r.Name, r.Duration)
	}
}
