// Command migrate applies the embedded database migrations.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/ondrej-secretkeylabs/txfeed/service/db"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "migrate",
		Usage: "Apply txfeed database migrations",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "Database connection URL",
				EnvVars: []string{"DATABASE_URL"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "up",
				Usage: "Apply all pending migrations",
				Action: func(c *cli.Context) error {
					dbURL, err := databaseURL(c)
					if err != nil {
						return err
					}
					if err := db.Migrate(dbURL); err != nil {
						return fmt.Errorf("migration failed: %w", err)
					}
					fmt.Println("migrations applied")
					return nil
				},
			},
			{
				Name:  "down",
				Usage: "Roll back all migrations",
				Action: func(c *cli.Context) error {
					dbURL, err := databaseURL(c)
					if err != nil {
						return err
					}
					if err := db.MigrateDown(dbURL); err != nil {
						return fmt.Errorf("rollback failed: %w", err)
					}
					fmt.Println("migrations rolled back")
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func databaseURL(c *cli.Context) (string, error) {
	dbURL := c.String("database-url")
	if dbURL == "" {
		return "", fmt.Errorf("database-url is required (set DATABASE_URL env var or use --database-url)")
	}
	return dbURL, nil
}
