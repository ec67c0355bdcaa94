// Command inkwell runs the blog API and its maintenance tasks.
//
//	@title						Inkwell Blog API
//	@version					1.0
//	@description				Blogging backend: accounts, posts, tags and image uploads.
//	@host						localhost:4444
//	@BasePath					/
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Type "Bearer" followed by a space and the token.
package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/user/inkwell/auth"
	"github.com/user/inkwell/config"
	"github.com/user/inkwell/db"
	"github.com/user/inkwell/users"
)

func main() {
	// Load environment variables from .env file, if present.
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or error loading it: %v", err)
	}

	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "inkwell",
		Usage: "blog API server",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run migrations and start the HTTP server",
				Action: serveAction,
			},
			{
				Name:  "migrate",
				Usage: "apply pending database migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "path",
						Usage:   "directory holding the migration files",
						Value:   "migrations",
						EnvVars: []string{"MIGRATIONS_PATH"},
					},
				},
				Action: migrateAction,
			},
			{
				Name:  "promote",
				Usage: "change the role of a registered user",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Usage: "email of the account", Required: true},
					&cli.StringFlag{Name: "role", Usage: "new role: admin or user", Value: string(auth.RoleAdmin)},
				},
				Action: promoteAction,
			},
		},
		DefaultCommand: "serve",
	}
}

func serveAction(c *cli.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return cli.Exit(err, 1)
	}

	if err := db.RunMigrations(cfg.DB, cfg.MigrationsPath); err != nil {
		return cli.Exit(err, 1)
	}

	pool, err := db.NewPool(c.Context, cfg.DB)
	if err != nil {
		return cli.Exit(err, 1)
	}
	defer pool.Close()

	return serve(cfg, newPgDeps(pool))
}

func migrateAction(c *cli.Context) error {
	poolCfg, err := config.LoadDatabaseConfig()
	if err != nil {
		return cli.Exit(err, 1)
	}
	if err := db.RunMigrations(poolCfg, c.String("path")); err != nil {
		return cli.Exit(err, 1)
	}
	return nil
}

func promoteAction(c *cli.Context) error {
	poolCfg, err := config.LoadDatabaseConfig()
	if err != nil {
		return cli.Exit(err, 1)
	}

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	pool, err := db.NewPool(ctx, poolCfg)
	if err != nil {
		return cli.Exit(err, 1)
	}
	defer pool.Close()

	service := users.NewUserService(auth.NewPgUserStore(pool))
	profile, err := service.Promote(ctx, users.PromoteRequest{
		Email: c.String("email"),
		Role:  auth.Role(c.String("role")),
	})
	if err != nil {
		return cli.Exit(err, 1)
	}
	log.Printf("%s (%s) is now %s", profile.FullName, profile.Email, profile.Role)
	return nil
}
