package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/cardbox/internal"
	pkgconfig "github.com/starford/cardbox/pkg/config"
)

// withApp loads the configuration, wires the application and runs fn.
func withApp(ctx context.Context, cmd *cli.Command, fn func(ctx context.Context, app *internal.App) error) error {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(configPath, cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	app, err := internal.New(internal.WithConfig(cfg))
	if err != nil {
		return fmt.Errorf("app init error: %w", err)
	}
	defer app.Close()

	return fn(ctx, app)
}

func main() {
	cmd := &cli.Command{
		Name:  "cardbox",
		Usage: "Card store with Markdown records, BM25 search and card connections",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			addCommand(),
			showCommand(),
			listCommand(),
			searchCommand(),
			similarCommand(),
			linkCommand(),
			linksCommand(),
			deleteCommand(),
			watchCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
