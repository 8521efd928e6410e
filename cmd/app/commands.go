package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/starford/cardbox/internal"
	"github.com/starford/cardbox/internal/models"
)

func limitFlag() cli.Flag {
	return &cli.IntFlag{
		Name:    "limit",
		Aliases: []string{"n"},
		Usage:   "Maximum number of results",
		Value:   10,
	}
}

func writeJSON(cmd *cli.Command, v any) error {
	var w io.Writer = os.Stdout
	if root := cmd.Root(); root != nil && root.Writer != nil {
		w = root.Writer
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// args returns exactly n positional arguments or a usage error.
func args(cmd *cli.Command, n int) ([]string, error) {
	a := cmd.Args().Slice()
	if len(a) != n {
		return nil, fmt.Errorf("%s: expected %d argument(s), got %d", cmd.Name, n, len(a))
	}
	return a, nil
}

func addCommand() *cli.Command {
	return &cli.Command{
		Name:  "add",
		Usage: "Create or update a card",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "id", Usage: "Explicit card ID; replaces an existing card with that ID"},
			&cli.StringFlag{Name: "title", Usage: "Card title", Required: true},
			&cli.StringFlag{Name: "summary", Usage: "Short summary"},
			&cli.StringFlag{Name: "content", Usage: "Full content text; \"-\" reads stdin", Required: true},
			&cli.StringFlag{Name: "type", Usage: "Source type: note, article, book, video, conversation", Value: string(models.SourceNote)},
			&cli.StringFlag{Name: "context", Usage: "Free-text source context"},
			&cli.StringFlag{Name: "url", Usage: "Source URL"},
			&cli.StringSliceFlag{Name: "keyword", Aliases: []string{"k"}, Usage: "Keyword (repeatable)"},
			&cli.StringFlag{Name: "category", Usage: "Category"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			body := cmd.String("content")
			if body == "-" {
				data, err := io.ReadAll(os.Stdin)
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				body = string(data)
			}
			card := models.Card{
				ID:    cmd.String("id"),
				Title: cmd.String("title"),
				Content: models.Content{
					Summary: cmd.String("summary"),
					Body:    body,
				},
				Source: models.Source{
					Type:    models.SourceType(cmd.String("type")),
					Context: cmd.String("context"),
					URL:     cmd.String("url"),
				},
				Index: models.IndexInfo{
					Keywords: cmd.StringSlice("keyword"),
					Category: cmd.String("category"),
				},
			}
			return withApp(ctx, cmd, func(ctx context.Context, app *internal.App) error {
				if card.ID != "" {
					// Keep connections when updating an existing card.
					if prev, err := app.Store().LoadCard(ctx, card.ID); err == nil {
						card.Connections = prev.Connections
						card.CreatedAt = prev.CreatedAt
					}
				}
				saved, err := app.Store().SaveCard(ctx, card)
				if err != nil {
					return err
				}
				return writeJSON(cmd, saved)
			})
		},
	}
}

func showCommand() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Print one card",
		ArgsUsage: "<id>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a, err := args(cmd, 1)
			if err != nil {
				return err
			}
			return withApp(ctx, cmd, func(ctx context.Context, app *internal.App) error {
				card, err := app.Store().LoadCard(ctx, a[0])
				if err != nil {
					return err
				}
				return writeJSON(cmd, card)
			})
		},
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "Print every card",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return withApp(ctx, cmd, func(ctx context.Context, app *internal.App) error {
				cards, err := app.Store().ListCards(ctx)
				if err != nil {
					return err
				}
				return writeJSON(cmd, cards)
			})
		},
	}
}

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Rank cards against a query",
		ArgsUsage: "<query...>",
		Flags:     []cli.Flag{limitFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			query := strings.Join(cmd.Args().Slice(), " ")
			if strings.TrimSpace(query) == "" {
				return fmt.Errorf("search: query is required")
			}
			return withApp(ctx, cmd, func(ctx context.Context, app *internal.App) error {
				res, err := app.Store().Search(ctx, query, int(cmd.Int("limit")))
				if err != nil {
					return err
				}
				return writeJSON(cmd, res)
			})
		},
	}
}

func similarCommand() *cli.Command {
	return &cli.Command{
		Name:      "similar",
		Usage:     "Rank cards similar to a card",
		ArgsUsage: "<id>",
		Flags:     []cli.Flag{limitFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a, err := args(cmd, 1)
			if err != nil {
				return err
			}
			return withApp(ctx, cmd, func(ctx context.Context, app *internal.App) error {
				res, err := app.Store().Similar(ctx, a[0], int(cmd.Int("limit")))
				if err != nil {
					return err
				}
				return writeJSON(cmd, res)
			})
		},
	}
}

func linkCommand() *cli.Command {
	return &cli.Command{
		Name:      "link",
		Usage:     "Add a directed connection between two cards",
		ArgsUsage: "<from-id> <to-id> [strength]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a := cmd.Args().Slice()
			if len(a) < 2 || len(a) > 3 {
				return fmt.Errorf("link: expected <from-id> <to-id> [strength]")
			}
			strength := models.MinStrength
			if len(a) == 3 {
				n, err := strconv.Atoi(a[2])
				if err != nil {
					return fmt.Errorf("link: strength: %w", err)
				}
				strength = n
			}
			return withApp(ctx, cmd, func(ctx context.Context, app *internal.App) error {
				if err := app.Store().AddConnection(ctx, a[0], a[1], strength); err != nil {
					return err
				}
				card, err := app.Store().LoadCard(ctx, a[0])
				if err != nil {
					return err
				}
				return writeJSON(cmd, card.Connections)
			})
		},
	}
}

func linksCommand() *cli.Command {
	return &cli.Command{
		Name:      "links",
		Usage:     "Print the cards a card connects to",
		ArgsUsage: "<id>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a, err := args(cmd, 1)
			if err != nil {
				return err
			}
			return withApp(ctx, cmd, func(ctx context.Context, app *internal.App) error {
				neighbors, err := app.Store().Connected(ctx, a[0])
				if err != nil {
					return err
				}
				return writeJSON(cmd, neighbors)
			})
		},
	}
}

func deleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a card; deleting a missing card succeeds",
		ArgsUsage: "<id>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a, err := args(cmd, 1)
			if err != nil {
				return err
			}
			return withApp(ctx, cmd, func(ctx context.Context, app *internal.App) error {
				if err := app.Store().DeleteCard(ctx, a[0]); err != nil {
					return err
				}
				return writeJSON(cmd, map[string]string{"deleted": a[0]})
			})
		},
	}
}

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Follow external edits to card records and keep the index fresh",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return withApp(ctx, cmd, func(ctx context.Context, app *internal.App) error {
				return app.Watch(ctx, func(kind, id string) {
					_ = writeJSON(cmd, map[string]string{"event": kind, "id": id})
				})
			})
		},
	}
}
