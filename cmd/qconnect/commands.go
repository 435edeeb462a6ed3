package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"qconnect/contexts/community-experience/interaction-engine/application/session"
	"qconnect/contexts/community-experience/interaction-engine/domain/entities"
	"qconnect/internal/app/bootstrap"
	"qconnect/internal/platform/config"
	"qconnect/internal/platform/logging"

	"github.com/urfave/cli/v2"
)

func loadConfig(c *cli.Context) (config.Config, *slog.Logger, error) {
	if path := strings.TrimSpace(c.String("config")); path != "" {
		if err := os.Setenv("CONFIG_PATH", path); err != nil {
			return config.Config{}, nil, err
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logging.New(cfg.Log), nil
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port for the API server (overrides HTTP_PORT)",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, logger, err := loadConfig(c)
			if err != nil {
				return err
			}
			if port := strings.TrimSpace(c.String("port")); port != "" {
				cfg.HTTPPort = port
			}

			ctx, stop := signalContext(c.Context)
			defer stop()

			app, err := bootstrap.BuildAPI(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer app.Close()
			return app.Run(ctx)
		},
	}
}

func workerCommand() *cli.Command {
	return &cli.Command{
		Name:  "worker",
		Usage: "Relay the outbox and project change events into Postgres",
		Action: func(c *cli.Context) error {
			cfg, logger, err := loadConfig(c)
			if err != nil {
				return err
			}
			ctx, stop := signalContext(c.Context)
			defer stop()

			app, err := bootstrap.BuildWorker(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer app.Close()
			return app.Run(ctx)
		},
	}
}

func seedCommand() *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "Write the built-in posts and study groups into Postgres",
		Action: func(c *cli.Context) error {
			cfg, logger, err := loadConfig(c)
			if err != nil {
				return err
			}
			if err := bootstrap.Seed(c.Context, cfg, logger); err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, "catalog seeded")
			return nil
		},
	}
}

func viewCommand() *cli.Command {
	return &cli.Command{
		Name:  "view",
		Usage: "Print one actor's ordered view after optional votes, joins and query changes",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "actor", Aliases: []string{"a"}, Usage: "Actor id", Value: "demo-student"},
			&cli.StringFlag{Name: "scope", Usage: "posts, groups or all", Value: "posts"},
			&cli.StringFlag{Name: "category", Usage: "Category filter, or All"},
			&cli.StringFlag{Name: "search", Usage: "Case-insensitive search text"},
			&cli.StringFlag{Name: "sort", Usage: "popularity, recency or unanswered", Value: "popularity"},
			&cli.StringSliceFlag{Name: "vote", Usage: "Apply `ITEM:up|down` before rendering (repeatable)"},
			&cli.StringSliceFlag{Name: "join", Usage: "Toggle membership of `GROUP` before rendering (repeatable)"},
			&cli.BoolFlag{Name: "json", Usage: "Print JSON instead of a table"},
		},
		Action: func(c *cli.Context) error {
			cfg, logger, err := loadConfig(c)
			if err != nil {
				return err
			}
			runtime, err := bootstrap.OpenRuntime(c.Context, cfg, logger)
			if err != nil {
				return err
			}
			defer runtime.Close()

			scope, err := parseViewScope(c.String("scope"))
			if err != nil {
				return err
			}
			opts := viewOptions{
				Category: c.String("category"),
				Search:   c.String("search"),
				Sort:     c.String("sort"),
				Votes:    c.StringSlice("vote"),
				Joins:    c.StringSlice("join"),
			}

			var view session.View
			err = runtime.Module.Sessions.With(c.Context, c.String("actor"), scope, func(s *session.Session) error {
				view, err = applyViewOptions(c.Context, s, opts)
				return err
			})
			if err != nil {
				return err
			}
			if c.Bool("json") {
				return writeViewJSON(c.App.Writer, view)
			}
			return writeViewTable(c.App.Writer, view)
		},
	}
}

type viewOptions struct {
	Category string
	Search   string
	Sort     string
	Votes    []string
	Joins    []string
}

func applyViewOptions(ctx context.Context, s *session.Session, opts viewOptions) (session.View, error) {
	for _, raw := range opts.Votes {
		itemID, rawDirection, ok := strings.Cut(raw, ":")
		if !ok {
			return session.View{}, fmt.Errorf("vote %q must look like ITEM:up or ITEM:down", raw)
		}
		direction, ok := entities.ParseDirection(rawDirection)
		if !ok {
			return session.View{}, fmt.Errorf("vote %q: unknown direction %q", raw, rawDirection)
		}
		if _, err := s.Vote(ctx, itemID, direction); err != nil {
			return session.View{}, fmt.Errorf("vote %q: %w", raw, err)
		}
	}
	for _, groupID := range opts.Joins {
		if _, err := s.ToggleMembership(ctx, groupID); err != nil {
			return session.View{}, fmt.Errorf("join %q: %w", groupID, err)
		}
	}
	if strings.TrimSpace(opts.Category) != "" {
		if _, err := s.SetCategory(ctx, opts.Category); err != nil {
			return session.View{}, err
		}
	}
	if opts.Search != "" {
		if _, err := s.SetSearchText(ctx, opts.Search); err != nil {
			return session.View{}, err
		}
	}
	if strings.TrimSpace(opts.Sort) != "" {
		key, ok := entities.ParseSortKey(opts.Sort)
		if !ok {
			return session.View{}, fmt.Errorf("sort %q: unknown sort key", opts.Sort)
		}
		if _, err := s.SetSortKey(ctx, key); err != nil {
			return session.View{}, err
		}
	}
	return s.View(ctx)
}

func parseViewScope(raw string) (entities.ItemKind, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "all":
		return "", nil
	case "post", "posts":
		return entities.ItemKindPost, nil
	case "group", "groups":
		return entities.ItemKindGroup, nil
	default:
		return "", fmt.Errorf("scope %q must be posts, groups or all", raw)
	}
}

type viewRow struct {
	ItemID   string `json:"item_id"`
	Kind     string `json:"kind"`
	Category string `json:"category"`
	Title    string `json:"title"`
	Score    int    `json:"score"`
	Metric   int    `json:"secondary_metric"`
	Mine     string `json:"mine,omitempty"`
}

func viewRows(view session.View) []viewRow {
	rows := make([]viewRow, 0, view.Sequence.Len())
	for _, item := range view.Sequence.All() {
		row := viewRow{
			ItemID:   item.ItemID,
			Kind:     string(item.Kind),
			Category: item.Category,
			Title:    item.Title,
			Score:    item.Score,
			Metric:   item.SecondaryMetric,
		}
		if item.IsPost() {
			if direction := view.DirectionFor(item.ItemID); direction != entities.DirectionNone {
				row.Mine = string(direction)
			}
		} else if view.IsJoined(item.ItemID) {
			row.Mine = "joined"
		}
		rows = append(rows, row)
	}
	return rows
}

func writeViewJSON(w io.Writer, view session.View) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(struct {
		Category string    `json:"category"`
		Search   string    `json:"search"`
		Sort     string    `json:"sort"`
		Items    []viewRow `json:"items"`
	}{
		Category: view.State.SelectedCategory,
		Search:   view.State.SearchText,
		Sort:     string(view.State.SortKey),
		Items:    viewRows(view),
	})
}

func writeViewTable(w io.Writer, view session.View) error {
	fmt.Fprintf(w, "category=%s search=%q sort=%s\n", view.State.SelectedCategory, view.State.SearchText, view.State.SortKey)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tKIND\tCATEGORY\tSCORE\tREPLIES/MEMBERS\tMINE\tTITLE")
	for _, row := range viewRows(view) {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
			row.ItemID, row.Kind, row.Category, row.Score, row.Metric, row.Mine, row.Title)
	}
	return tw.Flush()
}
