package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/atvirokodosprendimai/catalog/internal/application"
	"github.com/atvirokodosprendimai/catalog/internal/domain"
	"github.com/atvirokodosprendimai/catalog/internal/seed"
)

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{Name: "json", Usage: "output raw JSON"}
}

func itemsCommand() *cli.Command {
	counter := func(op, usage string) *cli.Command {
		return &cli.Command{
			Name:      op,
			Usage:     usage,
			ArgsUsage: "ITEM_ID",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "key", Usage: "idempotency key; repeats are counted once"},
				jsonFlag(),
			},
			Action: func(ctx context.Context, c *cli.Command) error {
				itemID := c.Args().First()
				if itemID == "" {
					return errors.New("ITEM_ID is required")
				}
				cfg, err := loadConfig()
				if err != nil {
					return err
				}
				var out domain.Item
				if err := doItemCounter(ctx, cfg, op, itemID, c.String("key"), &out); err != nil {
					return err
				}
				if c.Bool("json") {
					return printJSON(out)
				}
				printItem(out)
				return nil
			},
		}
	}

	return &cli.Command{
		Name:  "items",
		Usage: "Item commands",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List items, featured first",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "q", Usage: "search name, description and tags"},
					&cli.StringFlag{Name: "category", Value: domain.AllCategories},
					&cli.IntFlag{Name: "limit", Value: 200},
					jsonFlag(),
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out []domain.Item
					if err := doItemsList(ctx, cfg, c.String("q"), c.String("category"), c.Int("limit"), &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printItems(out)
					return nil
				},
			},
			counter("like", "Like an item"),
			counter("download", "Record a download"),
		},
	}
}

func reviewsCommand() *cli.Command {
	moderate := func(op, usage string) *cli.Command {
		return &cli.Command{
			Name:      op,
			Usage:     usage,
			ArgsUsage: "REVIEW_ID",
			Flags:     []cli.Flag{jsonFlag()},
			Action: func(ctx context.Context, c *cli.Command) error {
				reviewID := c.Args().First()
				if reviewID == "" {
					return errors.New("REVIEW_ID is required")
				}
				cfg, err := loadConfig()
				if err != nil {
					return err
				}
				var out domain.Review
				if err := doReviewModerate(ctx, cfg, op, reviewID, &out); err != nil {
					return err
				}
				if c.Bool("json") {
					return printJSON(out)
				}
				printReview(out)
				return nil
			},
		}
	}

	return &cli.Command{
		Name:  "reviews",
		Usage: "Review commands",
		Commands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Submit a review",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "item", Required: true},
					&cli.StringFlag{Name: "author", Required: true},
					&cli.StringFlag{Name: "email"},
					&cli.IntFlag{Name: "rating", Required: true},
					&cli.StringFlag{Name: "comment", Required: true},
					jsonFlag(),
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					in := application.ReviewInput{
						ItemID:  c.String("item"),
						Author:  c.String("author"),
						Email:   c.String("email"),
						Rating:  c.Int("rating"),
						Comment: c.String("comment"),
					}
					var out struct {
						Accepted bool          `json:"accepted"`
						Review   domain.Review `json:"review"`
					}
					if err := doReviewsAdd(ctx, cfg, in, &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					if !out.Accepted {
						_, _ = fmt.Fprintln(stdout, "review was not accepted")
						return nil
					}
					printReview(out.Review)
					return nil
				},
			},
			{
				Name:  "pending",
				Usage: "List reviews awaiting moderation (admin mode)",
				Flags: []cli.Flag{&cli.StringFlag{Name: "item"}, jsonFlag()},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out []domain.Review
					if err := doReviewsPending(ctx, cfg, c.String("item"), &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printReviews(out)
					return nil
				},
			},
			moderate("approve", "Approve a pending review (admin mode)"),
			moderate("reject", "Reject a pending review (admin mode)"),
		},
	}
}

func statsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Show catalog statistics",
		Flags: []cli.Flag{jsonFlag()},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			var out domain.AdminStats
			if err := doStats(ctx, cfg, &out); err != nil {
				return err
			}
			if c.Bool("json") {
				return printJSON(out)
			}
			printStats(out)
			return nil
		},
	}
}

func adminCommand() *cli.Command {
	return &cli.Command{
		Name:  "admin",
		Usage: "Admin mode gesture and login",
		Commands: []*cli.Command{
			{
				Name:  "click",
				Usage: "Register one admin gesture click",
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out struct {
						Prompt bool `json:"prompt"`
						Clicks int  `json:"clicks"`
					}
					if err := doAdminClick(ctx, cfg, &out); err != nil {
						return err
					}
					if out.Prompt {
						_, _ = fmt.Fprintf(stdout, "clicks: %d, run `catalog admin login`\n", out.Clicks)
						return nil
					}
					_, _ = fmt.Fprintf(stdout, "clicks: %d\n", out.Clicks)
					return nil
				},
			},
			{
				Name:  "login",
				Usage: "Enter admin mode",
				Flags: []cli.Flag{&cli.StringFlag{Name: "password", Required: true, Sources: cli.EnvVars("CATALOG_ADMIN_PASSWORD")}},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					if err := doAdminLogin(ctx, cfg, c.String("password"), nil); err != nil {
						return err
					}
					printSuccess("admin mode enabled")
					return nil
				},
			},
			{
				Name:  "logout",
				Usage: "Leave admin mode",
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					if err := doAdminLogout(ctx, cfg, nil); err != nil {
						return err
					}
					printSuccess("admin mode disabled")
					return nil
				},
			},
			{
				Name:  "audit",
				Usage: "List recent audit log entries (admin mode)",
				Flags: []cli.Flag{&cli.IntFlag{Name: "limit", Value: 100}, jsonFlag()},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out []domain.AuditLog
					if err := doAuditList(ctx, cfg, c.Int("limit"), &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printAuditLogs(out)
					return nil
				},
			},
		},
	}
}

func seedCommand() *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "Seed fixture commands",
		Commands: []*cli.Command{
			{
				Name:  "export",
				Usage: "Write a fixture as YAML",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "variant", Value: "bots", Usage: "embedded fixture to export"},
					&cli.BoolFlag{Name: "live", Usage: "export the running server's snapshot instead (admin mode)"},
					&cli.StringFlag{Name: "out", Usage: "output file (default stdout)"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					kind, snap, err := exportSource(ctx, c.String("variant"), c.Bool("live"))
					if err != nil {
						return err
					}
					path := c.String("out")
					if path == "" {
						return seed.Export(stdout, kind, snap)
					}
					f, err := os.Create(path)
					if err != nil {
						return err
					}
					if err := seed.Export(f, kind, snap); err != nil {
						_ = f.Close()
						return err
					}
					return f.Close()
				},
			},
		},
	}
}

func exportSource(ctx context.Context, variant string, live bool) (string, domain.Snapshot, error) {
	if !live {
		v, err := seed.Lookup(variant)
		if err != nil {
			return "", domain.Snapshot{}, err
		}
		snap, err := v.Snapshot()
		return v.Kind, snap, err
	}
	cfg, err := loadConfig()
	if err != nil {
		return "", domain.Snapshot{}, err
	}
	var out struct {
		Kind     string          `json:"kind"`
		Snapshot domain.Snapshot `json:"snapshot"`
	}
	if err := doSnapshot(ctx, cfg, &out); err != nil {
		return "", domain.Snapshot{}, err
	}
	return out.Kind, out.Snapshot, nil
}

func configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "CLI transport settings",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Print the current CLI config",
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					printKV([][2]string{{"transport", cfg.Transport}, {"server", cfg.Server}, {"socket", cfg.Socket}})
					return nil
				},
			},
			{
				Name:  "set",
				Usage: "Choose transport and endpoints",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "transport", Usage: "uds or http"},
					&cli.StringFlag{Name: "server"},
					&cli.StringFlag{Name: "socket"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					if c.IsSet("transport") {
						t := c.String("transport")
						if t != "uds" && t != "http" {
							return fmt.Errorf("transport must be uds or http, got %q", t)
						}
						cfg.Transport = t
					}
					if c.IsSet("server") {
						cfg.Server = c.String("server")
					}
					if c.IsSet("socket") {
						cfg.Socket = c.String("socket")
					}
					if err := saveConfig(cfg); err != nil {
						return err
					}
					printSuccess("saved")
					return nil
				},
			},
		},
	}
}
