package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v2"

	"drivethru"
	"drivethru/menu"
	"drivethru/validation"
)

func menuCommand() *cli.Command {
	withCatalog := func(fn func(c *cli.Context, cfg drivethru.Config, catalog *menu.Catalog) error) cli.ActionFunc {
		return func(c *cli.Context) error {
			cfg, err := drivethru.LoadConfig()
			if err != nil {
				return err
			}
			catalog, err := loadCatalog(c.Context, cfg.Menu)
			if err != nil {
				return fmt.Errorf("failed to load menu: %w", err)
			}
			return fn(c, cfg, catalog)
		}
	}

	return &cli.Command{
		Name:  "menu",
		Usage: "inspect the configured menu",
		Subcommands: []*cli.Command{
			{
				Name:  "categories",
				Usage: "list categories with their item counts",
				Action: withCatalog(func(c *cli.Context, _ drivethru.Config, catalog *menu.Catalog) error {
					printCategories(c.App.Writer, catalog)
					return nil
				}),
			},
			{
				Name:      "search",
				Usage:     "find items whose name contains a keyword",
				ArgsUsage: "<keyword>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "category", Usage: "restrict the search to one category"},
				},
				Action: withCatalog(func(c *cli.Context, _ drivethru.Config, catalog *menu.Catalog) error {
					printItems(c.App.Writer, catalog.SearchItems(c.Args().First(), c.String("category")))
					return nil
				}),
			},
			{
				Name:  "validate",
				Usage: "check an item request the way the order tools do",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "category"},
					&cli.StringFlag{Name: "item", Required: true},
					&cli.StringSliceFlag{Name: "modifier"},
				},
				Action: withCatalog(func(c *cli.Context, cfg drivethru.Config, catalog *menu.Catalog) error {
					v := validation.New(catalog, cfg.Match.Validation())
					printValidation(c.App.Writer, v.Validate(c.String("category"), c.String("item"), c.StringSlice("modifier")))
					return nil
				}),
			},
		},
	}
}

func printCategories(w io.Writer, catalog *menu.Catalog) {
	for _, name := range catalog.AllCategories() {
		fmt.Fprintf(w, "%-24s %d\n", name, len(catalog.GetCategory(name)))
	}
	fmt.Fprintf(w, "%-24s %d\n", "total", catalog.ItemsCount())
}

func printItems(w io.Writer, items []menu.Item) {
	if len(items) == 0 {
		fmt.Fprintln(w, "no items found")
		return
	}
	for _, it := range items {
		line := fmt.Sprintf("%s / %s", it.Category, it.Name)
		if len(it.Modifiers) > 0 {
			line += " [" + strings.Join(it.ModifierNames(), ", ") + "]"
		}
		if !it.OrderableAsBase {
			line += " (selection required)"
		}
		fmt.Fprintln(w, line)
	}
}

func printValidation(w io.Writer, res validation.Result) {
	if !res.Valid {
		fmt.Fprintf(w, "invalid: %s\n", res.Error)
		return
	}
	fmt.Fprintf(w, "valid: %s / %s (score %.1f)\n", res.Item.Category, res.Item.Name, res.Score)
	for _, m := range res.Modifiers {
		fmt.Fprintf(w, "  + %s (%s)\n", m.Name, m.ID)
	}
}
