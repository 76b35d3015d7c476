package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/briandowns/spinner"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// menuFile is the layout accepted by `drink import`.
type menuFile struct {
	Drinks []struct {
		Title  string       `yaml:"title"`
		Recipe []recipeItem `yaml:"recipe"`
	} `yaml:"drinks"`
}

func drinkCmd(s *settings, ui *ui) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drink",
		Short: "Drink menu operations",
	}
	cmd.AddCommand(
		drinkListCmd(s, ui, false),
		drinkListCmd(s, ui, true),
		drinkCreateCmd(s, ui),
		drinkUpdateCmd(s, ui),
		drinkDeleteCmd(s, ui),
		drinkImportCmd(s, ui),
	)
	return cmd
}

func withSpinner[T any](suffix string, fn func() (T, error)) (T, error) {
	spin := spinner.New(spinner.CharSets[14], 120*time.Millisecond)
	spin.Suffix = " " + suffix
	spin.Writer = os.Stderr
	spin.Start()
	defer spin.Stop()
	return fn()
}

func drinkListCmd(s *settings, ui *ui, detail bool) *cobra.Command {
	use, short := "list", "List the menu"
	if detail {
		use, short = "detail", "List the menu with ingredient names"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient(s.baseURL, s.token)
			drinks, err := withSpinner("Fetching drinks...", func() ([]drink, error) {
				return c.listDrinks(cmd.Context(), detail)
			})
			if err != nil {
				return err
			}
			if len(drinks) == 0 {
				fmt.Println(ui.dim("menu is empty"))
				return nil
			}
			printDrinks(ui, drinks)
			return nil
		},
	}
}

func printDrinks(ui *ui, drinks []drink) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\t%s\n", ui.title("ID"), ui.title("TITLE"), ui.title("RECIPE"))
	for _, d := range drinks {
		parts := make([]string, 0, len(d.Recipe))
		for _, ing := range d.Recipe {
			label := ing.Color
			if ing.Name != "" {
				label = ing.Name + "/" + ing.Color
			}
			parts = append(parts, fmt.Sprintf("%s x%g", label, ing.Parts))
		}
		fmt.Fprintf(w, "%d\t%s\t%s\n", d.ID, d.Title, strings.Join(parts, ", "))
	}
	_ = w.Flush()
}

func parseRecipeFlag(v string) (json.RawMessage, error) {
	raw := json.RawMessage(strings.TrimSpace(v))
	if !json.Valid(raw) {
		return nil, errors.New("--recipe must be valid JSON")
	}
	return raw, nil
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid drink id %q", arg)
	}
	return id, nil
}

func drinkCreateCmd(s *settings, ui *ui) *cobra.Command {
	var title, recipe string
	cmd := &cobra.Command{
		Use:     "create",
		Short:   "Add a drink",
		Example: `coffeeshop drink create --title latte --recipe '[{"name":"milk","color":"white","parts":2}]'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(title) == "" {
				return errors.New("title is required")
			}
			raw, err := parseRecipeFlag(recipe)
			if err != nil {
				return err
			}
			c := newClient(s.baseURL, s.token)
			d, err := withSpinner("Creating drink...", func() (drink, error) {
				return c.createDrink(cmd.Context(), title, raw)
			})
			if err != nil {
				return err
			}
			fmt.Printf("%s Drink created: %d (%s)\n", ui.ok("[OK]"), d.ID, d.Title)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Drink title")
	cmd.Flags().StringVar(&recipe, "recipe", "[]", "Recipe as a JSON list of {name,color,parts}")
	return cmd
}

func drinkUpdateCmd(s *settings, ui *ui) *cobra.Command {
	var title, recipe string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a drink's title or recipe",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			patch := map[string]any{}
			if cmd.Flags().Changed("title") {
				patch["title"] = title
			}
			if cmd.Flags().Changed("recipe") {
				raw, err := parseRecipeFlag(recipe)
				if err != nil {
					return err
				}
				patch["recipe"] = raw
			}
			if len(patch) == 0 {
				return errors.New("nothing to update: pass --title or --recipe")
			}
			c := newClient(s.baseURL, s.token)
			d, err := withSpinner("Updating drink...", func() (drink, error) {
				return c.updateDrink(cmd.Context(), id, patch)
			})
			if err != nil {
				return err
			}
			fmt.Printf("%s Drink updated: %d (%s)\n", ui.ok("[OK]"), d.ID, d.Title)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&recipe, "recipe", "", "New recipe as a JSON list")
	return cmd
}

func drinkDeleteCmd(s *settings, ui *ui) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a drink",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c := newClient(s.baseURL, s.token)
			deleted, err := withSpinner("Deleting drink...", func() (int64, error) {
				return c.deleteDrink(cmd.Context(), id)
			})
			if err != nil {
				return err
			}
			fmt.Printf("%s Drink deleted: %d\n", ui.ok("[OK]"), deleted)
			return nil
		},
	}
}

func drinkImportCmd(s *settings, ui *ui) *cobra.Command {
	var stopOnError bool
	cmd := &cobra.Command{
		Use:     "import <file.yaml>",
		Short:   "Create every drink listed in a YAML menu file",
		Example: "coffeeshop drink import menu.yaml",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			menu, err := readMenu(args[0])
			if err != nil {
				return err
			}
			c := newClient(s.baseURL, s.token)
			created, failed, err := importMenu(cmd.Context(), c, menu, stopOnError, ui)
			if err != nil {
				return err
			}
			fmt.Printf("%s Imported %d drinks", ui.ok("[OK]"), created)
			if failed > 0 {
				fmt.Printf(", %s", ui.warn(fmt.Sprintf("%d failed", failed)))
			}
			fmt.Println()
			return nil
		},
	}
	cmd.Flags().BoolVar(&stopOnError, "stop-on-error", false, "Abort on the first rejected drink")
	return cmd
}

func readMenu(path string) (menuFile, error) {
	var menu menuFile
	data, err := os.ReadFile(path)
	if err != nil {
		return menu, err
	}
	if err := yaml.Unmarshal(data, &menu); err != nil {
		return menu, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(menu.Drinks) == 0 {
		return menu, fmt.Errorf("%s lists no drinks", path)
	}
	return menu, nil
}

func importMenu(ctx context.Context, c *client, menu menuFile, stopOnError bool, ui *ui) (created, failed int, err error) {
	bar := progressbar.NewOptions(len(menu.Drinks),
		progressbar.OptionSetDescription("importing"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
	for _, d := range menu.Drinks {
		recipe := d.Recipe
		if recipe == nil {
			recipe = []recipeItem{}
		}
		if _, cerr := c.createDrink(ctx, d.Title, recipe); cerr != nil {
			if stopOnError {
				_ = bar.Finish()
				return created, failed + 1, fmt.Errorf("import %q: %w", d.Title, cerr)
			}
			failed++
			_ = bar.Clear()
			fmt.Fprintf(os.Stderr, "%s %q: %v\n", ui.warn("[SKIP]"), d.Title, cerr)
		} else {
			created++
		}
		_ = bar.Add(1)
	}
	_ = bar.Finish()
	return created, failed, nil
}
