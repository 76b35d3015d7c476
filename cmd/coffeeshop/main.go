package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

type ui struct {
	title func(a ...any) string
	ok    func(a ...any) string
	info  func(a ...any) string
	warn  func(a ...any) string
	err   func(a ...any) string
	dim   func(a ...any) string
}

func newUI() *ui {
	return &ui{
		title: color.New(color.FgHiCyan, color.Bold).SprintFunc(),
		ok:    color.New(color.FgGreen, color.Bold).SprintFunc(),
		info:  color.New(color.FgCyan).SprintFunc(),
		warn:  color.New(color.FgYellow).SprintFunc(),
		err:   color.New(color.FgRed, color.Bold).SprintFunc(),
		dim:   color.New(color.FgHiBlack).SprintFunc(),
	}
}

// settings holds the connection values resolved from flags, env and the
// active profile.
type settings struct {
	baseURL string
	token   string
	profile string
}

func main() {
	ui := newUI()
	if err := newRootCmd(ui).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.err("[ERROR]"), err.Error())
		os.Exit(1)
	}
}

func newRootCmd(ui *ui) *cobra.Command {
	s := &settings{
		baseURL: getenv("COFFEESHOP_BASE_URL", defaultBaseURL),
		token:   getenv("COFFEESHOP_TOKEN", ""),
		profile: getenv("COFFEESHOP_PROFILE", ""),
	}

	root := &cobra.Command{
		Use:   "coffeeshop",
		Short: "coffeeshop CLI",
		Long:  "coffeeshop CLI for browsing and managing the drink menu.",
	}
	root.SetHelpTemplate(helpTemplate(ui))
	root.SilenceUsage = true

	root.PersistentFlags().StringVar(&s.baseURL, "base-url", s.baseURL, "Base URL for the coffeeshop API")
	root.PersistentFlags().StringVar(&s.token, "token", s.token, "Bearer token (JWT)")
	root.PersistentFlags().StringVar(&s.profile, "profile", s.profile, "Config profile")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		active := resolveProfileName(s.profile, cfg)
		prof := cfg.Profiles[active]

		flags := cmd.Flags()
		if !flags.Changed("base-url") && os.Getenv("COFFEESHOP_BASE_URL") == "" && prof.BaseURL != "" {
			s.baseURL = prof.BaseURL
		}
		if !flags.Changed("token") && os.Getenv("COFFEESHOP_TOKEN") == "" && prof.Token != "" {
			s.token = prof.Token
		}
		if s.profile == "" {
			s.profile = active
		}
		return nil
	}

	root.AddCommand(initCmd(s, ui))
	root.AddCommand(authCmd(s, ui))
	root.AddCommand(drinkCmd(s, ui))
	return root
}

func initCmd(s *settings, ui *ui) *cobra.Command {
	var (
		baseURL  string
		token    string
		noPrompt bool
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize CLI config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, cfgPath, err := loadConfig()
			if err != nil {
				return err
			}
			active := resolveProfileName(s.profile, cfg)
			prof := cfg.Profiles[active]

			baseURL = firstNonEmpty(baseURL, prof.BaseURL, defaultBaseURL)
			if !noPrompt {
				reader := bufio.NewReader(os.Stdin)
				baseURL = prompt(reader, "Base URL", baseURL)
				if token == "" {
					token = prompt(reader, "Token (optional)", "")
				}
			}

			prof.BaseURL = strings.TrimSpace(baseURL)
			if token != "" {
				prof.Token = strings.TrimSpace(token)
			}
			cfg.Profiles[active] = prof
			if cfg.CurrentProfile == "" || cmd.Flags().Changed("profile") {
				cfg.CurrentProfile = active
			}

			if err := saveConfig(cfg, cfgPath); err != nil {
				return err
			}
			fmt.Printf("%s Initialized profile '%s' at %s\n", ui.ok("[OK]"), active, cfgPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&baseURL, "base-url", "", "Base URL for the coffeeshop API")
	cmd.Flags().StringVar(&token, "token", "", "Bearer token (JWT)")
	cmd.Flags().BoolVar(&noPrompt, "no-prompt", false, "Disable interactive prompts")
	return cmd
}

func authCmd(s *settings, ui *ui) *cobra.Command {
	auth := &cobra.Command{
		Use:   "auth",
		Short: "Manage stored credentials",
	}

	var token string
	set := &cobra.Command{
		Use:   "set",
		Short: "Store a bearer token in the active profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, cfgPath, err := loadConfig()
			if err != nil {
				return err
			}
			if strings.TrimSpace(token) == "" {
				token, err = promptSecret("Token")
				if err != nil {
					return err
				}
			}
			if strings.TrimSpace(token) == "" {
				return fmt.Errorf("token is required")
			}
			active := resolveProfileName(s.profile, cfg)
			prof := cfg.Profiles[active]
			prof.Token = strings.TrimSpace(token)
			if prof.BaseURL == "" {
				prof.BaseURL = s.baseURL
			}
			cfg.Profiles[active] = prof
			if err := saveConfig(cfg, cfgPath); err != nil {
				return err
			}
			fmt.Printf("%s Token saved for '%s'\n", ui.ok("[OK]"), active)
			return nil
		},
	}
	set.Flags().StringVar(&token, "value", "", "Token value (prompted when omitted)")

	show := &cobra.Command{
		Use:   "show",
		Short: "Show stored credentials (masked)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			active := resolveProfileName(s.profile, cfg)
			prof := cfg.Profiles[active]
			fmt.Printf("%s Profile: %s\n", ui.title("coffeeshop"), active)
			fmt.Printf("%s Base URL: %s\n", ui.info("•"), emptyOr(prof.BaseURL, "<unset>"))
			fmt.Printf("%s Token:    %s\n", ui.info("•"), maskToken(prof.Token))
			return nil
		},
	}

	clear := &cobra.Command{
		Use:   "clear",
		Short: "Clear the stored token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, cfgPath, err := loadConfig()
			if err != nil {
				return err
			}
			active := resolveProfileName(s.profile, cfg)
			prof, ok := cfg.Profiles[active]
			if !ok {
				fmt.Printf("%s No profile '%s'\n", ui.warn("[WARN]"), active)
				return nil
			}
			prof.Token = ""
			cfg.Profiles[active] = prof
			if err := saveConfig(cfg, cfgPath); err != nil {
				return err
			}
			fmt.Printf("%s Token cleared for '%s'\n", ui.ok("[OK]"), active)
			return nil
		},
	}

	auth.AddCommand(set, show, clear)
	return auth
}

func getenv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func helpTemplate(ui *ui) string {
	title := ui.title("coffeeshop")
	return fmt.Sprintf(`%s: CLI for the drink menu

Usage:
  {{.UseLine}}

Commands:
{{range .Commands}}{{if (or .IsAvailableCommand .IsAdditionalHelpTopicCommand)}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}

Flags:
  {{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}

Global Flags:
  {{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}

Config:
  %s

Examples:
  coffeeshop init
  coffeeshop auth set
  coffeeshop drink list
  coffeeshop drink create --title latte --recipe '[{"name":"milk","color":"white","parts":2}]'
  coffeeshop drink import menu.yaml

`, title, configPath())
}
