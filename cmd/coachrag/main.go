package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"coachrag/internal/config"
	"coachrag/internal/domain"
	"coachrag/internal/logging"
	"coachrag/internal/tui"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// cli carries the state shared by all subcommands.
type cli struct {
	cfgPath string
	verbose bool
	cfg     *config.AppConfig
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "coachrag",
		Short: "Relationship coaching reports from your own answers",
		Long: `coachrag stores free-text answers, summarizes each one with a language model
and writes a report with practical advice from the most relevant summaries.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.load(cmd)
		},
	}
	root.PersistentFlags().StringVar(&c.cfgPath, "config", "", "path to a YAML or TOML config file (default ./config.yaml, then ~/.config/coachrag/config.yaml)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(c.submitCmd(), c.summarizeCmd(), c.reportCmd(), c.tuiCmd())
	return root
}

func (c *cli) load(cmd *cobra.Command) error {
	var err error
	if c.cfgPath == "" {
		c.cfg, _, err = config.LoadDefault()
	} else {
		c.cfg, err = config.Load(c.cfgPath)
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	level := c.cfg.Log.Level
	if c.verbose {
		level = "debug"
	}
	logging.Configure(level, cmd.ErrOrStderr())
	return nil
}

// withCoach assembles the service, runs fn and releases everything afterwards.
func (c *cli) withCoach(strategy string, fn func(domain.CoachService) error) error {
	comps, err := assemble(c.cfg, strategy)
	if err != nil {
		return err
	}
	runErr := fn(comps.coach)
	return errors.Join(runErr, comps.close())
}

func (c *cli) submitCmd() *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "submit --user USER [answer text]",
		Short: "Store and summarize one answer",
		Long:  "Stores the answer and summarizes it. Without arguments the answer is read from stdin.",
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if len(args) == 0 {
				data, err := readAll(cmd)
				if err != nil {
					return err
				}
				text = data
			}
			return c.withCoach("", func(svc domain.CoachService) error {
				a, err := svc.Submit(cmd.Context(), user, text)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Stored answer %s\n", a.ID)
				if a.Summary != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "Summary: %s\n", *a.Summary)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&user, "user", "u", "", "user id")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func (c *cli) summarizeCmd() *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "summarize --user USER",
		Short: "Summarize stored answers that have no summary yet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withCoach("", func(svc domain.CoachService) error {
				n, err := svc.SummarizePending(cmd.Context(), user)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Summarized %d answers\n", n)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&user, "user", "u", "", "user id")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func (c *cli) reportCmd() *cobra.Command {
	var (
		user     string
		asJSON   bool
		strategy string
	)
	cmd := &cobra.Command{
		Use:   "report --user USER",
		Short: "Write a report and advice from the user's summarized answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withCoach(strategy, func(svc domain.CoachService) error {
				res, err := svc.Report(cmd.Context(), user)
				if errors.Is(err, domain.ErrNoContent) {
					return fmt.Errorf("no summarized answers for user %q: %w", user, err)
				}
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if asJSON {
					data, err := json.MarshalIndent(res, "", "  ")
					if err != nil {
						return fmt.Errorf("failed to marshal report: %w", err)
					}
					fmt.Fprintln(out, string(data))
					return nil
				}
				fmt.Fprintf(out, "Report:\n%s\n\nAdvice:\n%s\n", res.Report, res.Advice)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&user, "user", "u", "", "user id")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	cmd.Flags().StringVar(&strategy, "strategy", "", "synthesis strategy: rag or direct (default from config)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func (c *cli) tuiCmd() *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "tui --user USER",
		Short: "Start an interactive session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withCoach("", func(svc domain.CoachService) error {
				_, err := tea.NewProgram(tui.New(cmd.Context(), svc, user), tea.WithContext(cmd.Context())).Run()
				return err
			})
		},
	}
	cmd.Flags().StringVarP(&user, "user", "u", "", "user id")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func readAll(cmd *cobra.Command) (string, error) {
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("read answer: %w", err)
	}
	return string(data), nil
}
