package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"task-dashboard/internal/bot"
	"task-dashboard/internal/config"
	"task-dashboard/internal/export"
	"task-dashboard/internal/service"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "taskdashboard",
		Short:         "Personal task dashboard",
		Long:          `Tracks tasks by category and reports completion and overdue statistics over HTTP and Telegram.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd(), statsCmd(), reportCmd(), exportCmd())
	return root
}

// withApp loads configuration, wires the services and closes them after run.
func withApp(ctx context.Context, run func(context.Context, *app) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	a, err := newApp(ctx, cfg, loc)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Printf("close app: %v", err)
		}
	}()
	return run(ctx, a)
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the Telegram bot and the report scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return withApp(ctx, serve)
		},
	}
}

func serve(ctx context.Context, a *app) error {
	if a.cfg.Telegram.Token != "" {
		telegramBot, err := bot.New(a.cfg.Telegram.Token, a.commands(), a.subscribers, a.reminders)
		if err != nil {
			return fmt.Errorf("bot: %w", err)
		}

		scheduler := service.NewSchedulerService(a.loc)
		job := func() {
			jobCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := telegramBot.SendDailyReports(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("report: %v", err)
			}
		}
		if _, err := scheduler.ScheduleReport(a.cfg.ReportInterval(), a.cfg.Report.Time, job); err != nil {
			return fmt.Errorf("schedule reports: %w", err)
		}
		scheduler.Start()
		defer scheduler.Stop()

		go func() {
			if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("bot stopped with error: %v", err)
			}
		}()
	} else {
		log.Println("[info] TELEGRAM_TOKEN not set, bot and reports disabled")
	}

	log.Println("[info] task dashboard started")
	if err := a.server().ListenAndServe(ctx, a.cfg.HTTPAddr); err != nil {
		return fmt.Errorf("http: %w", err)
	}
	log.Println("[info] shutdown complete")
	return nil
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print task statistics as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				stats, err := a.stats.ComputeStats(ctx)
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(stats)
			})
		},
	}
}

func reportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Print the daily report",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				summary, err := a.reminders.DailySummary(ctx)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), summary)
				return err
			})
		},
	}
}

func exportCmd() *cobra.Command {
	var format, out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export tasks as json, csv or pdf",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := export.ContentType(format); err != nil {
				return err
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				b, err := a.exporter.Export(ctx, format)
				if err != nil {
					return fmt.Errorf("export: %w", err)
				}
				if out == "" || out == "-" {
					_, err = cmd.OutOrStdout().Write(b)
					return err
				}
				if err := os.WriteFile(out, b, 0o644); err != nil {
					return fmt.Errorf("write: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported -> %s\n", out)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "export format: json|csv|pdf")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output path (stdout when empty)")
	return cmd
}
