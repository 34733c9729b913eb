package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/pbaille/fitlog/internal/aggregate"
	"github.com/pbaille/fitlog/internal/api"
	"github.com/pbaille/fitlog/internal/config"
	"github.com/pbaille/fitlog/internal/domain"
	"github.com/pbaille/fitlog/internal/enrich"
	"github.com/pbaille/fitlog/internal/fetcher"
	"github.com/pbaille/fitlog/internal/logging"
	"github.com/pbaille/fitlog/internal/pipeline"
	"github.com/pbaille/fitlog/internal/store"
	"github.com/pbaille/fitlog/internal/tracking"
)

var opts config.Options

func main() {
	rootCmd := &cobra.Command{
		Use:           "fitlog",
		Short:         "Fitness journal that turns notes into daily tracking",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "config file (default <data-dir>/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&opts.DataDir, "data-dir", "", "data directory (default ~/.fitlog)")
	rootCmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "debug, info, warn or error")

	rootCmd.AddCommand(addCmd())
	rootCmd.AddCommand(editCmd())
	rootCmd.AddCommand(retryCmd())
	rootCmd.AddCommand(rmCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(showCmd())
	rootCmd.AddCommand(daysCmd())
	rootCmd.AddCommand(trackCmd())
	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// app holds the components shared by every command
type app struct {
	cfg      *config.Config
	log      logging.Logger
	loc      *time.Location
	store    *store.NoteStore
	pipeline *pipeline.Pipeline
	records  *tracking.Records
}

func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(opts)
	if err != nil {
		return nil, err
	}
	log := logging.New(os.Stderr, logging.ParseLevel(cfg.LogLevel))
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	s, err := store.Open(ctx, store.Options{
		Backend:  cfg.Store.Backend,
		DBPath:   cfg.Store.DB,
		BlobPath: cfg.Store.Blob,
		Logger:   log,
	})
	if err != nil {
		return nil, err
	}

	var enricher enrich.Enricher = enrich.Disabled{}
	client, err := enrich.New(enrich.Config{
		Endpoint: cfg.Enrich.Endpoint,
		Model:    cfg.Enrich.Model,
		APIKey:   cfg.Enrich.APIKey,
		Timeout:  cfg.Enrich.Timeout,
		Logger:   log,
	})
	if err != nil {
		log.Info("enrichment disabled: %v", err)
	} else {
		enricher = client
	}

	p := pipeline.New(s, enricher, pipeline.Config{
		RecentLimit: cfg.RecentLimit,
		Logger:      log,
	})

	return &app{
		cfg:      cfg,
		log:      log,
		loc:      loc,
		store:    s,
		pipeline: p,
		records:  tracking.NewRecords(afero.NewOsFs(), cfg.TrackingFile),
	}, nil
}

// Close waits for background enrichment before closing the store
func (a *app) Close() error {
	a.pipeline.Wait()
	return a.store.Close()
}

// days returns the combined daily view of manual records and notes
func (a *app) days(ctx context.Context) (map[string]domain.DailyTracking, error) {
	notes, err := a.store.All(ctx)
	if err != nil {
		return nil, err
	}
	manual, err := a.records.Load()
	if err != nil {
		return nil, err
	}
	return tracking.Combine(manual, aggregate.Aggregate(notes, a.loc)), nil
}

func (a *app) resolve(ctx context.Context, prefix string) (string, error) {
	id, err := a.store.Resolve(ctx, prefix)
	if errors.Is(err, store.ErrNotFound) {
		return "", fmt.Errorf("note not found: %s", prefix)
	}
	return id, err
}

func addCmd() *cobra.Command {
	var manual bool
	var link string

	cmd := &cobra.Command{
		Use:   "add [text]",
		Short: "Add a journal note",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			raw := strings.Join(args, " ")
			if link == "" && len(args) == 1 && fetcher.IsURL(raw) {
				link, raw = raw, ""
			}

			var attachments []domain.Attachment
			if link != "" {
				page, err := fetcher.Fetcher{}.Fetch(ctx, link)
				if err != nil {
					return fmt.Errorf("fetch %s: %w", link, err)
				}
				if raw == "" {
					raw = page.NoteText()
				}
				attachments = append(attachments, domain.Attachment{
					ID:   uuid.NewString(),
					URL:  page.URL,
					Type: "link",
				})
			}

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			id, err := a.pipeline.ProcessSmartNote(ctx, raw, pipeline.Options{
				AutoTracking: !manual,
				Attachments:  attachments,
			})
			if err != nil {
				return err
			}

			fmt.Printf("Added note: %s\n", id)
			if manual {
				return nil
			}

			fmt.Print("Enriching... ")
			a.pipeline.Wait()
			n, err := a.store.Get(ctx, id)
			if err != nil {
				return err
			}
			if n.Pending {
				fmt.Println("pending (retry later)")
			} else {
				fmt.Println("done")
			}
			fmt.Printf("Summary: %s\n", n.Summary)
			return nil
		},
	}

	cmd.Flags().BoolVar(&manual, "manual", false, "store the text without extracting events")
	cmd.Flags().StringVar(&link, "url", "", "log the readable text of a web page")
	return cmd
}

func editCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit [id] [text]",
		Short: "Replace the text of a note",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			id, err := a.resolve(ctx, args[0])
			if err != nil {
				return err
			}
			if err := a.pipeline.UpdateSmartNote(ctx, id, strings.Join(args[1:], " ")); err != nil {
				return err
			}
			fmt.Printf("Updated note: %s\n", id)
			return nil
		},
	}
}

func retryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "retry [id]",
		Short: "Re-run enrichment for a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			id, err := a.resolve(ctx, args[0])
			if err != nil {
				return err
			}
			if err := a.pipeline.RetrySmartNote(ctx, id); err != nil {
				return err
			}
			a.pipeline.Wait()

			n, err := a.store.Get(ctx, id)
			if err != nil {
				return err
			}
			status := "settled"
			if n.Pending {
				status = "still pending"
			}
			fmt.Printf("%s: %s\n", id, status)
			return nil
		},
	}
}

func rmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm [id]",
		Short: "Delete a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			id, err := a.resolve(ctx, args[0])
			if err != nil {
				return err
			}
			if err := a.store.Delete(ctx, id); err != nil {
				return err
			}
			fmt.Printf("Deleted note: %s\n", id)
			return nil
		},
	}
}

func listCmd() *cobra.Command {
	var limit int
	var before int64

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent notes",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			page, err := a.store.List(ctx, before, limit)
			if err != nil {
				return err
			}

			if len(page.Notes) == 0 {
				fmt.Println("No notes yet. Use 'fitlog add' to create one.")
				return nil
			}

			for _, n := range page.Notes {
				marker := " "
				if n.Pending {
					marker = "*"
				}
				fmt.Printf("%s %s %s  %s\n", shortID(n.ID), marker, n.Time().In(a.loc).Format("2006-01-02 15:04"), truncate(n.Summary, 60))
			}
			if page.HasMore {
				fmt.Printf("(more: --before %d)\n", page.NextCursor)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of notes to show")
	cmd.Flags().Int64Var(&before, "before", 0, "only notes older than this timestamp (ms)")
	return cmd
}

func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [id]",
		Short: "Show note details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			// Find note by prefix
			id, err := a.resolve(ctx, args[0])
			if err != nil {
				return err
			}
			n, err := a.store.Get(ctx, id)
			if err != nil {
				return err
			}

			fmt.Printf("ID:      %s\n", n.ID)
			fmt.Printf("Created: %s\n", n.Time().In(a.loc).Format("2006-01-02 15:04:05"))
			fmt.Printf("Pending: %t\n", n.Pending)
			fmt.Printf("Summary: %s\n", n.Summary)
			fmt.Printf("Text:\n%s\n", n.Raw)

			if len(n.Events) > 0 {
				fmt.Printf("\nEvents:\n")
				for _, e := range n.Events {
					data, err := domain.MarshalEvent(e)
					if err != nil {
						return err
					}
					fmt.Printf("  - %s\n", data)
				}
			}
			if len(n.Attachments) > 0 {
				fmt.Printf("\nAttachments:\n")
				for _, att := range n.Attachments {
					fmt.Printf("  - %s %s\n", att.Type, att.URL)
				}
			}
			return nil
		},
	}
}

func daysCmd() *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "days",
		Short: "Show daily tracking combined from records and notes",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			days, err := a.days(ctx)
			if err != nil {
				return err
			}

			recs := tracking.Range(days, from, to)
			if len(recs) == 0 {
				fmt.Println("No tracking data in range.")
				return nil
			}
			for _, d := range recs {
				fmt.Println(formatDay(d))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "first day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "last day (YYYY-MM-DD)")
	return cmd
}

func trackCmd() *cobra.Command {
	var (
		water, pushups  int
		protein         float64
		weight, bodyFat float64
		sports          []string
		completed       bool
	)

	cmd := &cobra.Command{
		Use:   "track [date|today]",
		Short: "Record manual tracking for a day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			entries := make(map[domain.SportKey]domain.SportEntry, len(sports))
			for _, s := range sports {
				key, entry, err := parseSport(s)
				if err != nil {
					return err
				}
				entries[key] = entry
			}

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			day := args[0]
			if day == "today" {
				day = domain.DayKey(time.Now(), a.loc)
			}

			flags := cmd.Flags()
			_, err = a.records.Update(day, func(d *domain.DailyTracking) {
				if flags.Changed("water") {
					d.Water = water
				}
				if flags.Changed("protein") {
					d.Protein = protein
				}
				if flags.Changed("pushups") {
					d.Pushups = &domain.PushupTally{Total: pushups}
				}
				if flags.Changed("weight") || flags.Changed("body-fat") {
					if d.Weight == nil {
						d.Weight = &domain.WeightEntry{}
					}
					if flags.Changed("weight") {
						d.Weight.Value = &weight
					}
					if flags.Changed("body-fat") {
						d.Weight.BodyFat = &bodyFat
					}
				}
				if len(entries) > 0 {
					d.Sports = tracking.NormalizeSports(d.Sports)
					for k, e := range entries {
						d.Sports[k] = e
					}
				}
				if flags.Changed("completed") {
					d.Completed = completed
				}
			})
			if err != nil {
				return err
			}

			days, err := a.days(ctx)
			if err != nil {
				return err
			}
			fmt.Println(formatDay(tracking.Day(days, day)))
			return nil
		},
	}

	cmd.Flags().IntVar(&water, "water", 0, "water in ml")
	cmd.Flags().Float64Var(&protein, "protein", 0, "protein in g")
	cmd.Flags().IntVar(&pushups, "pushups", 0, "pushup total")
	cmd.Flags().Float64Var(&weight, "weight", 0, "body weight in kg")
	cmd.Flags().Float64Var(&bodyFat, "body-fat", 0, "body fat in percent")
	cmd.Flags().StringArrayVar(&sports, "sport", nil, "sport as key[:minutes[:intensity 1-10]], repeatable")
	cmd.Flags().BoolVar(&completed, "completed", false, "mark the day as completed")
	return cmd
}

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			w, err := aggregate.Watch(ctx, a.store, a.loc, a.log)
			if err != nil {
				return err
			}
			defer w.Close()

			server := api.New(api.Deps{
				Pipeline: a.pipeline,
				Store:    a.store,
				Days:     w,
				Records:  a.records,
				Logger:   a.log,
			}, addr)
			return server.Run(ctx)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", ":8080", "server address")
	return cmd
}
