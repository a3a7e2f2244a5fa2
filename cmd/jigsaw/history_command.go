package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"jigsawreveal/internal/config"
	"jigsawreveal/internal/history"
	"jigsawreveal/internal/services"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent renders",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(ctx, func(store *history.Store) error {
				runs, err := store.Recent(contextOrBackground(cmd), limit)
				if err != nil {
					return err
				}
				if jsonOut {
					if runs == nil {
						runs = []history.Run{}
					}
					return writeJSON(cmd, runs)
				}
				out := cmd.OutOrStdout()
				if len(runs) == 0 {
					fmt.Fprintln(out, "No renders recorded")
					return nil
				}
				rows := make([][]string, 0, len(runs))
				for _, run := range runs {
					rows = append(rows, []string{
						shortID(run.ID),
						run.StartedAt.Local().Format("2006-01-02 15:04"),
						run.Title,
						string(run.Status),
						run.Stage,
						fmt.Sprint(run.Puzzles),
						fmt.Sprint(run.Pages),
						formatSeconds(run.Duration),
					})
				}
				fmt.Fprint(out, renderTable(
					[]string{"Run", "Started", "Title", "Status", "Stage", "Puzzles", "Pages", "Length"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight},
				))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of renders to show (0 for all)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print runs as JSON")

	cmd.AddCommand(newHistoryShowCommand(ctx))
	cmd.AddCommand(newHistoryPruneCommand(ctx))
	return cmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one render",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(ctx, func(store *history.Store) error {
				run, err := findRun(cmd, store, args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Run:      %s\n", run.ID)
				fmt.Fprintf(out, "Title:    %s\n", run.Title)
				fmt.Fprintf(out, "Input:    %s\n", run.InputDir)
				fmt.Fprintf(out, "Status:   %s\n", run.Status)
				fmt.Fprintf(out, "Stage:    %s\n", run.Stage)
				fmt.Fprintf(out, "Started:  %s\n", run.StartedAt.Local().Format(time.RFC3339))
				if run.FinishedAt != nil {
					fmt.Fprintf(out, "Finished: %s\n", run.FinishedAt.Local().Format(time.RFC3339))
				}
				if run.OutputPath != "" {
					fmt.Fprintf(out, "Output:   %s\n", run.OutputPath)
				}
				fmt.Fprintf(out, "Puzzles:  %d (%d pages, %s)\n", run.Puzzles, run.Pages, formatSeconds(run.Duration))
				if run.ErrorKind != "" {
					fmt.Fprintf(out, "Error:    %s: %s\n", run.ErrorKind, run.ErrorMessage)
				}
				return nil
			})
		},
	}
}

func newHistoryPruneCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete finished renders older than a cutoff",
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan <= 0 {
				return services.Wrap(services.ErrConfiguration, "history", "prune", "--older-than must be positive", nil)
			}
			return withHistory(ctx, func(store *history.Store) error {
				n, err := store.Prune(contextOrBackground(cmd), time.Now().Add(-olderThan))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d renders\n", n)
				return nil
			})
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "Age cutoff")
	return cmd
}

func withHistory(ctx *commandContext, fn func(*history.Store) error) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	store, err := openHistoryRequired(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func openHistoryRequired(cfg *config.Config) (*history.Store, error) {
	store, err := openHistory(cfg)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, services.Wrap(services.ErrConfiguration, "history", "open", "paths.history_db is not configured", nil)
	}
	return store, nil
}

// findRun accepts a full run id or a unique prefix of one.
func findRun(cmd *cobra.Command, store *history.Store, id string) (*history.Run, error) {
	id = strings.TrimSpace(id)
	run, err := store.Get(contextOrBackground(cmd), id)
	if err == nil {
		return run, nil
	}
	if !errors.Is(err, history.ErrNotFound) {
		return nil, err
	}
	runs, listErr := store.Recent(contextOrBackground(cmd), 0)
	if listErr != nil {
		return nil, listErr
	}
	var match *history.Run
	for i := range runs {
		if strings.HasPrefix(runs[i].ID, id) {
			if match != nil {
				return nil, fmt.Errorf("run id prefix %q is ambiguous", id)
			}
			match = &runs[i]
		}
	}
	if match == nil {
		return nil, err
	}
	return match, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
