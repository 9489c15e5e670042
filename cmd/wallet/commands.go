package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"smartwallet/internal/core"
	"smartwallet/internal/export"
)

func catchupCmd() *cobra.Command {
	var every time.Duration

	cmd := &cobra.Command{
		Use:   "catchup",
		Short: "Materialize due recurring transactions",
		Long: `Emit one transaction for every period a recurring configuration has
fallen behind and advance its schedule. Running it twice in a row emits
nothing the second time.

With --every the catch-up repeats on that interval until interrupted. Do not
run it against a store the server is using; the server catches up on its own.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			// openApp already runs one catch-up.
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.persistError(); err != nil {
				return err
			}
			if every <= 0 {
				fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("Ledger caught up at version %d", a.ledger.Version())))
				return nil
			}

			ticker := time.NewTicker(every)
			defer ticker.Stop()
			a.logger.InfoContext(ctx, "Recurring catch-up scheduled", "interval", every)
			for {
				select {
				case <-ctx.Done():
					a.logger.Info("Recurring catch-up stopped")
					return nil
				case <-ticker.C:
					if _, err := a.recurring.ProcessDue(ctx); err != nil {
						a.logger.ErrorContext(ctx, "Recurring catch-up failed", "error", err)
						continue
					}
					if err := a.persistError(); err != nil {
						a.logger.ErrorContext(ctx, "Recurring catch-up not saved", "error", err)
					}
				}
			}
		},
	}

	cmd.Flags().DurationVar(&every, "every", 0, "repeat the catch-up on this interval")
	return cmd
}

func statsCmd() *cobra.Command {
	var currencyCode string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print balances, budgets, forecast and goals",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			code := a.currency()
			if currencyCode != "" {
				code = strings.ToUpper(currencyCode)
			}
			stats := a.engine.Stats(cmd.Context())
			fmt.Fprint(cmd.OutOrStdout(), renderStats(stats, a.ledger.Snapshot().Goals, code))
			return nil
		},
	}

	cmd.Flags().StringVar(&currencyCode, "currency", "", "display currency (default: stored preference)")
	return cmd
}

func exportCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the ledger to a CSV file",
		Long: `Write every transaction to SmartWallet_Data_<date>.csv in --dir. Amounts
are written in the stored unit (MRU) whatever the display currency, and
descriptions outside the Latin script are replaced by the category name.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			path := filepath.Join(dir, export.FileName(core.DateOf(a.ledger.Now()).String()))
			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("create export file: %w", err)
			}
			w := bufio.NewWriter(f)

			res, err := export.NewExporter(nil, a.logger).Export(ctx, a.ledger.Snapshot().Transactions, w)
			if err == nil {
				err = w.Flush()
			}
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return fmt.Errorf("export: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("Exported %d transactions to %s", res.Rows, path)))
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "directory to write the file to")
	return cmd
}

func resetCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete every transaction, budget, goal and preference",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return fmt.Errorf("refusing to reset without --yes")
			}
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.ledger.ResetAll(ctx); err != nil {
				return err
			}
			if err := a.persistError(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), warnStyle.Render("All wallet data deleted"))
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the reset")
	return cmd
}
