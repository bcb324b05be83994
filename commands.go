package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/gigurra/subsight/internal"
	"github.com/gigurra/subsight/internal/server"
	"github.com/gigurra/subsight/internal/store"
	"github.com/spf13/cobra"
)

type AddParams struct {
	Config      string  `descr:"Path to config file (default ~/.subsight/config.yaml)" optional:"true"`
	Name        string  `descr:"Subscription name" positional:"true"`
	Provider    string  `descr:"Provider or vendor"`
	Category    string  `descr:"Category, e.g. Streaming"`
	Amount      float64 `descr:"Amount charged per billing cycle"`
	Cycle       string  `descr:"Billing cycle" alts:"monthly,yearly,one-time" strict:"true" default:"monthly"`
	Currency    string  `descr:"Currency (default from locale, else USD)" alts:"USD,EUR,GBP,JPY,CAD,AUD" optional:"true"`
	Start       string  `descr:"Start date, YYYY-MM-DD (default today)" optional:"true"`
	Icon        string  `descr:"Icon tag" default:"default"`
	Notes       string  `descr:"Free-text notes" optional:"true"`
	Inactive    bool    `descr:"Add as inactive" default:"false"`
	NoAutoRenew bool    `descr:"Does not renew automatically" default:"false"`
}

func addCmd() *cobra.Command {
	return command(boa.NewCmdT[AddParams]("add").
		WithShort("Add a subscription").
		WithRunFuncE(func(params *AddParams) error {
			a, err := openApp(params.Config)
			if err != nil {
				return err
			}
			defer a.Close()

			sub, err := internal.ValidateRecord(addRecord(params, time.Now(), a.locale.Currency))
			if err != nil {
				return fmt.Errorf("validating subscription: %w", err)
			}
			added, err := a.repo.Add(context.Background(), store.DraftOf(sub))
			if err != nil {
				return fmt.Errorf("adding subscription: %w", err)
			}
			fmt.Printf("Added %s (%s)\n", added.Name, added.ID)
			return nil
		}).
		ToCobraE())
}

type UpdateParams struct {
	Config    string `descr:"Path to config file (default ~/.subsight/config.yaml)" optional:"true"`
	ID        string `descr:"Subscription id" positional:"true"`
	Name      string `descr:"New name" optional:"true"`
	Provider  string `descr:"New provider" optional:"true"`
	Category  string `descr:"New category" optional:"true"`
	Amount    string `descr:"New amount" optional:"true"`
	Cycle     string `descr:"New billing cycle (monthly, yearly, one-time)" optional:"true"`
	Currency  string `descr:"New currency" optional:"true"`
	Start     string `descr:"New start date, YYYY-MM-DD" optional:"true"`
	Icon      string `descr:"New icon tag" optional:"true"`
	Notes     string `descr:"New notes" optional:"true"`
	Active    string `descr:"Set active status (true/false)" optional:"true"`
	AutoRenew string `descr:"Set auto-renew (true/false)" optional:"true"`
}

func updateCmd() *cobra.Command {
	return command(boa.NewCmdT[UpdateParams]("update").
		WithShort("Change fields of a subscription").
		WithLong("Changes only the fields that are given. Use 'list' to find subscription ids.").
		WithRunFuncE(func(params *UpdateParams) error {
			patch, err := updatePatch(params)
			if err != nil {
				return fmt.Errorf("validating update: %w", err)
			}
			if patch.IsEmpty() {
				return errors.New("nothing to change")
			}

			a, err := openApp(params.Config)
			if err != nil {
				return err
			}
			defer a.Close()

			updated, err := a.repo.Update(context.Background(), params.ID, patch)
			if err != nil {
				return fmt.Errorf("updating subscription: %w", err)
			}
			fmt.Printf("Updated %s (%s)\n", updated.Name, updated.ID)
			return nil
		}).
		ToCobraE())
}

type DeleteParams struct {
	Config string `descr:"Path to config file (default ~/.subsight/config.yaml)" optional:"true"`
	ID     string `descr:"Subscription id" positional:"true"`
}

func deleteCmd() *cobra.Command {
	return command(boa.NewCmdT[DeleteParams]("delete").
		WithShort("Delete a subscription").
		WithRunFuncE(func(params *DeleteParams) error {
			a, err := openApp(params.Config)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.repo.Delete(context.Background(), params.ID); err != nil {
				return fmt.Errorf("deleting subscription: %w", err)
			}
			fmt.Printf("Deleted %s\n", params.ID)
			return nil
		}).
		ToCobraE())
}

type ListParams struct {
	Config   string `descr:"Path to config file (default ~/.subsight/config.yaml)" optional:"true"`
	Show     string `descr:"Which subscriptions to show" alts:"active,inactive,all" strict:"true" default:"all"`
	Category string `descr:"Only show one category" optional:"true"`
	Sort     string `descr:"Sort by field" alts:"name,amount,annual,start" strict:"true" default:"name"`
	SortDir  string `descr:"Sort direction" alts:"asc,desc" strict:"true" default:"asc"`
	Output   string `descr:"Output format" alts:"table,json" strict:"true" default:"table"`
}

func listCmd() *cobra.Command {
	return command(boa.NewCmdT[ListParams]("list").
		WithShort("List subscriptions").
		WithRunFuncE(func(params *ListParams) error {
			a, err := openApp(params.Config)
			if err != nil {
				return err
			}
			defer a.Close()

			subs, err := a.repo.List(context.Background())
			if err != nil {
				return fmt.Errorf("listing subscriptions: %w", err)
			}
			shown := internal.FilterByCategory(internal.FilterByStatus(internal.Clone(subs), params.Show), params.Category)

			if params.Output == "json" {
				internal.SortSubscriptions(shown, params.Sort, params.SortDir)
				currency := internal.DisplayCurrency(a.cfg.DisplayCurrencyCode(), subs)
				if err := internal.PrintSubscriptionsJSON(os.Stdout, shown, time.Now().Year(), currency); err != nil {
					return fmt.Errorf("writing JSON: %w", err)
				}
				return nil
			}

			if len(subs) == 0 {
				fmt.Println("No subscriptions yet. Add one with 'subsight add'.")
				return nil
			}
			internal.PrintSubscriptionsTable(os.Stdout, subs, shown, internal.ListOptions{
				ShowFilter: params.Show,
				Category:   params.Category,
				SortField:  params.Sort,
				SortDir:    params.SortDir,
				Money:      a.money(subs),
			})
			return nil
		}).
		ToCobraE())
}

type ImportParams struct {
	Config string `descr:"Path to config file (default ~/.subsight/config.yaml)" optional:"true"`
	File   string `descr:"File to import, optionally prefixed with its format (json:, csv:, xlsx:)" positional:"true"`
}

func importCmd() *cobra.Command {
	return command(boa.NewCmdT[ImportParams]("import").
		WithShort("Replace all subscriptions with the contents of a file").
		WithLong("Reads subscriptions from a JSON, CSV or XLSX file. Every record is validated first; " +
			"nothing is changed unless the whole file is valid. The format is taken from the " +
			"extension unless given as a prefix, e.g. csv:export.txt.").
		WithRunFuncE(func(params *ImportParams) error {
			subs, err := internal.ImportFile(params.File)
			if err != nil {
				return fmt.Errorf("importing: %w", err)
			}

			a, err := openApp(params.Config)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.repo.Import(context.Background(), subs)
			if err != nil {
				return fmt.Errorf("importing: %w", err)
			}
			fmt.Printf("Imported %d subscriptions\n", n)
			return nil
		}).
		ToCobraE())
}

type ExportParams struct {
	Config string `descr:"Path to config file (default ~/.subsight/config.yaml)" optional:"true"`
	Format string `descr:"Export format" positional:"true" alts:"json,csv,xlsx" strict:"true"`
	Out    string `descr:"Output file, - for stdout (default subscriptions.<format>)" optional:"true"`
	Year   int    `descr:"Report year for xlsx (default current year)" default:"0"`
}

func exportCmd() *cobra.Command {
	return command(boa.NewCmdT[ExportParams]("export").
		WithShort("Export subscriptions as JSON, CSV or an XLSX report").
		WithRunFuncE(func(params *ExportParams) error {
			exporter, err := internal.GetExporter(params.Format)
			if err != nil {
				return fmt.Errorf("exporting: %w", err)
			}

			a, err := openApp(params.Config)
			if err != nil {
				return err
			}
			defer a.Close()

			subs, err := a.repo.List(context.Background())
			if err != nil {
				return fmt.Errorf("exporting: %w", err)
			}
			now := time.Now()
			opts := internal.ExportOptions{
				Year:     reportYear(params.Year, now),
				Currency: internal.DisplayCurrency(a.cfg.DisplayCurrencyCode(), subs),
				Now:      now,
			}

			out := params.Out
			if out == "" {
				out = internal.ExportFileName(params.Format)
			}
			if out == "-" {
				err = exporter.Export(os.Stdout, subs, opts)
			} else {
				err = exportToFile(out, exporter, subs, opts)
			}
			if err != nil {
				return fmt.Errorf("exporting: %w", err)
			}
			a.tracker.Track(internal.ExportEvent(params.Format), map[string]any{"count": len(subs)})
			if out != "-" {
				fmt.Printf("Exported %d subscriptions to %s\n", len(subs), out)
			}
			return nil
		}).
		ToCobraE())
}

func exportToFile(path string, exporter internal.Exporter, subs []internal.Subscription, opts internal.ExportOptions) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := exporter.Export(f, subs, opts); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

type ReportParams struct {
	Config   string `descr:"Path to config file (default ~/.subsight/config.yaml)" optional:"true"`
	Year     int    `descr:"Year for annual figures and the timeline (default current year)" default:"0"`
	Simulate string `descr:"What-if status changes, e.g. <id>=false,<id>=true" optional:"true"`
	Output   string `descr:"Output format" alts:"table,json" strict:"true" default:"table"`
}

func reportCmd() *cobra.Command {
	return command(boa.NewCmdT[ReportParams]("report").
		WithShort("Show costs, spending by category and projections").
		WithLong("Shows monthly and annual cost, spending by category, a 12-month projection and the " +
			"year-over-year trend. --simulate toggles subscriptions on or off without saving, and " +
			"reports the difference as potential savings.").
		WithRunFuncE(func(params *ReportParams) error {
			sim, err := internal.ParseSimulation(params.Simulate)
			if err != nil {
				return fmt.Errorf("parsing --simulate: %w", err)
			}

			a, err := openApp(params.Config)
			if err != nil {
				return err
			}
			defer a.Close()

			subs, err := a.repo.List(context.Background())
			if err != nil {
				return fmt.Errorf("loading subscriptions: %w", err)
			}
			if !sim.IsEmpty() {
				a.tracker.Track(internal.EventSimulationToggled, map[string]any{"overrides": len(sim.Overrides())})
			}

			dashboard := internal.BuildDashboard(subs, sim, reportYear(params.Year, time.Now()), a.cfg.DisplayCurrencyCode())
			if params.Output == "json" {
				if err := internal.PrintDashboardJSON(os.Stdout, dashboard); err != nil {
					return fmt.Errorf("writing JSON: %w", err)
				}
				return nil
			}
			internal.PrintDashboard(os.Stdout, dashboard, internal.NewMoney(dashboard.Currency, a.locale.Tag))
			return nil
		}).
		ToCobraE())
}

type ServeParams struct {
	Config string `descr:"Path to config file (default ~/.subsight/config.yaml)" optional:"true"`
	Addr   string `descr:"Listen address (default from config, 127.0.0.1:8787)" optional:"true"`
}

func serveCmd() *cobra.Command {
	return command(boa.NewCmdT[ServeParams]("serve").
		WithShort("Serve the dashboard API on localhost").
		WithRunFuncE(func(params *ServeParams) error {
			a, err := openApp(params.Config)
			if err != nil {
				return err
			}
			defer a.Close()

			addr := a.cfg.Server.Addr
			if params.Addr != "" {
				addr = params.Addr
			}
			srv := server.New(a.repo, a.log, server.Options{
				Addr:     addr,
				Currency: a.cfg.DisplayCurrencyCode(),
				Limiter:  internal.NewRateLimiter(a.cfg.Server.RateLimit, a.cfg.Server.RateWindow),
				Tracker:  a.tracker,
			})

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			fmt.Printf("Dashboard API listening on http://%s (Ctrl+C to stop)\n", addr)
			if err := srv.Run(ctx); err != nil {
				return fmt.Errorf("serving: %w", err)
			}
			return nil
		}).
		ToCobraE())
}

type ConfigInitParams struct {
	Path  string `descr:"Where to write the config (default ~/.subsight/config.yaml)" optional:"true"`
	Force bool   `descr:"Overwrite an existing file" default:"false"`
}

func configInitCmd() *cobra.Command {
	return command(boa.NewCmdT[ConfigInitParams]("init").
		WithShort("Write a config file with the default settings").
		WithRunFuncE(func(params *ConfigInitParams) error {
			path := params.Path
			if path == "" {
				path = internal.DefaultConfigPath()
			}
			if err := writeDefaultConfig(path, params.Force); err != nil {
				return fmt.Errorf("writing config: %w", err)
			}
			fmt.Printf("Wrote %s\n", path)
			return nil
		}).
		ToCobraE())
}

func writeDefaultConfig(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return internal.NewDefaultConfig().Save(path)
}
